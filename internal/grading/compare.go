package grading

import "strings"

// Verdict is the aggregate outcome of one grading run.
type Verdict string

const (
	VerdictAccepted Verdict = "Accepted"
	VerdictRejected Verdict = "Rejected"
	VerdictError    Verdict = "Error"
)

// outputsMatch compares stdouts after trimming leading/trailing whitespace.
// Internal whitespace is significant; there is no numeric tolerance.
func outputsMatch(reference, user string) bool {
	return strings.TrimSpace(user) == strings.TrimSpace(reference)
}

// caseOutcome is one pairwise comparison of a reference run and a user run.
type caseOutcome struct {
	passed  bool
	refOut  string
	userOut string
	message string // compiler/runtime diagnostic from either run, if any
}

// verdictFor rolls per-case outcomes into the aggregate: Accepted when every
// case passed, Error when any case carries a diagnostic, Rejected otherwise.
func verdictFor(cases []caseOutcome) Verdict {
	allPassed := true
	hasMessage := false
	for _, c := range cases {
		if !c.passed {
			allPassed = false
		}
		if c.message != "" {
			hasMessage = true
		}
	}
	switch {
	case allPassed:
		return VerdictAccepted
	case hasMessage:
		return VerdictError
	default:
		return VerdictRejected
	}
}
