// Package grading runs student code against reference solutions or hidden
// tests via the remote judge and rolls the comparisons into verdicts.
package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/educode/educode-backend/internal/content"
	"github.com/educode/educode-backend/internal/exam"
	"github.com/educode/educode-backend/internal/judge"
)

// ErrNoHiddenTests means a question has no hidden test list; a final
// submission cannot be graded against nothing.
var ErrNoHiddenTests = errors.New("question has no hidden test cases")

// ErrNoSamples means a practice run arrived without sample cases. An empty
// comparison would be vacuously Accepted, so it is rejected instead.
var ErrNoSamples = errors.New("practice run has no sample cases")

// DefaultPointsPerCase is the fixed weight of one hidden test case.
const DefaultPointsPerCase = 1.0

type Engine struct {
	judge    judge.Runner
	content  content.Store
	progress exam.ProgressStore
	cache    *ArtifactCache

	pointsPerCase float64
	now           func() time.Time
}

type EngineOption func(*Engine)

func WithPointsPerCase(p float64) EngineOption {
	return func(e *Engine) { e.pointsPerCase = p }
}

// WithClock fixes the timestamp source, used by tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(j judge.Runner, cs content.Store, ps exam.ProgressStore, cache *ArtifactCache, opts ...EngineOption) *Engine {
	e := &Engine{
		judge:         j,
		content:       cs,
		progress:      ps,
		cache:         cache,
		pointsPerCase: DefaultPointsPerCase,
		now:           time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Cache exposes the artifact cache, e.g. for an operator invalidation hook.
func (e *Engine) Cache() *ArtifactCache { return e.cache }

// SamplePair is one visible input/expected-output pair supplied with a
// practice run.
type SamplePair struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// SampleResult echoes the sample back with the comparison outcome.
type SampleResult struct {
	Input          string `json:"input"`
	Passed         bool   `json:"passed"`
	ExpectedOutput string `json:"expected_output"`
	UserOutput     string `json:"user_output"`
	Message        string `json:"message,omitempty"`
}

type PracticeInput struct {
	Key        exam.Key
	QuestionID string
	Code       string
	LanguageID int
	Samples    []SamplePair
}

type PracticeReport struct {
	Verdict Verdict        `json:"verdict"`
	Samples []SampleResult `json:"samples"`
}

// RunPractice executes the user's code against the visible samples. The
// question's reference solution is re-run alongside on every call rather
// than trusting a cached expected output: comparison correctness is
// re-established each time at the cost of doubled judge load.
func (e *Engine) RunPractice(ctx context.Context, in PracticeInput) (PracticeReport, error) {
	if len(in.Samples) == 0 {
		return PracticeReport{}, ErrNoSamples
	}
	arts, err := e.artifacts(ctx, in.Key, in.QuestionID)
	if err != nil {
		return PracticeReport{}, err
	}

	// A practice run is not a graded attempt; it only refreshes the
	// resumable last-submission.
	sub := exam.Submission{
		Key:         in.Key,
		QuestionID:  in.QuestionID,
		Code:        in.Code,
		LanguageID:  in.LanguageID,
		Status:      exam.SubmissionResumed,
		SubmittedAt: e.now().Unix(),
	}
	if err := e.progress.UpsertSubmission(ctx, sub); err != nil {
		return PracticeReport{}, fmt.Errorf("save practice submission: %w", err)
	}

	stdins := make([]string, len(in.Samples))
	for i, s := range in.Samples {
		stdins[i] = s.Input
	}
	outcomes, err := e.compareRuns(ctx, arts.ReferenceSolution, in.Code, in.LanguageID, stdins)
	if err != nil {
		return PracticeReport{}, err
	}

	report := PracticeReport{Verdict: verdictFor(outcomes), Samples: make([]SampleResult, len(outcomes))}
	for i, c := range outcomes {
		report.Samples[i] = SampleResult{
			Input:          in.Samples[i].Input,
			Passed:         c.passed,
			ExpectedOutput: c.refOut,
			UserOutput:     c.userOut,
			Message:        c.message,
		}
	}
	return report, nil
}

type FinalInput struct {
	Key        exam.Key
	QuestionID string
	Code       string
	LanguageID int
}

// HiddenCaseResult reports a hidden case without echoing its input or
// expected output.
type HiddenCaseResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

type FinalReport struct {
	Verdict       Verdict            `json:"verdict"`
	PassedCount   int                `json:"passed_count"`
	TotalCount    int                `json:"total_count"`
	MarksObtained float64            `json:"marks_obtained"`
	Cases         []HiddenCaseResult `json:"cases"`
}

// RunFinal grades the user's code against the question's hidden tests and
// marks the submission as a graded attempt.
func (e *Engine) RunFinal(ctx context.Context, in FinalInput) (FinalReport, error) {
	arts, err := e.artifacts(ctx, in.Key, in.QuestionID)
	if err != nil {
		return FinalReport{}, err
	}
	if len(arts.HiddenTests) == 0 {
		return FinalReport{}, fmt.Errorf("question %s: %w", in.QuestionID, ErrNoHiddenTests)
	}

	sub := exam.Submission{
		Key:         in.Key,
		QuestionID:  in.QuestionID,
		Code:        in.Code,
		LanguageID:  in.LanguageID,
		Status:      exam.SubmissionSubmitted,
		SubmittedAt: e.now().Unix(),
	}
	if err := e.progress.UpsertSubmission(ctx, sub); err != nil {
		return FinalReport{}, fmt.Errorf("save final submission: %w", err)
	}

	stdins := make([]string, len(arts.HiddenTests))
	for i, tc := range arts.HiddenTests {
		stdins[i] = tc.Input
	}
	outcomes, err := e.compareRuns(ctx, arts.ReferenceSolution, in.Code, in.LanguageID, stdins)
	if err != nil {
		return FinalReport{}, err
	}

	report := FinalReport{
		Verdict:    verdictFor(outcomes),
		TotalCount: len(outcomes),
		Cases:      make([]HiddenCaseResult, len(outcomes)),
	}
	for i, c := range outcomes {
		if c.passed {
			report.PassedCount++
		}
		report.Cases[i] = HiddenCaseResult{Passed: c.passed, Message: c.message}
	}
	report.MarksObtained = float64(report.PassedCount) * e.pointsPerCase
	return report, nil
}

// compareRuns dispatches reference and user code against every stdin in one
// judge batch and pairs the results back up by position. Units are submitted
// adjacently (ref, user) per case and the judge's token order matches
// submission order, so index arithmetic recombines them.
func (e *Engine) compareRuns(ctx context.Context, refCode, userCode string, languageID int, stdins []string) ([]caseOutcome, error) {
	units := make([]judge.Unit, 0, 2*len(stdins))
	for _, stdin := range stdins {
		units = append(units,
			judge.Unit{SourceCode: refCode, LanguageID: languageID, Stdin: stdin},
			judge.Unit{SourceCode: userCode, LanguageID: languageID, Stdin: stdin},
		)
	}

	results, err := e.judge.RunBatch(ctx, units)
	if err != nil {
		return nil, fmt.Errorf("judge batch: %w", err)
	}
	if len(results) != len(units) {
		return nil, fmt.Errorf("judge returned %d results for %d units", len(results), len(units))
	}

	outcomes := make([]caseOutcome, len(stdins))
	for i := range stdins {
		ref := results[2*i]
		user := results[2*i+1]
		// A diagnostic on either side must surface: a crashing reference
		// run means the comparison baseline itself is broken.
		msg := user.ErrorMessage()
		if msg == "" {
			msg = ref.ErrorMessage()
		}
		outcomes[i] = caseOutcome{
			passed:  outputsMatch(ref.Stdout, user.Stdout),
			refOut:  strings.TrimSpace(ref.Stdout),
			userOut: strings.TrimSpace(user.Stdout),
			message: msg,
		}
	}
	return outcomes, nil
}

// artifacts resolves the reference solution and hidden tests through the
// cache, falling back to the content store on a miss.
func (e *Engine) artifacts(ctx context.Context, key exam.Key, questionID string) (Artifacts, error) {
	if a, ok := e.cache.Get(key.CourseID, key.UnitID, key.SubUnitID, questionID); ok {
		return a, nil
	}
	q, err := e.content.GetCodingQuestion(ctx, key.CourseID, key.UnitID, key.SubUnitID, questionID)
	if err != nil {
		return Artifacts{}, err
	}
	a := Artifacts{ReferenceSolution: q.ReferenceSolution, HiddenTests: q.HiddenTests}
	e.cache.Put(key.CourseID, key.UnitID, key.SubUnitID, questionID, a)
	return a, nil
}
