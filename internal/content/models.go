package content

// TestCase is one judge-only input/output pair. Never served to students.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// CodingQuestion holds the public prompt plus the private grading material.
// ReferenceSolution and HiddenTests must never reach a student-facing
// response; StudentView strips them.
type CodingQuestion struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	PromptHTML   string `json:"prompt_html,omitempty"`
	Constraints  string `json:"constraints,omitempty"`
	SampleInput  string `json:"sample_input,omitempty"`
	SampleOutput string `json:"sample_output,omitempty"`

	ReferenceSolution string     `json:"reference_solution,omitempty"`
	HiddenTests       []TestCase `json:"hidden_tests,omitempty"`
}

// StudentView returns a copy safe to serialize into student responses.
func (q CodingQuestion) StudentView() CodingQuestion {
	q.ReferenceSolution = ""
	q.HiddenTests = nil
	return q
}

type Choice struct {
	ID        string `json:"id,omitempty"`
	LabelHTML string `json:"label_html,omitempty"`
}

type MCQQuestion struct {
	ID         string   `json:"id"`
	PromptHTML string   `json:"prompt_html,omitempty"`
	Choices    []Choice `json:"choices,omitempty"`
	AnswerKey  []string `json:"answer_key,omitempty"`
	Points     float64  `json:"points"`
}

// SubUnit is the smallest content node; it carries the coding and MCQ banks.
type SubUnit struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// DisplayCount is how many coding questions of the bank a student gets.
	DisplayCount int  `json:"display_count,omitempty"`
	ShuffleMCQ   bool `json:"shuffle_mcq,omitempty"`

	// SecurityCode gates entry into a proctored test when non-empty.
	SecurityCode string `json:"security_code,omitempty"`

	// Banks keep authored order; MCQ delivery order depends on it when
	// ShuffleMCQ is off.
	Coding []CodingQuestion `json:"coding,omitempty"`
	MCQ    []MCQQuestion    `json:"mcq,omitempty"`
}

const DefaultDisplayCount = 2

// EffectiveDisplayCount resolves the configured bank slice size.
func (s SubUnit) EffectiveDisplayCount() int {
	if s.DisplayCount > 0 {
		return s.DisplayCount
	}
	return DefaultDisplayCount
}

type Unit struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	SubUnits map[string]SubUnit `json:"sub_units,omitempty"`
}

type Course struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Units map[string]Unit `json:"units,omitempty"`
}
