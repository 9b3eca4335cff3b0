// Package exam holds the per-student test progress: resumable question
// selections, latest submissions and the scored results ledger.
package exam

// Key locates one student's state within a sub-unit.
type Key struct {
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
	UnitID    string `json:"unit_id"`
	SubUnitID string `json:"sub_unit_id"`
}

// Track is the question type a test runs over.
type Track string

const (
	TrackCoding Track = "coding"
	TrackMCQ    Track = "mcq"
)

func (t Track) Valid() bool { return t == TrackCoding || t == TrackMCQ }

// TrackStatus is the lifecycle of one track within a resume record.
type TrackStatus string

const (
	StatusNotStarted TrackStatus = "not_started"
	StatusResumed    TrackStatus = "resumed"
	StatusCompleted  TrackStatus = "completed"
)

// ResumeRecord holds both tracks for one Key. A non-empty ID list means the
// student is mid-attempt on exactly those questions.
type ResumeRecord struct {
	Key
	CodingIDs    []string    `json:"coding_ids"`
	CodingStatus TrackStatus `json:"coding_status"`
	MCQIDs       []string    `json:"mcq_ids"`
	MCQStatus    TrackStatus `json:"mcq_status"`
}

// SubmissionStatus distinguishes a practice save from a graded attempt.
type SubmissionStatus string

const (
	SubmissionResumed   SubmissionStatus = "resumed"
	SubmissionSubmitted SubmissionStatus = "submitted"
)

// Submission is the latest attempt for one question. Keyed by
// (student, course, unit, sub-unit, question); history is not retained.
type Submission struct {
	Key
	QuestionID  string           `json:"question_id"`
	Code        string           `json:"code"`
	LanguageID  int              `json:"language_id"`
	Status      SubmissionStatus `json:"status"`
	SubmittedAt int64            `json:"submitted_at"`
}

// Result is the scored outcome of one test (sub-unit x track).
type Result struct {
	UniversityID  string  `json:"university_id"`
	StudentID     string  `json:"student_id"`
	CourseID      string  `json:"course_id"`
	UnitID        string  `json:"unit_id"`
	SubUnitID     string  `json:"sub_unit_id"`
	ResultType    Track   `json:"result_type"`
	MarksObtained float64 `json:"marks_obtained"`
	TotalMarks    float64 `json:"total_marks"`
	SubmittedAt   int64   `json:"submitted_at"`
}

// ResumeKind tags the branch a selection call takes. Decided once per call,
// never re-checked downstream.
type ResumeKind int

const (
	NoResumeState ResumeKind = iota
	ResumedCoding
	ResumedMCQ
)

type ResumeState struct {
	Kind ResumeKind
	IDs  []string
}

// resumeStateFor collapses a stored record (or its absence) into the branch
// decision for the requested track.
func resumeStateFor(rec ResumeRecord, found bool, track Track) ResumeState {
	if !found {
		return ResumeState{Kind: NoResumeState}
	}
	switch track {
	case TrackCoding:
		if len(rec.CodingIDs) > 0 {
			return ResumeState{Kind: ResumedCoding, IDs: rec.CodingIDs}
		}
	case TrackMCQ:
		if len(rec.MCQIDs) > 0 {
			return ResumeState{Kind: ResumedMCQ, IDs: rec.MCQIDs}
		}
	}
	return ResumeState{Kind: NoResumeState}
}
