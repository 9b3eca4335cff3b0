package exam

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/educode/educode-backend/internal/syncx"
)

// PassThreshold is the fraction of total marks needed to pass a test.
const PassThreshold = 0.5

// Ledger records final scored attempts and resets resume state. Event
// appends are best-effort and never fail the caller.
type Ledger struct {
	progress ProgressStore
	events   *syncx.EventRepo
}

func NewLedger(ps ProgressStore, events *syncx.EventRepo) *Ledger {
	return &Ledger{progress: ps, events: events}
}

// RecordTestResult replaces the Result row for the composite key, then marks
// the matching resume track completed with an empty ID list so the test can
// no longer be resumed. If the result write fails nothing else happens; if
// the resume reset fails the result is already durable and the error is
// surfaced so the caller can retry the reset.
func (l *Ledger) RecordTestResult(ctx context.Context, r Result) error {
	if err := l.progress.ReplaceResult(ctx, r); err != nil {
		return fmt.Errorf("record result: %w", err)
	}

	key := Key{StudentID: r.StudentID, CourseID: r.CourseID, UnitID: r.UnitID, SubUnitID: r.SubUnitID}
	if err := l.progress.SetResumeTrack(ctx, key, r.ResultType, nil, StatusCompleted); err != nil {
		return fmt.Errorf("result recorded but resume reset failed: %w", err)
	}

	if l.events != nil {
		data, _ := json.Marshal(r)
		_ = l.events.Append(ctx, syncx.Event{
			Type:     syncx.TypeTestResultRecorded,
			Key:      fmt.Sprintf("%s/%s/%s/%s/%s", r.StudentID, r.CourseID, r.UnitID, r.SubUnitID, r.ResultType),
			DataJSON: string(data),
		})
	}
	return nil
}

// ResultStatus is the read-back view of a recorded test.
type ResultStatus struct {
	Found      bool    `json:"found"`
	Result     *Result `json:"result,omitempty"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

// TestResultStatus reports whether a test was taken and, if so, the score
// percentage and pass/fail at the 50% threshold.
func (l *Ledger) TestResultStatus(ctx context.Context, universityID string, key Key, track Track) (ResultStatus, error) {
	r, found, err := l.progress.GetResult(ctx, universityID, key, track)
	if err != nil {
		return ResultStatus{}, fmt.Errorf("read result: %w", err)
	}
	if !found {
		return ResultStatus{Found: false}, nil
	}
	st := ResultStatus{Found: true, Result: &r}
	if r.TotalMarks > 0 {
		st.Percentage = r.MarksObtained / r.TotalMarks * 100
		st.Passed = r.MarksObtained/r.TotalMarks >= PassThreshold
	}
	return st, nil
}

// AttemptSnapshot is one in-flight answer persisted when a student leaves a
// test mid-way.
type AttemptSnapshot struct {
	QuestionID string `json:"question_id"`
	Code       string `json:"code"`
	LanguageID int    `json:"language_id"`
}

// SaveAttempts stores the latest code for each in-play question and pins the
// resume ID list to exactly those questions, so the next entry replays them.
func (l *Ledger) SaveAttempts(ctx context.Context, key Key, track Track, attempts []AttemptSnapshot, now int64) error {
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.QuestionID)
		if track != TrackCoding {
			continue
		}
		sub := Submission{
			Key:         key,
			QuestionID:  a.QuestionID,
			Code:        a.Code,
			LanguageID:  a.LanguageID,
			Status:      SubmissionResumed,
			SubmittedAt: now,
		}
		if err := l.progress.UpsertSubmission(ctx, sub); err != nil {
			return fmt.Errorf("save attempt for %s: %w", a.QuestionID, err)
		}
	}

	if err := l.progress.SetResumeTrack(ctx, key, track, ids, StatusResumed); err != nil {
		return fmt.Errorf("pin resume list: %w", err)
	}

	if l.events != nil {
		data, _ := json.Marshal(map[string]any{"key": key, "track": track, "count": len(attempts)})
		_ = l.events.Append(ctx, syncx.Event{
			Type:     syncx.TypeAttemptSaved,
			Key:      fmt.Sprintf("%s/%s/%s/%s/%s", key.StudentID, key.CourseID, key.UnitID, key.SubUnitID, track),
			DataJSON: string(data),
		})
	}
	return nil
}
