package exam_test

import (
	"context"
	"testing"

	"github.com/educode/educode-backend/internal/exam"
)

func testResult(marks, total float64) exam.Result {
	return exam.Result{
		UniversityID:  "uni1",
		StudentID:     testKey.StudentID,
		CourseID:      testKey.CourseID,
		UnitID:        testKey.UnitID,
		SubUnitID:     testKey.SubUnitID,
		ResultType:    exam.TrackCoding,
		MarksObtained: marks,
		TotalMarks:    total,
		SubmittedAt:   1700000000,
	}
}

func TestRecordTestResultClosesResumeState(t *testing.T) {
	ps := newFakeProgress()
	ledger := exam.NewLedger(ps, nil)
	ctx := context.Background()

	// Mid-test state that must be wiped by the final submission.
	if err := ps.SetResumeTrack(ctx, testKey, exam.TrackCoding, []string{"c1", "c2"}, exam.StatusResumed); err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	if err := ps.SetResumeTrack(ctx, testKey, exam.TrackMCQ, []string{"m1"}, exam.StatusResumed); err != nil {
		t.Fatalf("seed resume: %v", err)
	}

	if err := ledger.RecordTestResult(ctx, testResult(6, 10)); err != nil {
		t.Fatalf("record: %v", err)
	}

	rec := ps.resume[testKey]
	if len(rec.CodingIDs) != 0 || rec.CodingStatus != exam.StatusCompleted {
		t.Fatalf("coding track not closed: %+v", rec)
	}
	// The other track stays mid-attempt.
	if len(rec.MCQIDs) != 1 || rec.MCQStatus != exam.StatusResumed {
		t.Fatalf("mcq track must be untouched: %+v", rec)
	}

	got, found, err := ps.GetResult(ctx, "uni1", testKey, exam.TrackCoding)
	if err != nil || !found {
		t.Fatalf("result not stored: found=%v err=%v", found, err)
	}
	if got.MarksObtained != 6 || got.TotalMarks != 10 {
		t.Fatalf("wrong stored result: %+v", got)
	}
}

func TestRecordTestResultReplacesPreviousScore(t *testing.T) {
	ps := newFakeProgress()
	ledger := exam.NewLedger(ps, nil)
	ctx := context.Background()

	if err := ledger.RecordTestResult(ctx, testResult(3, 10)); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := ledger.RecordTestResult(ctx, testResult(9, 10)); err != nil {
		t.Fatalf("second record: %v", err)
	}

	got, _, err := ps.GetResult(ctx, "uni1", testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MarksObtained != 9 {
		t.Fatalf("retake must replace the old score, got %v", got.MarksObtained)
	}
}

func TestTestResultStatusThreshold(t *testing.T) {
	tests := []struct {
		name       string
		marks      float64
		total      float64
		wantPassed bool
		wantPct    float64
	}{
		{"exactly half passes", 5, 10, true, 50},
		{"under half fails", 4, 10, false, 40},
		{"full marks passes", 10, 10, true, 100},
		{"zero fails", 0, 10, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ps := newFakeProgress()
			ledger := exam.NewLedger(ps, nil)
			ctx := context.Background()

			if err := ledger.RecordTestResult(ctx, testResult(tc.marks, tc.total)); err != nil {
				t.Fatalf("record: %v", err)
			}
			st, err := ledger.TestResultStatus(ctx, "uni1", testKey, exam.TrackCoding)
			if err != nil {
				t.Fatalf("status: %v", err)
			}
			if !st.Found {
				t.Fatal("result must be found")
			}
			if st.Passed != tc.wantPassed {
				t.Fatalf("passed=%v, want %v", st.Passed, tc.wantPassed)
			}
			if st.Percentage != tc.wantPct {
				t.Fatalf("percentage=%v, want %v", st.Percentage, tc.wantPct)
			}
		})
	}
}

func TestTestResultStatusNotTaken(t *testing.T) {
	ledger := exam.NewLedger(newFakeProgress(), nil)
	st, err := ledger.TestResultStatus(context.Background(), "uni1", testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Found || st.Result != nil {
		t.Fatalf("untaken test must report not found: %+v", st)
	}
}

func TestSaveAttemptsPinsResumeList(t *testing.T) {
	ps := newFakeProgress()
	ledger := exam.NewLedger(ps, nil)
	ctx := context.Background()

	attempts := []exam.AttemptSnapshot{
		{QuestionID: "c2", Code: "def f(): pass", LanguageID: 71},
		{QuestionID: "c4", Code: "def g(): pass", LanguageID: 71},
	}
	if err := ledger.SaveAttempts(ctx, testKey, exam.TrackCoding, attempts, 1700000000); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := ps.resume[testKey]
	if len(rec.CodingIDs) != 2 || rec.CodingIDs[0] != "c2" || rec.CodingIDs[1] != "c4" {
		t.Fatalf("resume list not pinned to attempts: %v", rec.CodingIDs)
	}
	if rec.CodingStatus != exam.StatusResumed {
		t.Fatalf("status=%s, want resumed", rec.CodingStatus)
	}

	sub, found, err := ps.GetSubmission(ctx, testKey, "c2")
	if err != nil || !found {
		t.Fatalf("attempt code not persisted: found=%v err=%v", found, err)
	}
	if sub.Code != "def f(): pass" || sub.Status != exam.SubmissionResumed {
		t.Fatalf("wrong stored attempt: %+v", sub)
	}
}

func TestSaveAttemptsMCQWritesNoSubmissions(t *testing.T) {
	ps := newFakeProgress()
	ledger := exam.NewLedger(ps, nil)
	ctx := context.Background()

	attempts := []exam.AttemptSnapshot{{QuestionID: "m1"}, {QuestionID: "m3"}}
	if err := ledger.SaveAttempts(ctx, testKey, exam.TrackMCQ, attempts, 1700000000); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := ps.resume[testKey]
	if len(rec.MCQIDs) != 2 {
		t.Fatalf("mcq resume list not pinned: %v", rec.MCQIDs)
	}
	if len(ps.submissions) != 0 {
		t.Fatalf("mcq attempts must not create code submissions: %d", len(ps.submissions))
	}
}
