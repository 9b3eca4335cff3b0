package exam_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/educode/educode-backend/internal/db"
	"github.com/educode/educode-backend/internal/exam"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "exam_test.db")
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

func TestSQLSubmissionCollapsesToLatest(t *testing.T) {
	dbh := openTestDB(t)
	store := exam.NewSQLProgressStore(dbh)
	ctx := context.Background()

	first := exam.Submission{Key: testKey, QuestionID: "c1", Code: "v1", LanguageID: 71, Status: exam.SubmissionResumed, SubmittedAt: 100}
	if err := store.UpsertSubmission(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := first
	second.Code = "v2"
	second.Status = exam.SubmissionSubmitted
	second.SubmittedAt = 200
	if err := store.UpsertSubmission(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 submission row, got %d", n)
	}

	got, found, err := store.GetSubmission(ctx, testKey, "c1")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.Code != "v2" || got.Status != exam.SubmissionSubmitted || got.SubmittedAt != 200 {
		t.Fatalf("latest attempt not kept: %+v", got)
	}
}

func TestSQLSubmissionsKeyedPerQuestion(t *testing.T) {
	dbh := openTestDB(t)
	store := exam.NewSQLProgressStore(dbh)
	ctx := context.Background()

	for _, q := range []string{"c1", "c2"} {
		sub := exam.Submission{Key: testKey, QuestionID: q, Code: "code-" + q, LanguageID: 71, Status: exam.SubmissionResumed, SubmittedAt: 100}
		if err := store.UpsertSubmission(ctx, sub); err != nil {
			t.Fatalf("upsert %s: %v", q, err)
		}
	}

	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("distinct questions must keep distinct rows, got %d", n)
	}
}

func TestSQLReplaceResultKeepsSingleRow(t *testing.T) {
	dbh := openTestDB(t)
	store := exam.NewSQLProgressStore(dbh)
	ctx := context.Background()

	if err := store.ReplaceResult(ctx, testResult(3, 10)); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := store.ReplaceResult(ctx, testResult(8, 10)); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("retake must leave exactly one result row, got %d", n)
	}

	got, found, err := store.GetResult(ctx, "uni1", testKey, exam.TrackCoding)
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.MarksObtained != 8 {
		t.Fatalf("want latest score 8, got %v", got.MarksObtained)
	}
}

func TestSQLResultsIndependentPerTrack(t *testing.T) {
	dbh := openTestDB(t)
	store := exam.NewSQLProgressStore(dbh)
	ctx := context.Background()

	coding := testResult(6, 10)
	mcq := testResult(2, 5)
	mcq.ResultType = exam.TrackMCQ
	if err := store.ReplaceResult(ctx, coding); err != nil {
		t.Fatalf("coding: %v", err)
	}
	if err := store.ReplaceResult(ctx, mcq); err != nil {
		t.Fatalf("mcq: %v", err)
	}

	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("tracks must not replace each other, got %d rows", n)
	}
}

func TestSQLResumeTrackColumnsAreIsolated(t *testing.T) {
	dbh := openTestDB(t)
	store := exam.NewSQLProgressStore(dbh)
	ctx := context.Background()

	if err := store.SetResumeTrack(ctx, testKey, exam.TrackCoding, []string{"c1", "c3"}, exam.StatusResumed); err != nil {
		t.Fatalf("set coding: %v", err)
	}
	if err := store.SetResumeTrack(ctx, testKey, exam.TrackMCQ, []string{"m2"}, exam.StatusResumed); err != nil {
		t.Fatalf("set mcq: %v", err)
	}
	// Closing out the mcq track must not disturb the coding list.
	if err := store.SetResumeTrack(ctx, testKey, exam.TrackMCQ, nil, exam.StatusCompleted); err != nil {
		t.Fatalf("close mcq: %v", err)
	}

	rec, found, err := store.GetResume(ctx, testKey)
	if err != nil || !found {
		t.Fatalf("get resume: found=%v err=%v", found, err)
	}
	if len(rec.CodingIDs) != 2 || rec.CodingIDs[0] != "c1" || rec.CodingIDs[1] != "c3" {
		t.Fatalf("coding ids disturbed: %v", rec.CodingIDs)
	}
	if rec.CodingStatus != exam.StatusResumed {
		t.Fatalf("coding status disturbed: %s", rec.CodingStatus)
	}
	if len(rec.MCQIDs) != 0 || rec.MCQStatus != exam.StatusCompleted {
		t.Fatalf("mcq track not closed: ids=%v status=%s", rec.MCQIDs, rec.MCQStatus)
	}
}

func TestSQLGetResumeMissingKey(t *testing.T) {
	store := exam.NewSQLProgressStore(openTestDB(t))
	_, found, err := store.GetResume(context.Background(), testKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("missing key must report not found")
	}
}
