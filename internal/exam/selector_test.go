package exam_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/educode/educode-backend/internal/content"
	"github.com/educode/educode-backend/internal/exam"
)

/* ---------------- In-memory fake for exam.ProgressStore ---------------- */

type fakeProgress struct {
	resume      map[exam.Key]exam.ResumeRecord
	submissions map[string]exam.Submission
	results     map[string]exam.Result

	resumeErr     error
	subErr        error
	setTrackCalls int
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{
		resume:      map[exam.Key]exam.ResumeRecord{},
		submissions: map[string]exam.Submission{},
		results:     map[string]exam.Result{},
	}
}

func subKey(k exam.Key, qID string) string {
	return k.StudentID + "|" + k.CourseID + "|" + k.UnitID + "|" + k.SubUnitID + "|" + qID
}

func (f *fakeProgress) GetResume(_ context.Context, key exam.Key) (exam.ResumeRecord, bool, error) {
	if f.resumeErr != nil {
		return exam.ResumeRecord{}, false, f.resumeErr
	}
	rec, ok := f.resume[key]
	return rec, ok, nil
}

func (f *fakeProgress) SetResumeTrack(_ context.Context, key exam.Key, track exam.Track, ids []string, status exam.TrackStatus) error {
	f.setTrackCalls++
	rec := f.resume[key]
	rec.Key = key
	switch track {
	case exam.TrackCoding:
		rec.CodingIDs = ids
		rec.CodingStatus = status
	case exam.TrackMCQ:
		rec.MCQIDs = ids
		rec.MCQStatus = status
	}
	f.resume[key] = rec
	return nil
}

func (f *fakeProgress) UpsertSubmission(_ context.Context, sub exam.Submission) error {
	f.submissions[subKey(sub.Key, sub.QuestionID)] = sub
	return nil
}

func (f *fakeProgress) GetSubmission(_ context.Context, key exam.Key, questionID string) (exam.Submission, bool, error) {
	if f.subErr != nil {
		return exam.Submission{}, false, f.subErr
	}
	sub, ok := f.submissions[subKey(key, questionID)]
	return sub, ok, nil
}

func (f *fakeProgress) ReplaceResult(_ context.Context, r exam.Result) error {
	k := r.StudentID + "|" + r.CourseID + "|" + r.UnitID + "|" + r.SubUnitID + "|" + string(r.ResultType)
	f.results[k] = r
	return nil
}

func (f *fakeProgress) GetResult(_ context.Context, universityID string, key exam.Key, track exam.Track) (exam.Result, bool, error) {
	k := key.StudentID + "|" + key.CourseID + "|" + key.UnitID + "|" + key.SubUnitID + "|" + string(track)
	r, ok := f.results[k]
	return r, ok, nil
}

/* ---------------- Test fixtures ---------------- */

func seedContent(t *testing.T, display int, shuffleMCQ bool) content.Store {
	t.Helper()
	cs := content.NewMemStore()
	sub := content.SubUnit{
		ID:           "su1",
		Title:        "Loops",
		DisplayCount: display,
		ShuffleMCQ:   shuffleMCQ,
		Coding: []content.CodingQuestion{
			{ID: "c1", Title: "Sum", ReferenceSolution: "print(sum())", HiddenTests: []content.TestCase{{Input: "1 2", ExpectedOutput: "3"}}},
			{ID: "c2", Title: "Max", ReferenceSolution: "print(max())"},
			{ID: "c3", Title: "Min", ReferenceSolution: "print(min())"},
			{ID: "c4", Title: "Avg", ReferenceSolution: "print(avg())"},
		},
		MCQ: []content.MCQQuestion{
			{ID: "m1", PromptHTML: "Q1", AnswerKey: []string{"a"}},
			{ID: "m2", PromptHTML: "Q2", AnswerKey: []string{"b"}},
			{ID: "m3", PromptHTML: "Q3", AnswerKey: []string{"c"}},
		},
	}
	course := content.Course{
		ID: "course1",
		Units: map[string]content.Unit{
			"u1": {ID: "u1", SubUnits: map[string]content.SubUnit{"su1": sub}},
		},
	}
	if err := cs.PutCourse(context.Background(), course); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return cs
}

var testKey = exam.Key{StudentID: "s1", CourseID: "course1", UnitID: "u1", SubUnitID: "su1"}

func newSelector(cs content.Store, ps exam.ProgressStore) *exam.Selector {
	return exam.NewSelector(cs, ps, exam.WithRand(rand.New(rand.NewSource(42))))
}

/* ---------------- Tests ---------------- */

func TestFreshCodingSelectionSlicesToDisplayCount(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 2, false), ps)

	got, err := sel.SelectQuestions(context.Background(), testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.Resumed {
		t.Fatal("first selection must not be resumed")
	}
	if len(got.Coding) != 2 {
		t.Fatalf("want 2 coding questions, got %d", len(got.Coding))
	}

	rec := ps.resume[testKey]
	if len(rec.CodingIDs) != 2 || rec.CodingStatus != exam.StatusResumed {
		t.Fatalf("resume record not persisted: %+v", rec)
	}
	for i, v := range got.Coding {
		if rec.CodingIDs[i] != v.ID {
			t.Fatalf("persisted ID order diverges from served order: %v vs %v", rec.CodingIDs, got.Coding)
		}
	}
}

func TestSecondEntryReplaysSameQuestions(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 2, false), ps)
	ctx := context.Background()

	first, err := sel.SelectQuestions(ctx, testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("first select: %v", err)
	}
	writesAfterFirst := ps.setTrackCalls

	second, err := sel.SelectQuestions(ctx, testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	if !second.Resumed {
		t.Fatal("second entry must resume")
	}
	if len(second.Coding) != len(first.Coding) {
		t.Fatalf("resumed count %d != fresh count %d", len(second.Coding), len(first.Coding))
	}
	for i := range first.Coding {
		if second.Coding[i].ID != first.Coding[i].ID {
			t.Fatalf("resumed IDs differ at %d: %s vs %s", i, second.Coding[i].ID, first.Coding[i].ID)
		}
	}
	if ps.setTrackCalls != writesAfterFirst {
		t.Fatal("resume path must not write resume state")
	}
}

func TestStudentResponsesNeverCarryGradingMaterial(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 4, false), ps)

	got, err := sel.SelectQuestions(context.Background(), testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	buf, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(buf)
	for _, leak := range []string{"reference_solution", "hidden_tests", "print(sum())"} {
		if strings.Contains(body, leak) {
			t.Fatalf("serialized selection leaks %q: %s", leak, body)
		}
	}
}

func TestMCQOrderPreservedWhenShuffleOff(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 2, false), ps)

	got, err := sel.SelectQuestions(context.Background(), testKey, exam.TrackMCQ)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := []string{"m1", "m2", "m3"}
	if len(got.MCQ) != len(want) {
		t.Fatalf("want %d mcq, got %d", len(want), len(got.MCQ))
	}
	for i, id := range want {
		if got.MCQ[i].ID != id {
			t.Fatalf("authored order not preserved: got %s at %d, want %s", got.MCQ[i].ID, i, id)
		}
	}
}

func TestMCQShuffleReordersTheBank(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 2, true), ps)
	ctx := context.Background()

	// Fresh resume state per draw. Ten draws of a 3-question bank must
	// produce at least one order that differs from storage order, and every
	// draw must stay a permutation of the bank.
	authored := []string{"m1", "m2", "m3"}
	reordered := false
	for draw := 0; draw < 10; draw++ {
		delete(ps.resume, testKey)
		got, err := sel.SelectQuestions(ctx, testKey, exam.TrackMCQ)
		if err != nil {
			t.Fatalf("draw %d: %v", draw, err)
		}
		if len(got.MCQ) != len(authored) {
			t.Fatalf("draw %d changed bank size: %d", draw, len(got.MCQ))
		}
		seen := map[string]bool{}
		for i, q := range got.MCQ {
			seen[q.ID] = true
			if q.ID != authored[i] {
				reordered = true
			}
		}
		for _, id := range authored {
			if !seen[id] {
				t.Fatalf("draw %d dropped question %s", draw, id)
			}
		}
	}
	if !reordered {
		t.Fatal("ten shuffled draws never left storage order")
	}
}

func TestResumeAttachesLastSubmission(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 2, false), ps)
	ctx := context.Background()

	first, err := sel.SelectQuestions(ctx, testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("first select: %v", err)
	}
	qID := first.Coding[0].ID
	sub := exam.Submission{Key: testKey, QuestionID: qID, Code: "x = 1", LanguageID: 71, Status: exam.SubmissionResumed}
	if err := ps.UpsertSubmission(ctx, sub); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second, err := sel.SelectQuestions(ctx, testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	if second.Coding[0].LastSubmission == nil {
		t.Fatal("resumed question missing last submission")
	}
	if second.Coding[0].LastSubmission.Code != "x = 1" {
		t.Fatalf("wrong submission attached: %+v", second.Coding[0].LastSubmission)
	}
	if second.Coding[1].LastSubmission != nil {
		t.Fatal("question without submission must carry nil")
	}
}

func TestSubmissionLookupFailureStillServesQuestions(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 2, false), ps)
	ctx := context.Background()

	if _, err := sel.SelectQuestions(ctx, testKey, exam.TrackCoding); err != nil {
		t.Fatalf("first select: %v", err)
	}

	ps.subErr = errors.New("db down")
	got, err := sel.SelectQuestions(ctx, testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("resume must survive a broken submission read: %v", err)
	}
	if !got.Resumed || len(got.Coding) != 2 {
		t.Fatalf("expected resumed selection, got %+v", got)
	}
	for i, v := range got.Coding {
		if v.LastSubmission != nil {
			t.Fatalf("question %d must carry nil submission on read failure", i)
		}
	}
}

func TestResumeLookupFailureFallsBackToFresh(t *testing.T) {
	ps := newFakeProgress()
	ps.resumeErr = errors.New("db down")
	sel := newSelector(seedContent(t, 2, false), ps)

	got, err := sel.SelectQuestions(context.Background(), testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("select must survive a broken resume read: %v", err)
	}
	if got.Resumed || len(got.Coding) != 2 {
		t.Fatalf("expected fresh fallback selection, got %+v", got)
	}
}

func TestUnknownTrackRejected(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 2, false), ps)

	if _, err := sel.SelectQuestions(context.Background(), testKey, exam.Track("essay")); err == nil {
		t.Fatal("expected error for unknown track")
	}
}

func TestMissingSubUnitPropagatesNotFound(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 2, false), ps)

	bad := exam.Key{StudentID: "s1", CourseID: "course1", UnitID: "u1", SubUnitID: "nope"}
	_, err := sel.SelectQuestions(context.Background(), bad, exam.TrackCoding)
	if !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("want content.ErrNotFound, got %v", err)
	}
	if ps.setTrackCalls != 0 {
		t.Fatal("missing sub-unit must not mutate resume state")
	}
}

func TestDisplayCountDefaultsWhenUnset(t *testing.T) {
	ps := newFakeProgress()
	sel := newSelector(seedContent(t, 0, false), ps)

	got, err := sel.SelectQuestions(context.Background(), testKey, exam.TrackCoding)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got.Coding) != content.DefaultDisplayCount {
		t.Fatalf("want default count %d, got %d", content.DefaultDisplayCount, len(got.Coding))
	}
}
