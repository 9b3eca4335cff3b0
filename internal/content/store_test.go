package content_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/educode/educode-backend/internal/content"
	"github.com/educode/educode-backend/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "content_test.db")
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

func sampleCourse() content.Course {
	return content.Course{
		ID:    "go101",
		Title: "Intro to Go",
		Units: map[string]content.Unit{
			"u1": {ID: "u1", Title: "Basics", SubUnits: map[string]content.SubUnit{
				"su1": {
					ID:    "su1",
					Title: "Variables",
					Coding: []content.CodingQuestion{
						{ID: "c1", Title: "Swap", ReferenceSolution: "ref-c1"},
						{ID: "c2", Title: "Shadow", ReferenceSolution: "ref-c2"},
					},
					MCQ: []content.MCQQuestion{
						{ID: "m1", PromptHTML: "first"},
						{ID: "m2", PromptHTML: "second"},
						{ID: "m3", PromptHTML: "third"},
					},
				},
			}},
		},
	}
}

// Both implementations must satisfy the same contract; run every case
// against each.
func forEachStore(t *testing.T, fn func(t *testing.T, cs content.Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, content.NewMemStore()) })
	t.Run("sql", func(t *testing.T) { fn(t, content.NewSQLStore(openTestDB(t))) })
}

func TestCourseRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, cs content.Store) {
		ctx := context.Background()
		if err := cs.PutCourse(ctx, sampleCourse()); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := cs.GetCourse(ctx, "go101")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "Intro to Go" || len(got.Units) != 1 {
			t.Fatalf("course mangled: %+v", got)
		}
		sub := got.Units["u1"].SubUnits["su1"]
		if len(sub.Coding) != 2 || len(sub.MCQ) != 3 {
			t.Fatalf("banks mangled: %+v", sub)
		}
	})
}

func TestMissingCourseIsNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, cs content.Store) {
		if _, err := cs.GetCourse(context.Background(), "nope"); !errors.Is(err, content.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})
}

func TestQuestionEditPreservesAuthoredOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, cs content.Store) {
		ctx := context.Background()
		if err := cs.PutCourse(ctx, sampleCourse()); err != nil {
			t.Fatalf("put: %v", err)
		}

		// Editing the middle MCQ must not move it.
		edited := content.MCQQuestion{ID: "m2", PromptHTML: "second, revised"}
		if err := cs.PutMCQQuestion(ctx, "go101", "u1", "su1", edited); err != nil {
			t.Fatalf("put mcq: %v", err)
		}

		sub, err := cs.GetSubUnit(ctx, "go101", "u1", "su1")
		if err != nil {
			t.Fatalf("get sub-unit: %v", err)
		}
		want := []string{"m1", "m2", "m3"}
		for i, id := range want {
			if sub.MCQ[i].ID != id {
				t.Fatalf("order changed after edit: got %s at %d", sub.MCQ[i].ID, i)
			}
		}
		if sub.MCQ[1].PromptHTML != "second, revised" {
			t.Fatalf("edit not applied: %+v", sub.MCQ[1])
		}
	})
}

func TestNewQuestionAppends(t *testing.T) {
	forEachStore(t, func(t *testing.T, cs content.Store) {
		ctx := context.Background()
		if err := cs.PutCourse(ctx, sampleCourse()); err != nil {
			t.Fatalf("put: %v", err)
		}
		q := content.CodingQuestion{ID: "c3", Title: "New", ReferenceSolution: "ref-c3"}
		if err := cs.PutCodingQuestion(ctx, "go101", "u1", "su1", q); err != nil {
			t.Fatalf("put coding: %v", err)
		}
		sub, err := cs.GetSubUnit(ctx, "go101", "u1", "su1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(sub.Coding) != 3 || sub.Coding[2].ID != "c3" {
			t.Fatalf("new question must append: %+v", sub.Coding)
		}
	})
}

func TestDeleteQuestion(t *testing.T) {
	forEachStore(t, func(t *testing.T, cs content.Store) {
		ctx := context.Background()
		if err := cs.PutCourse(ctx, sampleCourse()); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := cs.DeleteCodingQuestion(ctx, "go101", "u1", "su1", "c1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := cs.GetCodingQuestion(ctx, "go101", "u1", "su1", "c1"); !errors.Is(err, content.ErrNotFound) {
			t.Fatalf("deleted question still readable: %v", err)
		}
		sub, _ := cs.GetSubUnit(ctx, "go101", "u1", "su1")
		if len(sub.Coding) != 1 || sub.Coding[0].ID != "c2" {
			t.Fatalf("sibling lost on delete: %+v", sub.Coding)
		}

		if err := cs.DeleteCodingQuestion(ctx, "go101", "u1", "su1", "c1"); !errors.Is(err, content.ErrNotFound) {
			t.Fatalf("double delete must report not found: %v", err)
		}
	})
}

func TestSubUnitLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, cs content.Store) {
		ctx := context.Background()
		if err := cs.PutCourse(ctx, sampleCourse()); err != nil {
			t.Fatalf("put: %v", err)
		}
		su := content.SubUnit{ID: "su2", Title: "Functions", DisplayCount: 3}
		if err := cs.PutSubUnit(ctx, "go101", "u1", su); err != nil {
			t.Fatalf("put sub-unit: %v", err)
		}
		subs, err := cs.GetSubUnits(ctx, "go101", "u1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(subs) != 2 {
			t.Fatalf("want 2 sub-units, got %d", len(subs))
		}
		if err := cs.DeleteSubUnit(ctx, "go101", "u1", "su2"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := cs.GetSubUnit(ctx, "go101", "u1", "su2"); !errors.Is(err, content.ErrNotFound) {
			t.Fatalf("deleted sub-unit still readable: %v", err)
		}
	})
}

func TestMemStoreIsolatesCallers(t *testing.T) {
	cs := content.NewMemStore()
	ctx := context.Background()
	if err := cs.PutCourse(ctx, sampleCourse()); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := cs.GetCourse(ctx, "go101")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Mutating the returned copy must not leak into the store.
	got.Units["u1"].SubUnits["su1"].Coding[0] = content.CodingQuestion{ID: "hacked"}

	again, err := cs.GetCourse(ctx, "go101")
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if again.Units["u1"].SubUnits["su1"].Coding[0].ID != "c1" {
		t.Fatal("store state leaked through a returned document")
	}
}
