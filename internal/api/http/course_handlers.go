package http

import (
	"net/http"

	"github.com/educode/educode-backend/internal/content"
	"github.com/educode/educode-backend/internal/grading"
	"github.com/educode/educode-backend/internal/roster"

	"github.com/go-chi/chi/v5"
)

// Course metadata (catalog rows, separate from the content tree).

func InsertCourseMetaHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c roster.CourseMeta
		if !decodeBody(w, r, &c) {
			return
		}
		if c.CourseID == "" {
			fail(w, http.StatusBadRequest, "course_id required")
			return
		}
		if err := store.InsertCourseMeta(r.Context(), c); err != nil {
			failErr(w, err, "failed to insert course")
			return
		}
		created(w, "course inserted successfully", nil)
	}
}

func ListCourseMetaHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := store.ListCourseMeta(r.Context())
		if err != nil {
			failErr(w, err, "failed to fetch courses")
			return
		}
		ok(w, "courses fetched successfully", map[string]any{"data": cs})
	}
}

func GetCourseMetaHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCourseMeta(r.Context(), chi.URLParam(r, "courseId"))
		if err != nil {
			failErr(w, err, "course not found")
			return
		}
		ok(w, "course fetched successfully", map[string]any{"data": c})
	}
}

func UpdateCourseMetaHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if !decodeBody(w, r, &fields) {
			return
		}
		if len(fields) == 0 {
			fail(w, http.StatusBadRequest, "no fields to update")
			return
		}
		if err := store.UpdateCourseMeta(r.Context(), chi.URLParam(r, "courseId"), fields); err != nil {
			failErr(w, err, "failed to update course")
			return
		}
		ok(w, "course updated successfully", nil)
	}
}

func DeleteCourseMetaHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteCourseMeta(r.Context(), chi.URLParam(r, "courseId")); err != nil {
			failErr(w, err, "failed to delete course")
			return
		}
		ok(w, "course deleted successfully", nil)
	}
}

// Content tree. Every write below a course invalidates the grading
// artifact cache for the touched scope so stale reference material is
// never replayed against new submissions.

func PutCourseContentHandler(store content.Store, cache *grading.ArtifactCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c content.Course
		if !decodeBody(w, r, &c) {
			return
		}
		if c.ID == "" {
			fail(w, http.StatusBadRequest, "course id required")
			return
		}
		if err := store.PutCourse(r.Context(), c); err != nil {
			failErr(w, err, "failed to store course content")
			return
		}
		cache.InvalidateAll()
		created(w, "course content stored successfully", nil)
	}
}

func GetCourseContentHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseId"))
		if err != nil {
			failErr(w, err, "course content not found")
			return
		}
		ok(w, "course content fetched successfully", map[string]any{"data": c})
	}
}

func DeleteCourseContentHandler(store content.Store, cache *grading.ArtifactCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteCourse(r.Context(), chi.URLParam(r, "courseId")); err != nil {
			failErr(w, err, "failed to delete course content")
			return
		}
		cache.InvalidateAll()
		ok(w, "course content deleted successfully", nil)
	}
}

func PutUnitHandler(store content.Store, cache *grading.ArtifactCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u content.Unit
		if !decodeBody(w, r, &u) {
			return
		}
		if u.ID == "" {
			fail(w, http.StatusBadRequest, "unit id required")
			return
		}
		if err := store.PutUnit(r.Context(), chi.URLParam(r, "courseId"), u); err != nil {
			failErr(w, err, "failed to store unit")
			return
		}
		cache.InvalidateAll()
		created(w, "unit stored successfully", nil)
	}
}

func GetUnitsHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		us, err := store.GetUnits(r.Context(), chi.URLParam(r, "courseId"))
		if err != nil {
			failErr(w, err, "failed to fetch units")
			return
		}
		ok(w, "units fetched successfully", map[string]any{"data": us})
	}
}

func DeleteUnitHandler(store content.Store, cache *grading.ArtifactCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteUnit(r.Context(), chi.URLParam(r, "courseId"), chi.URLParam(r, "unitId")); err != nil {
			failErr(w, err, "failed to delete unit")
			return
		}
		cache.InvalidateAll()
		ok(w, "unit deleted successfully", nil)
	}
}

func PutSubUnitHandler(store content.Store, cache *grading.ArtifactCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s content.SubUnit
		if !decodeBody(w, r, &s) {
			return
		}
		if s.ID == "" {
			fail(w, http.StatusBadRequest, "sub-unit id required")
			return
		}
		if err := store.PutSubUnit(r.Context(), chi.URLParam(r, "courseId"), chi.URLParam(r, "unitId"), s); err != nil {
			failErr(w, err, "failed to store sub-unit")
			return
		}
		cache.InvalidateAll()
		created(w, "sub-unit stored successfully", nil)
	}
}

func GetSubUnitsHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ss, err := store.GetSubUnits(r.Context(), chi.URLParam(r, "courseId"), chi.URLParam(r, "unitId"))
		if err != nil {
			failErr(w, err, "failed to fetch sub-units")
			return
		}
		ok(w, "sub-units fetched successfully", map[string]any{"data": ss})
	}
}

func DeleteSubUnitHandler(store content.Store, cache *grading.ArtifactCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteSubUnit(r.Context(), chi.URLParam(r, "courseId"), chi.URLParam(r, "unitId"), chi.URLParam(r, "subUnitId")); err != nil {
			failErr(w, err, "failed to delete sub-unit")
			return
		}
		cache.InvalidateAll()
		ok(w, "sub-unit deleted successfully", nil)
	}
}

func PutCodingQuestionHandler(store content.Store, cache *grading.ArtifactCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q content.CodingQuestion
		if !decodeBody(w, r, &q) {
			return
		}
		if q.ID == "" {
			fail(w, http.StatusBadRequest, "question id required")
			return
		}
		courseID, unitID, subUnitID := chi.URLParam(r, "courseId"), chi.URLParam(r, "unitId"), chi.URLParam(r, "subUnitId")
		if err := store.PutCodingQuestion(r.Context(), courseID, unitID, subUnitID, q); err != nil {
			failErr(w, err, "failed to store question")
			return
		}
		cache.Invalidate(courseID, unitID, subUnitID, q.ID)
		created(w, "question stored successfully", nil)
	}
}

func DeleteCodingQuestionHandler(store content.Store, cache *grading.ArtifactCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, unitID, subUnitID, qID := chi.URLParam(r, "courseId"), chi.URLParam(r, "unitId"), chi.URLParam(r, "subUnitId"), chi.URLParam(r, "questionId")
		if err := store.DeleteCodingQuestion(r.Context(), courseID, unitID, subUnitID, qID); err != nil {
			failErr(w, err, "failed to delete question")
			return
		}
		cache.Invalidate(courseID, unitID, subUnitID, qID)
		ok(w, "question deleted successfully", nil)
	}
}

func PutMCQQuestionHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q content.MCQQuestion
		if !decodeBody(w, r, &q) {
			return
		}
		if q.ID == "" {
			fail(w, http.StatusBadRequest, "question id required")
			return
		}
		if err := store.PutMCQQuestion(r.Context(), chi.URLParam(r, "courseId"), chi.URLParam(r, "unitId"), chi.URLParam(r, "subUnitId"), q); err != nil {
			failErr(w, err, "failed to store question")
			return
		}
		created(w, "question stored successfully", nil)
	}
}

func DeleteMCQQuestionHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteMCQQuestion(r.Context(), chi.URLParam(r, "courseId"), chi.URLParam(r, "unitId"), chi.URLParam(r, "subUnitId"), chi.URLParam(r, "questionId")); err != nil {
			failErr(w, err, "failed to delete question")
			return
		}
		ok(w, "question deleted successfully", nil)
	}
}
