package http

import (
	"net/http"

	auth "github.com/educode/educode-backend/internal/auth/middleware"
	"github.com/educode/educode-backend/internal/exam"
	"github.com/educode/educode-backend/internal/roster"

	"github.com/go-chi/chi/v5"
)

func InsertStudentHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st roster.Student
		if !decodeBody(w, r, &st) {
			return
		}
		if st.StudentID == "" || st.UserID == "" {
			fail(w, http.StatusBadRequest, "student_id and user_id required")
			return
		}
		if err := store.InsertStudent(r.Context(), st); err != nil {
			failErr(w, err, "failed to insert student")
			return
		}
		created(w, "student inserted successfully", nil)
	}
}

func ListStudentsHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sts, err := store.ListStudents(r.Context())
		if err != nil {
			failErr(w, err, "failed to fetch students")
			return
		}
		ok(w, "students fetched successfully", map[string]any{"data": sts})
	}
}

func GetStudentHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.GetStudent(r.Context(), chi.URLParam(r, "studentId"))
		if err != nil {
			failErr(w, err, "student not found")
			return
		}
		ok(w, "student fetched successfully", map[string]any{"data": st})
	}
}

func StudentsByUniversityHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sts, err := store.StudentsByUniversity(r.Context(), chi.URLParam(r, "uniId"))
		if err != nil {
			failErr(w, err, "failed to fetch students")
			return
		}
		ok(w, "students fetched successfully", map[string]any{"data": sts})
	}
}

func StudentsByBatchHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sts, err := store.StudentsByBatch(r.Context(), chi.URLParam(r, "batchId"))
		if err != nil {
			failErr(w, err, "failed to fetch students")
			return
		}
		ok(w, "students fetched successfully", map[string]any{"data": sts})
	}
}

func UpdateStudentHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if !decodeBody(w, r, &fields) {
			return
		}
		if len(fields) == 0 {
			fail(w, http.StatusBadRequest, "no fields to update")
			return
		}
		if err := store.UpdateStudent(r.Context(), chi.URLParam(r, "studentId"), fields); err != nil {
			failErr(w, err, "failed to update student")
			return
		}
		ok(w, "student updated successfully", nil)
	}
}

func DeleteStudentHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteStudent(r.Context(), chi.URLParam(r, "studentId")); err != nil {
			failErr(w, err, "failed to delete student")
			return
		}
		ok(w, "student deleted successfully", nil)
	}
}

func StudentLoginHandler(store *roster.Store, authSvc *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"user_id"`
			Password string `json:"password"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		p, err := store.LoginStudent(r.Context(), req.UserID, req.Password)
		if err != nil {
			failErr(w, err, "invalid credentials")
			return
		}
		tok, err := authSvc.IssueJWT(p.StudentID, "student")
		if err != nil {
			failErr(w, err, "failed to issue token")
			return
		}
		ok(w, "login successful", map[string]any{"data": p, "access_token": tok})
	}
}

func StudentProfileHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("studentId")
		if id == "" {
			fail(w, http.StatusBadRequest, "missing required parameter: studentId")
			return
		}
		st, err := store.GetStudent(r.Context(), id)
		if err != nil {
			failErr(w, err, "student not found")
			return
		}
		ok(w, "profile fetched successfully", map[string]any{"data": st.Profile()})
	}
}

func CourseMetaByBatchHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := store.CourseMetaByBatch(r.Context(), chi.URLParam(r, "batchId"))
		if err != nil {
			failErr(w, err, "failed to fetch course metadata")
			return
		}
		ok(w, "course metadata fetched successfully", map[string]any{"data": cs})
	}
}

// GetQuestionsHandler is the student question entry point: resume when
// in-play state exists, fresh selection otherwise.
func GetQuestionsHandler(sel *exam.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID     string `json:"courseId"`
			UnitID       string `json:"unitId"`
			SubUnitID    string `json:"subUnitId"`
			StudentID    string `json:"studentId"`
			QuestionType string `json:"questionType"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.CourseID == "" || req.UnitID == "" || req.SubUnitID == "" || req.StudentID == "" || req.QuestionType == "" {
			fail(w, http.StatusBadRequest, "missing required parameters: courseId, unitId, subUnitId, studentId, or questionType")
			return
		}
		key := exam.Key{StudentID: req.StudentID, CourseID: req.CourseID, UnitID: req.UnitID, SubUnitID: req.SubUnitID}
		seln, err := sel.SelectQuestions(r.Context(), key, exam.Track(req.QuestionType))
		if err != nil {
			failErr(w, err, "failed to fetch questions")
			return
		}
		extra := map[string]any{"resumed": seln.Resumed}
		switch exam.Track(req.QuestionType) {
		case exam.TrackCoding:
			extra["data"] = seln.Coding
		case exam.TrackMCQ:
			extra["data"] = seln.MCQ
		}
		ok(w, "questions fetched successfully", extra)
	}
}
