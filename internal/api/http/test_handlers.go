package http

import (
	"net/http"
	"time"

	"github.com/educode/educode-backend/internal/content"
	"github.com/educode/educode-backend/internal/exam"
	"github.com/educode/educode-backend/internal/grading"
)

type examKeyReq struct {
	StudentID string `json:"studentId"`
	CourseID  string `json:"courseId"`
	UnitID    string `json:"unitId"`
	SubUnitID string `json:"subUnitId"`
}

func (r examKeyReq) key() exam.Key {
	return exam.Key{StudentID: r.StudentID, CourseID: r.CourseID, UnitID: r.UnitID, SubUnitID: r.SubUnitID}
}

func (r examKeyReq) complete() bool {
	return r.StudentID != "" && r.CourseID != "" && r.UnitID != "" && r.SubUnitID != ""
}

// RunPracticeHandler executes student code against the visible samples,
// comparing its output with the reference solution run.
func RunPracticeHandler(eng *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			examKeyReq
			QuestionID string               `json:"questionId"`
			Code       string               `json:"code"`
			LanguageID int                  `json:"languageId"`
			Samples    []grading.SamplePair `json:"samples"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if !req.complete() || req.QuestionID == "" || req.Code == "" || req.LanguageID == 0 || len(req.Samples) == 0 {
			fail(w, http.StatusBadRequest, "missing required parameters")
			return
		}
		report, err := eng.RunPractice(r.Context(), grading.PracticeInput{
			Key:        req.key(),
			QuestionID: req.QuestionID,
			Code:       req.Code,
			LanguageID: req.LanguageID,
			Samples:    req.Samples,
		})
		if err != nil {
			failErr(w, err, "practice run failed")
			return
		}
		ok(w, "practice run completed", map[string]any{"data": report})
	}
}

// RunFinalHandler grades student code against the question's hidden tests.
// Inputs and expected outputs never appear in the response.
func RunFinalHandler(eng *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			examKeyReq
			QuestionID string `json:"questionId"`
			Code       string `json:"code"`
			LanguageID int    `json:"languageId"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if !req.complete() || req.QuestionID == "" || req.Code == "" || req.LanguageID == 0 {
			fail(w, http.StatusBadRequest, "missing required parameters")
			return
		}
		report, err := eng.RunFinal(r.Context(), grading.FinalInput{
			Key:        req.key(),
			QuestionID: req.QuestionID,
			Code:       req.Code,
			LanguageID: req.LanguageID,
		})
		if err != nil {
			failErr(w, err, "final submission failed")
			return
		}
		ok(w, "final submission graded", map[string]any{"data": report})
	}
}

// SubmitTestResultHandler records the overall score for a finished test and
// closes out its resume state.
func SubmitTestResultHandler(ledger *exam.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			examKeyReq
			UniversityID  string  `json:"universityId"`
			ResultType    string  `json:"resultType"`
			MarksObtained float64 `json:"marksObtained"`
			TotalMarks    float64 `json:"totalMarks"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		track := exam.Track(req.ResultType)
		if !req.complete() || req.UniversityID == "" || !track.Valid() {
			fail(w, http.StatusBadRequest, "missing required parameters")
			return
		}
		res := exam.Result{
			UniversityID:  req.UniversityID,
			StudentID:     req.StudentID,
			CourseID:      req.CourseID,
			UnitID:        req.UnitID,
			SubUnitID:     req.SubUnitID,
			ResultType:    track,
			MarksObtained: req.MarksObtained,
			TotalMarks:    req.TotalMarks,
			SubmittedAt:   time.Now().Unix(),
		}
		if err := ledger.RecordTestResult(r.Context(), res); err != nil {
			failErr(w, err, "failed to record test result")
			return
		}
		created(w, "test result recorded successfully", nil)
	}
}

// TestResultStatusHandler reports whether a test was taken and the pass/fail
// outcome at the configured threshold.
func TestResultStatusHandler(ledger *exam.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			examKeyReq
			UniversityID string `json:"universityId"`
			ResultType   string `json:"resultType"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		track := exam.Track(req.ResultType)
		if !req.complete() || req.UniversityID == "" || !track.Valid() {
			fail(w, http.StatusBadRequest, "missing required parameters")
			return
		}
		st, err := ledger.TestResultStatus(r.Context(), req.UniversityID, req.key(), track)
		if err != nil {
			failErr(w, err, "failed to fetch test result status")
			return
		}
		ok(w, "test result status fetched", map[string]any{"data": st})
	}
}

// SaveAttemptsHandler persists mid-test answers so a later entry resumes the
// exact same questions.
func SaveAttemptsHandler(ledger *exam.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			examKeyReq
			QuestionType string                 `json:"questionType"`
			Attempts     []exam.AttemptSnapshot `json:"attempts"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		track := exam.Track(req.QuestionType)
		if !req.complete() || !track.Valid() || len(req.Attempts) == 0 {
			fail(w, http.StatusBadRequest, "missing required parameters")
			return
		}
		if err := ledger.SaveAttempts(r.Context(), req.key(), track, req.Attempts, time.Now().Unix()); err != nil {
			failErr(w, err, "failed to save attempts")
			return
		}
		ok(w, "attempts saved successfully", nil)
	}
}

// CheckSecurityCodeHandler gates entry into a proctored test. Comparison is
// exact; an empty stored code means the sub-unit is open.
func CheckSecurityCodeHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID     string `json:"courseId"`
			UnitID       string `json:"unitId"`
			SubUnitID    string `json:"subUnitId"`
			SecurityCode string `json:"securityCode"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.CourseID == "" || req.UnitID == "" || req.SubUnitID == "" {
			fail(w, http.StatusBadRequest, "missing required parameters")
			return
		}
		sub, err := store.GetSubUnit(r.Context(), req.CourseID, req.UnitID, req.SubUnitID)
		if err != nil {
			failErr(w, err, "sub-unit not found")
			return
		}
		if sub.SecurityCode != "" && sub.SecurityCode != req.SecurityCode {
			fail(w, http.StatusForbidden, "invalid security code")
			return
		}
		ok(w, "security code verified", nil)
	}
}

// InvalidateArtifactsHandler is the operator hook to drop cached grading
// artifacts after content edits made outside this API.
func InvalidateArtifactsHandler(cache *grading.ArtifactCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID   string `json:"courseId"`
			UnitID     string `json:"unitId"`
			SubUnitID  string `json:"subUnitId"`
			QuestionID string `json:"questionId"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.CourseID == "" {
			cache.InvalidateAll()
			ok(w, "artifact cache cleared", nil)
			return
		}
		cache.Invalidate(req.CourseID, req.UnitID, req.SubUnitID, req.QuestionID)
		ok(w, "artifact cache entry invalidated", nil)
	}
}
