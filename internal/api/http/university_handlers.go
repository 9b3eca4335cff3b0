package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	auth "github.com/educode/educode-backend/internal/auth/middleware"
	"github.com/educode/educode-backend/internal/roster"

	"github.com/go-chi/chi/v5"
)

func InsertUniversityHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u roster.University
		if !decodeBody(w, r, &u) {
			return
		}
		if u.UID == "" || u.Name == "" {
			fail(w, http.StatusBadRequest, "uid and name required")
			return
		}
		if err := store.InsertUniversity(r.Context(), u); err != nil {
			failErr(w, err, "failed to insert university")
			return
		}
		created(w, "university inserted successfully", nil)
	}
}

func ListUniversitiesHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		us, err := store.ListUniversities(r.Context())
		if err != nil {
			failErr(w, err, "failed to fetch universities")
			return
		}
		ok(w, "universities fetched successfully", map[string]any{"data": us})
	}
}

func GetUniversityHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := store.GetUniversity(r.Context(), chi.URLParam(r, "uid"))
		if err != nil {
			failErr(w, err, "university not found")
			return
		}
		ok(w, "university fetched successfully", map[string]any{"data": u})
	}
}

func UpdateUniversityHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if !decodeBody(w, r, &fields) {
			return
		}
		if err := store.UpdateUniversity(r.Context(), chi.URLParam(r, "uid"), fields); err != nil {
			failErr(w, err, "failed to update university")
			return
		}
		ok(w, "university updated successfully", nil)
	}
}

func DeleteUniversityHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteUniversity(r.Context(), chi.URLParam(r, "uid")); err != nil {
			failErr(w, err, "failed to delete university")
			return
		}
		ok(w, "university deleted successfully", nil)
	}
}

func UniversityLoginHandler(store *roster.Store, authSvc *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"user_id"`
			Password string `json:"password"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		u, err := store.LoginUniversity(r.Context(), req.UserID, req.Password)
		if err != nil {
			failErr(w, err, "invalid credentials")
			return
		}
		tok, err := authSvc.IssueJWT(u.UID, "university")
		if err != nil {
			failErr(w, err, "failed to issue token")
			return
		}
		ok(w, "login successful", map[string]any{"data": u, "access_token": tok})
	}
}

// UploadStudentsHandler bulk-loads a roster file. Accepts multipart file=
// (CSV or JSON array) or a raw JSON array body.
func UploadStudentsHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []roster.Student
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				fail(w, http.StatusBadRequest, "file required")
				return
			}
			defer f.Close()
			// sniff CSV vs JSON by first non-space byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				fail(w, http.StatusBadRequest, "empty file")
				return
			}
			if seeker, okk := f.(io.Seeker); okk {
				_, _ = seeker.Seek(0, io.SeekStart)
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					fail(w, http.StatusBadRequest, "bad json")
					return
				}
			} else {
				rs, err := parseStudentsCSV(f)
				if err != nil {
					fail(w, http.StatusBadRequest, "bad csv: "+err.Error())
					return
				}
				rows = rs
			}
		} else {
			if !decodeBody(w, r, &rows) {
				return
			}
		}
		if len(rows) == 0 {
			ok(w, "nothing to upsert", map[string]any{"inserted": 0, "updated": 0})
			return
		}
		ins, upd, err := store.UpsertStudents(r.Context(), rows)
		if err != nil {
			failErr(w, err, "failed to upsert students")
			return
		}
		ok(w, "students upserted successfully", map[string]any{"inserted": ins, "updated": upd})
	}
}

// parseStudentsCSV expects a header row naming the student columns; order is
// free, unknown columns are ignored.
func parseStudentsCSV(r io.Reader) ([]roster.Student, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	get := func(rec []string, col string) string {
		i, okk := idx[col]
		if !okk || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []roster.Student
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		st := roster.Student{
			StudentID: get(rec, "student_id"),
			Name:      get(rec, "student_name"),
			UniID:     get(rec, "uni_id"),
			BatchID:   get(rec, "batch_id"),
			UserID:    get(rec, "user_id"),
			Password:  get(rec, "password"),
			EmailID:   get(rec, "email_id"),
			PhoneNum:  get(rec, "phone_num"),
			UniRegID:  get(rec, "uni_reg_id"),
			Section:   get(rec, "section"),
		}
		if st.StudentID == "" {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}
