// Package http holds the handler layer. Responses use the platform's stable
// envelope: {"success": bool, "message": string, ...}.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/educode/educode-backend/internal/content"
	"github.com/educode/educode-backend/internal/grading"
	"github.com/educode/educode-backend/internal/judge"
	"github.com/educode/educode-backend/internal/roster"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, message string, extra map[string]any) {
	body := map[string]any{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func created(w http.ResponseWriter, message string, extra map[string]any) {
	body := map[string]any{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusCreated, body)
}

func fail(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{"success": false, "message": message})
}

// failErr maps domain sentinels to status codes; everything else is a 500
// with the cause in the message.
func failErr(w http.ResponseWriter, err error, message string) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, content.ErrNotFound), errors.Is(err, roster.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, roster.ErrInvalidCredentials):
		code = http.StatusUnauthorized
	case errors.Is(err, grading.ErrNoHiddenTests):
		code = http.StatusNotFound
	case errors.Is(err, judge.ErrTimeout), errors.Is(err, judge.ErrNoTokens):
		code = http.StatusBadGateway
	}
	writeJSON(w, code, map[string]any{"success": false, "message": message, "error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}
