package http

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/educode/educode-backend/internal/roster"
	"github.com/educode/educode-backend/internal/storage"

	"github.com/google/uuid"
)

const maxProfileImageBytes = 5 << 20

// UploadProfileImageHandler stores a student's profile picture and writes
// its public URL back to the roster row.
func UploadProfileImageHandler(blobs storage.BlobStore, students *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxProfileImageBytes); err != nil {
			fail(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		studentID := r.FormValue("studentId")
		if studentID == "" {
			fail(w, http.StatusBadRequest, "missing required parameter: studentId")
			return
		}
		file, hdr, err := r.FormFile("image")
		if err != nil {
			fail(w, http.StatusBadRequest, "missing image file")
			return
		}
		defer file.Close()

		ext := strings.ToLower(path.Ext(hdr.Filename))
		switch ext {
		case ".png", ".jpg", ".jpeg", ".webp":
		default:
			fail(w, http.StatusBadRequest, "unsupported image type")
			return
		}

		key := fmt.Sprintf("profiles/%s/%s%s", studentID, uuid.NewString(), ext)
		stored, err := blobs.Put(key, http.MaxBytesReader(w, file, maxProfileImageBytes))
		if err != nil {
			failErr(w, err, "failed to store image")
			return
		}
		url, err := blobs.PublicURL(stored)
		if err != nil {
			failErr(w, err, "failed to resolve image url")
			return
		}

		if err := students.UpdateStudent(r.Context(), studentID, map[string]any{"profile_image_link": url}); err != nil {
			failErr(w, err, "image stored but profile update failed")
			return
		}
		ok(w, "profile image uploaded successfully", map[string]any{"url": url})
	}
}
