package http

import (
	"net/http"

	"github.com/educode/educode-backend/internal/roster"

	"github.com/go-chi/chi/v5"
)

func AddBatchHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b roster.Batch
		if !decodeBody(w, r, &b) {
			return
		}
		if b.BatchID == "" || b.UniID == "" {
			fail(w, http.StatusBadRequest, "batch_id and uni_id required")
			return
		}
		if err := store.InsertBatch(r.Context(), b); err != nil {
			failErr(w, err, "failed to add batch")
			return
		}
		created(w, "batch added successfully", nil)
	}
}

func ListBatchesHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := store.ListBatches(r.Context())
		if err != nil {
			failErr(w, err, "failed to fetch batches")
			return
		}
		ok(w, "batches fetched successfully", map[string]any{"data": bs})
	}
}

func BatchesByUniversityHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := store.BatchesByUniversity(r.Context(), chi.URLParam(r, "universityId"))
		if err != nil {
			failErr(w, err, "failed to fetch batches")
			return
		}
		ok(w, "batches fetched successfully", map[string]any{"data": bs})
	}
}

func GetBatchHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := store.GetBatch(r.Context(), chi.URLParam(r, "batchId"))
		if err != nil {
			failErr(w, err, "batch not found")
			return
		}
		ok(w, "batch fetched successfully", map[string]any{"data": b})
	}
}

func UpdateBatchHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if !decodeBody(w, r, &fields) {
			return
		}
		if err := store.UpdateBatch(r.Context(), chi.URLParam(r, "batchId"), fields); err != nil {
			failErr(w, err, "failed to update batch")
			return
		}
		ok(w, "batch updated successfully", nil)
	}
}

func DeleteBatchHandler(store *roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteBatch(r.Context(), chi.URLParam(r, "batchId")); err != nil {
			failErr(w, err, "failed to delete batch")
			return
		}
		ok(w, "batch deleted successfully", nil)
	}
}
