package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"orgsite-client/internal/domain"
	"orgsite-client/internal/middleware"
	"orgsite-client/internal/observability"
	"orgsite-client/internal/repository/memory"
)

// Records is one backing collection.
type Records interface {
	List(ctx context.Context) []domain.Record
	Get(ctx context.Context, id string) (domain.Record, error)
	Create(ctx context.Context, fields domain.Record) domain.Record
	Update(ctx context.Context, id string, fields domain.Record) (domain.Record, error)
	Delete(ctx context.Context, id string) error
}

// ResourceHandler serves CRUD for one collection.
type ResourceHandler struct {
	kind    domain.ResourceKind
	records Records
}

func NewResourceHandler(kind domain.ResourceKind, records Records) *ResourceHandler {
	return &ResourceHandler{kind: kind, records: records}
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.records.List(r.Context()))
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rec)
}

// Create answers 201 with the stored record, id included.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	rec := h.records.Create(r.Context(), fields)
	h.logger(r).Info("record created", slog.String("id", rec.ID()))
	middleware.WriteJSON(w, http.StatusCreated, rec)
}

// Update answers 202 with the full updated record.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	rec, err := h.records.Update(r.Context(), chi.URLParam(r, "id"), fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusAccepted, rec)
}

// Delete answers 204 without a body.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.records.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger(r).Info("record deleted", slog.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ResourceHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, memory.ErrNotFound) {
		middleware.WriteDetail(w, http.StatusNotFound, h.kind.Label()+" not found")
		return
	}
	h.logger(r).Error("record operation failed", slog.String("error", err.Error()))
	middleware.WriteDetail(w, http.StatusInternalServerError, "Internal server error")
}

func (h *ResourceHandler) logger(r *http.Request) *slog.Logger {
	return observability.FromContext(observability.WithResource(r.Context(), string(h.kind)))
}

// decodeRecord requires a JSON object body.
func decodeRecord(w http.ResponseWriter, r *http.Request) (domain.Record, bool) {
	var fields domain.Record
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil || fields == nil {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, "Request body must be a JSON object")
		return nil, false
	}
	return fields, true
}
