// Package api exposes the HTTP surface of the notes service and maps
// pipeline outcomes to response codes.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kuitang/notes-api/internal/auth"
	"github.com/kuitang/notes-api/internal/errs"
	"github.com/kuitang/notes-api/internal/notes"
)

// Handler wraps the notes service and provides HTTP handlers. All routes
// assume auth middleware already ran: auth.UserID(ctx) is non-empty.
type Handler struct {
	svc     *notes.Service
	devMode bool
}

// NewHandler creates a new API handler with the given notes service.
func NewHandler(svc *notes.Service, devMode bool) *Handler {
	return &Handler{svc: svc, devMode: devMode}
}

// RegisterRoutes registers all notes API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /notes", h.CreateNote)
	mux.HandleFunc("GET /notes", h.ListNotes)
	mux.HandleFunc("PUT /notes/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE /notes/{id}", h.DeleteNote)
}

// DeleteResponse is the body of a successful DELETE /notes/{id}.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var in notes.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, r, errs.Invalid("Invalid input", errs.FieldViolation{
			Field: "body", Message: "request body must be a JSON object",
		}))
		return
	}

	note, err := h.svc.Create(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ListNotes handles GET /notes. Invalid or absent pagination parameters
// fall back to defaults rather than failing the request.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	offset := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			limit = parsed
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			offset = parsed
		}
	}

	result, err := h.svc.List(r.Context(), auth.UserID(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateNote handles PUT /notes/{id}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var in notes.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, r, errs.Invalid("Invalid input", errs.FieldViolation{
			Field: "body", Message: "request body must be a JSON object",
		}))
		return
	}

	note, err := h.svc.Update(r.Context(), auth.UserID(r.Context()), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), auth.UserID(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

// parseNoteID parses the {id} path parameter: a positive integer.
func parseNoteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.New(errs.InvalidArgument, "Invalid note id")
	}
	return id, nil
}
