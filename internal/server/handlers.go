package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/guff/internal/backend"
	"github.com/roach88/guff/internal/model"
	"github.com/roach88/guff/internal/store"
	"github.com/roach88/guff/internal/validate"
)

const (
	maxBodySize  = 16 * 1024
	maxPageLimit = 1000
	version      = "0.1.0"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler creates a Handler backed by st.
func NewHandler(st *store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: st, logger: logger}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"` // "healthy" or "degraded"
	Version   string `json:"version"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Version:   version,
		Database:  "pass",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "fail"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// GetMessages handles GET /messages?limit=&offset=.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs, err := h.session(r).GetMessages(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, backend.MessagesResponse{Messages: msgs})
}

// SendMessage handles POST /messages.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req backend.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}

	ts, err := h.session(r).PostMessage(r.Context(), req.DisplayName, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, backend.SendMessageResponse{Timestamp: ts})
}

// GetQuestions handles GET /questions?limit=&offset=.
func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	qs, err := h.session(r).GetQuestions(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, backend.QuestionsResponse{Questions: qs})
}

// CreateQuestion handles POST /questions.
func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req backend.CreateQuestionRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := h.session(r).CreateQuestion(r.Context(), req.DisplayName, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, backend.CreateQuestionResponse{ID: id})
}

// AnswerQuestion handles PUT /questions/{id}/answer.
func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	var req backend.AnswerQuestionRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.session(r).AnswerQuestion(r.Context(), model.QuestionID(id), req.Answer); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /profile. A caller without a profile gets 404.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.session(r).GetCallerUserProfile(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "no profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveProfile handles PUT /profile.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if !decode(w, r, &p) {
		return
	}

	if err := h.session(r).SaveCallerUserProfile(r.Context(), p); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(r *http.Request) *store.Session {
	return h.store.ForPrincipal(principal(r))
}

// fail maps a store error to a response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// page parses limit and offset. Missing values default to a full first page.
func page(r *http.Request) (limit, offset int, err error) {
	limit = backend.DefaultPageSize
	q := r.URL.Query()

	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", s)
		}
	}
	if s := q.Get("offset"); s != "" {
		offset, err = strconv.Atoi(s)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", s)
		}
	}

	return min(limit, maxPageLimit), offset, nil
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError sends a JSON error response with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, backend.ErrorResponse{Error: message})
}
