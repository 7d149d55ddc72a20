package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tessera/internal/domain"
	"tessera/internal/service"
)

// Handler handles graph API requests
type Handler struct {
	engine *service.Engine
	events http.Handler
	log    *zap.Logger
}

// New creates a new API handler. events serves the SSE feed; it may be nil
// when no feed is mounted.
func New(engine *service.Engine, events http.Handler, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: engine, events: events, log: log}
}

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// decode unmarshals a JSON request body, tagging malformed bodies as invalid
// input so they map to 400 rather than 500.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn("failed to encode JSON response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.log.Error(message, zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Details: err.Error(),
	}); encErr != nil {
		h.log.Warn("failed to encode error response", zap.Error(encErr))
	}
}

// statusOf maps the engine's typed failure kinds onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrDuplicateAttribute),
		errors.Is(err, domain.ErrDuplicateRole),
		errors.Is(err, domain.ErrSchemaInUse),
		errors.Is(err, domain.ErrCardinalityViolation),
		errors.Is(err, domain.ErrDanglingLinks):
		return http.StatusConflict

	case errors.Is(err, domain.ErrTypeMismatch),
		errors.Is(err, domain.ErrEmptySchemaSet),
		errors.Is(err, domain.ErrDisallowedParticipant),
		errors.Is(err, domain.ErrNotARelationSchema),
		errors.Is(err, domain.ErrNotARelation),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrUnknownEntity),
		errors.Is(err, domain.ErrUnknownSchema),
		errors.Is(err, domain.ErrUnknownAttribute),
		errors.Is(err, domain.ErrUnknownRole):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// requestLogger logs each request with method, path, status and duration.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush lets the SSE feed stream through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
