package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/report-hub/internal"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/pkg/logger"
	"github.com/go-chi/chi"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Envelope is merged into the success response next to "success": true.
type Envelope map[string]interface{}

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteSuccess writes {"success": true, ...payload}.
func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, status int, payload Envelope) {
	body := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	h.WriteJSON(w, status, body)
}

// WriteAppError writes the failure envelope for a typed error.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps domain errors onto the failure envelope. Anything
// that is not an AppError is reported as a generic server error.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		if appErr.Type == internal.ErrorTypeInternal {
			h.Logger.Error("internal error", "error", err)
			h.WriteAppError(w, internal.NewInternalError("Server Error", nil))
			return
		}
		h.WriteAppError(w, appErr)
		return
	}

	h.Logger.Error("unhandled service error", "error", err)
	h.WriteAppError(w, internal.NewInternalError("Server Error", nil))
}

// DecodeJSON decodes the request body into dst. An empty body decodes to the zero value.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return internal.ErrInvalidBody.WithCause(err)
	}
	return nil
}

// ParseIDParam reads a positive integer chi URL parameter.
func (h *BaseHandler) ParseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.ErrInvalidID
	}
	return id, nil
}

// ParsePagination reads page and limit query parameters.
func (h *BaseHandler) ParsePagination(r *http.Request, defaultLimit int) (page, limit int) {
	page, limit = 1, defaultLimit
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Caller returns the authenticated caller or writes a 401.
func (h *BaseHandler) Caller(w http.ResponseWriter, r *http.Request, op string) (coreuser.Caller, bool) {
	caller, ok := internal.CallerFromContext(r.Context())
	if !ok {
		h.Logger.Error(op + ": caller not found in context")
		h.WriteAppError(w, internal.ErrMissingToken)
		return coreuser.Caller{}, false
	}
	return caller, true
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}

func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
