package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/pkg/logger"
)

// Envelope is the wire shape every endpoint returns: {status, message, data}.
type Envelope struct {
	Status  string             `json:"status"`
	Message string             `json:"message,omitempty"`
	Code    internal.ErrorCode `json:"code,omitempty"`
	Data    interface{}        `json:"data,omitempty"`
}

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

// WriteSuccess writes the success envelope.
func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	h.writeEnvelope(w, status, Envelope{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// WriteError writes a plain error envelope.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	h.writeEnvelope(w, status, Envelope{
		Status:  "error",
		Message: message,
	})
}

// HandleServiceError maps service errors to the error envelope. AppErrors
// carry their own status code and machine-readable kind; anything else is an
// opaque 500 so internal error text never leaks to the caller.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.Logger.Error("internal error", "error", appErr.Error(), "code", appErr.Code)
			h.writeEnvelope(w, appErr.StatusCode, Envelope{
				Status:  "error",
				Message: "internal server error",
				Code:    appErr.Code,
			})
			return
		}
		h.writeEnvelope(w, appErr.StatusCode, Envelope{
			Status:  "error",
			Message: appErr.Message,
			Code:    appErr.Code,
			Data:    appErr.Details,
		})
		return
	}

	h.Logger.Error("unhandled service error", "error", err)
	h.writeEnvelope(w, http.StatusInternalServerError, Envelope{
		Status:  "error",
		Message: "internal server error",
	})
}

func (h *BaseHandler) writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
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
