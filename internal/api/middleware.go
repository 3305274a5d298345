package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"repairdesk/internal/db"
	"repairdesk/internal/service"

	"go.uber.org/zap"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// WriteError writes a standardized error response.
func WriteError(w http.ResponseWriter, code int, errCode, message string, log *zap.Logger) {
	if code >= http.StatusInternalServerError {
		log.Error("API error", zap.String("code", errCode), zap.String("message", message))
	} else {
		log.Warn("API error", zap.String("code", errCode), zap.String("message", message))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	resp := ErrorResponse{
		Error:   errCode,
		Message: message,
	}
	if errCode != "" {
		resp.Code = errCode
	}

	json.NewEncoder(w).Encode(resp)
}

// WriteServiceError maps service and db errors onto the error taxonomy:
// bad input 400, missing rows 404, a second conversion 409, the rest 500.
func WriteServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), log)
	case errors.Is(err, service.ErrNoSellableProducts):
		WriteError(w, http.StatusBadRequest, "no_sellable_products", err.Error(), log)
	case errors.Is(err, db.ErrAlreadyConverted):
		WriteError(w, http.StatusConflict, "already_converted", "Request has already been converted", log)
	case errors.Is(err, db.ErrRequestNotFound),
		errors.Is(err, db.ErrTaskNotFound),
		errors.Is(err, db.ErrProductNotFound),
		errors.Is(err, db.ErrOrderNotFound),
		errors.Is(err, db.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error(), log)
	default:
		WriteError(w, http.StatusInternalServerError, "internal", err.Error(), log)
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// RequestLogger logs HTTP requests and responses.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// WebSocket upgrades need the raw ResponseWriter.
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			log.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
