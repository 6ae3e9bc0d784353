package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
)

const maxJSONBody = 1 << 20

// Response represents a standard API response.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes a JSON response.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}

	json.NewEncoder(w).Encode(resp)
}

// Common error responses
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message)
}

func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, "CONFLICT", message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, "FORBIDDEN", message)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, "RATE_LIMITED", message)
}

// UpstreamError translates a platform API failure into a response.
func UpstreamError(w http.ResponseWriter, logger *zap.Logger, err error, what string) {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		Error(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired, please sign in again")
		return
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusNotFound:
			NotFound(w, what+" not found")
			return
		case apiErr.Status == http.StatusForbidden:
			Forbidden(w, apiErr.Message)
			return
		case apiErr.Status == http.StatusConflict:
			Conflict(w, apiErr.Message)
			return
		case apiErr.IsValidation():
			code := apiErr.Code
			if code == "" {
				code = "VALIDATION_FAILED"
			}
			Error(w, http.StatusUnprocessableEntity, code, apiErr.Message)
			return
		}
	}

	logger.Error("upstream call failed", zap.String("what", what), zap.Error(err))
	Error(w, http.StatusBadGateway, "UPSTREAM_ERROR", "failed to reach platform: "+what)
}

// decodeJSON reads a size-limited JSON body. On failure it writes a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			BadRequest(w, "request body is empty")
		} else {
			BadRequest(w, "invalid request body")
		}
		return false
	}
	return true
}
