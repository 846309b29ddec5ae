// Package response defines the JSON envelope every API response is wrapped in
// and helpers for writing it from plain net/http handlers.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	domainerrors "github.com/sixtrece/beats-server/internal/errors"
)

// Version is the envelope format version sent as "v".
const Version = 1

// Envelope is the wire shape of all JSON responses.
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Ok builds a success envelope.
func Ok(data any) Envelope {
	return Envelope{V: Version, Success: true, Data: data}
}

// Fail builds an error envelope.
func Fail(code, message string, details any) Envelope {
	return Envelope{V: Version, Success: false, Code: code, Message: message, Details: details}
}

// IsSuccessStatus reports whether a huma status string ("200", "404") is below 400.
func IsSuccessStatus(status string) bool {
	n, err := strconv.Atoi(status)
	if err != nil {
		return false
	}
	return n < http.StatusBadRequest
}

// Write encodes an envelope with the given status code.
func Write(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil && logger != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// JSON writes data in a success envelope.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	Write(w, status, Ok(data), logger)
}

// Error writes a coded error envelope. The status is derived from the code.
func Error(w http.ResponseWriter, code domainerrors.Code, message string, logger *slog.Logger) {
	Write(w, code.HTTPStatus(), Fail(string(code), message, nil), logger)
}

// NotFound writes a 404 error envelope.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.CodeNotFound, message, logger)
}

// HandleError maps err to an error envelope. Domain errors keep their code;
// anything else becomes a 500 with a generic message.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		Write(w, domainErr.HTTPStatus(), Fail(string(domainErr.Code), domainErr.Message, domainErr.Details), logger)
		return
	}

	if logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	Error(w, domainerrors.CodeInternal, "internal server error", logger)
}
