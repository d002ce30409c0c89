// Package rest holds the HTTP surface shared by all handlers: request
// decoding, response writing and the error mapper.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/futbolero/checkout-service/internal/application"
)

// ErrorResponse is the error envelope: {"error": "..."} with an optional
// human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// WriteError maps application errors to HTTP responses. Validation messages
// pass through verbatim; everything else stays opaque.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	if svcErr, ok := application.IsServiceError(err); ok {
		switch svcErr.Code {
		case application.ErrCodeInvalidInput:
			WriteJSON(w, svcErr.HTTPStatus, ErrorResponse{Error: svcErr.Message})
		case application.ErrCodeSignatureInvalid:
			WriteJSON(w, svcErr.HTTPStatus, ErrorResponse{Error: "invalid_signature"})
		default:
			WriteJSON(w, svcErr.HTTPStatus, ErrorResponse{Error: "server_error"})
		}
		return
	}

	logger.Error("unmapped error reached the http layer", "error", err)
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server_error"})
}

// DecodeJSON parses a structured request body. Only non-webhook routes may
// use it; the webhook route reads raw bytes instead.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid_json: %w", err)
	}
	return nil
}

// ReadRawBody collects the request payload exactly as transmitted, capped at
// limit bytes. It must run before any structural parsing on the route: the
// returned slice is what the sender signed, byte for byte.
func ReadRawBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		// Partial reads must never be forwarded as if complete.
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body exceeds %d bytes", limit)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return payload, nil
}
