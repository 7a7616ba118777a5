package handler

// RESPONSE HELPERS:
// Every error this package writes uses the GraphQL error envelope, even when
// the request never reached the executor (bad JSON, missing query):
//
//	{"errors": [{"message": "...", "extensions": {"code": "BAD_USER_INPUT"}}]}
//
// Clients then only need one error parser for the whole API.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/hackernews/internal/apperror"
)

// ErrorResponse mirrors the "errors" member of a GraphQL response.
type ErrorResponse struct {
	Errors []ErrorEntry `json:"errors"`
}

type ErrorEntry struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body; once Encode writes, they
// are on the wire and later changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and writes the envelope.
//
// errors.As walks the wrap chain, so a service error like
// fmt.Errorf("service/link: %w", apperror.NotFound(...)) still maps to 404.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code() {
		case apperror.CodeBadUserInput:
			status = http.StatusBadRequest
		case apperror.CodeUnauthenticated:
			status = http.StatusUnauthorized
		case apperror.CodeForbidden:
			status = http.StatusForbidden
		case apperror.CodeNotFound:
			status = http.StatusNotFound
		case apperror.CodeConflict:
			status = http.StatusConflict
		}

		message := appErr.Message
		if status == http.StatusInternalServerError {
			message = "An internal error occurred"
		}
		writeJSON(w, status, ErrorResponse{Errors: []ErrorEntry{{
			Message:    message,
			Extensions: appErr.Extensions(),
		}}})
		return
	}

	// NEVER expose internal error details; they can contain SQL or paths.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Errors: []ErrorEntry{{
		Message:    "An internal error occurred",
		Extensions: map[string]any{"code": apperror.CodeInternal},
	}}})
}
