package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/hackernews/internal/apperror"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key could be
// read or shadowed by any package that knows the string. Only THIS package can
// create a key of type contextKey, so only this package can read or write the
// caller's id in the context.
type contextKey string

const userIDKey contextKey = "userID"

// ResolveIdentity turns an Authorization header value into a caller id.
//
//   - "" → anonymous: (0, false, nil)
//   - "Bearer <jwt>" with a valid token → (userId, true, nil)
//   - a header with no second field ("Bearer", "abc") → MissingToken
//   - a second field that fails validation → InvalidToken
//
// The scheme word itself is not checked; the token is the second
// whitespace-separated field.
func ResolveIdentity(tokens *TokenService, header string) (int, bool, error) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return 0, false, nil
	}
	if len(fields) < 2 {
		return 0, false, apperror.MissingToken()
	}
	token := fields[1]

	userID, err := tokens.Validate(token)
	if err != nil {
		return 0, false, err
	}
	return userID, true, nil
}

// Identify is a middleware that resolves the caller from the Authorization
// header before the GraphQL handler runs.
//
// Requests without the header pass through anonymously; reads and the
// signup/login mutations never need a caller. A header that is present but
// unusable stops the request with 401 and a GraphQL-shaped error body, so
// clients see the same envelope they get from resolver errors.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	    })
//	}
func Identify(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok, err := ResolveIdentity(tokens, r.Header.Get("Authorization"))
			if err != nil {
				logger.Warn("rejected authorization header",
					"error", err,
					"request_id", middleware.GetReqID(r.Context()),
				)
				writeUnauthenticated(w, err)
				return
			}
			if ok {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a copy of ctx carrying the caller's id.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Returns (0, false) if the request is anonymous.
func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok && id > 0
}

// RequireUser is the guard for mutations that act on behalf of a caller.
// message is what an anonymous caller is told, e.g. "Cannot vote without
// logging in."
func RequireUser(ctx context.Context, message string) (int, error) {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		return 0, apperror.Unauthorized(message)
	}
	return id, nil
}

type errorBody struct {
	Errors []errorEntry `json:"errors"`
}

type errorEntry struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func writeUnauthenticated(w http.ResponseWriter, err error) {
	entry := errorEntry{
		Message:    "invalid authentication token",
		Extensions: map[string]any{"code": apperror.CodeUnauthenticated},
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		entry.Message = appErr.Message
		entry.Extensions = appErr.Extensions()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(errorBody{Errors: []errorEntry{entry}})
}
