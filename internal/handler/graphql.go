package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/hackernews/internal/apperror"
	"github.com/sakif/hackernews/internal/graph"
)

// maxBodyBytes caps the size of a POSTed GraphQL request.
const maxBodyBytes = 1 << 20

// GraphQLRequest is the standard GraphQL-over-HTTP request body.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// GraphQLHandler serves /graphql.
type GraphQLHandler struct {
	schema *graph.Schema
	logger *slog.Logger
}

func NewGraphQLHandler(schema *graph.Schema, logger *slog.Logger) *GraphQLHandler {
	return &GraphQLHandler{schema: schema, logger: logger}
}

// ServeHTTP accepts the two common transports:
//
//	GET  /graphql?query=...&operationName=...&variables={...}
//	POST /graphql  {"query": "...", "operationName": "...", "variables": {...}}
//
// A POST with Content-Type application/graphql carries the bare query as
// the body. Execution errors come back with status 200 inside "errors";
// only requests that can't be decoded get a 4xx.
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	result := h.schema.Execute(r.Context(), req.Query, req.OperationName, req.Variables)
	if len(result.Errors) > 0 {
		h.logger.Debug("graphql operation returned errors",
			slog.String("operation", req.OperationName),
			slog.Int("errors", len(result.Errors)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}

	writeJSON(w, http.StatusOK, result)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*GraphQLRequest, error) {
	var req GraphQLRequest

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return nil, apperror.ValidationFailed("variables", "variables must be a JSON object")
			}
		}

	case http.MethodPost:
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/graphql") {
			raw, err := io.ReadAll(body)
			if err != nil {
				return nil, bodyError(err)
			}
			req.Query = string(raw)
			break
		}
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return nil, bodyError(err)
		}

	default:
		return nil, apperror.ValidationFailed("", "only GET and POST are supported")
	}

	if strings.TrimSpace(req.Query) == "" {
		return nil, apperror.ValidationFailed("query", "must provide a query string")
	}
	return &req, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ValidationFailed("", "request body too large")
	}
	return apperror.ValidationFailed("", "request body must be a JSON object with a query field")
}
