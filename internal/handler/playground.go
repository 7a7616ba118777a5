// Package handler contains the HTTP handlers: the GraphQL endpoint, the API
// explorer page and the health check.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (query params, body, headers)
// 2. Hand off to the GraphQL executor (or render a template)
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers should NOT contain business logic; they are the glue between HTTP
// and the rest of the app.
package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// PlaygroundHandler serves the in-browser API explorer.
// The template is parsed once at startup and reused for every request.
type PlaygroundHandler struct {
	templates *template.Template
	endpoint  string
	logger    *slog.Logger
}

// NewPlaygroundHandler parses the embedded explorer page. endpoint is the
// path the page sends its queries to, normally "/graphql".
func NewPlaygroundHandler(endpoint string, logger *slog.Logger) (*PlaygroundHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/playground.html")
	if err != nil {
		return nil, err
	}

	return &PlaygroundHandler{
		templates: tmpl,
		endpoint:  endpoint,
		logger:    logger,
	}, nil
}

// HandlePlayground renders the explorer page.
func (h *PlaygroundHandler) HandlePlayground(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":    "Hacker News API Explorer",
		"Endpoint": h.endpoint,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.templates.ExecuteTemplate(w, "playground.html", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
