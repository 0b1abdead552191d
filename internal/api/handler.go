package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/magic/internal/composer"
	"github.com/kalambet/magic/internal/history"
	"github.com/kalambet/magic/internal/insights"
	"github.com/kalambet/magic/internal/pipeline"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Generator produces components. *pipeline.Orchestrator satisfies it.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) pipeline.Component
}

// ContextProvider exposes the project analysis cache.
type ContextProvider interface {
	GetOrAnalyze(ctx context.Context) insights.Insights
	ClearCache()
}

// Deps holds the services behind the HTTP API.
type Deps struct {
	Generator Generator
	History   *history.Store
	Composer  *composer.Composer
	Context   ContextProvider // optional; context routes return 404 when nil
	Token     string
}

// NewHandler returns the HTTP API. Everything except /health lives under
// /v1 and requires the bearer token when one is configured.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/generate", handleGenerate(deps))

		r.Get("/history", handleListHistory(deps))
		r.Delete("/history", handleClearHistory(deps))
		r.Get("/history/search", handleSearchHistory(deps))
		r.Get("/history/favorites", handleFavorites(deps))
		r.Get("/history/stats", handleStatistics(deps))
		r.Post("/history/import", handleImport(deps))
		r.Get("/history/{id}", handleGetEntry(deps))
		r.Delete("/history/{id}", handleDeleteEntry(deps))
		r.Post("/history/{id}/favorite", handleToggleFavorite(deps))
		r.Put("/history/{id}/rating", handleRate(deps))
		r.Get("/history/{id}/export", handleExport(deps))

		r.Get("/collections", handleListCollections(deps))
		r.Post("/collections", handleCreateCollection(deps))
		r.Get("/collections/{id}", handleGetCollection(deps))
		r.Delete("/collections/{id}", handleDeleteCollection(deps))
		r.Post("/collections/{id}/components", handleAddToCollection(deps))
		r.Delete("/collections/{id}/components/{entryID}", handleRemoveFromCollection(deps))

		r.Get("/pages/templates", handleListPageTemplates(deps))
		r.Post("/pages/templates", handleCreatePageTemplate(deps))
		r.Post("/pages", handleGeneratePage(deps))
		r.Post("/pages/preview", handleSectionPreview(deps))

		r.Get("/context", handleGetContext(deps))
		r.Delete("/context", handleClearContext(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// GenerateRequest is the body of POST /v1/generate.
type GenerateRequest struct {
	Prompt           string `json:"prompt"`
	SearchQuery      string `json:"searchQuery,omitempty"`
	CurrentFilePath  string `json:"currentFilePath,omitempty"`
	ProjectDirectory string `json:"projectDirectory,omitempty"`
}

func handleGenerate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "prompt is required")
			return
		}

		c := deps.Generator.Generate(r.Context(), pipeline.Request{
			Prompt:           req.Prompt,
			SearchQuery:      req.SearchQuery,
			CurrentFilePath:  req.CurrentFilePath,
			ProjectDirectory: req.ProjectDirectory,
		})
		writeJSON(w, http.StatusOK, c)
	}
}

func handleGetContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Context == nil {
			httpError(w, http.StatusNotFound, "not_found", "context analysis is disabled")
			return
		}
		writeJSON(w, http.StatusOK, deps.Context.GetOrAnalyze(r.Context()))
	}
}

func handleClearContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Context == nil {
			httpError(w, http.StatusNotFound, "not_found", "context analysis is disabled")
			return
		}
		deps.Context.ClearCache()
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
