package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/magic/internal/history"
)

// historyError maps store errors to HTTP statuses.
func historyError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, history.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%s not found", what)
	case errors.Is(err, history.ErrInvalidRating),
		errors.Is(err, history.ErrMalformedImport),
		errors.Is(err, history.ErrInvalidMetadata):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%s: %v", what, err)
	}
}

func handleListHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		writeJSON(w, http.StatusOK, deps.History.List(limit))
	}
}

func handleSearchHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := deps.History.Search(r.URL.Query().Get("q"))
		if limit := parseIntParam(r, "limit", 0, 100); limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleFavorites(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.History.Favorites())
	}
}

func handleStatistics(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.History.Statistics())
	}
}

func handleGetEntry(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := deps.History.Get(chi.URLParam(r, "id"))
		if err != nil {
			historyError(w, err, "entry")
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func handleDeleteEntry(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.History.Delete(chi.URLParam(r, "id")); err != nil {
			historyError(w, err, "entry")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleClearHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.History.ClearHistory(); err != nil {
			historyError(w, err, "history")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

func handleToggleFavorite(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fav, err := deps.History.ToggleFavorite(chi.URLParam(r, "id"))
		if err != nil {
			historyError(w, err, "entry")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"favorite": fav})
	}
}

func handleRate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Rating int `json:"rating"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if err := deps.History.Rate(chi.URLParam(r, "id"), body.Rating); err != nil {
			historyError(w, err, "entry")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"rating": body.Rating})
	}
}

func handleExport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := deps.History.ExportEntry(chi.URLParam(r, "id"))
		if err != nil {
			historyError(w, err, "entry")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(data))
	}
}

func handleImport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()
		data, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading request body: %v", err)
			return
		}
		e, err := deps.History.ImportEntry(string(data))
		if err != nil {
			historyError(w, err, "import")
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// CollectionRequest is the body of POST /v1/collections.
type CollectionRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IsPublic    bool     `json:"isPublic"`
}

func handleListCollections(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.History.Collections())
	}
}

func handleCreateCollection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CollectionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}
		c, err := deps.History.CreateCollection(req.Name, req.Description, req.Tags, req.IsPublic)
		if err != nil {
			historyError(w, err, "collection")
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleGetCollection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := deps.History.GetCollection(chi.URLParam(r, "id"))
		if err != nil {
			historyError(w, err, "collection")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleDeleteCollection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.History.DeleteCollection(chi.URLParam(r, "id")); err != nil {
			historyError(w, err, "collection")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleAddToCollection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ComponentID string `json:"componentId"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.ComponentID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "componentId is required")
			return
		}
		id := chi.URLParam(r, "id")
		if err := deps.History.AddToCollection(id, body.ComponentID); err != nil {
			historyError(w, err, "collection or entry")
			return
		}
		c, err := deps.History.GetCollection(id)
		if err != nil {
			historyError(w, err, "collection")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleRemoveFromCollection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.History.RemoveFromCollection(chi.URLParam(r, "id"), chi.URLParam(r, "entryID")); err != nil {
			historyError(w, err, "collection member")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}
