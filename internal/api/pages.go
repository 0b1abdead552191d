package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kalambet/magic/internal/composer"
)

// PageRequest is the body of POST /v1/pages.
type PageRequest struct {
	TemplateID     string                   `json:"templateId"`
	Customizations *composer.Customizations `json:"customizations,omitempty"`
}

// PreviewRequest is the body of POST /v1/pages/preview.
type PreviewRequest struct {
	Type  string             `json:"type"`
	Theme composer.ThemeSpec `json:"theme"`
}

// progressEvent is streamed while a page is generated.
type progressEvent struct {
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

func handleListPageTemplates(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Composer.Templates())
	}
}

func handleCreatePageTemplate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t composer.PageTemplate
		if !decodeBody(w, r, &t) {
			return
		}
		created, err := deps.Composer.CreateCustomTemplate(t)
		if errors.Is(err, composer.ErrInvalidTemplate) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "creating template: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// handleGeneratePage generates a page. With "Accept: text/event-stream" the
// progress is streamed as "progress" events followed by one "page" event.
func handleGeneratePage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if _, ok := deps.Composer.Template(req.TemplateID); !ok {
			httpError(w, http.StatusNotFound, "not_found", "page template %q not found", req.TemplateID)
			return
		}

		if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
			page, err := deps.Composer.GeneratePage(r.Context(), req.TemplateID, req.Customizations, nil)
			if err != nil {
				httpError(w, http.StatusNotFound, "not_found", "%v", err)
				return
			}
			writeJSON(w, http.StatusOK, page)
			return
		}

		es, ok := newEventStream(w)
		if !ok {
			httpError(w, http.StatusInternalServerError, "api_error", "streaming not supported")
			return
		}
		page, err := deps.Composer.GeneratePage(r.Context(), req.TemplateID, req.Customizations, func(msg string, pct int) {
			es.send("progress", progressEvent{Message: msg, Percent: pct})
		})
		if err != nil {
			es.send("error", map[string]any{"error": map[string]any{"message": err.Error(), "type": "not_found"}})
			return
		}
		es.send("page", page)
	}
}

func handleSectionPreview(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PreviewRequest
		if !decodeBody(w, r, &req) {
			return
		}
		page, err := deps.Composer.GenerateSectionPreview(r.Context(), req.Type, req.Theme)
		if errors.Is(err, composer.ErrUnknownSection) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v (known: %s)", err, strings.Join(composer.SectionTypes(), ", "))
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "generating preview: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// eventStream writes Server-Sent Events, flushing after each one.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return &eventStream{w: w, flusher: flusher}, true
}

func (es *eventStream) send(event string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal stream event", "event", event, "error", err)
		return
	}
	fmt.Fprintf(es.w, "event: %s\ndata: %s\n\n", event, payload)
	es.flusher.Flush()
}
