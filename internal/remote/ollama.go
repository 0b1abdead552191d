package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultOllamaURL is where a local Ollama listens by default.
const DefaultOllamaURL = "http://localhost:11434"

const ollamaSystemPrompt = `You are a UI component generator. Write a single self-contained React function component styled with Tailwind CSS utility classes for the user's request. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Rules:
- "code" holds the complete component source with a default export.
- "name" is the PascalCase component name used in the default export.
- "explanation" is one sentence describing the component.
- Do not import anything except React hooks.`

// chatMessage is one message in the Ollama chat format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type schemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type schema struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   *schema       `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// PullProgress is one line of a streamed model pull.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}

// OllamaGenerator makes the generation call to a local Ollama model through
// /api/chat with a JSON schema, so the reply has the same shape as the HTTP
// backend's.
type OllamaGenerator struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOllamaGenerator creates a generator using model on the Ollama server at
// baseURL. ClientOptions that apply to HTTP transport and rate limiting are
// honoured; WithAPIKey is ignored.
func NewOllamaGenerator(baseURL, model string, opts ...ClientOption) *OllamaGenerator {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	c := NewClient(baseURL, opts...)
	return &OllamaGenerator{
		baseURL:    c.baseURL,
		model:      model,
		httpClient: c.httpClient,
		limiter:    c.limiter,
	}
}

// Name implements Generator.
func (g *OllamaGenerator) Name() string { return "ollama" }

// Model returns the model name requests are sent to.
func (g *OllamaGenerator) Model() string { return g.model }

// Generate implements Generator.
func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return Result{}, err
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:    g.model,
		Messages: buildMessages(req),
		Format:   componentSchema(),
	})
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Result{}, fmt.Errorf("%w: decoding chat response: %v", ErrMalformedResponse, err)
	}

	res, err := decodeResult([]byte(cr.Message.Content), g.Name())
	if err != nil {
		return Result{}, err
	}
	if res.Metadata.Model == "" {
		res.Metadata.Model = g.model
	}
	return res, nil
}

// buildMessages constructs the chat messages for one generation request.
func buildMessages(req Request) []chatMessage {
	var sb strings.Builder
	sb.WriteString(ollamaSystemPrompt)
	if req.CurrentFile != "" {
		fmt.Fprintf(&sb, "\n\n[Current File]\n%s", req.CurrentFile)
	}
	user := req.Prompt
	if req.SearchQuery != "" && req.SearchQuery != req.Prompt {
		user += "\n\nRelated search: " + req.SearchQuery
	}
	return []chatMessage{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: user},
	}
}

func componentSchema() *schema {
	return &schema{
		Type: "object",
		Properties: map[string]schemaProperty{
			"code":        {Type: "string", Description: "Complete component source"},
			"name":        {Type: "string", Description: "PascalCase component name"},
			"explanation": {Type: "string", Description: "One sentence describing the component"},
		},
		Required: []string{"code", "name", "explanation"},
	}
}

// Ping returns nil if Ollama answers GET /api/tags with 200.
func (g *OllamaGenerator) Ping(ctx context.Context) error {
	_, err := g.listModels(ctx, 2*time.Second)
	return err
}

func (g *OllamaGenerator) listModels(ctx context.Context, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}
	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// HasModel reports whether the configured model is present locally. Ollama
// lists tagged names ("llama3:latest"), so the bare name matches any tag.
func (g *OllamaGenerator) HasModel(ctx context.Context) (bool, error) {
	models, err := g.listModels(ctx, 10*time.Second)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m == g.model || strings.HasPrefix(m, g.model+":") {
			return true, nil
		}
	}
	return false, nil
}

// EnsureModel pulls the configured model if it is missing. onProgress, if
// non-nil, receives each streamed progress line.
func (g *OllamaGenerator) EnsureModel(ctx context.Context, onProgress func(PullProgress)) error {
	ok, err := g.HasModel(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	body, err := json.Marshal(map[string]any{"name": g.model, "stream": true})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pulling model %s: %w", g.model, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pull %s: %w", g.model, &StatusError{Code: resp.StatusCode})
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var p PullProgress
		if err := dec.Decode(&p); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("reading pull progress: %w", err)
		}
		if onProgress != nil {
			onProgress(p)
		}
	}
}
