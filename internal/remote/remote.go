// Package remote reaches an external code-generation service. A backend
// makes one generation call per request, repeated only when the service
// answers 429, and reports any deviation from the expected response shape as
// an error. Callers treat every error as a miss.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMalformedResponse is returned when a response does not match the
	// expected schema.
	ErrMalformedResponse = errors.New("malformed generation response")

	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("generation service unavailable")
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Request is the body of a generation call.
type Request struct {
	Prompt      string `json:"prompt"`
	SearchQuery string `json:"searchQuery"`
	CurrentFile string `json:"currentFile"`
}

// Metadata is the optional descriptive block of a Result.
type Metadata struct {
	Type     string   `json:"type,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Model    string   `json:"model,omitempty"`
}

// Result is a generated component returned by a backend.
type Result struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Explanation string   `json:"explanation"`
	Source      string   `json:"source"`
	Metadata    Metadata `json:"metadata"`
}

// Generator produces a component for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
	// Name identifies the backend in logs and provenance labels.
	Name() string
}

// wireResult uses pointers so absent required fields can be told apart from
// empty ones.
type wireResult struct {
	Code        *string   `json:"code"`
	Name        *string   `json:"name"`
	Explanation *string   `json:"explanation"`
	Source      *string   `json:"source"`
	Metadata    *Metadata `json:"metadata"`
}

// decodeResult parses and validates a generation response. code and name are
// required and must be non-empty; the other fields are optional but must
// have the right types.
func decodeResult(data []byte, defaultSource string) (Result, error) {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if w.Code == nil || strings.TrimSpace(*w.Code) == "" {
		return Result{}, fmt.Errorf("%w: missing code", ErrMalformedResponse)
	}
	if w.Name == nil || strings.TrimSpace(*w.Name) == "" {
		return Result{}, fmt.Errorf("%w: missing name", ErrMalformedResponse)
	}
	r := Result{Code: *w.Code, Name: strings.TrimSpace(*w.Name), Source: defaultSource}
	if w.Explanation != nil {
		r.Explanation = *w.Explanation
	}
	if w.Source != nil && *w.Source != "" {
		r.Source = *w.Source
	}
	if w.Metadata != nil {
		r.Metadata = *w.Metadata
	}
	return r, nil
}

// Pinger is implemented by backends that can probe their service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend names accepted by New.
const (
	BackendNone   = ""
	BackendHTTP   = "http"
	BackendOllama = "ollama"
)

// Config selects and configures a backend.
type Config struct {
	Backend   string
	BaseURL   string
	Model     string
	APIKey    string
	RateLimit float64
	Timeout   time.Duration
}

// New returns the configured backend, or nil when no backend is configured.
func New(cfg Config) (Generator, error) {
	opts := []ClientOption{WithRateLimit(cfg.RateLimit), WithTimeout(cfg.Timeout)}
	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case BackendHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("remote backend %q requires a base URL", cfg.Backend)
		}
		return NewClient(cfg.BaseURL, append(opts, WithAPIKey(cfg.APIKey))...), nil
	case BackendOllama:
		if cfg.Model == "" {
			return nil, fmt.Errorf("remote backend %q requires a model", cfg.Backend)
		}
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model, opts...), nil
	default:
		return nil, fmt.Errorf("unknown remote backend %q", cfg.Backend)
	}
}
