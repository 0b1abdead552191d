package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/magic/internal/history"
	"github.com/kalambet/magic/internal/insights"
	"github.com/kalambet/magic/internal/remote"
	"github.com/kalambet/magic/internal/templates"
)

// --- Mocks ---

type mockContext struct {
	mu       sync.Mutex
	in       insights.Insights
	root     string
	cached   int
	analyzed []string
	panics   bool
}

func (m *mockContext) GetOrAnalyze(ctx context.Context) insights.Insights {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panics {
		panic("analyzer exploded")
	}
	m.cached++
	return m.in
}

func (m *mockContext) Analyze(ctx context.Context, path string) insights.Insights {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzed = append(m.analyzed, path)
	return m.in
}

func (m *mockContext) Root() string { return m.root }

type mockRemote struct {
	res    remote.Result
	err    error
	panics bool
	calls  []remote.Request
}

func (m *mockRemote) Generate(ctx context.Context, req remote.Request) (remote.Result, error) {
	m.calls = append(m.calls, req)
	if m.panics {
		panic("remote exploded")
	}
	return m.res, m.err
}

func (m *mockRemote) Name() string { return "mock" }

type mockRecorder struct {
	added []history.Metadata
	codes []string
	err   error
}

func (m *mockRecorder) Add(code, prompt string, meta history.Metadata) (history.Entry, error) {
	m.added = append(m.added, meta)
	m.codes = append(m.codes, code)
	if m.err != nil {
		return history.Entry{}, m.err
	}
	return history.Entry{ID: "h-1", Version: 1, Code: code, Prompt: prompt, Metadata: meta}, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func projectInsights() insights.Insights {
	return insights.Insights{
		StylingApproach: "tailwind",
		DesignSystem: insights.DesignSystem{
			Colors:       []string{"violet-500", "slate-700"},
			BorderRadius: []string{"rounded-md"},
		},
		Recommendations: insights.Recommendations{CompatibilityScore: 0.9},
	}
}

func newTestOrchestrator(opts ...Option) *Orchestrator {
	base := []Option{WithLogger(quietLogger()), WithClock(fixedClock{time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)})}
	return New(templates.Default(), append(base, opts...)...)
}

// --- Tests ---

func TestGenerate_ContextAware(t *testing.T) {
	ctxSrc := &mockContext{in: projectInsights(), root: "/proj"}
	rec := &mockRecorder{}
	o := newTestOrchestrator(WithContextSource(ctxSrc), WithRecorder(rec))

	c := o.Generate(context.Background(), Request{Prompt: "glow button"})

	if !c.Success {
		t.Fatal("Success = false")
	}
	if c.Metadata.Source != SourceContextAware || !c.Metadata.ContextAware {
		t.Errorf("metadata = %+v", c.Metadata)
	}
	if c.Metadata.TemplateID != "button-glow" || c.Name != "GlowButton" {
		t.Errorf("expected button-glow template, got %s / %s", c.Metadata.TemplateID, c.Name)
	}
	if c.Metadata.CompatibilityScore != 0.9 {
		t.Errorf("CompatibilityScore = %v", c.Metadata.CompatibilityScore)
	}
	if !strings.Contains(c.Code, "bg-violet-500") || strings.Contains(c.Code, "bg-purple-600") {
		t.Errorf("template colors not aligned with project palette:\n%s", c.Code)
	}
	if c.Metadata.Type != history.TypeButton {
		t.Errorf("Type = %q, want button", c.Metadata.Type)
	}
	if ctxSrc.cached != 1 {
		t.Errorf("GetOrAnalyze calls = %d, want 1", ctxSrc.cached)
	}
	if len(rec.added) != 1 || rec.added[0].Source != SourceContextAware || rec.codes[0] != c.Code {
		t.Errorf("recorded %+v", rec.added)
	}
	if c.Metadata.HistoryID != "h-1" || c.Metadata.Version != 1 {
		t.Errorf("history reference not set: %+v", c.Metadata)
	}
}

func TestGenerate_ProjectDirectoryOverride(t *testing.T) {
	ctxSrc := &mockContext{in: projectInsights(), root: "/proj"}
	o := newTestOrchestrator(WithContextSource(ctxSrc))

	o.Generate(context.Background(), Request{Prompt: "glass card", ProjectDirectory: "/other"})
	o.Generate(context.Background(), Request{Prompt: "glass card", ProjectDirectory: "/proj"})

	if len(ctxSrc.analyzed) != 1 || ctxSrc.analyzed[0] != "/other" {
		t.Errorf("analyzed = %v, want [/other]", ctxSrc.analyzed)
	}
	if ctxSrc.cached != 1 {
		t.Errorf("cached calls = %d, want 1", ctxSrc.cached)
	}
}

func TestGenerate_FallbackInsightsNoted(t *testing.T) {
	in := insights.Fallback(time.Now())
	o := newTestOrchestrator(WithContextSource(&mockContext{in: in}))

	c := o.Generate(context.Background(), Request{Prompt: "contact form"})
	if c.Metadata.Source != SourceContextAware {
		t.Fatalf("Source = %q", c.Metadata.Source)
	}
	if c.Metadata.Note == "" {
		t.Error("expected a note about fallback insights")
	}
	if c.Metadata.CompatibilityScore != 0.75 {
		t.Errorf("CompatibilityScore = %v, want 0.75", c.Metadata.CompatibilityScore)
	}
}

func TestGenerate_TemplateWithoutContext(t *testing.T) {
	o := newTestOrchestrator()

	c := o.Generate(context.Background(), Request{Prompt: "glow button"})
	tpl, _ := templates.Default().Get("button-glow")

	if c.Metadata.Source != SourceTemplate || c.Metadata.ContextAware {
		t.Errorf("metadata = %+v", c.Metadata)
	}
	if c.Code != tpl.Code {
		t.Error("plain template stage must not modify code")
	}
}

func TestGenerate_ContextPanicFallsToTemplate(t *testing.T) {
	o := newTestOrchestrator(WithContextSource(&mockContext{panics: true}))

	c := o.Generate(context.Background(), Request{Prompt: "pricing plans"})
	if c.Metadata.Source != SourceTemplate || c.Metadata.TemplateID != "pricing-table" {
		t.Errorf("metadata = %+v", c.Metadata)
	}
}

func TestGenerate_Remote(t *testing.T) {
	rem := &mockRemote{res: remote.Result{
		Code:        "export default function FluxCapacitor() {}",
		Name:        "FluxCapacitor",
		Explanation: "A capacitor.",
		Source:      "remote",
		Metadata:    remote.Metadata{Type: "card", Tags: []string{"sci-fi"}},
	}}
	o := newTestOrchestrator(WithRemote(rem), WithContextSource(&mockContext{in: projectInsights()}))

	c := o.Generate(context.Background(), Request{Prompt: "quantum flux capacitor widget", SearchQuery: "flux", CurrentFilePath: "src/App.tsx"})

	if c.Metadata.Source != "remote" || c.Name != "FluxCapacitor" || c.Metadata.Type != history.TypeCard {
		t.Errorf("unexpected component %+v", c)
	}
	if len(rem.calls) != 1 {
		t.Fatalf("remote calls = %d, want 1", len(rem.calls))
	}
	want := remote.Request{Prompt: "quantum flux capacitor widget", SearchQuery: "flux", CurrentFile: "src/App.tsx"}
	if rem.calls[0] != want {
		t.Errorf("remote request = %+v, want %+v", rem.calls[0], want)
	}
}

func TestGenerate_RemoteSkippedOnTemplateMatch(t *testing.T) {
	rem := &mockRemote{}
	o := newTestOrchestrator(WithRemote(rem))

	o.Generate(context.Background(), Request{Prompt: "glow button"})
	if len(rem.calls) != 0 {
		t.Errorf("remote should not be called when a template matches")
	}
}

func TestGenerate_RemoteFailureFallsToBasic(t *testing.T) {
	for name, rem := range map[string]*mockRemote{
		"error":     {err: &remote.StatusError{Code: 503}},
		"malformed": {err: remote.ErrMalformedResponse},
		"panic":     {panics: true},
	} {
		t.Run(name, func(t *testing.T) {
			o := newTestOrchestrator(WithRemote(rem))
			c := o.Generate(context.Background(), Request{Prompt: "large floating red thing"})
			if !c.Success || c.Metadata.Source != SourceBasic {
				t.Errorf("component = %+v", c.Metadata)
			}
			if c.Metadata.Note == "" {
				t.Error("basic generator results should carry a provenance note")
			}
		})
	}
}

func TestGenerate_Totality(t *testing.T) {
	prompts := []string{
		"glow button",
		"quantum flux capacitor widget",
		"",
		"   ",
		"!!!???",
		strings.Repeat("long prompt ", 500),
		"pricing table for enterprise",
	}
	rec := &mockRecorder{err: errors.New("disk full")}
	o := newTestOrchestrator(
		WithRemote(&mockRemote{err: remote.ErrUnavailable}),
		WithContextSource(&mockContext{in: insights.Insights{}}),
		WithRecorder(rec),
	)
	for _, p := range prompts {
		c := o.Generate(context.Background(), Request{Prompt: p})
		if !c.Success || c.Code == "" || c.Name == "" || c.Metadata.Source == "" {
			t.Errorf("Generate(%.20q) = %+v", p, c)
		}
		if c.Metadata.Timestamp.IsZero() {
			t.Errorf("Generate(%.20q) missing timestamp", p)
		}
	}
	if len(rec.added) != len(prompts) {
		t.Errorf("recorded %d of %d generations", len(rec.added), len(prompts))
	}
}

func TestGenerate_PricingEnterprise(t *testing.T) {
	o := newTestOrchestrator()
	c := o.Generate(context.Background(), Request{Prompt: "pricing table with enterprise tier"})

	for _, tier := range []string{"Starter", "Professional", "Enterprise"} {
		if !strings.Contains(c.Code, tier) {
			t.Errorf("missing tier %s", tier)
		}
	}
	if strings.Count(c.Code, "popular: true") != 1 {
		t.Errorf("expected exactly one popular tier:\n%s", c.Code)
	}
	if i, j := strings.Index(c.Code, "Professional"), strings.Index(c.Code, "popular: true"); i < 0 || j < i {
		t.Error("Professional should be the popular tier")
	}
}

func TestGenerate_StatusEvents(t *testing.T) {
	var events []StatusEvent
	o := newTestOrchestrator(WithStatus(func(e StatusEvent) { events = append(events, e) }))

	o.Generate(context.Background(), Request{Prompt: "modal dialog"})

	if len(events) != 2 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Status != StatusGenerating || events[1].Status != StatusComplete {
		t.Errorf("statuses = %s, %s", events[0].Status, events[1].Status)
	}
	if !strings.Contains(events[1].Message, "Modal") {
		t.Errorf("complete message = %q", events[1].Message)
	}
}

func TestTypeOfTemplate(t *testing.T) {
	tests := map[string]history.Type{
		"button-glow":   history.TypeButton,
		"pricing-table": history.TypePricingTable,
		"navbar-simple": history.TypeNavigation,
		"card-glass":    history.TypeCard,
		"footer-simple": history.TypeComponent,
	}
	for id, want := range tests {
		if got := typeOfTemplate(id); got != want {
			t.Errorf("typeOfTemplate(%q) = %q, want %q", id, got, want)
		}
	}
}
