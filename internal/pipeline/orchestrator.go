package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/magic/internal/enhancer"
	"github.com/kalambet/magic/internal/generator"
	"github.com/kalambet/magic/internal/history"
	"github.com/kalambet/magic/internal/insights"
	"github.com/kalambet/magic/internal/remote"
	"github.com/kalambet/magic/internal/templates"
)

// Provenance labels reported in Metadata.Source.
const (
	SourceContextAware = "context-aware-template"
	SourceTemplate     = "template"
	SourceBasic        = "basic-generator"
)

// ContextSource supplies project insights.
type ContextSource interface {
	GetOrAnalyze(ctx context.Context) insights.Insights
	Analyze(ctx context.Context, projectPath string) insights.Insights
	Root() string
}

// Recorder stores successful generations.
type Recorder interface {
	Add(code, prompt string, meta history.Metadata) (history.Entry, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Orchestrator runs the generation fallback chain: context-aware template,
// plain template, remote service, basic generator. Generate never fails.
type Orchestrator struct {
	library  *templates.Library
	context  ContextSource
	remote   remote.Generator
	recorder Recorder
	logger   *slog.Logger
	clock    Clock
	onStatus func(StatusEvent)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithContextSource enables context-aware generation.
func WithContextSource(c ContextSource) Option {
	return func(o *Orchestrator) { o.context = c }
}

// WithRemote enables the remote generation stage.
func WithRemote(g remote.Generator) Option {
	return func(o *Orchestrator) { o.remote = g }
}

// WithRecorder records every result.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock replaces the wall clock (for testing).
func WithClock(c Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithStatus registers a callback for generating/complete events.
func WithStatus(fn func(StatusEvent)) Option {
	return func(o *Orchestrator) { o.onStatus = fn }
}

// New creates an Orchestrator over the template library. A nil library
// means the built-in catalogue.
func New(lib *templates.Library, opts ...Option) *Orchestrator {
	if lib == nil {
		lib = templates.Default()
	}
	o := &Orchestrator{
		library: lib,
		logger:  slog.Default(),
		clock:   realClock{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Library returns the template library used for matching.
func (o *Orchestrator) Library() *templates.Library { return o.library }

type stage struct {
	name string
	run  func(ctx context.Context, req Request) (Component, bool, error)
}

// Generate produces a component for req. Each stage either produces a
// result or misses; errors and panics inside a stage count as misses. The
// basic generator always produces a result, so the returned component is
// always successful.
func (o *Orchestrator) Generate(ctx context.Context, req Request) Component {
	o.emit(StatusGenerating, "Generating component for: "+req.Prompt)

	stages := []stage{
		{"context-aware", o.contextAware},
		{"template", o.template},
		{"remote", o.remoteStage},
	}

	var out Component
	found := false
	for _, st := range stages {
		c, ok := o.try(ctx, st, req)
		if ok {
			out, found = c, true
			break
		}
	}
	if !found {
		out = o.basic(req)
	}

	out.Success = true
	out.Metadata.Timestamp = o.clock.Now()
	o.record(req, &out)
	o.emit(StatusComplete, fmt.Sprintf("Generated %s (%s)", out.Name, out.Metadata.Source))
	return out
}

func (o *Orchestrator) try(ctx context.Context, st stage, req Request) (c Component, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("generation stage panicked", "stage", st.name, "panic", r)
			c, ok = Component{}, false
		}
	}()
	c, ok, err := st.run(ctx, req)
	if err != nil {
		o.logger.Warn("generation stage failed", "stage", st.name, "error", err)
		return Component{}, false
	}
	if !ok {
		o.logger.Debug("generation stage missed", "stage", st.name)
	}
	return c, ok
}

func (o *Orchestrator) insightsFor(ctx context.Context, req Request) insights.Insights {
	if req.ProjectDirectory != "" && req.ProjectDirectory != o.context.Root() {
		return o.context.Analyze(ctx, req.ProjectDirectory)
	}
	return o.context.GetOrAnalyze(ctx)
}

func (o *Orchestrator) contextAware(ctx context.Context, req Request) (Component, bool, error) {
	if o.context == nil {
		return Component{}, false, nil
	}
	tpl, ok := o.library.Match(req.Prompt)
	if !ok {
		return Component{}, false, nil
	}
	in := o.insightsFor(ctx, req)

	c := Component{
		Code:        enhancer.Enhance(tpl.Code, in, req.Prompt),
		Name:        tpl.Name,
		Explanation: fmt.Sprintf("Adapted the %s template to the project's %s conventions.", tpl.Name, in.StylingApproach),
		Metadata: Metadata{
			Source:             SourceContextAware,
			ContextAware:       true,
			CompatibilityScore: in.Recommendations.CompatibilityScore,
			TemplateID:         tpl.ID,
			Type:               typeOfTemplate(tpl.ID),
			Tags:               append([]string(nil), tpl.Keywords...),
		},
	}
	if in.Fallback {
		c.Metadata.Note = "project analysis unavailable, default design tokens applied"
	}
	return c, true, nil
}

func (o *Orchestrator) template(_ context.Context, req Request) (Component, bool, error) {
	tpl, ok := o.library.Match(req.Prompt)
	if !ok {
		return Component{}, false, nil
	}
	return Component{
		Code:        tpl.Code,
		Name:        tpl.Name,
		Explanation: fmt.Sprintf("Matched the %s template.", tpl.Name),
		Metadata: Metadata{
			Source:     SourceTemplate,
			TemplateID: tpl.ID,
			Type:       typeOfTemplate(tpl.ID),
			Tags:       append([]string(nil), tpl.Keywords...),
		},
	}, true, nil
}

func (o *Orchestrator) remoteStage(ctx context.Context, req Request) (Component, bool, error) {
	if o.remote == nil {
		return Component{}, false, nil
	}
	res, err := o.remote.Generate(ctx, remote.Request{
		Prompt:      req.Prompt,
		SearchQuery: req.SearchQuery,
		CurrentFile: req.CurrentFilePath,
	})
	if err != nil {
		return Component{}, false, err
	}
	typ := history.ParseType(res.Metadata.Type)
	if res.Metadata.Type == "" {
		typ = history.ParseType(generator.Kind(req.Prompt))
	}
	return Component{
		Code:        res.Code,
		Name:        res.Name,
		Explanation: res.Explanation,
		Metadata: Metadata{
			Source: res.Source,
			Type:   typ,
			Tags:   res.Metadata.Tags,
			Model:  res.Metadata.Model,
		},
	}, true, nil
}

func (o *Orchestrator) basic(req Request) Component {
	g := generator.Generate(req.Prompt)
	tags := append([]string{g.Style.Color, g.Style.Size, g.Style.Shape}, g.Style.Effects...)
	return Component{
		Code:        g.Code,
		Name:        g.Name,
		Explanation: g.Explanation,
		Metadata: Metadata{
			Source: SourceBasic,
			Type:   history.ParseType(g.Kind),
			Tags:   tags,
			Note:   "no template or remote service matched; generated from prompt keywords",
		},
	}
}

// typeOfTemplate maps a template id such as "button-glow" to its type.
func typeOfTemplate(id string) history.Type {
	if t := history.ParseType(id); t != history.TypeComponent {
		return t
	}
	kind, _, _ := strings.Cut(id, "-")
	return history.ParseType(kind)
}

func (o *Orchestrator) record(req Request, c *Component) {
	if o.recorder == nil {
		return
	}
	e, err := o.recorder.Add(c.Code, req.Prompt, history.Metadata{
		Type:               c.Metadata.Type,
		Category:           categoryOf(c.Metadata.Type),
		Tags:               c.Metadata.Tags,
		Source:             c.Metadata.Source,
		ContextAware:       c.Metadata.ContextAware,
		CompatibilityScore: c.Metadata.CompatibilityScore,
		Note:               c.Metadata.Note,
		Explanation:        c.Explanation,
	})
	if err != nil {
		o.logger.Warn("recording generation in history failed", "name", c.Name, "error", err)
	}
	if e.ID != "" {
		c.Metadata.HistoryID = e.ID
		c.Metadata.Version = e.Version
	}
}

func categoryOf(t history.Type) string {
	switch t {
	case history.TypeButton, history.TypeForm, history.TypeModal:
		return "interactive"
	case history.TypeHero, history.TypePricingTable:
		return "marketing"
	case history.TypeNavigation:
		return "navigation"
	case history.TypePage, history.TypeSection:
		return "layout"
	default:
		return "content"
	}
}

func (o *Orchestrator) emit(s Status, msg string) {
	if o.onStatus != nil {
		o.onStatus(StatusEvent{Status: s, Message: msg})
	}
}
