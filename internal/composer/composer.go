package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/magic/internal/pipeline"
)

var (
	// ErrUnknownTemplate is returned for a page template id that is not registered.
	ErrUnknownTemplate = errors.New("unknown page template")
	// ErrUnknownSection is returned for a section type without a preset.
	ErrUnknownSection = errors.New("unknown section type")
	// ErrInvalidTemplate is returned when a custom template fails validation.
	ErrInvalidTemplate = errors.New("invalid page template")
)

// Generator produces one component per request. *pipeline.Orchestrator
// satisfies it.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) pipeline.Component
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Composer assembles generated components into pages.
type Composer struct {
	gen    Generator
	logger *slog.Logger
	clock  Clock

	mu    sync.RWMutex
	order []string
	byID  map[string]PageTemplate
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// WithClock replaces the wall clock (for testing).
func WithClock(cl Clock) Option {
	return func(c *Composer) { c.clock = cl }
}

// New creates a Composer with the built-in page catalogue.
func New(gen Generator, opts ...Option) *Composer {
	c := &Composer{
		gen:    gen,
		logger: slog.Default(),
		clock:  realClock{},
		byID:   make(map[string]PageTemplate),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, t := range builtins() {
		c.order = append(c.order, t.ID)
		c.byID[t.ID] = t
	}
	return c
}

// Templates returns all registered page templates, built-ins first, then
// custom templates in registration order.
func (c *Composer) Templates() []PageTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PageTemplate, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Template returns the template with the given id.
func (c *Composer) Template(id string) (PageTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// CreateCustomTemplate validates t and registers it. An empty ID is replaced
// with a generated one. Layout defaults are filled in on the returned copy.
func (c *Composer) CreateCustomTemplate(t PageTemplate) (PageTemplate, error) {
	if t.ID == "" {
		t.ID = "custom-" + uuid.New().String()[:8]
	}
	t.Custom = true
	t.Sections = append([]PageSection(nil), t.Sections...)
	if err := validate(&t); err != nil {
		return PageTemplate{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[t.ID]; exists {
		return PageTemplate{}, fmt.Errorf("%w: id %q already registered", ErrInvalidTemplate, t.ID)
	}
	c.order = append(c.order, t.ID)
	c.byID[t.ID] = t
	c.logger.Info("page template registered", "id", t.ID, "sections", len(t.Sections))
	return t, nil
}

func validate(t *PageTemplate) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("%w: at least one section is required", ErrInvalidTemplate)
	}
	seen := make(map[string]bool)
	for i := range t.Sections {
		s := &t.Sections[i]
		if s.ID == "" {
			s.ID = fmt.Sprintf("section-%d", i+1)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate section id %q", ErrInvalidTemplate, s.ID)
		}
		seen[s.ID] = true
		if s.Name == "" {
			s.Name = s.ID
		}
		if len(s.Components) == 0 {
			return fmt.Errorf("%w: section %q has no components", ErrInvalidTemplate, s.ID)
		}
		for j, cs := range s.Components {
			if strings.TrimSpace(cs.Prompt) == "" {
				return fmt.Errorf("%w: section %q component %d has no prompt", ErrInvalidTemplate, s.ID, j)
			}
		}
		if err := validateLayout(s); err != nil {
			return err
		}
	}
	return nil
}

// validateLayout fills layout defaults and, for grid sections, checks that
// every positioned component fits the column count and that no two
// components claim the same cell.
func validateLayout(s *PageSection) error {
	switch s.Layout.Type {
	case "":
		s.Layout.Type = LayoutFlex
	case LayoutGrid, LayoutFlex, LayoutAbsolute:
	default:
		return fmt.Errorf("%w: section %q has unknown layout %q", ErrInvalidTemplate, s.ID, s.Layout.Type)
	}
	if s.Layout.Type != LayoutGrid {
		return nil
	}
	if s.Layout.Columns <= 0 {
		s.Layout.Columns = len(s.Components)
	}

	type cell struct{ row, col int }
	taken := make(map[cell]int)
	for j, cs := range s.Components {
		if cs.Position == nil {
			continue
		}
		p := *cs.Position
		w, h := p.span()
		if p.Row < 0 || p.Column < 0 || p.Column+w > s.Layout.Columns {
			return fmt.Errorf("%w: section %q component %d is outside the %d-column grid", ErrInvalidTemplate, s.ID, j, s.Layout.Columns)
		}
		for r := p.Row; r < p.Row+h; r++ {
			for col := p.Column; col < p.Column+w; col++ {
				if other, ok := taken[cell{r, col}]; ok {
					return fmt.Errorf("%w: section %q components %d and %d overlap at row %d column %d", ErrInvalidTemplate, s.ID, other, j, r, col)
				}
				taken[cell{r, col}] = j
			}
		}
	}
	return nil
}

// GeneratePage generates every component of the template's sections, one
// after another, and assembles them into a single page module. The only
// error is ErrUnknownTemplate; component generation itself never fails.
func (c *Composer) GeneratePage(ctx context.Context, templateID string, cust *Customizations, onProgress ProgressFunc) (GeneratedPage, error) {
	tpl, ok := c.Template(templateID)
	if !ok {
		return GeneratedPage{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, templateID)
	}
	if cust == nil {
		cust = &Customizations{}
	}
	theme := tpl.Theme.merge(cust.Theme)

	exclude := make(map[string]bool, len(cust.ExcludeSections))
	for _, id := range cust.ExcludeSections {
		exclude[id] = true
	}
	var secs []PageSection
	for _, s := range tpl.Sections {
		if !exclude[s.ID] {
			secs = append(secs, s)
		}
	}

	name := cust.Name
	if name == "" {
		name = tpl.Name
	}
	return c.build(ctx, tpl.ID, name, secs, theme, cust, onProgress), nil
}

// GenerateSectionPreview generates the preset section of the given type on
// its own, wrapped in a minimal page module.
func (c *Composer) GenerateSectionPreview(ctx context.Context, sectionType string, theme ThemeSpec) (GeneratedPage, error) {
	preset, ok := sectionPresets[sectionType]
	if !ok {
		return GeneratedPage{}, fmt.Errorf("%w: %q", ErrUnknownSection, sectionType)
	}
	s := preset()
	return c.build(ctx, "preview-"+sectionType, s.Name+" Preview", []PageSection{s}, theme, &Customizations{}, nil), nil
}

func (c *Composer) build(ctx context.Context, templateID, name string, secs []PageSection, theme ThemeSpec, cust *Customizations, onProgress ProgressFunc) GeneratedPage {
	p := newProgress(onProgress, secs)
	page := GeneratedPage{
		TemplateID: templateID,
		Name:       name,
		Theme:      theme,
	}
	names := newNamer()

	for _, s := range secs {
		p.report(fmt.Sprintf("Generating %s section", s.Name))
		gs := GeneratedSection{ID: s.ID, Name: s.Name, Type: s.Type}
		for _, cs := range s.Components {
			prompt := themedPrompt(cs.Prompt, theme, cust.SectionPrompts[s.ID])
			comp := c.gen.Generate(ctx, pipeline.Request{
				Prompt:           prompt,
				ProjectDirectory: cust.ProjectDirectory,
			})
			c.logger.Debug("page component generated", "section", s.ID, "name", comp.Name, "source", comp.Metadata.Source)
			gs.Components = append(gs.Components, comp)
			p.step(fmt.Sprintf("Generated %s for %s", comp.Name, s.Name))
		}
		gs.Component, gs.Code = renderSection(s, gs.Components, names)
		page.Sections = append(page.Sections, gs)
	}

	p.report("Assembling page")
	page.Code = renderPage(page.Name, page.Sections, theme, names)
	page.GeneratedAt = c.clock.Now()
	p.done("Page complete")
	c.logger.Info("page generated", "template", templateID, "sections", len(page.Sections))
	return page
}

var styleAdjectives = map[string]string{
	"modern":    "modern clean",
	"minimal":   "minimal",
	"bold":      "bold vibrant",
	"playful":   "playful",
	"corporate": "professional",
	"elegant":   "elegant",
}

// themedPrompt prefixes the component prompt with the theme's style
// adjectives and primary color, then appends any per-section addition.
func themedPrompt(prompt string, theme ThemeSpec, extra string) string {
	var parts []string
	if adj, ok := styleAdjectives[strings.ToLower(theme.Style)]; ok {
		parts = append(parts, adj)
	} else if theme.Style != "" {
		parts = append(parts, strings.ToLower(theme.Style))
	}
	if theme.PrimaryColor != "" {
		parts = append(parts, strings.ToLower(theme.PrimaryColor))
	}
	parts = append(parts, prompt)
	if theme.ColorScheme == "dark" {
		parts = append(parts, "for a dark theme")
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, " ")
}

// progress turns component completions into monotone percentages. Assembly
// is reserved the last step so 100 is reported only once the page exists.
type progress struct {
	fn        ProgressFunc
	total     int
	completed int
	last      int
}

func newProgress(fn ProgressFunc, secs []PageSection) *progress {
	total := 1
	for _, s := range secs {
		total += len(s.Components)
	}
	return &progress{fn: fn, total: total}
}

func (p *progress) report(msg string) {
	pct := p.completed * 100 / p.total
	if pct < p.last {
		pct = p.last
	}
	p.last = pct
	if p.fn != nil {
		p.fn(msg, pct)
	}
}

func (p *progress) step(msg string) {
	p.completed++
	p.report(msg)
}

func (p *progress) done(msg string) {
	p.completed = p.total
	p.report(msg)
}
