package composer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/magic/internal/pipeline"
)

type mockGenerator struct {
	prompts []string
	dirs    []string
}

func (m *mockGenerator) Generate(_ context.Context, req pipeline.Request) pipeline.Component {
	m.prompts = append(m.prompts, req.Prompt)
	m.dirs = append(m.dirs, req.ProjectDirectory)
	name := "Widget"
	switch {
	case strings.Contains(req.Prompt, "navbar"):
		name = "Navbar"
	case strings.Contains(req.Prompt, "hero"):
		name = "GradientHero"
	case strings.Contains(req.Prompt, "card"):
		name = "GlassCard"
	}
	return pipeline.Component{
		Success: true,
		Name:    name,
		Code:    "export default function " + name + "() {\n  return <div />;\n}",
		Metadata: pipeline.Metadata{
			Source: "template",
		},
	}
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type progressCall struct {
	msg string
	pct int
}

func newTestComposer(gen Generator) *Composer {
	return New(gen,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(fixedClock{time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}),
	)
}

func checkProgress(t *testing.T, calls []progressCall) {
	t.Helper()
	if len(calls) == 0 {
		t.Fatal("no progress reported")
	}
	last := -1
	for _, c := range calls {
		if c.pct < last || c.pct < 0 || c.pct > 100 {
			t.Fatalf("progress not monotone within [0,100]: %+v", calls)
		}
		last = c.pct
	}
	if calls[len(calls)-1].pct != 100 {
		t.Errorf("final progress = %d, want 100", calls[len(calls)-1].pct)
	}
	for _, c := range calls[:len(calls)-1] {
		if c.pct == 100 {
			t.Errorf("100%% reported before completion: %q", c.msg)
		}
	}
}

func TestTemplates_Builtins(t *testing.T) {
	c := newTestComposer(&mockGenerator{})
	var ids []string
	for _, tpl := range c.Templates() {
		ids = append(ids, tpl.ID)
	}
	want := []string{"landing", "saas-pricing", "dashboard", "portfolio"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("template ids mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratePage_Landing(t *testing.T) {
	gen := &mockGenerator{}
	c := newTestComposer(gen)

	var calls []progressCall
	page, err := c.GeneratePage(context.Background(), "landing", nil, func(msg string, pct int) {
		calls = append(calls, progressCall{msg, pct})
	})
	if err != nil {
		t.Fatalf("GeneratePage: %v", err)
	}

	if len(page.Sections) != 5 {
		t.Fatalf("sections = %d, want 5", len(page.Sections))
	}
	if len(gen.prompts) != 7 {
		t.Fatalf("generated %d components, want 7", len(gen.prompts))
	}
	for _, p := range gen.prompts {
		if !strings.HasPrefix(p, "modern clean blue ") {
			t.Errorf("prompt %q missing theme adjectives", p)
		}
	}
	if !strings.Contains(gen.prompts[0], "navbar") || !strings.Contains(gen.prompts[6], "footer") {
		t.Errorf("sections not generated in order: %v", gen.prompts)
	}

	checkProgress(t, calls)
	if len(calls) < len(page.Sections)+1 {
		t.Errorf("progress calls = %d, want at least one per section", len(calls))
	}

	if n := strings.Count(page.Code, "export default"); n != 1 {
		t.Errorf("page module has %d default exports, want 1", n)
	}
	if !strings.Contains(page.Code, "export default function LandingPage()") {
		t.Errorf("page component missing:\n%s", page.Code)
	}
	order := []string{"<NavigationSection />", "<HeroSection />", "<FeaturesSection />", "<CallToActionSection />", "<FooterSection />"}
	prev := -1
	for _, tag := range order {
		i := strings.Index(page.Code, tag)
		if i < 0 || i < prev {
			t.Fatalf("%s missing or out of order in:\n%s", tag, page.Code)
		}
		prev = i
	}
	if !strings.Contains(page.Code, "md:grid-cols-3") {
		t.Error("features grid wrapper missing")
	}
	for _, name := range []string{"function GlassCard()", "function GlassCard2()", "function GlassCard3()"} {
		if !strings.Contains(page.Code, name) {
			t.Errorf("expected unique declaration %q", name)
		}
	}
	if !page.GeneratedAt.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("GeneratedAt = %v", page.GeneratedAt)
	}
}

func TestGeneratePage_UnknownTemplate(t *testing.T) {
	c := newTestComposer(&mockGenerator{})
	called := false
	_, err := c.GeneratePage(context.Background(), "nope", nil, func(string, int) { called = true })
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("err = %v, want ErrUnknownTemplate", err)
	}
	if called {
		t.Error("progress reported for unknown template")
	}
}

func TestGeneratePage_Customizations(t *testing.T) {
	gen := &mockGenerator{}
	c := newTestComposer(gen)

	page, err := c.GeneratePage(context.Background(), "landing", &Customizations{
		Name:             "Acme Home",
		Theme:            ThemeSpec{ColorScheme: "dark", PrimaryColor: "Green"},
		SectionPrompts:   map[string]string{"hero": "about rockets"},
		ExcludeSections:  []string{"cta", "features"},
		ProjectDirectory: "/srv/acme",
	}, nil)
	if err != nil {
		t.Fatalf("GeneratePage: %v", err)
	}

	var ids []string
	for _, s := range page.Sections {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff([]string{"navigation", "hero", "footer"}, ids); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
	want := ThemeSpec{Style: "modern", ColorScheme: "dark", PrimaryColor: "Green"}
	if diff := cmp.Diff(want, page.Theme); diff != "" {
		t.Errorf("theme mismatch (-want +got):\n%s", diff)
	}
	if got := gen.prompts[1]; got != "modern clean green gradient hero with headline for a dark theme about rockets" {
		t.Errorf("hero prompt = %q", got)
	}
	for _, d := range gen.dirs {
		if d != "/srv/acme" {
			t.Errorf("project directory not forwarded: %q", d)
		}
	}
	if !strings.Contains(page.Code, "export default function AcmeHomePage()") {
		t.Errorf("custom page name not applied:\n%s", page.Code)
	}
	if !strings.Contains(page.Code, "bg-gray-950") {
		t.Error("dark page wrapper missing")
	}
}

func validTemplate() PageTemplate {
	return PageTemplate{
		ID:   "blog",
		Name: "Blog",
		Sections: []PageSection{
			{
				ID:     "posts",
				Name:   "Posts",
				Layout: LayoutSpec{Type: LayoutGrid, Columns: 2},
				Components: []ComponentSpec{
					{Prompt: "glass card post", Position: &Position{Row: 0, Column: 0}},
					{Prompt: "glass card post", Position: &Position{Row: 0, Column: 1}},
					{Prompt: "glass card post", Position: &Position{Row: 1, Column: 0, Width: 2}},
				},
			},
			{
				Name:       "Footer",
				Components: []ComponentSpec{{Prompt: "footer"}},
			},
		},
	}
}

func TestCreateCustomTemplate(t *testing.T) {
	c := newTestComposer(&mockGenerator{})

	got, err := c.CreateCustomTemplate(validTemplate())
	if err != nil {
		t.Fatalf("CreateCustomTemplate: %v", err)
	}
	if !got.Custom || got.Sections[1].ID != "section-2" || got.Sections[1].Layout.Type != LayoutFlex {
		t.Errorf("defaults not applied: %+v", got)
	}
	all := c.Templates()
	if all[len(all)-1].ID != "blog" {
		t.Errorf("custom template not appended: last = %s", all[len(all)-1].ID)
	}

	if _, err := c.CreateCustomTemplate(validTemplate()); !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("duplicate id: err = %v, want ErrInvalidTemplate", err)
	}

	page, err := c.GeneratePage(context.Background(), "blog", nil, nil)
	if err != nil {
		t.Fatalf("GeneratePage: %v", err)
	}
	if !strings.Contains(page.Code, "md:col-start-1 md:col-span-2 md:row-start-2 md:row-span-1") {
		t.Errorf("grid placement missing:\n%s", page.Code)
	}
}

func TestCreateCustomTemplate_GeneratedID(t *testing.T) {
	c := newTestComposer(&mockGenerator{})
	tpl := validTemplate()
	tpl.ID = ""
	got, err := c.CreateCustomTemplate(tpl)
	if err != nil {
		t.Fatalf("CreateCustomTemplate: %v", err)
	}
	if !strings.HasPrefix(got.ID, "custom-") {
		t.Errorf("ID = %q, want custom- prefix", got.ID)
	}
	if _, ok := c.Template(got.ID); !ok {
		t.Error("generated id not registered")
	}
}

func TestCreateCustomTemplate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PageTemplate)
	}{
		{"empty name", func(p *PageTemplate) { p.Name = " " }},
		{"no sections", func(p *PageTemplate) { p.Sections = nil }},
		{"empty section", func(p *PageTemplate) { p.Sections[1].Components = nil }},
		{"empty prompt", func(p *PageTemplate) { p.Sections[1].Components = []ComponentSpec{{Prompt: ""}} }},
		{"duplicate section id", func(p *PageTemplate) { p.Sections[1].ID = "posts" }},
		{"unknown layout", func(p *PageTemplate) { p.Sections[1].Layout.Type = "masonry" }},
		{"grid overlap", func(p *PageTemplate) {
			p.Sections[0].Components[2].Position = &Position{Row: 0, Column: 1}
		}},
		{"span overlap", func(p *PageTemplate) {
			p.Sections[0].Components[0].Position = &Position{Row: 0, Column: 0, Height: 2}
		}},
		{"outside grid", func(p *PageTemplate) {
			p.Sections[0].Components[2].Position = &Position{Row: 1, Column: 1, Width: 2}
		}},
		{"negative row", func(p *PageTemplate) {
			p.Sections[0].Components[2].Position = &Position{Row: -1, Column: 0}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestComposer(&mockGenerator{})
			tpl := validTemplate()
			tt.mutate(&tpl)
			if _, err := c.CreateCustomTemplate(tpl); !errors.Is(err, ErrInvalidTemplate) {
				t.Errorf("err = %v, want ErrInvalidTemplate", err)
			}
			if len(c.Templates()) != 4 {
				t.Error("invalid template was registered")
			}
		})
	}
}

func TestCreateCustomTemplate_FlexOverlapAllowed(t *testing.T) {
	c := newTestComposer(&mockGenerator{})
	tpl := validTemplate()
	tpl.Sections[0].Layout = LayoutSpec{Type: LayoutFlex}
	tpl.Sections[0].Components[2].Position = &Position{Row: 0, Column: 0}
	if _, err := c.CreateCustomTemplate(tpl); err != nil {
		t.Errorf("flex positions are advisory, got %v", err)
	}
}

func TestGenerateSectionPreview(t *testing.T) {
	gen := &mockGenerator{}
	c := newTestComposer(gen)

	page, err := c.GenerateSectionPreview(context.Background(), "gallery", ThemeSpec{Style: "bold"})
	if err != nil {
		t.Fatalf("GenerateSectionPreview: %v", err)
	}
	if len(page.Sections) != 1 || len(gen.prompts) != 3 {
		t.Fatalf("sections = %d, prompts = %d", len(page.Sections), len(gen.prompts))
	}
	if !strings.HasPrefix(gen.prompts[0], "bold vibrant ") {
		t.Errorf("prompt = %q", gen.prompts[0])
	}
	if !strings.Contains(page.Code, "<GallerySection />") || strings.Count(page.Code, "export default") != 1 {
		t.Errorf("preview module malformed:\n%s", page.Code)
	}

	if _, err := c.GenerateSectionPreview(context.Background(), "carousel", ThemeSpec{}); !errors.Is(err, ErrUnknownSection) {
		t.Errorf("err = %v, want ErrUnknownSection", err)
	}
}

func TestGenerateSectionPreview_Absolute(t *testing.T) {
	c := newTestComposer(&mockGenerator{})
	page, err := c.GenerateSectionPreview(context.Background(), "modal", ThemeSpec{})
	if err != nil {
		t.Fatalf("GenerateSectionPreview: %v", err)
	}
	if !strings.Contains(page.Code, `style={{ top: '8rem', left: '8rem' }}`) {
		t.Errorf("absolute placement missing:\n%s", page.Code)
	}
}

func TestLocalize(t *testing.T) {
	tests := []struct {
		name, code, as string
		wantCode       string
		wantID         string
	}{
		{
			name:     "default function",
			code:     "export default function Card() {}",
			as:       "Card2",
			wantCode: "function Card2() {}",
			wantID:   "Card2",
		},
		{
			name:     "anonymous default function",
			code:     "export default function({ a }) {}",
			as:       "Thing",
			wantCode: "function Thing({ a }) {}",
			wantID:   "Thing",
		},
		{
			name:     "default identifier",
			code:     "const Card = () => null;\nexport default Card;",
			as:       "Card",
			wantCode: "const Card = () => null;\n",
			wantID:   "Card",
		},
		{
			name:     "renamed identifier",
			code:     "const Card = () => null;\nexport default Card;",
			as:       "Card2",
			wantCode: "const Card2 = (() => {\n  const Card = () => null;\n  return Card;\n})();",
			wantID:   "Card2",
		},
		{
			name:     "named export only",
			code:     "export function Banner() {}",
			as:       "X",
			wantCode: "const X = (() => {\n  function Banner() {}\n  return Banner;\n})();",
			wantID:   "X",
		},
		{
			name:     "top-level helpers",
			code:     "const tiers = [];\n\nexport default function Pricing() { return tiers; }",
			as:       "Pricing2",
			wantCode: "const Pricing2 = (() => {\n  const tiers = [];\n\n  function Pricing2() { return tiers; }\n  return Pricing2;\n})();",
			wantID:   "Pricing2",
		},
		{
			name:     "no component",
			code:     "export const x = 1;",
			as:       "Y",
			wantCode: "const x = 1;",
			wantID:   "Y",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, id := localize(tt.code, tt.as)
			if code != tt.wantCode || id != tt.wantID {
				t.Errorf("localize = (%q, %q), want (%q, %q)", code, id, tt.wantCode, tt.wantID)
			}
		})
	}
}

// helperGenerator returns a component whose module declares a top-level
// helper next to the component.
type helperGenerator struct{}

func (helperGenerator) Generate(_ context.Context, _ pipeline.Request) pipeline.Component {
	return pipeline.Component{
		Success: true,
		Name:    "PricingTable",
		Code:    "const tiers = [\"Starter\", \"Pro\"];\n\nexport default function PricingTable() {\n  return <ul>{tiers.map((t) => <li key={t}>{t}</li>)}</ul>;\n}\n",
	}
}

func TestGeneratePage_HelpersDoNotCollide(t *testing.T) {
	c := newTestComposer(helperGenerator{})
	page, err := c.GeneratePage(context.Background(), "landing", nil, nil)
	if err != nil {
		t.Fatalf("GeneratePage: %v", err)
	}

	seen := make(map[string]bool)
	for _, m := range topDeclRe.FindAllStringSubmatch(page.Code, -1) {
		if seen[m[1]] {
			t.Errorf("%s declared twice at module level:\n%s", m[1], page.Code)
		}
		seen[m[1]] = true
	}
	if seen["tiers"] {
		t.Errorf("helper leaked to module level:\n%s", page.Code)
	}
	if !seen["PricingTable"] || !seen["PricingTable2"] {
		t.Errorf("expected distinct component bindings, got %v", seen)
	}
}

func TestPascal(t *testing.T) {
	tests := map[string]string{
		"Call to action": "CallToAction",
		"saas-pricing":   "SaasPricing",
		"3 col":          "Section3Col",
		"":               "Section",
	}
	for in, want := range tests {
		if got := pascal(in); got != want {
			t.Errorf("pascal(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGeneratePage_WithOrchestrator(t *testing.T) {
	orch := pipeline.New(nil, pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	c := newTestComposer(orch)

	page, err := c.GeneratePage(context.Background(), "portfolio", nil, nil)
	if err != nil {
		t.Fatalf("GeneratePage: %v", err)
	}
	if !strings.HasPrefix(page.Code, `import { useState } from "react";`) {
		t.Errorf("imports not hoisted:\n%.200s", page.Code)
	}
	if n := strings.Count(page.Code, `import { useState } from "react";`); n != 1 {
		t.Errorf("import repeated %d times", n)
	}
	if n := strings.Count(page.Code, "export default"); n != 1 {
		t.Errorf("default exports = %d, want 1", n)
	}
	for _, s := range page.Sections {
		for _, comp := range s.Components {
			if !comp.Success {
				t.Errorf("section %s has unsuccessful component", s.ID)
			}
		}
	}
}

const blogYAML = `templates:
  - id: blog
    name: Blog
    description: Articles list
    theme:
      style: minimal
      colorScheme: dark
    sections:
      - id: posts
        name: Posts
        layout:
          type: grid
          columns: 2
        components:
          - prompt: glass card post
            position: {row: 0, column: 0}
          - prompt: glass card post
            position: {row: 0, column: 1}
`

func TestLoadTemplates(t *testing.T) {
	tpls, err := LoadTemplates(strings.NewReader(blogYAML))
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	if len(tpls) != 1 {
		t.Fatalf("templates = %d, want 1", len(tpls))
	}
	got := tpls[0]
	if got.ID != "blog" || got.Theme.ColorScheme != "dark" || got.Sections[0].Layout.Type != LayoutGrid {
		t.Errorf("decoded template = %+v", got)
	}
	if p := got.Sections[0].Components[1].Position; p == nil || p.Column != 1 {
		t.Errorf("position = %+v", p)
	}

	if _, err := LoadTemplates(strings.NewReader("templates:\n  - id: x\n    colour: red\n")); err == nil {
		t.Error("expected error for unknown field")
	}
	if tpls, err := LoadTemplates(strings.NewReader("")); err != nil || tpls != nil {
		t.Errorf("empty document = %v, %v", tpls, err)
	}
}

func TestRegisterFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.yaml")
	if err := os.WriteFile(path, []byte(blogYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	c := newTestComposer(&mockGenerator{})
	n, err := c.RegisterFile(path)
	if err != nil || n != 1 {
		t.Fatalf("RegisterFile = %d, %v", n, err)
	}
	if _, ok := c.Template("blog"); !ok {
		t.Error("blog not registered")
	}

	n, err = c.RegisterFile(filepath.Join(dir, "missing.yaml"))
	if err != nil || n != 0 {
		t.Errorf("missing file = %d, %v", n, err)
	}
}
