package composer

import (
	"time"

	"github.com/kalambet/magic/internal/pipeline"
)

// LayoutType selects the wrapper markup for a section.
type LayoutType string

const (
	LayoutGrid     LayoutType = "grid"
	LayoutFlex     LayoutType = "flex"
	LayoutAbsolute LayoutType = "absolute"
)

// PageTemplate describes a page as an ordered list of sections.
type PageTemplate struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string        `json:"category,omitempty" yaml:"category,omitempty"`
	Sections    []PageSection `json:"sections" yaml:"sections"`
	Theme       ThemeSpec     `json:"theme" yaml:"theme"`
	Custom      bool          `json:"custom,omitempty" yaml:"-"`
}

// PageSection is one horizontal band of a page.
type PageSection struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Type       string          `json:"type" yaml:"type"`
	Layout     LayoutSpec      `json:"layout" yaml:"layout"`
	Components []ComponentSpec `json:"components" yaml:"components"`
}

// ComponentSpec is a single generation request inside a section.
type ComponentSpec struct {
	Type     string    `json:"type" yaml:"type"`
	Prompt   string    `json:"prompt" yaml:"prompt"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
}

// Position places a component on the section's grid, in cells. It is
// advisory for flex layouts.
type Position struct {
	Row    int `json:"row" yaml:"row"`
	Column int `json:"column" yaml:"column"`
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

func (p Position) span() (w, h int) {
	w, h = p.Width, p.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

// LayoutSpec controls how a section arranges its components.
type LayoutSpec struct {
	Type      LayoutType `json:"type" yaml:"type"`
	Columns   int        `json:"columns,omitempty" yaml:"columns,omitempty"`
	Gap       int        `json:"gap,omitempty" yaml:"gap,omitempty"`
	Direction string     `json:"direction,omitempty" yaml:"direction,omitempty"`
	Align     string     `json:"align,omitempty" yaml:"align,omitempty"`
}

// ThemeSpec carries page-wide styling that is injected into component
// prompts and the page wrapper.
type ThemeSpec struct {
	Style        string `json:"style,omitempty" yaml:"style,omitempty"`
	ColorScheme  string `json:"colorScheme,omitempty" yaml:"colorScheme,omitempty"`
	PrimaryColor string `json:"primaryColor,omitempty" yaml:"primaryColor,omitempty"`
}

// merge returns t with the non-empty fields of o applied.
func (t ThemeSpec) merge(o ThemeSpec) ThemeSpec {
	if o.Style != "" {
		t.Style = o.Style
	}
	if o.ColorScheme != "" {
		t.ColorScheme = o.ColorScheme
	}
	if o.PrimaryColor != "" {
		t.PrimaryColor = o.PrimaryColor
	}
	return t
}

// Customizations adjust a template for one GeneratePage call.
type Customizations struct {
	Name             string            `json:"name,omitempty"`
	Theme            ThemeSpec         `json:"theme,omitempty"`
	SectionPrompts   map[string]string `json:"sectionPrompts,omitempty"`
	ExcludeSections  []string          `json:"excludeSections,omitempty"`
	ProjectDirectory string            `json:"projectDirectory,omitempty"`
}

// ProgressFunc receives page generation progress. percent never decreases
// within one call and the last report of a successful call is 100.
type ProgressFunc func(message string, percent int)

// GeneratedSection is a section after its components were generated.
type GeneratedSection struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Type       string               `json:"type"`
	Component  string               `json:"component"`
	Code       string               `json:"code"`
	Components []pipeline.Component `json:"components"`
}

// GeneratedPage is the result of GeneratePage.
type GeneratedPage struct {
	TemplateID  string             `json:"templateId"`
	Name        string             `json:"name"`
	Code        string             `json:"code"`
	Theme       ThemeSpec          `json:"theme"`
	Sections    []GeneratedSection `json:"sections"`
	GeneratedAt time.Time          `json:"generatedAt"`
}
