// Package templates holds the static component template catalogue and the
// keyword matcher that selects a template for a free-text prompt.
package templates

import "strings"

// Template is a named, keyword-tagged code snippet used as a generation
// starting point. Templates are immutable once registered.
type Template struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Code     string   `json:"code"`
}

// Override gives a fixed bonus to TemplateID whenever Keyword appears in a
// prompt. It acts as a priority tie-breaker for thematic keywords.
type Override struct {
	Keyword    string
	TemplateID string
}

// Library is an ordered, read-only template catalogue. Iteration order is
// insertion order, which makes matching deterministic.
type Library struct {
	templates []Template
	index     map[string]int
	overrides []Override
}

// NewLibrary builds a Library from templates in the given order. Keywords are
// lower-cased and de-duplicated; later templates with a duplicate ID are ignored.
func NewLibrary(tpls []Template, overrides []Override) *Library {
	l := &Library{index: make(map[string]int, len(tpls))}
	for _, t := range tpls {
		if _, dup := l.index[t.ID]; dup {
			continue
		}
		t.Keywords = normalizeKeywords(t.Keywords)
		l.index[t.ID] = len(l.templates)
		l.templates = append(l.templates, t)
	}
	for _, o := range overrides {
		if _, ok := l.index[o.TemplateID]; !ok {
			continue
		}
		l.overrides = append(l.overrides, Override{
			Keyword:    strings.ToLower(strings.TrimSpace(o.Keyword)),
			TemplateID: o.TemplateID,
		})
	}
	return l
}

// All returns a copy of the catalogue in iteration order.
func (l *Library) All() []Template {
	out := make([]Template, len(l.templates))
	copy(out, l.templates)
	return out
}

// Get returns the template with the given ID.
func (l *Library) Get(id string) (Template, bool) {
	i, ok := l.index[id]
	if !ok {
		return Template{}, false
	}
	return l.templates[i], true
}

// Len reports the number of templates.
func (l *Library) Len() int { return len(l.templates) }

func normalizeKeywords(kws []string) []string {
	seen := make(map[string]bool, len(kws))
	out := make([]string, 0, len(kws))
	for _, k := range kws {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
