package insights

import "time"

// Insights is a structured summary of a project's framework, styling and
// component conventions. Values are immutable once produced; a refresh
// replaces the whole value.
type Insights struct {
	FrameworkUsage     map[string]int  `json:"framework_usage"`
	StylingApproach    string          `json:"styling_approach"`
	DesignSystem       DesignSystem    `json:"design_system"`
	ExistingComponents []string        `json:"existing_components"`
	Recommendations    Recommendations `json:"recommendations"`
	FilesScanned       int             `json:"files_scanned"`
	AnalyzedAt         time.Time       `json:"analyzed_at"`
	Fallback           bool            `json:"fallback,omitempty"`
}

// DesignSystem lists the design tokens found in the project, each in order of
// first occurrence. Colors are "<name>-<shade>" pairs such as "blue-600";
// the other lists hold full utility classes.
type DesignSystem struct {
	Colors       []string            `json:"colors"`
	Typography   []string            `json:"typography"`
	Spacing      []string            `json:"spacing"`
	BorderRadius []string            `json:"border_radius"`
	Shadows      []string            `json:"shadows"`
	InlineStyles map[string][]string `json:"inline_styles,omitempty"`
}

// Recommendations guide generation toward the project's conventions.
type Recommendations struct {
	BestMatches        []string `json:"best_matches"`
	SuggestedPatterns  []string `json:"suggested_patterns"`
	CompatibilityScore float64  `json:"compatibility_score"`
}

// PrimaryFramework returns the most used framework, preferring the
// alphabetically first on ties. Returns "" when none was detected.
func (in Insights) PrimaryFramework() string {
	best, bestN := "", 0
	for name, n := range in.FrameworkUsage {
		if n > bestN || (n == bestN && name < best) {
			best, bestN = name, n
		}
	}
	return best
}

// Clone returns a deep copy, so callers can't mutate a cached value.
func (in Insights) Clone() Insights {
	cp := in
	if in.FrameworkUsage != nil {
		cp.FrameworkUsage = make(map[string]int, len(in.FrameworkUsage))
		for k, v := range in.FrameworkUsage {
			cp.FrameworkUsage[k] = v
		}
	}
	cp.ExistingComponents = cloneStrings(in.ExistingComponents)
	cp.DesignSystem.Colors = cloneStrings(in.DesignSystem.Colors)
	cp.DesignSystem.Typography = cloneStrings(in.DesignSystem.Typography)
	cp.DesignSystem.Spacing = cloneStrings(in.DesignSystem.Spacing)
	cp.DesignSystem.BorderRadius = cloneStrings(in.DesignSystem.BorderRadius)
	cp.DesignSystem.Shadows = cloneStrings(in.DesignSystem.Shadows)
	if in.DesignSystem.InlineStyles != nil {
		cp.DesignSystem.InlineStyles = make(map[string][]string, len(in.DesignSystem.InlineStyles))
		for k, v := range in.DesignSystem.InlineStyles {
			cp.DesignSystem.InlineStyles[k] = cloneStrings(v)
		}
	}
	cp.Recommendations.BestMatches = cloneStrings(in.Recommendations.BestMatches)
	cp.Recommendations.SuggestedPatterns = cloneStrings(in.Recommendations.SuggestedPatterns)
	return cp
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// orderedSet collects strings once each, keeping first-occurrence order.
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func (s *orderedSet) list() []string {
	if len(s.items) == 0 {
		return []string{}
	}
	return cloneStrings(s.items)
}
