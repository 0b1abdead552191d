package templates

import "strings"

const (
	tokenScore    = 2
	substrScore   = 1
	overrideBonus = 10
)

// Scored pairs a template with its match score for a prompt.
type Scored struct {
	Template Template
	Score    int
}

// Match returns the best template for prompt. The highest score wins and ties
// go to the earlier template; a best score of 0 means no match.
func (l *Library) Match(prompt string) (Template, bool) {
	best := -1
	bestScore := 0
	for i, s := range l.Score(prompt) {
		if s.Score > bestScore {
			best, bestScore = i, s.Score
		}
	}
	if best < 0 {
		return Template{}, false
	}
	return l.templates[best], true
}

// Score computes the score of every template for prompt, in catalogue order.
//
// A keyword present as a whole whitespace-separated token scores 2; one that
// only occurs as a substring of the prompt scores 1. Each override whose
// keyword occurs in the prompt adds 10 to its template.
func (l *Library) Score(prompt string) []Scored {
	lower := strings.ToLower(prompt)
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(lower) {
		tokens[tok] = true
	}

	out := make([]Scored, len(l.templates))
	for i, t := range l.templates {
		score := 0
		for _, kw := range t.Keywords {
			switch {
			case tokens[kw]:
				score += tokenScore
			case strings.Contains(lower, kw):
				score += substrScore
			}
		}
		out[i] = Scored{Template: t, Score: score}
	}

	for _, o := range l.overrides {
		if o.Keyword == "" || !strings.Contains(lower, o.Keyword) {
			continue
		}
		out[l.index[o.TemplateID]].Score += overrideBonus
	}
	return out
}
