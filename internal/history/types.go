package history

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned for unknown entry or collection ids.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRating is returned when a rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrMalformedImport is returned when an import payload can't be used.
	ErrMalformedImport = errors.New("malformed import payload")

	// ErrInvalidMetadata is returned when metadata fails validation.
	ErrInvalidMetadata = errors.New("invalid metadata")
)

// Type is the component category of an entry.
type Type string

const (
	TypeButton       Type = "button"
	TypeCard         Type = "card"
	TypeForm         Type = "form"
	TypePricingTable Type = "pricing-table"
	TypeHero         Type = "hero"
	TypeNavigation   Type = "navigation"
	TypeModal        Type = "modal"
	TypePage         Type = "page"
	TypeSection      Type = "section"
	TypeComponent    Type = "component"
)

var knownTypes = map[Type]bool{
	TypeButton: true, TypeCard: true, TypeForm: true, TypePricingTable: true,
	TypeHero: true, TypeNavigation: true, TypeModal: true, TypePage: true,
	TypeSection: true, TypeComponent: true,
}

// ParseType maps a free-form kind ("pricing", "navbar", "Button") to a Type.
// Unknown kinds become TypeComponent.
func ParseType(s string) Type {
	s = strings.ToLower(strings.TrimSpace(s))
	if knownTypes[Type(s)] {
		return Type(s)
	}
	switch s {
	case "pricing", "pricing-card", "plans":
		return TypePricingTable
	case "nav", "navbar", "header", "menu":
		return TypeNavigation
	case "dialog", "popup":
		return TypeModal
	case "banner", "landing":
		return TypeHero
	case "btn", "cta":
		return TypeButton
	}
	return TypeComponent
}

// Metadata describes how an entry was produced.
type Metadata struct {
	Type               Type     `json:"type"`
	Category           string   `json:"category,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Source             string   `json:"source"`
	ContextAware       bool     `json:"contextAware,omitempty"`
	CompatibilityScore float64  `json:"compatibilityScore,omitempty"`
	Note               string   `json:"note,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
}

// Normalize fills defaults and canonicalizes tags (lower-case, sorted,
// unique), then validates the result.
func (m Metadata) Normalize() (Metadata, error) {
	if m.Type == "" {
		m.Type = TypeComponent
	}
	if !knownTypes[m.Type] {
		return Metadata{}, fmt.Errorf("%w: unknown type %q", ErrInvalidMetadata, m.Type)
	}
	if m.CompatibilityScore < 0 || m.CompatibilityScore > 1 {
		return Metadata{}, fmt.Errorf("%w: compatibility score %v outside [0,1]", ErrInvalidMetadata, m.CompatibilityScore)
	}
	m.Category = strings.TrimSpace(m.Category)
	m.Tags = normalizeTags(m.Tags)
	return m, nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Stats tracks how an entry has been used.
type Stats struct {
	UsageCount int        `json:"usageCount"`
	LastUsed   *time.Time `json:"lastUsed,omitempty"`
	Rating     int        `json:"rating,omitempty"` // 0 means unrated
	Favorite   bool       `json:"favorite"`
}

// Entry is one recorded generation.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Prompt    string    `json:"prompt"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
	Metadata  Metadata  `json:"metadata"`
	Stats     Stats     `json:"stats"`
}

func (e Entry) clone() Entry {
	cp := e
	if e.Metadata.Tags != nil {
		cp.Metadata.Tags = append([]string(nil), e.Metadata.Tags...)
	}
	if e.Stats.LastUsed != nil {
		t := *e.Stats.LastUsed
		cp.Stats.LastUsed = &t
	}
	return cp
}

// Collection is a named, ordered group of entry ids.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Components  []string  `json:"components"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Tags        []string  `json:"tags,omitempty"`
	IsPublic    bool      `json:"isPublic"`
}

func (c Collection) clone() Collection {
	cp := c
	cp.Components = append([]string{}, c.Components...)
	if c.Tags != nil {
		cp.Tags = append([]string(nil), c.Tags...)
	}
	return cp
}

// Statistics aggregates the store's contents.
type Statistics struct {
	TotalEntries  int            `json:"totalEntries"`
	Favorites     int            `json:"favorites"`
	Collections   int            `json:"collections"`
	TotalUsage    int            `json:"totalUsage"`
	RatedEntries  int            `json:"ratedEntries"`
	AverageRating float64        `json:"averageRating"`
	ByType        map[Type]int   `json:"byType"`
	BySource      map[string]int `json:"bySource"`
	MostUsed      []Entry        `json:"mostUsed"`
	Oldest        *time.Time     `json:"oldest,omitempty"`
	Newest        *time.Time     `json:"newest,omitempty"`
}

// Export is the self-contained document produced by ExportEntry.
type Export struct {
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	Prompt     string    `json:"prompt"`
	Metadata   Metadata  `json:"metadata"`
	ExportedAt time.Time `json:"exportedAt"`
}
