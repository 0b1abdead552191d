// Package generator synthesizes components from keywords in a prompt when no
// template or remote backend produced one. It is deterministic and cannot
// fail.
package generator

import (
	"strings"
)

// Component kinds produced by Generate.
const (
	KindButton       = "button"
	KindCard         = "card"
	KindForm         = "form"
	KindPricingTable = "pricing-table"
	KindHero         = "hero"
	KindComponent    = "component"
)

// Effects recognised in prompts, in render order.
const (
	EffectFloating = "floating"
	EffectGlow     = "glow"
	EffectGradient = "gradient"
	EffectShadow   = "shadow"
	EffectAnimated = "animated"
)

// StyleSpec is the visual intent extracted from a prompt.
type StyleSpec struct {
	Shape   string   // rounded, pill or square
	Color   string   // Tailwind palette name
	Size    string   // sm, md or lg
	Effects []string // subset of the Effect constants, in render order
}

var paletteNames = []string{
	"slate", "gray", "zinc", "neutral", "stone", "red", "orange", "amber",
	"yellow", "lime", "green", "emerald", "teal", "cyan", "sky", "blue",
	"indigo", "violet", "purple", "fuchsia", "pink", "rose",
}

var colorAliases = map[string]string{
	"grey":    "gray",
	"silver":  "slate",
	"gold":    "amber",
	"magenta": "fuchsia",
	"navy":    "indigo",
	"mint":    "emerald",
}

var effectWords = []struct {
	effect string
	words  []string
}{
	{EffectFloating, []string{"float", "floating", "levitating", "lifted"}},
	{EffectGlow, []string{"glow", "glowing", "neon"}},
	{EffectGradient, []string{"gradient", "ombre"}},
	{EffectShadow, []string{"shadow", "shadowed", "elevated"}},
	{EffectAnimated, []string{"animated", "animate", "animation", "bounce", "bouncy", "pulse", "pulsing"}},
}

func words(prompt string) []string {
	return strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})
}

func hasAny(set map[string]bool, ws ...string) bool {
	for _, w := range ws {
		if set[w] {
			return true
		}
	}
	return false
}

func wordSet(prompt string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range words(prompt) {
		set[w] = true
	}
	return set
}

// ParseStyle extracts shape, color, size and effects from a prompt. Missing
// attributes default to a medium, rounded, blue component with no effects.
func ParseStyle(prompt string) StyleSpec {
	set := wordSet(prompt)
	spec := StyleSpec{Shape: "rounded", Color: "blue", Size: "md"}

	switch {
	case hasAny(set, "pill", "capsule", "circular", "round"):
		spec.Shape = "pill"
	case hasAny(set, "square", "sharp", "boxy"):
		spec.Shape = "square"
	}

	switch {
	case hasAny(set, "small", "tiny", "compact", "mini"):
		spec.Size = "sm"
	case hasAny(set, "large", "big", "huge", "giant"):
		spec.Size = "lg"
	}

	for _, w := range words(prompt) {
		if c, ok := colorAliases[w]; ok {
			spec.Color = c
			break
		}
		if isPalette(w) {
			spec.Color = w
			break
		}
	}

	for _, e := range effectWords {
		if hasAny(set, e.words...) {
			spec.Effects = append(spec.Effects, e.effect)
		}
	}
	return spec
}

// Has reports whether s carries effect e.
func (s StyleSpec) Has(e string) bool {
	for _, x := range s.Effects {
		if x == e {
			return true
		}
	}
	return false
}

func isPalette(w string) bool {
	for _, p := range paletteNames {
		if p == w {
			return true
		}
	}
	return false
}

// Kind picks the component kind named by the prompt.
func Kind(prompt string) string {
	set := wordSet(prompt)
	switch {
	case hasAny(set, "pricing", "price", "prices", "plans", "tiers", "subscription", "pricing-table"):
		return KindPricingTable
	case hasAny(set, "hero", "banner", "landing", "jumbotron"):
		return KindHero
	case hasAny(set, "form", "contact", "signup", "sign-up", "login", "newsletter", "input"):
		return KindForm
	case hasAny(set, "card", "tile", "panel"):
		return KindCard
	case hasAny(set, "button", "btn", "cta"):
		return KindButton
	default:
		return KindComponent
	}
}

// classes renders the Tailwind utilities for s on a filled surface.
func (s StyleSpec) classes() string {
	var cls []string
	switch s.Size {
	case "sm":
		cls = append(cls, "px-3", "py-1.5", "text-sm")
	case "lg":
		cls = append(cls, "px-8", "py-4", "text-lg")
	default:
		cls = append(cls, "px-5", "py-2.5", "text-base")
	}
	cls = append(cls, s.radius())
	if s.Has(EffectGradient) {
		cls = append(cls, "bg-gradient-to-r", "from-"+s.Color+"-500", "to-"+s.Color+"-700")
	} else {
		cls = append(cls, "bg-"+s.Color+"-600", "hover:bg-"+s.Color+"-700")
	}
	cls = append(cls, "text-white", "font-semibold")
	cls = append(cls, s.effectClasses()...)
	return joinUnique(cls)
}

func joinUnique(cls []string) string {
	seen := make(map[string]bool, len(cls))
	out := cls[:0]
	for _, c := range cls {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}

func (s StyleSpec) radius() string {
	switch s.Shape {
	case "pill":
		return "rounded-full"
	case "square":
		return "rounded-none"
	default:
		return "rounded-lg"
	}
}

func (s StyleSpec) effectClasses() []string {
	var cls []string
	for _, e := range s.Effects {
		switch e {
		case EffectFloating:
			cls = append(cls, "shadow-lg", "hover:-translate-y-1", "transition-transform", "duration-200")
		case EffectGlow:
			cls = append(cls, "shadow-lg", "shadow-"+s.Color+"-500/50")
		case EffectShadow:
			cls = append(cls, "shadow-md")
		case EffectAnimated:
			cls = append(cls, "transition-all", "duration-300", "hover:scale-105")
		}
	}
	return cls
}
