package generator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		prompt string
		want   StyleSpec
	}{
		{"a button", StyleSpec{Shape: "rounded", Color: "blue", Size: "md"}},
		{"large floating red pill button", StyleSpec{Shape: "pill", Color: "red", Size: "lg", Effects: []string{EffectFloating}}},
		{"tiny square grey card with shadow", StyleSpec{Shape: "square", Color: "gray", Size: "sm", Effects: []string{EffectShadow}}},
		{"Glowing neon gradient CTA, animated!", StyleSpec{Shape: "rounded", Color: "blue", Size: "md", Effects: []string{EffectGlow, EffectGradient, EffectAnimated}}},
		{"emerald and purple button", StyleSpec{Shape: "rounded", Color: "emerald", Size: "md"}},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseStyle(tt.prompt)); diff != "" {
				t.Errorf("ParseStyle mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKind(t *testing.T) {
	tests := map[string]string{
		"glow button":                   KindButton,
		"profile card":                  KindCard,
		"contact form":                  KindForm,
		"pricing card for enterprise":   KindPricingTable,
		"landing hero with gradient":    KindHero,
		"something completely new":      KindComponent,
		"newsletter signup with button": KindForm,
	}
	for prompt, want := range tests {
		if got := Kind(prompt); got != want {
			t.Errorf("Kind(%q) = %q, want %q", prompt, got, want)
		}
	}
}

func TestPricingTiers_Enterprise(t *testing.T) {
	tiers := PricingTiers("pricing table for enterprise customers")
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}
	names := []string{tiers[0].Name, tiers[1].Name, tiers[2].Name}
	if diff := cmp.Diff([]string{"Starter", "Professional", "Enterprise"}, names); diff != "" {
		t.Errorf("tier names mismatch (-want +got):\n%s", diff)
	}
	for i, tier := range tiers {
		if tier.Popular != (i == 1) {
			t.Errorf("tier %s popular = %v", tier.Name, tier.Popular)
		}
	}
	if tiers[2].Price != "Custom" {
		t.Errorf("enterprise price = %q, want Custom", tiers[2].Price)
	}
}

func TestGenerate_PricingTable(t *testing.T) {
	c := Generate("pricing table with an enterprise plan")
	if c.Kind != KindPricingTable {
		t.Fatalf("kind = %q", c.Kind)
	}
	for _, want := range []string{
		`name: "Starter"`,
		`name: "Professional", price: "$29"`,
		`popular: true`,
		`name: "Enterprise", price: "Custom"`,
	} {
		if !strings.Contains(c.Code, want) {
			t.Errorf("code missing %q:\n%s", want, c.Code)
		}
	}
	if strings.Count(c.Code, "popular: true") != 1 {
		t.Error("exactly one tier should be popular")
	}
}

func TestGenerate_Button(t *testing.T) {
	c := Generate("big glowing pink pill button")
	if c.Name != "GlowButton" {
		t.Errorf("name = %q, want GlowButton", c.Name)
	}
	for _, want := range []string{"rounded-full", "bg-pink-600", "shadow-pink-500/50", "px-8 py-4 text-lg"} {
		if !strings.Contains(c.Code, want) {
			t.Errorf("code missing %q:\n%s", want, c.Code)
		}
	}
	if !strings.Contains(c.Code, "export default function GlowButton") {
		t.Errorf("component not exported under its name:\n%s", c.Code)
	}
}

func TestGenerate_FloatingGlowNoDuplicateClasses(t *testing.T) {
	c := Generate("floating glow button")
	if n := strings.Count(c.Code, "shadow-lg"); n != 1 {
		t.Errorf("shadow-lg appears %d times:\n%s", n, c.Code)
	}
}

func TestGenerate_AllKindsProduceCode(t *testing.T) {
	for _, prompt := range []string{"button", "card", "form", "pricing", "hero", "", "weird widget"} {
		c := Generate(prompt)
		if c.Code == "" || c.Name == "" {
			t.Errorf("Generate(%q) produced empty component", prompt)
		}
		if !strings.Contains(c.Code, "export default function "+c.Name) {
			t.Errorf("Generate(%q): code does not export %s", prompt, c.Name)
		}
		if c.Explanation == "" {
			t.Errorf("Generate(%q): missing explanation", prompt)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate("large animated teal hero with gradient")
	b := Generate("large animated teal hero with gradient")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Generate is not deterministic:\n%s", diff)
	}
}

func TestGenerate_HeadlineSanitized(t *testing.T) {
	c := Generate(`hero for "<Acme>" {launch}`)
	if strings.Contains(c.Code, `"<Acme>"`) || strings.Contains(c.Code, "{launch}") {
		t.Errorf("prompt text not sanitized:\n%s", c.Code)
	}
}

func TestGenerate_NonASCIIPrompt(t *testing.T) {
	c := Generate("élégant card")
	if !utf8.ValidString(c.Code) {
		t.Fatalf("generated code is not valid UTF-8:\n%q", c.Code)
	}
	if !strings.Contains(c.Code, "Élégant card") {
		t.Errorf("headline not capitalized by rune:\n%s", c.Code)
	}

	long := Generate("card " + strings.Repeat("é", 80))
	if !utf8.ValidString(long.Code) {
		t.Fatalf("truncated headline is not valid UTF-8:\n%q", long.Code)
	}
	if want := "Card " + strings.Repeat("é", maxHeadline-5); !strings.Contains(long.Code, want) {
		t.Errorf("headline not truncated to %d runes:\n%s", maxHeadline, long.Code)
	}
	if strings.Contains(long.Code, strings.Repeat("é", maxHeadline-4)) {
		t.Errorf("headline longer than %d runes:\n%s", maxHeadline, long.Code)
	}
}
