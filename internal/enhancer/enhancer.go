// Package enhancer aligns a component's literal style tokens with the design
// tokens found in the surrounding project.
//
// Substitution is purely textual: a token is replaced wherever it appears,
// including comments and string literals.
package enhancer

import (
	"regexp"
	"strings"

	"github.com/kalambet/magic/internal/insights"
	"github.com/kalambet/magic/internal/styles"
)

// hueFamilies groups Tailwind palette names that read as the same hue.
var hueFamilies = map[string][]string{
	"blue":   {"blue", "sky", "indigo", "cyan"},
	"red":    {"red", "rose", "pink"},
	"green":  {"green", "emerald", "lime", "teal"},
	"purple": {"purple", "violet", "fuchsia"},
	"yellow": {"yellow", "amber", "orange"},
	"gray":   {"gray", "slate", "zinc", "neutral", "stone"},
}

var familyOf = func() map[string]string {
	m := make(map[string]string)
	for family, names := range hueFamilies {
		for _, n := range names {
			m[n] = family
		}
	}
	return m
}()

var (
	colorTokenRe  = regexp.MustCompile(`(bg|text|border|from|to|via|ring|fill|stroke|outline|divide|placeholder|accent|caret|decoration|shadow)-([a-z]+)-(\d{2,3})`)
	radiusTokenRe = regexp.MustCompile(`rounded(?:-(?:none|sm|md|lg|xl|2xl|3xl|full))?`)
	plainRadiusRe = regexp.MustCompile(`^rounded(?:-(?:none|sm|md|lg|xl|2xl|3xl|full))?$`)
)

// radiusCSS maps radius utilities to their CSS lengths.
var radiusCSS = map[string]string{
	"rounded-none": "0px",
	"rounded-sm":   "0.125rem",
	"rounded":      "0.25rem",
	"rounded-md":   "0.375rem",
	"rounded-lg":   "0.5rem",
	"rounded-xl":   "0.75rem",
	"rounded-2xl":  "1rem",
	"rounded-3xl":  "1.5rem",
	"rounded-full": "9999px",
}

// HueFamily returns the hue family of a palette name or "<name>-<shade>"
// token, or "" if the name is not a known palette color.
func HueFamily(color string) string {
	name := color
	if i := strings.IndexByte(color, '-'); i >= 0 {
		name = color[:i]
	}
	return familyOf[strings.ToLower(name)]
}

// Enhance rewrites literal color and border-radius tokens in code to the
// project's design tokens. A color token is replaced with the first palette
// entry of the same hue family; hues the prompt names explicitly are left
// alone. Radius tokens take the project's first plain radius utility.
// Inline style objects get their borderRadius rewritten as well.
func Enhance(code string, in insights.Insights, prompt string) string {
	ds := in.DesignSystem
	code = recolor(code, ds.Colors, requestedFamilies(prompt))

	radius := primaryRadius(ds.BorderRadius)
	if radius != "" {
		code = replaceTokens(code, radiusTokenRe, func(string) string { return radius })
	}

	inlineRadius := ""
	if v := ds.InlineStyles["borderRadius"]; len(v) > 0 {
		inlineRadius = v[0]
	} else if css, ok := radiusCSS[radius]; ok {
		inlineRadius = css
	}
	if inlineRadius != "" {
		code = rewriteInlineRadius(code, inlineRadius)
	}
	return code
}

func recolor(code string, palette []string, keep map[string]bool) string {
	if len(palette) == 0 {
		return code
	}
	first := make(map[string]string)
	for _, c := range palette {
		f := HueFamily(c)
		if f == "" {
			continue
		}
		if _, ok := first[f]; !ok {
			first[f] = c
		}
	}
	return replaceTokens(code, colorTokenRe, func(tok string) string {
		m := colorTokenRe.FindStringSubmatch(tok)
		f := familyOf[m[2]]
		if f == "" || keep[f] {
			return tok
		}
		target, ok := first[f]
		if !ok {
			return tok
		}
		return m[1] + "-" + target
	})
}

// requestedFamilies returns the hue families named in the prompt.
func requestedFamilies(prompt string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if f, ok := familyOf[w]; ok {
			out[f] = true
		}
		if _, ok := hueFamilies[w]; ok {
			out[w] = true
		}
	}
	return out
}

func primaryRadius(list []string) string {
	for _, r := range list {
		if plainRadiusRe.MatchString(r) {
			return r
		}
	}
	return ""
}

// replaceTokens applies fn to every match of re that stands as a whole
// utility class: not glued to a neighbouring letter, digit or dash.
func replaceTokens(code string, re *regexp.Regexp, fn func(string) string) string {
	locs := re.FindAllStringIndex(code, -1)
	if len(locs) == 0 {
		return code
	}
	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if start > 0 && isTokenByte(code[start-1]) {
			continue
		}
		if end < len(code) && isTokenByte(code[end]) {
			continue
		}
		sb.WriteString(code[last:start])
		sb.WriteString(fn(code[start:end]))
		last = end
	}
	sb.WriteString(code[last:])
	return sb.String()
}

func isTokenByte(c byte) bool {
	return c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func rewriteInlineRadius(code, value string) string {
	blocks := styles.ExtractInline(code)
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if _, ok := b.Object.Get("borderRadius"); !ok {
			continue
		}
		b.Object.Set("borderRadius", value)
		code = code[:b.Start] + b.Object.String() + code[b.End:]
	}
	return code
}
