package insights

import (
	"encoding/json"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/kalambet/magic/internal/styles"
)

// frameworkMarkers maps a framework name to import tokens that signal it.
var frameworkMarkers = map[string][]string{
	"react":             {`from "react"`, `from 'react'`, `require("react")`, `require('react')`},
	"next":              {`from "next/`, `from 'next/`},
	"vue":               {`from "vue"`, `from 'vue'`, `<template>`},
	"svelte":            {`from "svelte`, `from 'svelte`},
	"angular":           {`@angular/core`},
	"tailwind":          {`@tailwind`, `tailwindcss`},
	"styled-components": {`from "styled-components"`, `from 'styled-components'`},
	"emotion":           {`from "@emotion/`, `from '@emotion/`},
	"framer-motion":     {`from "framer-motion"`, `from 'framer-motion'`},
}

// packageFrameworks maps package.json dependency names to framework names.
var packageFrameworks = map[string]string{
	"react":             "react",
	"next":              "next",
	"vue":               "vue",
	"nuxt":              "vue",
	"svelte":            "svelte",
	"@sveltejs/kit":     "svelte",
	"@angular/core":     "angular",
	"tailwindcss":       "tailwind",
	"styled-components": "styled-components",
	"@emotion/react":    "emotion",
	"framer-motion":     "framer-motion",
}

// tailwindColors is the palette vocabulary recognised in utility classes.
var tailwindColors = map[string]bool{
	"slate": true, "gray": true, "zinc": true, "neutral": true, "stone": true,
	"red": true, "orange": true, "amber": true, "yellow": true, "lime": true,
	"green": true, "emerald": true, "teal": true, "cyan": true, "sky": true,
	"blue": true, "indigo": true, "violet": true, "purple": true, "fuchsia": true,
	"pink": true, "rose": true,
}

var (
	classAttrRe   = regexp.MustCompile("(?:className|class)\\s*=\\s*(?:\"([^\"]*)\"|'([^']*)'|\\{\\s*[\"'`]([^\"'`]*)[\"'`]\\s*\\})")
	applyRe       = regexp.MustCompile(`@apply\s+([^;]+);`)
	componentRe   = regexp.MustCompile(`export\s+(?:default\s+)?(?:function|const|class)\s+([A-Z][A-Za-z0-9]*)`)
	moduleCSSRe   = regexp.MustCompile(`import\s+\w+\s+from\s+["'][^"']+\.module\.(?:css|scss)["']`)
	colorClassRe  = regexp.MustCompile(`^(?:bg|text|border|from|to|via|ring|fill|stroke|outline|divide|placeholder|accent|caret|decoration)-([a-z]+)-(\d{2,3})(?:/\d+)?$`)
	spacingRe     = regexp.MustCompile(`^-?(?:p|px|py|pt|pb|pl|pr|m|mx|my|mt|mb|ml|mr|gap|gap-x|gap-y|space-x|space-y)-(?:\d+(?:\.\d+)?|px)$`)
	radiusRe      = regexp.MustCompile(`^rounded(?:-(?:t|b|l|r|tl|tr|bl|br))?(?:-(?:none|sm|md|lg|xl|2xl|3xl|full))?$`)
	typographyRe  = regexp.MustCompile(`^(?:text-(?:xs|sm|base|lg|xl|[2-9]xl)|font-(?:thin|extralight|light|normal|medium|semibold|bold|extrabold|black|sans|serif|mono)|tracking-[a-z]+|leading-[a-z0-9]+)$`)
	shadowRe      = regexp.MustCompile(`^shadow(?:-(?:sm|md|lg|xl|2xl|inner|none))?$`)
	inlineTracked = map[string]bool{"borderRadius": true, "boxShadow": true, "fontFamily": true, "color": true, "backgroundColor": true, "padding": true, "margin": true}
)

// collector accumulates extraction results across files.
type collector struct {
	frameworks   map[string]int
	styled       map[string]int
	colors       orderedSet
	typography   orderedSet
	spacing      orderedSet
	radius       orderedSet
	shadows      orderedSet
	components   orderedSet
	inline       map[string]*orderedSet
	inlineKeys   []string
	utilityCount int
}

func newCollector() *collector {
	return &collector{
		frameworks: make(map[string]int),
		styled:     make(map[string]int),
		inline:     make(map[string]*orderedSet),
	}
}

// addFile extracts everything it can from one file's content.
func (c *collector) addFile(name string, content []byte) error {
	text := string(content)
	base := path.Base(name)

	switch {
	case base == "package.json":
		return c.addPackageJSON(content)
	case strings.HasSuffix(base, ".html"):
		if err := c.addHTML(strings.NewReader(text)); err != nil {
			return err
		}
	}

	ext := path.Ext(base)
	if ext == ".vue" {
		c.frameworks["vue"]++
	}
	if strings.HasPrefix(base, "tailwind.config") {
		c.frameworks["tailwind"]++
		c.styled["tailwind"]++
	}

	for fw, markers := range frameworkMarkers {
		for _, m := range markers {
			if strings.Contains(text, m) {
				c.frameworks[fw]++
				break
			}
		}
	}
	if c.frameworks["styled-components"] > 0 && strings.Contains(text, "styled.") {
		c.styled["styled-components"]++
	}
	if moduleCSSRe.MatchString(text) {
		c.styled["css-modules"]++
	}

	for _, m := range classAttrRe.FindAllStringSubmatch(text, -1) {
		c.addClasses(m[1] + " " + m[2] + " " + m[3])
	}
	for _, m := range applyRe.FindAllStringSubmatch(text, -1) {
		c.addClasses(m[1])
	}

	for _, in := range styles.ExtractInline(text) {
		c.styled["inline-styles"]++
		for _, k := range in.Object.Keys {
			if !inlineTracked[k] {
				continue
			}
			set, ok := c.inline[k]
			if !ok {
				set = &orderedSet{}
				c.inline[k] = set
				c.inlineKeys = append(c.inlineKeys, k)
			}
			v, _ := in.Object.Get(k)
			set.add(v)
		}
	}

	if isComponentFile(ext) {
		for _, m := range componentRe.FindAllStringSubmatch(text, -1) {
			c.components.add(m[1])
		}
		stem := strings.TrimSuffix(base, ext)
		if stem != "" && stem[0] >= 'A' && stem[0] <= 'Z' {
			c.components.add(stem)
		}
	}
	return nil
}

func (c *collector) addPackageJSON(content []byte) error {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return err
	}
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		for dep := range deps {
			if fw, ok := packageFrameworks[dep]; ok {
				c.frameworks[fw]++
				if fw == "tailwind" || fw == "styled-components" || fw == "emotion" {
					c.styled[fw]++
				}
			}
		}
	}
	return nil
}

// addHTML walks an HTML document and collects class attributes.
func (c *collector) addHTML(r io.Reader) error {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return nil
			}
			return z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			for {
				key, val, more := z.TagAttr()
				if string(key) == "class" {
					c.addClasses(string(val))
				}
				if !more {
					break
				}
			}
		}
	}
}

func (c *collector) addClasses(list string) {
	for _, cls := range strings.Fields(list) {
		if i := strings.LastIndex(cls, ":"); i >= 0 {
			cls = cls[i+1:]
		}
		cls = strings.TrimPrefix(cls, "!")
		switch {
		case colorClassRe.MatchString(cls):
			m := colorClassRe.FindStringSubmatch(cls)
			if tailwindColors[m[1]] {
				c.colors.add(m[1] + "-" + m[2])
				c.utilityCount++
			}
		case radiusRe.MatchString(cls):
			c.radius.add(cls)
			c.utilityCount++
		case shadowRe.MatchString(cls):
			c.shadows.add(cls)
			c.utilityCount++
		case typographyRe.MatchString(cls):
			c.typography.add(cls)
			c.utilityCount++
		case spacingRe.MatchString(cls):
			c.spacing.add(cls)
			c.utilityCount++
		}
	}
}

// stylingApproach picks the dominant styling convention.
func (c *collector) stylingApproach() string {
	if c.utilityCount > 0 {
		c.styled["tailwind"]++
	}
	priority := []string{"tailwind", "styled-components", "emotion", "css-modules", "inline-styles"}
	best, bestN := "css", 0
	for _, s := range priority {
		if c.styled[s] > bestN {
			best, bestN = s, c.styled[s]
		}
	}
	return best
}

func (c *collector) inlineStyles() map[string][]string {
	if len(c.inlineKeys) == 0 {
		return nil
	}
	out := make(map[string][]string, len(c.inlineKeys))
	for _, k := range c.inlineKeys {
		out[k] = c.inline[k].list()
	}
	return out
}

func (c *collector) frameworkUsage() map[string]int {
	out := make(map[string]int, len(c.frameworks))
	for k, v := range c.frameworks {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

func isComponentFile(ext string) bool {
	switch ext {
	case ".jsx", ".tsx", ".js", ".ts", ".vue", ".svelte":
		return true
	}
	return false
}

// suggestedPatterns derives generation hints from what was found.
func suggestedPatterns(approach string, ds DesignSystem, usage map[string]int) []string {
	var out []string
	switch approach {
	case "tailwind":
		out = append(out, "Use Tailwind utility classes")
	case "styled-components":
		out = append(out, "Define styles with styled-components")
	case "emotion":
		out = append(out, "Define styles with Emotion css props")
	case "css-modules":
		out = append(out, "Co-locate a CSS module per component")
	case "inline-styles":
		out = append(out, "Keep inline style objects flat")
	default:
		out = append(out, "Use plain CSS classes")
	}
	if len(ds.Colors) > 0 {
		out = append(out, "Reuse primary color "+ds.Colors[0])
	}
	if len(ds.BorderRadius) > 0 {
		out = append(out, "Match corner radius "+ds.BorderRadius[0])
	}
	if usage["framer-motion"] > 0 {
		out = append(out, "Animate with framer-motion")
	}
	if usage["react"] > 0 || usage["next"] > 0 {
		out = append(out, "Export components as default function components")
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
