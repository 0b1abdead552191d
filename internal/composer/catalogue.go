package composer

import "sort"

// sectionPresets builds the default section for each section type. Each call
// returns fresh slices so callers may modify the result.
var sectionPresets = map[string]func() PageSection{
	"navigation": func() PageSection {
		return PageSection{
			ID: "navigation", Name: "Navigation", Type: "navigation",
			Layout:     LayoutSpec{Type: LayoutFlex, Direction: "row", Align: "center"},
			Components: []ComponentSpec{{Type: "navigation", Prompt: "navbar navigation menu"}},
		}
	},
	"hero": func() PageSection {
		return PageSection{
			ID: "hero", Name: "Hero", Type: "hero",
			Layout:     LayoutSpec{Type: LayoutFlex, Direction: "col", Align: "center"},
			Components: []ComponentSpec{{Type: "hero", Prompt: "gradient hero with headline"}},
		}
	},
	"features": func() PageSection {
		return PageSection{
			ID: "features", Name: "Features", Type: "features",
			Layout: LayoutSpec{Type: LayoutGrid, Columns: 3, Gap: 6},
			Components: []ComponentSpec{
				{Type: "card", Prompt: "glass card for a product feature", Position: &Position{Row: 0, Column: 0}},
				{Type: "card", Prompt: "glass card for a product feature", Position: &Position{Row: 0, Column: 1}},
				{Type: "card", Prompt: "glass card for a product feature", Position: &Position{Row: 0, Column: 2}},
			},
		}
	},
	"pricing": func() PageSection {
		return PageSection{
			ID: "pricing", Name: "Pricing", Type: "pricing",
			Layout:     LayoutSpec{Type: LayoutFlex, Direction: "col", Align: "center"},
			Components: []ComponentSpec{{Type: "pricing-table", Prompt: "pricing table with plans"}},
		}
	},
	"testimonials": func() PageSection {
		return PageSection{
			ID: "testimonials", Name: "Testimonials", Type: "testimonials",
			Layout: LayoutSpec{Type: LayoutGrid, Columns: 2, Gap: 6},
			Components: []ComponentSpec{
				{Type: "card", Prompt: "profile card with avatar for a customer quote", Position: &Position{Row: 0, Column: 0}},
				{Type: "card", Prompt: "profile card with avatar for a customer quote", Position: &Position{Row: 0, Column: 1}},
			},
		}
	},
	"cta": func() PageSection {
		return PageSection{
			ID: "cta", Name: "Call to action", Type: "cta",
			Layout:     LayoutSpec{Type: LayoutFlex, Direction: "row", Align: "center"},
			Components: []ComponentSpec{{Type: "button", Prompt: "animated cta button"}},
		}
	},
	"stats": func() PageSection {
		return PageSection{
			ID: "stats", Name: "Stats", Type: "stats",
			Layout:     LayoutSpec{Type: LayoutGrid, Columns: 1, Gap: 4},
			Components: []ComponentSpec{{Type: "component", Prompt: "stats grid with metrics", Position: &Position{}}},
		}
	},
	"gallery": func() PageSection {
		return PageSection{
			ID: "gallery", Name: "Gallery", Type: "gallery",
			Layout: LayoutSpec{Type: LayoutGrid, Columns: 3, Gap: 4},
			Components: []ComponentSpec{
				{Type: "card", Prompt: "glass card showing a project", Position: &Position{Row: 0, Column: 0, Width: 2}},
				{Type: "card", Prompt: "glass card showing a project", Position: &Position{Row: 0, Column: 2}},
				{Type: "card", Prompt: "glass card showing a project", Position: &Position{Row: 1, Column: 0, Width: 3}},
			},
		}
	},
	"contact": func() PageSection {
		return PageSection{
			ID: "contact", Name: "Contact", Type: "contact",
			Layout:     LayoutSpec{Type: LayoutFlex, Direction: "col", Align: "center"},
			Components: []ComponentSpec{{Type: "form", Prompt: "contact form"}},
		}
	},
	"modal": func() PageSection {
		return PageSection{
			ID: "modal", Name: "Dialog", Type: "modal",
			Layout:     LayoutSpec{Type: LayoutAbsolute},
			Components: []ComponentSpec{{Type: "modal", Prompt: "modal dialog", Position: &Position{Row: 2, Column: 2}}},
		}
	},
	"footer": func() PageSection {
		return PageSection{
			ID: "footer", Name: "Footer", Type: "footer",
			Layout:     LayoutSpec{Type: LayoutFlex, Direction: "row", Align: "center"},
			Components: []ComponentSpec{{Type: "component", Prompt: "footer with copyright"}},
		}
	},
}

// SectionTypes lists the section types accepted by GenerateSectionPreview.
func SectionTypes() []string {
	out := make([]string, 0, len(sectionPresets))
	for k := range sectionPresets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sections(types ...string) []PageSection {
	out := make([]PageSection, 0, len(types))
	for _, t := range types {
		out = append(out, sectionPresets[t]())
	}
	return out
}

// builtins returns the built-in page catalogue in display order.
func builtins() []PageTemplate {
	dashboard := sections("navigation", "stats", "features")
	dashboard[2].ID, dashboard[2].Name = "widgets", "Widgets"
	for i := range dashboard[2].Components {
		dashboard[2].Components[i].Prompt = "glass card widget with chart"
	}

	return []PageTemplate{
		{
			ID:          "landing",
			Name:        "Landing",
			Description: "Product landing page with hero, features and a call to action.",
			Category:    "marketing",
			Sections:    sections("navigation", "hero", "features", "cta", "footer"),
			Theme:       ThemeSpec{Style: "modern", ColorScheme: "light", PrimaryColor: "blue"},
		},
		{
			ID:          "saas-pricing",
			Name:        "SaaS Pricing",
			Description: "Pricing page with plan comparison and customer testimonials.",
			Category:    "marketing",
			Sections:    sections("navigation", "hero", "pricing", "testimonials", "footer"),
			Theme:       ThemeSpec{Style: "corporate", ColorScheme: "light", PrimaryColor: "purple"},
		},
		{
			ID:          "dashboard",
			Name:        "Dashboard",
			Description: "Application dashboard with key metrics and widgets.",
			Category:    "application",
			Sections:    dashboard,
			Theme:       ThemeSpec{Style: "minimal", ColorScheme: "dark", PrimaryColor: "green"},
		},
		{
			ID:          "portfolio",
			Name:        "Portfolio",
			Description: "Personal portfolio with project gallery and contact form.",
			Category:    "personal",
			Sections:    sections("navigation", "hero", "gallery", "contact", "footer"),
			Theme:       ThemeSpec{Style: "playful", ColorScheme: "light", PrimaryColor: "red"},
		},
	}
}
