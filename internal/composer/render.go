package composer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/kalambet/magic/internal/pipeline"
	"github.com/kalambet/magic/internal/styles"
)

var (
	exportDefaultFuncRe = regexp.MustCompile(`export\s+default\s+function\s*(\w*)`)
	exportDefaultNameRe = regexp.MustCompile(`(?m)^\s*export\s+default\s+(\w+)\s*;?\s*$`)
	exportRe            = regexp.MustCompile(`(?m)^export\s+`)
	declRe              = regexp.MustCompile(`(?:function|const|class)\s+([A-Z]\w*)`)
	topDeclRe           = regexp.MustCompile(`(?m)^(?:async\s+)?(?:function\*?|const|let|var|class)\s+([A-Za-z_$][\w$]*)`)
)

// namer hands out identifiers that are unique within one page module.
type namer struct {
	used map[string]int
}

func newNamer() *namer {
	return &namer{used: make(map[string]int)}
}

func (n *namer) claim(name string) string {
	if name == "" {
		name = "Component"
	}
	n.used[name]++
	if c := n.used[name]; c > 1 {
		alt := fmt.Sprintf("%s%d", name, c)
		n.used[alt]++
		return alt
	}
	return name
}

// localize turns a component module into a local declaration named name so
// several components can share one page module. When the module declares
// top-level helpers, or names its component differently, the whole module is
// scoped inside an arrow function bound to name. It returns the code and the
// identifier to instantiate.
func localize(code, name string) (string, string) {
	code, inner := unexport(code, name)
	if inner == "" {
		return code, name
	}
	if inner == name && onlyDeclares(code, name) {
		return code, name
	}
	return scope(code, inner, name), name
}

// unexport strips export keywords and returns the identifier the module
// uses for its component, or "" when none was found.
func unexport(code, name string) (string, string) {
	if loc := exportDefaultFuncRe.FindStringIndex(code); loc != nil {
		code = code[:loc[0]] + "function " + name + code[loc[1]:]
		return exportRe.ReplaceAllString(code, ""), name
	}
	if m := exportDefaultNameRe.FindStringSubmatchIndex(code); m != nil {
		declared := code[m[2]:m[3]]
		code = code[:m[0]] + code[m[1]:]
		return exportRe.ReplaceAllString(code, ""), declared
	}
	code = exportRe.ReplaceAllString(code, "")
	if m := declRe.FindStringSubmatch(code); m != nil {
		return code, m[1]
	}
	return code, ""
}

func onlyDeclares(code, name string) bool {
	for _, m := range topDeclRe.FindAllStringSubmatch(code, -1) {
		if m[1] != name {
			return false
		}
	}
	return true
}

func scope(code, inner, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "const %s = (() => {\n", name)
	for _, line := range strings.Split(strings.TrimSpace(code), "\n") {
		if strings.TrimSpace(line) != "" {
			b.WriteString("  ")
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  return %s;\n})();", inner)
	return b.String()
}

// pascal converts free text such as "Call to action" into "CallToAction".
func pascal(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "Section" + out
	}
	return out
}

// renderSection returns the section's component identifier and its code:
// the localized component declarations followed by a section function that
// places them in the layout wrapper.
func renderSection(s PageSection, comps []pipeline.Component, names *namer) (string, string) {
	var b strings.Builder
	ids := make([]string, len(comps))
	for i, c := range comps {
		code, id := localize(c.Code, names.claim(c.Name))
		ids[i] = id
		b.WriteString(strings.TrimSpace(code))
		b.WriteString("\n\n")
	}

	fn := names.claim(pascal(s.Name) + "Section")
	fmt.Fprintf(&b, "function %s() {\n  return (\n", fn)
	fmt.Fprintf(&b, "    <section id=%q className=\"py-12 px-6\">\n", s.ID)
	fmt.Fprintf(&b, "      <div className=%q>\n", wrapperClass(s.Layout))
	for i, id := range ids {
		var pos *Position
		if i < len(s.Components) {
			pos = s.Components[i].Position
		}
		b.WriteString("        ")
		b.WriteString(item(s.Layout, pos, id))
		b.WriteString("\n")
	}
	b.WriteString("      </div>\n    </section>\n  );\n}\n")
	return fn, b.String()
}

func wrapperClass(l LayoutSpec) string {
	gap := l.Gap
	if gap <= 0 {
		gap = 4
	}
	switch l.Type {
	case LayoutGrid:
		cols := l.Columns
		if cols <= 0 {
			cols = 1
		}
		return fmt.Sprintf("grid grid-cols-1 md:grid-cols-%d gap-%d", cols, gap)
	case LayoutAbsolute:
		return "relative min-h-[24rem]"
	default:
		dir := l.Direction
		if dir != "col" {
			dir = "row"
		}
		align := l.Align
		if align == "" {
			align = "center"
		}
		return fmt.Sprintf("flex flex-%s items-%s justify-center gap-%d", dir, align, gap)
	}
}

// item renders one component instance inside the wrapper. Grid items are
// placed with column/row start and span classes; absolute items with an
// inline style object in 4rem cells.
func item(l LayoutSpec, pos *Position, id string) string {
	tag := "<" + id + " />"
	switch l.Type {
	case LayoutGrid:
		if pos == nil {
			return "<div>" + tag + "</div>"
		}
		w, h := pos.span()
		return fmt.Sprintf("<div className=\"md:col-start-%d md:col-span-%d md:row-start-%d md:row-span-%d\">%s</div>",
			pos.Column+1, w, pos.Row+1, h, tag)
	case LayoutAbsolute:
		var st styles.Object
		if pos != nil {
			st.Set("top", rem(pos.Row))
			st.Set("left", rem(pos.Column))
			if pos.Width > 0 {
				st.Set("width", rem(pos.Width))
			}
		} else {
			st.Set("top", "0")
			st.Set("left", "0")
		}
		return fmt.Sprintf("<div className=\"absolute\" style={%s}>%s</div>", st.String(), tag)
	default:
		return tag
	}
}

func rem(cells int) string {
	return fmt.Sprintf("%drem", cells*4)
}

// renderPage joins the section code into one module: imports hoisted and
// deduplicated, declarations in section order, then a default-exported page
// component that instantiates every section in order.
func renderPage(name string, secs []GeneratedSection, theme ThemeSpec, names *namer) string {
	var imports []string
	seen := make(map[string]bool)
	var body strings.Builder
	for _, s := range secs {
		for _, line := range strings.Split(s.Code, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "import ") {
				l := strings.TrimSpace(line)
				if !seen[l] {
					seen[l] = true
					imports = append(imports, l)
				}
				continue
			}
			body.WriteString(line)
			body.WriteString("\n")
		}
		body.WriteString("\n")
	}

	pageName := pascal(name)
	if !strings.HasSuffix(pageName, "Page") {
		pageName += "Page"
	}
	pageName = names.claim(pageName)

	var b strings.Builder
	if len(imports) > 0 {
		b.WriteString(strings.Join(imports, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimRight(body.String(), "\n"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "export default function %s() {\n  return (\n", pageName)
	fmt.Fprintf(&b, "    <main className=%q>\n", pageClass(theme))
	for _, s := range secs {
		fmt.Fprintf(&b, "      <%s />\n", s.Component)
	}
	b.WriteString("    </main>\n  );\n}\n")
	return b.String()
}

func pageClass(theme ThemeSpec) string {
	if theme.ColorScheme == "dark" {
		return "min-h-screen bg-gray-950 text-gray-100"
	}
	return "min-h-screen bg-white text-gray-900"
}
