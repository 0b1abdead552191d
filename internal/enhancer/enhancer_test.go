package enhancer

import (
	"testing"

	"github.com/kalambet/magic/internal/insights"
)

func projectInsights() insights.Insights {
	return insights.Insights{
		DesignSystem: insights.DesignSystem{
			Colors:       []string{"indigo-700", "slate-800", "rose-500", "emerald-600", "sky-300"},
			BorderRadius: []string{"rounded-t-md", "rounded-xl"},
		},
	}
}

func TestHueFamily(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"blue", "blue"},
		{"sky-300", "blue"},
		{"Indigo", "blue"},
		{"rose-500", "red"},
		{"teal-400", "green"},
		{"fuchsia-600", "purple"},
		{"amber-200", "yellow"},
		{"zinc-900", "gray"},
		{"white", ""},
		{"black-900", ""},
	}
	for _, tt := range tests {
		if got := HueFamily(tt.in); got != tt.want {
			t.Errorf("HueFamily(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnhance_Colors(t *testing.T) {
	code := `<button className="bg-blue-600 hover:bg-blue-700 text-white border-gray-200 ring-red-400/50">Go</button>`
	got := Enhance(code, projectInsights(), "a button")
	want := `<button className="bg-indigo-700 hover:bg-indigo-700 text-white border-slate-800 ring-rose-500/50">Go</button>`
	if got != want {
		t.Errorf("Enhance colors\n got: %s\nwant: %s", got, want)
	}
}

func TestEnhance_UnknownFamilyKept(t *testing.T) {
	in := insights.Insights{DesignSystem: insights.DesignSystem{Colors: []string{"blue-500"}}}
	code := `<div className="bg-purple-600 text-blue-200" />`
	got := Enhance(code, in, "")
	want := `<div className="bg-purple-600 text-blue-500" />`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEnhance_PromptHueWins(t *testing.T) {
	code := `<button className="bg-red-600 text-blue-50" />`
	got := Enhance(code, projectInsights(), "a red button")
	want := `<button className="bg-red-600 text-indigo-700" />`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEnhance_Radius(t *testing.T) {
	code := `<div className="rounded-lg p-4"><img className="rounded-t-lg" /><span className="rounded" /></div>`
	got := Enhance(code, projectInsights(), "")
	want := `<div className="rounded-xl p-4"><img className="rounded-t-lg" /><span className="rounded-xl" /></div>`
	if got != want {
		t.Errorf("Enhance radius\n got: %s\nwant: %s", got, want)
	}
}

func TestEnhance_LiteralEverywhere(t *testing.T) {
	code := "// uses bg-blue-500\nconst label = 'rounded-md';"
	got := Enhance(code, projectInsights(), "")
	want := "// uses bg-indigo-700\nconst label = 'rounded-xl';"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEnhance_InlineRadius(t *testing.T) {
	code := `<div style={{ borderRadius: '4px', padding: 8 }}>x</div><p style={{ color: 'red' }} />`

	got := Enhance(code, projectInsights(), "")
	want := `<div style={{ borderRadius: '0.75rem', padding: 8 }}>x</div><p style={{ color: 'red' }} />`
	if got != want {
		t.Errorf("from utility\n got: %s\nwant: %s", got, want)
	}

	in := projectInsights()
	in.DesignSystem.InlineStyles = map[string][]string{"borderRadius": {"14px"}}
	got = Enhance(code, in, "")
	want = `<div style={{ borderRadius: '14px', padding: 8 }}>x</div><p style={{ color: 'red' }} />`
	if got != want {
		t.Errorf("from project inline styles\n got: %s\nwant: %s", got, want)
	}
}

func TestEnhance_EmptyInsightsIsIdentity(t *testing.T) {
	code := `<div className="bg-blue-600 rounded-lg" style={{ borderRadius: '4px' }} />`
	if got := Enhance(code, insights.Insights{}, "anything"); got != code {
		t.Errorf("expected unchanged code, got %s", got)
	}
}
