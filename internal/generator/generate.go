package generator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Component is the output of the basic generator.
type Component struct {
	Name        string
	Kind        string
	Code        string
	Explanation string
	Style       StyleSpec
}

// Tier is one column of a generated pricing table.
type Tier struct {
	Name     string
	Price    string
	Features []string
	Popular  bool
}

// PricingTiers returns the three tiers of a pricing table. The middle tier
// is always marked popular. Prompts that mention enterprise or teams get
// contact-sales pricing on the top tier.
func PricingTiers(prompt string) []Tier {
	set := wordSet(prompt)
	top := "$99"
	if hasAny(set, "enterprise", "teams", "business", "custom") {
		top = "Custom"
	}
	return []Tier{
		{Name: "Starter", Price: "$9", Features: []string{"1 project", "Basic analytics", "Community support"}},
		{Name: "Professional", Price: "$29", Features: []string{"10 projects", "Advanced analytics", "Priority support"}, Popular: true},
		{Name: "Enterprise", Price: top, Features: []string{"Unlimited projects", "SSO and audit logs", "Dedicated support"}},
	}
}

// Generate synthesizes a component for prompt. The result depends only on
// the prompt text.
func Generate(prompt string) Component {
	spec := ParseStyle(prompt)
	kind := Kind(prompt)

	var code string
	switch kind {
	case KindButton:
		code = button(spec)
	case KindCard:
		code = card(spec, prompt)
	case KindForm:
		code = form(spec)
	case KindPricingTable:
		code = pricingTable(spec, PricingTiers(prompt))
	case KindHero:
		code = hero(spec, prompt)
	default:
		code = generic(spec, prompt)
	}

	return Component{
		Name:        componentName(kind, spec),
		Kind:        kind,
		Code:        code,
		Explanation: explain(kind, spec),
		Style:       spec,
	}
}

func componentName(kind string, spec StyleSpec) string {
	base := map[string]string{
		KindButton:       "Button",
		KindCard:         "Card",
		KindForm:         "Form",
		KindPricingTable: "PricingTable",
		KindHero:         "Hero",
		KindComponent:    "Component",
	}[kind]
	if len(spec.Effects) > 0 {
		return title(spec.Effects[0]) + base
	}
	return base
}

func explain(kind string, spec StyleSpec) string {
	parts := []string{fmt.Sprintf("Generated a %s %s %s", spec.Size, spec.Color, kind)}
	if spec.Shape != "rounded" {
		parts = append(parts, "with "+spec.Shape+" corners")
	}
	if len(spec.Effects) > 0 {
		parts = append(parts, "and effects: "+strings.Join(spec.Effects, ", "))
	}
	return strings.Join(parts, " ") + "."
}

func title(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

const maxHeadline = 60

// headline derives display copy from the prompt.
func headline(prompt, fallback string) string {
	p := strings.TrimSpace(prompt)
	if p == "" {
		return fallback
	}
	if r := []rune(p); len(r) > maxHeadline {
		p = strings.TrimSpace(string(r[:maxHeadline]))
	}
	p = strings.NewReplacer(`"`, "", "{", "", "}", "", "<", "", ">", "").Replace(p)
	return title(p)
}

func button(s StyleSpec) string {
	name := componentName(KindButton, s)
	return fmt.Sprintf(`export default function %s({ children = "Click me", onClick }) {
  return (
    <button
      onClick={onClick}
      className="%s"
    >
      {children}
    </button>
  );
}
`, name, s.classes())
}

func card(s StyleSpec, prompt string) string {
	name := componentName(KindCard, s)
	cls := []string{"p-6", "bg-white", s.radius(), "border", "border-gray-200"}
	cls = append(cls, s.effectClasses()...)
	if !s.Has(EffectShadow) && !s.Has(EffectFloating) && !s.Has(EffectGlow) {
		cls = append(cls, "shadow-sm")
	}
	return fmt.Sprintf(`export default function %s({ title = "%s", children }) {
  return (
    <div className="%s">
      <h3 className="text-lg font-semibold text-gray-900 mb-2">{title}</h3>
      <div className="text-gray-600">{children}</div>
      <div className="mt-4 h-1 w-12 bg-%s-500 %s" />
    </div>
  );
}
`, name, headline(prompt, "Card title"), joinUnique(cls), s.Color, s.radius())
}

func form(s StyleSpec) string {
	name := componentName(KindForm, s)
	input := "w-full px-4 py-2 border border-gray-300 " + s.radius() + " focus:outline-none focus:ring-2 focus:ring-" + s.Color + "-500"
	return fmt.Sprintf(`import { useState } from "react";

export default function %s({ onSubmit }) {
  const [values, setValues] = useState({ name: "", email: "", message: "" });
  const update = (e) => setValues({ ...values, [e.target.name]: e.target.value });

  return (
    <form
      className="max-w-md space-y-4 p-6 bg-white rounded-xl shadow-md"
      onSubmit={(e) => {
        e.preventDefault();
        onSubmit?.(values);
      }}
    >
      <input name="name" value={values.name} onChange={update} placeholder="Name" className="%[2]s" />
      <input name="email" type="email" value={values.email} onChange={update} placeholder="Email" className="%[2]s" />
      <textarea name="message" value={values.message} onChange={update} placeholder="Message" rows={4} className="%[2]s" />
      <button type="submit" className="%[3]s">
        Send
      </button>
    </form>
  );
}
`, name, input, s.classes())
}

func pricingTable(s StyleSpec, tiers []Tier) string {
	var rows strings.Builder
	for _, t := range tiers {
		features := make([]string, len(t.Features))
		for i, f := range t.Features {
			features[i] = fmt.Sprintf("%q", f)
		}
		fmt.Fprintf(&rows, "  { name: %q, price: %q, features: [%s], popular: %t },\n",
			t.Name, t.Price, strings.Join(features, ", "), t.Popular)
	}
	return fmt.Sprintf(`const tiers = [
%s];

export default function %s() {
  return (
    <div className="grid grid-cols-1 md:grid-cols-3 gap-6">
      {tiers.map((tier) => (
        <div
          key={tier.name}
          className={"p-6 %s border " + (tier.popular ? "border-%s-500 shadow-lg scale-105" : "border-gray-200")}
        >
          {tier.popular && <span className="text-xs font-semibold text-%s-600 uppercase">Most popular</span>}
          <h3 className="text-xl font-bold mt-2">{tier.name}</h3>
          <p className="text-3xl font-extrabold my-4">{tier.price}</p>
          <ul className="space-y-2 text-gray-600">
            {tier.features.map((f) => <li key={f}>{f}</li>)}
          </ul>
          <button className="mt-6 w-full %s">Choose {tier.name}</button>
        </div>
      ))}
    </div>
  );
}
`, rows.String(), componentName(KindPricingTable, s), s.radius(), s.Color, s.Color, s.classes())
}

func hero(s StyleSpec, prompt string) string {
	bg := "bg-" + s.Color + "-50"
	if s.Has(EffectGradient) {
		bg = "bg-gradient-to-br from-" + s.Color + "-500 to-" + s.Color + "-800 text-white"
	}
	return fmt.Sprintf(`export default function %s({ title = "%s", subtitle = "Build faster with components that fit your project." }) {
  return (
    <section className="px-6 py-24 text-center %s">
      <h1 className="text-5xl font-extrabold tracking-tight">{title}</h1>
      <p className="mt-6 text-lg opacity-80">{subtitle}</p>
      <div className="mt-10 flex justify-center gap-4">
        <button className="%s">Get started</button>
      </div>
    </section>
  );
}
`, componentName(KindHero, s), headline(prompt, "Welcome"), bg, s.classes())
}

func generic(s StyleSpec, prompt string) string {
	return fmt.Sprintf(`export default function %s({ children }) {
  return (
    <div className="p-6 bg-white border border-gray-200 %s">
      <h2 className="text-xl font-semibold text-%s-700">%s</h2>
      <div className="mt-2 text-gray-600">{children}</div>
    </div>
  );
}
`, componentName(KindComponent, s), s.radius(), s.Color, headline(prompt, "Component"))
}
