package templates

// Default returns the built-in catalogue. The order is significant: it is the
// tie-break order used by Match.
func Default() *Library {
	return NewLibrary(builtin, builtinOverrides)
}

var builtinOverrides = []Override{
	{Keyword: "glow", TemplateID: "button-glow"},
	{Keyword: "glass", TemplateID: "card-glass"},
	{Keyword: "pricing", TemplateID: "pricing-table"},
}

var builtin = []Template{
	{
		ID:       "button-animated",
		Name:     "AnimatedButton",
		Keywords: []string{"button", "animated", "animation", "bounce", "hover", "cta"},
		Code: `export default function AnimatedButton({ children = "Get started", onClick }) {
  return (
    <button
      onClick={onClick}
      className="px-6 py-3 bg-blue-600 text-white font-semibold rounded-lg shadow-md transition-transform duration-200 hover:scale-105 hover:bg-blue-700 active:scale-95"
    >
      {children}
    </button>
  );
}
`,
	},
	{
		ID:       "button-glow",
		Name:     "GlowButton",
		Keywords: []string{"glow", "glowing", "neon", "button"},
		Code: `export default function GlowButton({ children = "Launch", onClick }) {
  return (
    <button
      onClick={onClick}
      className="relative px-8 py-3 bg-purple-600 text-white font-bold rounded-full shadow-lg shadow-purple-500/50 transition-all duration-300 hover:shadow-purple-400/80 hover:bg-purple-500"
    >
      <span className="absolute inset-0 rounded-full bg-purple-400 opacity-30 blur-md" aria-hidden="true" />
      <span className="relative">{children}</span>
    </button>
  );
}
`,
	},
	{
		ID:       "card-glass",
		Name:     "GlassCard",
		Keywords: []string{"card", "glass", "glassmorphism", "frosted", "blur"},
		Code: `export default function GlassCard({ title = "Glass card", children }) {
  return (
    <div className="p-6 bg-white/10 backdrop-blur-lg border border-white/20 rounded-2xl shadow-xl text-white">
      <h3 className="text-xl font-semibold mb-2">{title}</h3>
      <div className="text-gray-200">{children}</div>
    </div>
  );
}
`,
	},
	{
		ID:       "card-profile",
		Name:     "ProfileCard",
		Keywords: []string{"card", "profile", "avatar", "user", "team"},
		Code: `export default function ProfileCard({ name = "Ada Lovelace", role = "Engineer", avatar }) {
  return (
    <div className="flex flex-col items-center p-6 bg-white rounded-xl shadow-md border border-gray-200">
      <img src={avatar} alt={name} className="w-20 h-20 rounded-full mb-4 bg-gray-100" />
      <h3 className="text-lg font-semibold text-gray-900">{name}</h3>
      <p className="text-sm text-gray-500">{role}</p>
    </div>
  );
}
`,
	},
	{
		ID:       "form-contact",
		Name:     "ContactForm",
		Keywords: []string{"form", "contact", "input", "email", "message", "signup"},
		Code: `import { useState } from "react";

export default function ContactForm({ onSubmit }) {
  const [values, setValues] = useState({ name: "", email: "", message: "" });
  const update = (field) => (e) => setValues({ ...values, [field]: e.target.value });

  return (
    <form
      onSubmit={(e) => { e.preventDefault(); onSubmit?.(values); }}
      className="space-y-4 p-6 bg-white rounded-lg shadow-md max-w-md"
    >
      <input value={values.name} onChange={update("name")} placeholder="Name" className="w-full px-4 py-2 border border-gray-300 rounded-md focus:ring-2 focus:ring-blue-500" />
      <input type="email" value={values.email} onChange={update("email")} placeholder="Email" className="w-full px-4 py-2 border border-gray-300 rounded-md focus:ring-2 focus:ring-blue-500" />
      <textarea value={values.message} onChange={update("message")} placeholder="Message" rows={4} className="w-full px-4 py-2 border border-gray-300 rounded-md focus:ring-2 focus:ring-blue-500" />
      <button type="submit" className="w-full py-2 bg-blue-600 text-white font-medium rounded-md hover:bg-blue-700">Send</button>
    </form>
  );
}
`,
	},
	{
		ID:       "pricing-table",
		Name:     "PricingTable",
		Keywords: []string{"pricing", "price", "plans", "tiers", "subscription", "table"},
		Code: `const tiers = [
  { name: "Starter", price: "$9", features: ["1 project", "Basic analytics"], popular: false },
  { name: "Professional", price: "$29", features: ["10 projects", "Advanced analytics", "Priority support"], popular: true },
  { name: "Enterprise", price: "$99", features: ["Unlimited projects", "SSO", "Dedicated support"], popular: false },
];

export default function PricingTable() {
  return (
    <div className="grid grid-cols-1 md:grid-cols-3 gap-6">
      {tiers.map((tier) => (
        <div key={tier.name} className={"p-6 rounded-xl border " + (tier.popular ? "border-blue-500 shadow-lg" : "border-gray-200")}>
          {tier.popular && <span className="text-xs font-semibold text-blue-600 uppercase">Most popular</span>}
          <h3 className="text-xl font-bold mt-2">{tier.name}</h3>
          <p className="text-3xl font-extrabold my-4">{tier.price}<span className="text-sm text-gray-500">/mo</span></p>
          <ul className="space-y-2 text-gray-600">
            {tier.features.map((f) => <li key={f}>{f}</li>)}
          </ul>
          <button className="mt-6 w-full py-2 bg-blue-600 text-white rounded-lg hover:bg-blue-700">Choose {tier.name}</button>
        </div>
      ))}
    </div>
  );
}
`,
	},
	{
		ID:       "hero-gradient",
		Name:     "GradientHero",
		Keywords: []string{"hero", "landing", "banner", "gradient", "headline"},
		Code: `export default function GradientHero({ title = "Build faster", subtitle = "Ship beautiful products in minutes." }) {
  return (
    <section className="py-24 px-6 text-center bg-gradient-to-r from-indigo-600 to-purple-600 text-white">
      <h1 className="text-5xl font-extrabold mb-4">{title}</h1>
      <p className="text-xl text-indigo-100 mb-8">{subtitle}</p>
      <button className="px-8 py-3 bg-white text-indigo-700 font-semibold rounded-lg shadow hover:bg-indigo-50">Get started</button>
    </section>
  );
}
`,
	},
	{
		ID:       "navbar-simple",
		Name:     "Navbar",
		Keywords: []string{"navbar", "navigation", "nav", "menu", "header"},
		Code: `export default function Navbar({ brand = "Brand", links = ["Home", "Features", "Pricing"] }) {
  return (
    <nav className="flex items-center justify-between px-6 py-4 bg-white border-b border-gray-200">
      <span className="text-lg font-bold text-gray-900">{brand}</span>
      <ul className="flex gap-6 text-gray-600">
        {links.map((l) => <li key={l}><a href={"#" + l.toLowerCase()} className="hover:text-blue-600">{l}</a></li>)}
      </ul>
    </nav>
  );
}
`,
	},
	{
		ID:       "modal-dialog",
		Name:     "Modal",
		Keywords: []string{"modal", "dialog", "popup", "overlay"},
		Code: `export default function Modal({ open, title = "Dialog", onClose, children }) {
  if (!open) return null;
  return (
    <div className="fixed inset-0 flex items-center justify-center bg-black/50">
      <div className="w-full max-w-lg p-6 bg-white rounded-xl shadow-2xl">
        <div className="flex justify-between items-center mb-4">
          <h2 className="text-lg font-semibold text-gray-900">{title}</h2>
          <button onClick={onClose} className="text-gray-400 hover:text-gray-600">x</button>
        </div>
        {children}
      </div>
    </div>
  );
}
`,
	},
	{
		ID:       "stats-grid",
		Name:     "StatsGrid",
		Keywords: []string{"stats", "statistics", "metrics", "dashboard", "kpi"},
		Code: `const stats = [
  { label: "Users", value: "12.4k" },
  { label: "Revenue", value: "$48k" },
  { label: "Uptime", value: "99.9%" },
];

export default function StatsGrid() {
  return (
    <div className="grid grid-cols-1 sm:grid-cols-3 gap-4">
      {stats.map((s) => (
        <div key={s.label} className="p-5 bg-white rounded-lg shadow border border-gray-100">
          <p className="text-sm text-gray-500">{s.label}</p>
          <p className="text-2xl font-bold text-gray-900">{s.value}</p>
        </div>
      ))}
    </div>
  );
}
`,
	},
	{
		ID:       "footer-simple",
		Name:     "Footer",
		Keywords: []string{"footer", "copyright", "links"},
		Code: `export default function Footer({ company = "Company" }) {
  return (
    <footer className="py-8 px-6 bg-gray-900 text-gray-400 text-sm text-center">
      <p>&copy; {new Date().getFullYear()} {company}. All rights reserved.</p>
    </footer>
  );
}
`,
	},
}
