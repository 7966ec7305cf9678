// Package site holds the declarative configuration record of the Apache Sunny
// website.
//
// A SiteConfig is built once at process start (either from Default or from
// Default overlaid with a YAML file by Load) and is read-only afterwards. The
// record is handed to the external site generator through Export, whose
// field names form the contract the generator depends on, and is read by the
// view components in internal/views for the homepage markup.
//
// Construction never fails. Malformed values are reported by Validate as
// errors or warnings; nothing in this package rejects a record on its own.
package site

import (
	"path"
	"strings"
)

// BrokenLinkPolicy tells the build what to do with an unresolved link.
type BrokenLinkPolicy string

const (
	PolicyIgnore BrokenLinkPolicy = "ignore"
	PolicyLog    BrokenLinkPolicy = "log"
	PolicyWarn   BrokenLinkPolicy = "warn"
	PolicyThrow  BrokenLinkPolicy = "throw"
)

// IsValid reports whether p is one of the known policies.
func (p BrokenLinkPolicy) IsValid() bool {
	switch p {
	case PolicyIgnore, PolicyLog, PolicyWarn, PolicyThrow:
		return true
	}
	return false
}

// CodeTheme references a syntax-highlighting theme by name.
type CodeTheme string

// KnownCodeThemes lists the highlighting themes the generator ships with.
var KnownCodeThemes = []CodeTheme{
	"github", "dracula", "duotoneDark", "duotoneLight", "nightOwl",
	"nightOwlLight", "oceanicNext", "okaidia", "palenight", "shadesOfPurple",
	"synthwave84", "ultramin", "vsDark", "vsLight",
}

// IsKnown reports whether the generator would recognise the theme. An
// unknown theme silently falls back to the generator's default.
func (t CodeTheme) IsKnown() bool {
	for _, known := range KnownCodeThemes {
		if t == known {
			return true
		}
	}
	return false
}

// SiteConfig is the whole site description.
type SiteConfig struct {
	Title                 string           `yaml:"title"`
	Tagline               string           `yaml:"tagline"`
	URL                   string           `yaml:"url"`
	BasePath              string           `yaml:"base_path"`
	Favicon               string           `yaml:"favicon"`
	OrganizationName      string           `yaml:"organization_name"`
	ProjectName           string           `yaml:"project_name"`
	OnBrokenLinks         BrokenLinkPolicy `yaml:"on_broken_links"`
	OnBrokenMarkdownLinks BrokenLinkPolicy `yaml:"on_broken_markdown_links"`
	I18n                  I18n             `yaml:"i18n"`
	Presets               Presets          `yaml:"presets"`
	Navbar                Navbar           `yaml:"navbar"`
	Footer                Footer           `yaml:"footer"`
	Prism                 Prism            `yaml:"prism"`
}

// I18n carries the locale list. DefaultLocale must be one of Locales.
type I18n struct {
	DefaultLocale string   `yaml:"default_locale"`
	Locales       []string `yaml:"locales"`
}

// Presets configures the docs/blog preset of the generator.
type Presets struct {
	Docs  *DocsPreset  `yaml:"docs,omitempty"`
	Blog  *BlogPreset  `yaml:"blog,omitempty"`
	Theme *ThemePreset `yaml:"theme,omitempty"`
}

// DocsPreset enables the documentation plugin. A nil *DocsPreset disables it.
type DocsPreset struct {
	SidebarPath string `yaml:"sidebar_path"`
	EditURL     string `yaml:"edit_url,omitempty"`
}

// BlogPreset enables the blog plugin.
type BlogPreset struct {
	ShowReadingTime bool   `yaml:"show_reading_time"`
	EditURL         string `yaml:"edit_url,omitempty"`
}

// ThemePreset points at the custom stylesheet.
type ThemePreset struct {
	CustomCSS string `yaml:"custom_css"`
}

// Logo is the navbar logo. Src is an opaque locator resolved by the generator.
type Logo struct {
	Alt    string `yaml:"alt"`
	Src    string `yaml:"src"`
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
}

// Navbar is the top navigation bar.
type Navbar struct {
	Logo  Logo      `yaml:"logo"`
	Items []NavItem `yaml:"items"`
}

// Footer holds the link columns and the copyright line. Copyright is trusted
// HTML.
type Footer struct {
	Style     string        `yaml:"style"`
	Groups    []FooterGroup `yaml:"groups"`
	Copyright string        `yaml:"copyright"`
}

// FooterGroup is one titled column of footer links.
type FooterGroup struct {
	Title string       `yaml:"title" json:"title"`
	Items []FooterLink `yaml:"items" json:"items"`
}

// FooterLink targets either an internal path (To) or an external URL (Href).
type FooterLink struct {
	Label string `yaml:"label" json:"label"`
	To    string `yaml:"to,omitempty" json:"to,omitempty"`
	Href  string `yaml:"href,omitempty" json:"href,omitempty"`
}

// Target returns the resolved link of the footer item.
func (l FooterLink) Target(basePath string) string {
	if l.Href != "" {
		return l.Href
	}
	return JoinBase(basePath, l.To)
}

// IsExternal reports whether the link leaves the site.
func (l FooterLink) IsExternal() bool {
	return l.Href != ""
}

// Prism selects the light and dark code themes.
type Prism struct {
	Theme     CodeTheme `yaml:"theme"`
	DarkTheme CodeTheme `yaml:"dark_theme"`
}

// DefaultLocale returns the configured default locale.
func (c SiteConfig) DefaultLocale() string {
	return c.I18n.DefaultLocale
}

// Locales returns a copy of the locale list.
func (c SiteConfig) Locales() []string {
	return append([]string(nil), c.I18n.Locales...)
}

// NavbarItems returns a copy of the navbar items in declaration order.
func (c SiteConfig) NavbarItems() []NavItem {
	return append([]NavItem(nil), c.Navbar.Items...)
}

// FooterGroups returns a deep copy of the footer groups in declaration order.
func (c SiteConfig) FooterGroups() []FooterGroup {
	groups := make([]FooterGroup, len(c.Footer.Groups))
	for i, g := range c.Footer.Groups {
		groups[i] = FooterGroup{
			Title: g.Title,
			Items: append([]FooterLink(nil), g.Items...),
		}
	}
	return groups
}

// CodeThemeLight returns the light highlighting theme.
func (c SiteConfig) CodeThemeLight() CodeTheme {
	return c.Prism.Theme
}

// CodeThemeDark returns the dark highlighting theme.
func (c SiteConfig) CodeThemeDark() CodeTheme {
	return c.Prism.DarkTheme
}

// Clone returns a copy that shares no slices with c.
func (c SiteConfig) Clone() SiteConfig {
	out := c
	out.I18n.Locales = c.Locales()
	out.Navbar.Items = c.NavbarItems()
	out.Footer.Groups = c.FooterGroups()
	if c.Presets.Docs != nil {
		docs := *c.Presets.Docs
		out.Presets.Docs = &docs
	}
	if c.Presets.Blog != nil {
		blog := *c.Presets.Blog
		out.Presets.Blog = &blog
	}
	if c.Presets.Theme != nil {
		theme := *c.Presets.Theme
		out.Presets.Theme = &theme
	}
	return out
}

// URLFor joins an internal path onto the site base path.
func (c SiteConfig) URLFor(p string) string {
	return JoinBase(c.BasePath, p)
}

// DocsPath is the route prefix of the documentation, e.g. "/docs/".
func (c SiteConfig) DocsPath() string {
	return JoinBase(c.BasePath, "/docs/")
}

// JoinBase prefixes p with basePath. Absolute URLs and fragments pass through.
func JoinBase(basePath, p string) string {
	if p == "" {
		return normalizeBase(basePath)
	}
	if strings.Contains(p, "://") || strings.HasPrefix(p, "#") || strings.HasPrefix(p, "mailto:") {
		return p
	}
	base := normalizeBase(basePath)
	trailing := strings.HasSuffix(p, "/")
	joined := path.Join(base, p)
	if trailing && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}

func normalizeBase(basePath string) string {
	if basePath == "" {
		return "/"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath
}
