package site

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// PresetName is the generator preset the options are attached to.
const PresetName = "classic"

// GeneratorConfig is the document consumed by the external site generator.
// Its field names are the contract: a renamed key silently disables the
// matching feature on the generator side.
type GeneratorConfig struct {
	Title                 string           `json:"title" yaml:"title"`
	Tagline               string           `json:"tagline" yaml:"tagline"`
	URL                   string           `json:"url" yaml:"url"`
	BaseURL               string           `json:"baseUrl" yaml:"baseUrl"`
	OnBrokenLinks         BrokenLinkPolicy `json:"onBrokenLinks" yaml:"onBrokenLinks"`
	OnBrokenMarkdownLinks BrokenLinkPolicy `json:"onBrokenMarkdownLinks" yaml:"onBrokenMarkdownLinks"`
	Favicon               string           `json:"favicon" yaml:"favicon"`
	OrganizationName      string           `json:"organizationName" yaml:"organizationName"`
	ProjectName           string           `json:"projectName" yaml:"projectName"`
	I18n                  GeneratorI18n    `json:"i18n" yaml:"i18n"`
	Presets               [][]interface{}  `json:"presets" yaml:"presets"`
	ThemeConfig           ThemeConfig      `json:"themeConfig" yaml:"themeConfig"`
}

// GeneratorI18n is the i18n block.
type GeneratorI18n struct {
	DefaultLocale string   `json:"defaultLocale" yaml:"defaultLocale"`
	Locales       []string `json:"locales" yaml:"locales"`
}

// PresetOptions are the options of the classic preset. A nil plugin entry is
// exported as false, which disables the plugin.
type PresetOptions struct {
	Docs  interface{} `json:"docs" yaml:"docs"`
	Blog  interface{} `json:"blog" yaml:"blog"`
	Theme interface{} `json:"theme,omitempty" yaml:"theme,omitempty"`
}

// GeneratorDocs are the docs plugin options.
type GeneratorDocs struct {
	SidebarPath string `json:"sidebarPath" yaml:"sidebarPath"`
	EditURL     string `json:"editUrl,omitempty" yaml:"editUrl,omitempty"`
}

// GeneratorBlog are the blog plugin options.
type GeneratorBlog struct {
	ShowReadingTime bool   `json:"showReadingTime" yaml:"showReadingTime"`
	EditURL         string `json:"editUrl,omitempty" yaml:"editUrl,omitempty"`
}

// GeneratorTheme are the theme options.
type GeneratorTheme struct {
	CustomCSS string `json:"customCss" yaml:"customCss"`
}

// ThemeConfig groups navbar, footer and prism settings.
type ThemeConfig struct {
	Navbar GeneratorNavbar `json:"navbar" yaml:"navbar"`
	Footer GeneratorFooter `json:"footer" yaml:"footer"`
	Prism  GeneratorPrism  `json:"prism" yaml:"prism"`
}

// GeneratorNavbar is the navbar block.
type GeneratorNavbar struct {
	Logo  GeneratorLogo         `json:"logo" yaml:"logo"`
	Items []GeneratorNavbarItem `json:"items" yaml:"items"`
}

// GeneratorLogo mirrors Logo with the generator's key names.
type GeneratorLogo struct {
	Alt    string `json:"alt" yaml:"alt"`
	Src    string `json:"src" yaml:"src"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`
}

// GeneratorNavbarItem is one navbar entry. Doc entries carry type "doc";
// plain links leave type empty.
type GeneratorNavbarItem struct {
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	DocID    string `json:"docId,omitempty" yaml:"docId,omitempty"`
	To       string `json:"to,omitempty" yaml:"to,omitempty"`
	Href     string `json:"href,omitempty" yaml:"href,omitempty"`
	Label    string `json:"label" yaml:"label"`
	Position string `json:"position" yaml:"position"`
}

// GeneratorFooter is the footer block.
type GeneratorFooter struct {
	Style     string        `json:"style,omitempty" yaml:"style,omitempty"`
	Links     []FooterGroup `json:"links" yaml:"links"`
	Copyright string        `json:"copyright,omitempty" yaml:"copyright,omitempty"`
}

// GeneratorPrism names the highlighting themes.
type GeneratorPrism struct {
	Theme     CodeTheme `json:"theme" yaml:"theme"`
	DarkTheme CodeTheme `json:"darkTheme" yaml:"darkTheme"`
}

// ToGenerator converts the record into the generator document. Navbar and
// footer order is kept exactly as declared; the generator itself places
// right-aligned items last.
func (c SiteConfig) ToGenerator() GeneratorConfig {
	items := make([]GeneratorNavbarItem, 0, len(c.Navbar.Items))
	for _, item := range c.Navbar.Items {
		out := GeneratorNavbarItem{
			Label:    item.Label,
			Position: string(item.EffectivePosition()),
		}
		if item.EffectiveKind() == NavKindDoc {
			out.Type = string(NavKindDoc)
			out.DocID = item.DocID
		} else {
			out.To = item.To
			out.Href = item.Href
		}
		items = append(items, out)
	}

	options := PresetOptions{Docs: false, Blog: false}
	if d := c.Presets.Docs; d != nil {
		options.Docs = GeneratorDocs{SidebarPath: d.SidebarPath, EditURL: d.EditURL}
	}
	if b := c.Presets.Blog; b != nil {
		options.Blog = GeneratorBlog{ShowReadingTime: b.ShowReadingTime, EditURL: b.EditURL}
	}
	if t := c.Presets.Theme; t != nil {
		options.Theme = GeneratorTheme{CustomCSS: t.CustomCSS}
	}

	return GeneratorConfig{
		Title:                 c.Title,
		Tagline:               c.Tagline,
		URL:                   c.URL,
		BaseURL:               c.BasePath,
		OnBrokenLinks:         c.OnBrokenLinks,
		OnBrokenMarkdownLinks: c.OnBrokenMarkdownLinks,
		Favicon:               c.Favicon,
		OrganizationName:      c.OrganizationName,
		ProjectName:           c.ProjectName,
		I18n: GeneratorI18n{
			DefaultLocale: c.I18n.DefaultLocale,
			Locales:       c.Locales(),
		},
		Presets: [][]interface{}{{PresetName, options}},
		ThemeConfig: ThemeConfig{
			Navbar: GeneratorNavbar{
				Logo: GeneratorLogo{
					Alt:    c.Navbar.Logo.Alt,
					Src:    c.Navbar.Logo.Src,
					Width:  c.Navbar.Logo.Width,
					Height: c.Navbar.Logo.Height,
				},
				Items: items,
			},
			Footer: GeneratorFooter{
				Style:     c.Footer.Style,
				Links:     c.FooterGroups(),
				Copyright: c.Footer.Copyright,
			},
			Prism: GeneratorPrism{
				Theme:     c.Prism.Theme,
				DarkTheme: c.Prism.DarkTheme,
			},
		},
	}
}

// Export writes the generator document to w as "json" or "yaml".
func Export(w io.Writer, c SiteConfig, format string) error {
	doc := c.ToGenerator()
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q (supported: json, yaml)", format)
	}
}

// ExportFileName is the file name Export output is written to by the build.
func ExportFileName(format string) string {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return "site.config.yaml"
	default:
		return "site.config.json"
	}
}
