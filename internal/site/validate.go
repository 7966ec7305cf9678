package site

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/apache/sunny-website/internal/validation"
)

// Validate checks the record and reports every finding. It never mutates c.
func (c SiteConfig) Validate() *validation.ValidationResult {
	result := validation.NewResult()

	validateIdentity(c, result)
	validateLocales(c.I18n, result)
	validatePolicies(c, result)
	validateNavbar(c.Navbar, result)
	validateFooter(c.Footer, result)
	validatePrism(c.Prism, result)

	return result
}

// ValidateLocales reports whether defaultLocale is one of locales.
func ValidateLocales(defaultLocale string, locales []string) error {
	for _, l := range locales {
		if l == defaultLocale {
			return nil
		}
	}
	return fmt.Errorf("default locale %q is not one of the configured locales %v", defaultLocale, locales)
}

func validateIdentity(c SiteConfig, result *validation.ValidationResult) {
	if strings.TrimSpace(c.Title) == "" {
		result.AddError("title", c.Title, "site title cannot be empty",
			"Set title to the project name, e.g. \"Apache Sunny\"")
	}
	if strings.TrimSpace(c.Tagline) == "" {
		result.AddWarning("tagline", c.Tagline, "tagline is empty; the homepage punch line will be blank")
	}

	if err := validation.ValidateURL(c.URL); err != nil {
		result.AddError("url", c.URL, err.Error(),
			"Use the absolute production URL, e.g. https://sunny.apache.org")
	} else if strings.TrimSuffix(c.URL, "/") != c.URL {
		result.AddWarning("url", c.URL, "url should not end with a slash; the base path carries it")
	}

	if !strings.HasPrefix(c.BasePath, "/") || !strings.HasSuffix(c.BasePath, "/") {
		result.AddError("base_path", c.BasePath, "base path must start and end with /",
			"Use \"/\" when the site is served from the domain root",
			"Use \"/sunny/\" for a project page served under a sub path")
	}

	if c.Favicon == "" {
		result.AddWarning("favicon", c.Favicon, "no favicon configured")
	}
}

func validateLocales(i I18n, result *validation.ValidationResult) {
	if len(i.Locales) == 0 {
		result.AddError("i18n.locales", i.Locales, "at least one locale is required",
			"Use [\"en\"] for an English-only site")
	}

	seen := make(map[string]bool, len(i.Locales))
	for _, l := range i.Locales {
		if seen[l] {
			result.AddWarning("i18n.locales", l, fmt.Sprintf("locale %q is listed twice", l))
		}
		seen[l] = true
		if _, err := language.Parse(l); err != nil {
			result.AddError("i18n.locales", l, fmt.Sprintf("locale %q is not a valid BCP 47 tag: %v", l, err),
				"Use tags such as \"en\", \"fr\" or \"zh-Hans\"")
		}
	}

	if i.DefaultLocale == "" {
		result.AddError("i18n.default_locale", i.DefaultLocale, "default locale cannot be empty")
		return
	}
	if len(i.Locales) > 0 {
		if err := ValidateLocales(i.DefaultLocale, i.Locales); err != nil {
			result.AddError("i18n.default_locale", i.DefaultLocale, err.Error(),
				"Add the default locale to i18n.locales",
				"Or pick one of: "+strings.Join(i.Locales, ", "))
		}
	}
}

func validatePolicies(c SiteConfig, result *validation.ValidationResult) {
	policies := []struct {
		field  string
		policy BrokenLinkPolicy
	}{
		{"on_broken_links", c.OnBrokenLinks},
		{"on_broken_markdown_links", c.OnBrokenMarkdownLinks},
	}
	for _, entry := range policies {
		field, p := entry.field, entry.policy
		if !p.IsValid() {
			result.AddError(field, p, fmt.Sprintf("unknown broken link policy %q", p),
				"Available policies: ignore, log, warn, throw")
		}
	}
}

func validateNavbar(n Navbar, result *validation.ValidationResult) {
	if n.Logo.Src == "" {
		result.AddWarning("navbar.logo.src", n.Logo.Src, "navbar has no logo")
	}

	for i, item := range n.Items {
		field := fmt.Sprintf("navbar.items[%d]", i)
		if strings.TrimSpace(item.Label) == "" {
			result.AddError(field+".label", item.Label, "navbar item needs a label")
		}
		switch item.Position {
		case "", PositionLeft, PositionRight:
		default:
			result.AddError(field+".position", item.Position, fmt.Sprintf("unknown position %q", item.Position),
				"Use \"left\" or \"right\"")
		}

		switch item.EffectiveKind() {
		case NavKindDoc:
			if item.DocID == "" {
				result.AddError(field+".doc_id", item.DocID, "doc item needs a doc id")
			}
			if item.To != "" || item.Href != "" {
				result.AddError(field, item.Label, "doc item cannot also carry to or href")
			}
		case NavKindLink:
			validateLinkTarget(field, item.To, item.Href, result)
		default:
			result.AddError(field+".kind", item.Kind, fmt.Sprintf("unknown navbar item kind %q", item.Kind),
				"Use \"doc\" or \"link\"")
		}
	}
}

func validateFooter(f Footer, result *validation.ValidationResult) {
	for gi, group := range f.Groups {
		field := fmt.Sprintf("footer.groups[%d]", gi)
		if strings.TrimSpace(group.Title) == "" {
			result.AddWarning(field+".title", group.Title, "footer group has no title")
		}
		for ii, item := range group.Items {
			itemField := fmt.Sprintf("%s.items[%d]", field, ii)
			if strings.TrimSpace(item.Label) == "" {
				result.AddError(itemField+".label", item.Label, "footer link needs a label")
			}
			validateLinkTarget(itemField, item.To, item.Href, result)
		}
	}
}

func validateLinkTarget(field, to, href string, result *validation.ValidationResult) {
	switch {
	case to != "" && href != "":
		result.AddError(field, to, "link cannot set both to and href",
			"Use to for internal paths and href for external URLs")
	case to == "" && href == "":
		result.AddError(field, nil, "link needs either to or href")
	case to != "":
		if err := validation.ValidateInternalPath(to); err != nil {
			result.AddError(field+".to", to, err.Error())
		}
	default:
		if err := validation.ValidateURL(href); err != nil {
			result.AddError(field+".href", href, err.Error())
		}
	}
}

func validatePrism(p Prism, result *validation.ValidationResult) {
	themes := []struct {
		field string
		theme CodeTheme
	}{
		{"prism.theme", p.Theme},
		{"prism.dark_theme", p.DarkTheme},
	}
	for _, t := range themes {
		field, theme := t.field, t.theme
		if theme == "" {
			continue
		}
		if !theme.IsKnown() {
			result.AddWarning(field, theme, fmt.Sprintf("unknown code theme %q; the generator falls back to its default", theme),
				"Known themes include github, dracula, vsDark, vsLight")
		}
	}
}
