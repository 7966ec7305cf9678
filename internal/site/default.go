package site

import (
	"fmt"
	"time"
)

const (
	DefaultTitle   = "Apache Sunny"
	DefaultTagline = "The Java stack designed for cloud"
	repositoryURL  = "https://github.com/apache/sunny"
)

// Default returns the Apache Sunny site configuration. The copyright line
// carries the current year.
func Default() SiteConfig {
	return DefaultFor(time.Now().Year())
}

// DefaultFor returns the default configuration with the copyright year fixed.
func DefaultFor(year int) SiteConfig {
	return SiteConfig{
		Title:                 DefaultTitle,
		Tagline:               DefaultTagline,
		URL:                   "https://sunny.apache.org",
		BasePath:              "/",
		Favicon:               "img/apache-sunny-favicon.png",
		OrganizationName:      "apache",
		ProjectName:           "sunny",
		OnBrokenLinks:         PolicyThrow,
		OnBrokenMarkdownLinks: PolicyWarn,
		I18n: I18n{
			DefaultLocale: "en",
			Locales:       []string{"en"},
		},
		Presets: Presets{
			Docs:  &DocsPreset{SidebarPath: "sidebars.js"},
			Blog:  &BlogPreset{ShowReadingTime: true},
			Theme: &ThemePreset{CustomCSS: "src/css/custom.css"},
		},
		Navbar: Navbar{
			Logo: Logo{
				Alt:    "Apache Sunny logo",
				Src:    "img/apache-sunny-transparent-wide.svg",
				Width:  128,
				Height: 32,
			},
			Items: []NavItem{
				DocItem("intro", "Tutorial", PositionLeft),
				PathItem("/blog", "Blog", PositionLeft),
				HrefItem(repositoryURL, "GitHub", PositionRight),
			},
		},
		Footer: Footer{
			Style: "dark",
			Groups: []FooterGroup{
				{
					Title: "Docs",
					Items: []FooterLink{
						{Label: "Tutorial", To: "/docs/intro"},
					},
				},
				{
					Title: "Community",
					Items: []FooterLink{
						{Label: "Apache Events", Href: "https://www.apache.org/events/current-event.html"},
						{Label: "License", Href: "https://www.apache.org/licenses/"},
						{Label: "Sponsorship", Href: "https://www.apache.org/foundation/sponsorship.html"},
						{Label: "Thanks", Href: "https://www.apache.org/foundation/thanks.html"},
						{Label: "Security", Href: "https://www.apache.org/security/"},
					},
				},
				{
					Title: "More",
					Items: []FooterLink{
						{Label: "Blog", To: "/blog"},
						{Label: "GitHub", Href: repositoryURL},
					},
				},
			},
			Copyright: Copyright(year),
		},
		Prism: Prism{
			Theme:     "github",
			DarkTheme: "dracula",
		},
	}
}

// Copyright renders the footer copyright line for the given year.
func Copyright(year int) string {
	return fmt.Sprintf(`Copyright © %d The Apache Software Foundation, Licensed under the Apache License, Version 2.0. </br>Apache Sunny, Apache and the Apache feather logo are trademarks of <a href="https://www.apache.org">The Apache Software Foundation</a>.`, year)
}
