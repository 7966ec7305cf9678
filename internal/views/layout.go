package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/apache/sunny-website/internal/features"
	"github.com/apache/sunny-website/internal/site"
)

// StylesheetPath is where the build publishes the custom stylesheet.
const StylesheetPath = "/css/custom.css"

// Page is one full document.
type Page struct {
	// Title is the document title. Empty means the site title alone.
	Title       string
	Description string
	Body        templ.Component
}

// DocumentTitle returns "<page> | <site>" or the site title alone.
func (p Page) DocumentTitle(siteTitle string) string {
	if p.Title == "" || p.Title == siteTitle {
		return siteTitle
	}
	return p.Title + " | " + siteTitle
}

// AssetURL resolves a static asset reference such as "img/logo.svg" against
// the base path. Absolute URLs are returned unchanged.
func AssetURL(basePath, src string) string {
	if strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
		return src
	}
	return site.JoinBase(basePath, "/"+strings.TrimPrefix(src, "/"))
}

// Layout wraps page in the document shell: head, navbar and footer.
func Layout(cfg site.SiteConfig, page Page) templ.Component {
	c := ContextFrom(cfg)
	left, right := site.SplitByPosition(cfg.NavbarItems())
	groups := cfg.FooterGroups()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="`)
		hw.attr(c.Lang)
		hw.raw(`"><head><meta charset="utf-8"/>`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1.0"/>`)
		hw.raw(`<title>`)
		hw.text(page.DocumentTitle(c.Title))
		hw.raw(`</title>`)
		description := page.Description
		if description == "" {
			description = c.Tagline
		}
		hw.raw(`<meta name="description" content="`)
		hw.attr(description)
		hw.raw(`"/>`)
		if cfg.Favicon != "" {
			hw.raw(`<link rel="icon" href="`)
			hw.url(AssetURL(c.BasePath, cfg.Favicon))
			hw.raw(`"/>`)
		}
		if cfg.Presets.Theme != nil && cfg.Presets.Theme.CustomCSS != "" {
			hw.raw(`<link rel="stylesheet" href="`)
			hw.url(c.URL(StylesheetPath))
			hw.raw(`"/>`)
		}
		hw.raw(`</head><body>`)
		writeNavbar(hw, c, cfg.Navbar.Logo, left, right)
		if hw.err != nil {
			return hw.err
		}
		if page.Body != nil {
			if err := page.Body.Render(ctx, w); err != nil {
				return fmt.Errorf("rendering page body: %w", err)
			}
		}
		writeFooter(hw, c, cfg.Footer, groups)
		hw.raw(`</body></html>`)
		return hw.err
	})
}

func writeNavbar(hw *htmlWriter, c Context, logo site.Logo, left, right []site.NavItem) {
	hw.raw(`<nav class="navbar navbar--fixed-top"><div class="navbar__inner"><div class="navbar__items">`)
	hw.raw(`<a class="navbar__brand" href="`)
	hw.url(c.URL("/"))
	hw.raw(`">`)
	if logo.Src != "" {
		hw.raw(`<img class="navbar__logo" src="`)
		hw.url(AssetURL(c.BasePath, logo.Src))
		hw.raw(`" alt="`)
		hw.attr(logo.Alt)
		hw.raw(`"`)
		if logo.Width > 0 {
			hw.raw(fmt.Sprintf(` width="%d"`, logo.Width))
		}
		if logo.Height > 0 {
			hw.raw(fmt.Sprintf(` height="%d"`, logo.Height))
		}
		hw.raw(`/>`)
	} else {
		hw.text(c.Title)
	}
	hw.raw(`</a>`)
	for _, item := range left {
		writeNavItem(hw, c, item)
	}
	hw.raw(`</div><div class="navbar__items navbar__items--right">`)
	for _, item := range right {
		writeNavItem(hw, c, item)
	}
	hw.raw(`</div></div></nav>`)
}

func writeNavItem(hw *htmlWriter, c Context, item site.NavItem) {
	hw.raw(`<a class="navbar__item navbar__link" href="`)
	hw.url(item.Target(c.BasePath))
	hw.raw(`"`)
	if item.IsExternal() {
		hw.raw(` target="_blank" rel="noopener noreferrer"`)
	}
	hw.raw(`>`)
	hw.text(item.Label)
	hw.raw(`</a>`)
}

func writeFooter(hw *htmlWriter, c Context, footer site.Footer, groups []site.FooterGroup) {
	style := footer.Style
	if style == "" {
		style = "light"
	}
	hw.raw(`<footer class="footer footer--`)
	hw.attr(style)
	hw.raw(`"><div class="container container-fluid"><div class="row footer__links">`)
	for _, group := range groups {
		hw.raw(`<div class="col footer__col"><div class="footer__title">`)
		hw.text(group.Title)
		hw.raw(`</div><ul class="footer__items clean-list">`)
		for _, link := range group.Items {
			hw.raw(`<li class="footer__item"><a class="footer__link-item" href="`)
			hw.url(link.Target(c.BasePath))
			hw.raw(`"`)
			if link.IsExternal() {
				hw.raw(` target="_blank" rel="noopener noreferrer"`)
			}
			hw.raw(`>`)
			hw.text(link.Label)
			hw.raw(`</a></li>`)
		}
		hw.raw(`</ul></div>`)
	}
	hw.raw(`</div>`)
	if footer.Copyright != "" {
		// Copyright is trusted markup from the site configuration.
		hw.raw(`<div class="footer__bottom text--center"><div class="footer__copyright">`)
		hw.raw(footer.Copyright)
		hw.raw(`</div></div>`)
	}
	hw.raw(`</div></footer>`)
}

// HomePage is the full homepage document.
func HomePage(cfg site.SiteConfig, entries []features.FeatureEntry) templ.Component {
	c := ContextFrom(cfg)
	return Layout(cfg, Page{
		Title:       c.Title,
		Description: c.Tagline,
		Body:        Home(c, entries),
	})
}

// NotFound is the full 404 document.
func NotFound(cfg site.SiteConfig) templ.Component {
	c := ContextFrom(cfg)
	return Layout(cfg, Page{
		Title: "Page Not Found",
		Body:  NotFoundBody(c),
	})
}
