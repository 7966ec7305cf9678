// Package views composes the pages of the site from the site configuration
// and the feature grid.
//
// Every component here is a pure function of its arguments: rendering the
// same input twice yields byte-identical output.
package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
	"golang.org/x/text/language"

	"github.com/apache/sunny-website/internal/site"
)

// Context is the runtime context a page reads from the site configuration.
type Context struct {
	Title    string
	Tagline  string
	BasePath string
	Lang     string
}

// ContextFrom extracts the page context from cfg. The language tag is the
// canonical form of the default locale, or "en" when it does not parse.
func ContextFrom(cfg site.SiteConfig) Context {
	lang := "en"
	if tag, err := language.Parse(cfg.DefaultLocale()); err == nil {
		lang = tag.String()
	}
	return Context{
		Title:    cfg.Title,
		Tagline:  cfg.Tagline,
		BasePath: cfg.BasePath,
		Lang:     lang,
	}
}

// URL joins p onto the base path.
func (c Context) URL(p string) string {
	return site.JoinBase(c.BasePath, p)
}

// RenderString renders component synchronously and returns the markup.
func RenderString(ctx context.Context, component templ.Component) (string, error) {
	b, err := RenderBytes(ctx, component)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RenderBytes renders component into a fresh buffer.
func RenderBytes(ctx context.Context, component templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
