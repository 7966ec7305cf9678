package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/apache/sunny-website/internal/features"
)

// TutorialPath is where the call to action points, relative to the base path.
const TutorialPath = "/docs/intro"

// CallToActionLabel is the text of the homepage call to action.
func CallToActionLabel(title string) string {
	return fmt.Sprintf("%s Tutorial - 5min ⏱️", title)
}

// Header renders the hero banner followed by the punch line: the tagline and
// the call-to-action link to the tutorial.
func Header(c Context) templ.Component {
	banner := Banner(c)
	punchLine := PunchLine(c)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := banner.Render(ctx, w); err != nil {
			return err
		}
		return punchLine.Render(ctx, w)
	})
}

// Banner is the hero banner with the site title.
func Banner(c Context) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<header class="hero hero--primary heroBanner heroContainer">`)
		hw.raw(`<div class="container"><h1 class="hero__title">`)
		hw.text(c.Title)
		hw.raw(`</h1></div></header>`)
		return hw.err
	})
}

// PunchLine is the tagline with the call to action below it.
func PunchLine(c Context) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<div class="container punchLine"><h1 class="margin-bottom--lg">`)
		hw.text(c.Tagline)
		hw.raw(`</h1><div class="buttons">`)
		hw.raw(`<a class="button button--secondary button--lg" href="`)
		hw.attr(c.URL(TutorialPath))
		hw.raw(`">`)
		hw.text(CallToActionLabel(c.Title))
		hw.raw(`</a></div></div>`)
		return hw.err
	})
}

// Home composes the homepage body: the banner, then the punch line and the
// feature grid as the main content.
func Home(c Context, entries []features.FeatureEntry) templ.Component {
	parts := []templ.Component{
		Banner(c),
		templ.Raw("<main>"),
		PunchLine(c),
		features.Section(entries),
		templ.Raw("</main>"),
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, part := range parts {
			if err := part.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// NotFoundBody is the content of the 404 page.
func NotFoundBody(c Context) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<main class="container margin-vert--xl"><div class="row"><div class="col col--6 col--offset-3">`)
		hw.raw(`<h1 class="hero__title">Page Not Found</h1>`)
		hw.raw(`<p>We could not find what you were looking for.</p>`)
		hw.raw(`<p><a href="`)
		hw.attr(c.URL("/"))
		hw.raw(`">Back to `)
		hw.text(c.Title)
		hw.raw(`</a></p></div></div></main>`)
		return hw.err
	})
}
