// Package features renders the homepage feature grid.
//
// The feature list is static: Default returns the same three entries on
// every call and Render maps them, in order, into renderable units keyed by
// their position. Rendering never mutates its input and has no error path
// other than the writer's.
package features

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// DefaultIconWidth is the rendered width of every feature icon.
const DefaultIconWidth = "60px"

// FeatureEntry is one marketing feature.
type FeatureEntry struct {
	Title       string `yaml:"title" json:"title"`
	IconRef     string `yaml:"icon" json:"icon"`
	IconWidth   string `yaml:"icon_width,omitempty" json:"icon_width,omitempty"`
	Description string `yaml:"description" json:"description"`
}

// Unit is one rendered feature. Key is the entry's position in the input
// list and is stable because the list is never reordered.
type Unit struct {
	Key       int
	Entry     FeatureEntry
	Component templ.Component
}

// Default returns the homepage feature list.
func Default() []FeatureEntry {
	return []FeatureEntry{
		{
			Title:       "Lightning Fast",
			IconRef:     "img/deadline.png",
			IconWidth:   DefaultIconWidth,
			Description: "Sunny is very light and fast. The framework provides efficient and light IoC container.",
		},
		{
			Title:       "Cloud applications colocation",
			IconRef:     "img/anywhere.png",
			IconWidth:   DefaultIconWidth,
			Description: "Sunny applications manager allows you to colocate cloud applications, optimizing cloud infrastructure cost.",
		},
		{
			Title:       "Designed for the cloud and Kubernetes",
			IconRef:     "img/cloud.png",
			IconWidth:   DefaultIconWidth,
			Description: "Sunny is designed for the cloud, covering cloud ecosystem scope, from the applications runtime, up to deployment including Kubernetes packages manager.",
		},
	}
}

// Render maps every entry to a Unit, preserving order.
func Render(entries []FeatureEntry) []Unit {
	units := make([]Unit, len(entries))
	for idx, entry := range entries {
		units[idx] = Unit{
			Key:       idx,
			Entry:     entry,
			Component: Feature(idx, entry),
		}
	}
	return units
}

// Feature renders one column of the grid.
func Feature(key int, entry FeatureEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		width := entry.IconWidth
		if width == "" {
			width = DefaultIconWidth
		}
		_, err := fmt.Fprintf(w,
			`<div class="col col--4" data-feature-key="%d">`+
				`<div class="text--center"><img src="%s" width="%s" alt="%s"/></div>`+
				`<div class="text--center padding-horiz--md"><h3>%s</h3><p>%s</p></div>`+
				`</div>`,
			key,
			templ.EscapeString(entry.IconRef),
			templ.EscapeString(width),
			templ.EscapeString(entry.Title),
			templ.EscapeString(entry.Title),
			templ.EscapeString(entry.Description),
		)
		return err
	})
}

// Section renders the whole feature grid.
func Section(entries []FeatureEntry) templ.Component {
	units := Render(entries)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="features"><div class="container"><div class="row">`); err != nil {
			return err
		}
		for _, unit := range units {
			if err := unit.Component.Render(ctx, w); err != nil {
				return fmt.Errorf("rendering feature %d (%s): %w", unit.Key, unit.Entry.Title, err)
			}
		}
		_, err := io.WriteString(w, `</div></div></section>`)
		return err
	})
}
