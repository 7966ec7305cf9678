//go:build property
// +build property

package features

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genEntry() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaString(),
		gen.Identifier(),
		gen.AlphaString(),
	).Map(func(values []interface{}) FeatureEntry {
		return FeatureEntry{
			Title:       values[0].(string),
			IconRef:     "img/" + values[1].(string) + ".png",
			Description: values[2].(string),
		}
	})
}

// TestFeatureListProperties checks order and determinism of the feature grid.
func TestFeatureListProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: the i-th unit renders the i-th entry
	properties.Property("order preserved", prop.ForAll(
		func(entries []FeatureEntry) bool {
			units := Render(entries)
			if len(units) != len(entries) {
				return false
			}
			for i, unit := range units {
				if unit.Key != i || unit.Entry != entries[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genEntry()),
	))

	// Property: rendering the same list twice is byte-identical
	properties.Property("deterministic markup", prop.ForAll(
		func(entries []FeatureEntry) bool {
			var a, b bytes.Buffer
			if err := Section(entries).Render(context.Background(), &a); err != nil {
				return false
			}
			if err := Section(entries).Render(context.Background(), &b); err != nil {
				return false
			}
			return a.String() == b.String() &&
				strings.Count(a.String(), `class="col col--4"`) == len(entries)
		},
		gen.SliceOf(genEntry()),
	))

	properties.TestingRun(t)
}
