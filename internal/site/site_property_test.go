//go:build property
// +build property

package site

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genNavItem() gopter.Gen {
	return gopter.CombineGens(
		gen.Identifier(),
		gen.OneConstOf(PositionLeft, PositionRight, Position("")),
	).Map(func(values []interface{}) NavItem {
		return PathItem("/"+values[0].(string), values[0].(string), values[1].(Position))
	})
}

// TestNavbarProperties checks the ordering guarantees of the navbar.
func TestNavbarProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: every left item precedes every right item
	properties.Property("left before right", prop.ForAll(
		func(items []NavItem) bool {
			ordered := PartitionByPosition(items)
			seenRight := false
			for _, item := range ordered {
				if item.EffectivePosition() == PositionRight {
					seenRight = true
				} else if seenRight {
					return false
				}
			}
			return len(ordered) == len(items)
		},
		gen.SliceOf(genNavItem()),
	))

	// Property: within each side the declaration order is kept
	properties.Property("stable within side", prop.ForAll(
		func(items []NavItem) bool {
			for i := range items {
				items[i].To = "/" + strconv.Itoa(i)
			}
			ordered := PartitionByPosition(items)
			lastLeft, lastRight := -1, -1
			for _, item := range ordered {
				idx, err := strconv.Atoi(item.To[1:])
				if err != nil {
					return false
				}
				if item.EffectivePosition() == PositionRight {
					if idx < lastRight {
						return false
					}
					lastRight = idx
				} else {
					if idx < lastLeft {
						return false
					}
					lastLeft = idx
				}
			}
			return true
		},
		gen.SliceOf(genNavItem()),
	))

	// Property: partitioning never reorders the input
	properties.Property("input untouched", prop.ForAll(
		func(items []NavItem) bool {
			before := append([]NavItem(nil), items...)
			PartitionByPosition(items)
			for i := range items {
				if items[i] != before[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genNavItem()),
	))

	properties.TestingRun(t)
}

// TestFooterProperties checks that footer groups come back in declaration
// order whatever their titles are.
func TestFooterProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("footer order preserved", prop.ForAll(
		func(titles []string) bool {
			cfg := DefaultFor(2024)
			cfg.Footer.Groups = nil
			for _, title := range titles {
				cfg.Footer.Groups = append(cfg.Footer.Groups, FooterGroup{Title: title})
			}
			groups := cfg.FooterGroups()
			if len(groups) != len(titles) {
				return false
			}
			for i := range titles {
				if groups[i].Title != titles[i] {
					return false
				}
			}
			exported := cfg.ToGenerator().ThemeConfig.Footer.Links
			for i := range titles {
				if exported[i].Title != titles[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	// Property: a default locale is valid exactly when it is listed
	properties.Property("locale membership", prop.ForAll(
		func(locale string, locales []string) bool {
			listed := false
			for _, l := range locales {
				if l == locale {
					listed = true
				}
			}
			return (ValidateLocales(locale, locales) == nil) == listed
		},
		gen.OneConstOf("en", "fr", "de", "zh"),
		gen.SliceOf(gen.OneConstOf("en", "fr", "de", "zh")),
	))

	properties.TestingRun(t)
}
