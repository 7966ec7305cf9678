package site

import "strings"

// NavKind tags the NavItem variant.
type NavKind string

const (
	// NavKindDoc links to a documentation page by id.
	NavKindDoc NavKind = "doc"
	// NavKindLink links to an internal path (To) or an external URL (Href).
	NavKindLink NavKind = "link"
)

// Position places a navbar item on the left or right of the bar.
type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// NavItem is one navbar entry.
//
// Exactly one variant is meaningful: Kind doc uses DocID, Kind link uses
// either To or Href. An empty Kind is inferred from the populated fields.
type NavItem struct {
	Kind     NavKind  `yaml:"kind,omitempty"`
	DocID    string   `yaml:"doc_id,omitempty"`
	To       string   `yaml:"to,omitempty"`
	Href     string   `yaml:"href,omitempty"`
	Label    string   `yaml:"label"`
	Position Position `yaml:"position,omitempty"`
}

// DocItem builds a documentation navbar entry.
func DocItem(docID, label string, pos Position) NavItem {
	return NavItem{Kind: NavKindDoc, DocID: docID, Label: label, Position: pos}
}

// PathItem builds an internal link navbar entry.
func PathItem(to, label string, pos Position) NavItem {
	return NavItem{Kind: NavKindLink, To: to, Label: label, Position: pos}
}

// HrefItem builds an external link navbar entry.
func HrefItem(href, label string, pos Position) NavItem {
	return NavItem{Kind: NavKindLink, Href: href, Label: label, Position: pos}
}

// EffectiveKind returns Kind, inferring it when unset.
func (n NavItem) EffectiveKind() NavKind {
	if n.Kind != "" {
		return n.Kind
	}
	if n.DocID != "" {
		return NavKindDoc
	}
	return NavKindLink
}

// EffectivePosition returns Position, defaulting to left.
func (n NavItem) EffectivePosition() Position {
	if n.Position == "" {
		return PositionLeft
	}
	return n.Position
}

// IsExternal reports whether the item leaves the site.
func (n NavItem) IsExternal() bool {
	return n.EffectiveKind() == NavKindLink && n.Href != ""
}

// Target resolves the link the item points at.
func (n NavItem) Target(basePath string) string {
	switch n.EffectiveKind() {
	case NavKindDoc:
		return JoinBase(basePath, "/docs/"+strings.TrimPrefix(n.DocID, "/"))
	default:
		if n.Href != "" {
			return n.Href
		}
		return JoinBase(basePath, n.To)
	}
}

// OrderedNavbar returns the navbar items in display order: every left item in
// declaration order, then every right item in declaration order.
func (c SiteConfig) OrderedNavbar() []NavItem {
	return PartitionByPosition(c.Navbar.Items)
}

// PartitionByPosition is a stable partition of items, left before right.
// The input slice is not modified.
func PartitionByPosition(items []NavItem) []NavItem {
	ordered := make([]NavItem, 0, len(items))
	for _, item := range items {
		if item.EffectivePosition() != PositionRight {
			ordered = append(ordered, item)
		}
	}
	for _, item := range items {
		if item.EffectivePosition() == PositionRight {
			ordered = append(ordered, item)
		}
	}
	return ordered
}

// SplitByPosition returns the left and right groups separately, each in
// declaration order.
func SplitByPosition(items []NavItem) (left, right []NavItem) {
	for _, item := range items {
		if item.EffectivePosition() == PositionRight {
			right = append(right, item)
		} else {
			left = append(left, item)
		}
	}
	return left, right
}
