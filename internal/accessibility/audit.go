// Package accessibility audits generated pages for common WCAG level A
// problems: images without alternative text, unnamed links and buttons, a
// missing document language or title, duplicate ids and skipped heading
// levels.
package accessibility

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Impact ranks how badly a violation affects assistive technology users.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactSerious  Impact = "serious"
	ImpactModerate Impact = "moderate"
)

// Rule is one audit check.
type Rule struct {
	ID          string
	Description string
	Impact      Impact
	HelpURL     string
}

// Violation is one failed check on one element.
type Violation struct {
	Rule    Rule
	Element string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", v.Rule.ID, v.Rule.Impact, v.Element, v.Message)
}

var (
	ruleAltText = Rule{
		ID:          "missing-alt-text",
		Description: "Images must have alternative text",
		Impact:      ImpactCritical,
		HelpURL:     "https://dequeuniversity.com/rules/axe/4.4/image-alt",
	}
	ruleLinkName = Rule{
		ID:          "missing-link-text",
		Description: "Links must have discernible text",
		Impact:      ImpactSerious,
		HelpURL:     "https://dequeuniversity.com/rules/axe/4.4/link-name",
	}
	ruleButtonName = Rule{
		ID:          "missing-button-text",
		Description: "Buttons must have accessible names",
		Impact:      ImpactCritical,
		HelpURL:     "https://dequeuniversity.com/rules/axe/4.4/button-name",
	}
	ruleLang = Rule{
		ID:          "missing-lang-attribute",
		Description: "HTML element must have a lang attribute",
		Impact:      ImpactSerious,
		HelpURL:     "https://dequeuniversity.com/rules/axe/4.4/html-has-lang",
	}
	ruleTitle = Rule{
		ID:          "missing-title-element",
		Description: "Documents must contain a title element",
		Impact:      ImpactSerious,
		HelpURL:     "https://dequeuniversity.com/rules/axe/4.4/document-title",
	}
	ruleDuplicateID = Rule{
		ID:          "duplicate-id",
		Description: "IDs must be unique",
		Impact:      ImpactSerious,
		HelpURL:     "https://dequeuniversity.com/rules/axe/4.4/duplicate-id",
	}
	ruleHeadingOrder = Rule{
		ID:          "heading-order",
		Description: "Heading levels should only increase by one",
		Impact:      ImpactModerate,
		HelpURL:     "https://dequeuniversity.com/rules/axe/4.4/heading-order",
	}
)

// Rules lists every check Audit runs.
func Rules() []Rule {
	return []Rule{ruleAltText, ruleLinkName, ruleButtonName, ruleLang, ruleTitle, ruleDuplicateID, ruleHeadingOrder}
}

// Audit parses an HTML document or fragment and returns its violations in
// document order. Duplicate ids are reported once per id, sorted.
func Audit(r io.Reader) ([]Violation, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	a := &auditor{ids: make(map[string]int)}
	a.walk(doc)
	a.finish()
	return a.violations, nil
}

type auditor struct {
	violations []Violation
	ids        map[string]int
	lastLevel  int
	document   bool
	sawTitle   bool
}

func (a *auditor) add(rule Rule, n *html.Node, msg string) {
	a.violations = append(a.violations, Violation{Rule: rule, Element: describe(n), Message: msg})
}

func (a *auditor) walk(n *html.Node) {
	switch n.Type {
	case html.DoctypeNode:
		a.document = true
	case html.ElementNode:
		a.check(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		a.walk(c)
	}
}

func (a *auditor) check(n *html.Node) {
	if id, ok := attr(n, "id"); ok && id != "" {
		a.ids[id]++
	}

	switch n.Data {
	case "html":
		if !a.document {
			break
		}
		if lang, ok := attr(n, "lang"); !ok || strings.TrimSpace(lang) == "" {
			a.add(ruleLang, n, "HTML element missing lang attribute")
		}
	case "title":
		if strings.TrimSpace(textContent(n)) != "" {
			a.sawTitle = true
		}
	case "img":
		if _, ok := attr(n, "alt"); !ok {
			a.add(ruleAltText, n, "Image missing alt attribute")
		}
	case "a":
		if _, ok := attr(n, "href"); ok && !hasAccessibleName(n) {
			a.add(ruleLinkName, n, "Link has no text, image alt or aria-label")
		}
	case "button":
		if !hasAccessibleName(n) {
			a.add(ruleButtonName, n, "Button missing accessible name")
		}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		if a.lastLevel > 0 && level > a.lastLevel+1 {
			a.add(ruleHeadingOrder, n, fmt.Sprintf("Heading level jumps from h%d to h%d", a.lastLevel, level))
		}
		a.lastLevel = level
	}
}

func (a *auditor) finish() {
	// html.Parse synthesizes <html> for fragments, so the document rules
	// only apply when the input has a doctype.
	if a.document && !a.sawTitle {
		a.violations = append(a.violations, Violation{Rule: ruleTitle, Element: "head", Message: "Document has no title"})
	}

	var dups []string
	for id, count := range a.ids {
		if count > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	for _, id := range dups {
		a.violations = append(a.violations, Violation{
			Rule:    ruleDuplicateID,
			Element: "#" + id,
			Message: fmt.Sprintf("Duplicate ID %q used %d times", id, a.ids[id]),
		})
	}
}

// hasAccessibleName reports whether n has text, an aria label or an image
// child with alternative text.
func hasAccessibleName(n *html.Node) bool {
	if strings.TrimSpace(textContent(n)) != "" {
		return true
	}
	for _, key := range []string{"aria-label", "aria-labelledby", "title"} {
		if v, ok := attr(n, key); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	found := false
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if found {
			return
		}
		if c.Type == html.ElementNode && c.Data == "img" {
			if alt, ok := attr(c, "alt"); ok && strings.TrimSpace(alt) != "" {
				found = true
				return
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return found
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return b.String()
}

// describe renders a short selector for n, such as img.navbar__logo or
// a#top.
func describe(n *html.Node) string {
	sel := n.Data
	if id, ok := attr(n, "id"); ok && id != "" {
		return sel + "#" + id
	}
	if class, ok := attr(n, "class"); ok {
		if fields := strings.Fields(class); len(fields) > 0 {
			sel += "." + fields[0]
		}
	}
	return sel
}
