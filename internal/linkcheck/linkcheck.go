// Package linkcheck finds unresolved internal links in generated pages and
// applies the site's broken-link policies to them.
package linkcheck

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"

	siteerrors "github.com/apache/sunny-website/internal/errors"
	"github.com/apache/sunny-website/internal/logging"
	"github.com/apache/sunny-website/internal/site"
)

// Broken is one unresolved link.
type Broken struct {
	Page   string
	Target string
	Policy site.BrokenLinkPolicy
}

// Report summarises a check run.
type Report struct {
	Pages   int
	Checked int
	Broken  []Broken
}

// Failed reports whether a broken link hit the throw policy.
func (r Report) Failed() bool {
	for _, b := range r.Broken {
		if b.Policy == site.PolicyThrow {
			return true
		}
	}
	return false
}

// ExtractLinks returns the href of every anchor in the document, in
// document order.
func ExtractLinks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					links = append(links, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// Checker resolves links against the set of routes the build publishes.
type Checker struct {
	basePath    string
	docsPolicy  site.BrokenLinkPolicy
	otherPolicy site.BrokenLinkPolicy
	logger      logging.Logger

	mu     sync.Mutex
	routes map[string]struct{}
	report Report
}

// NewChecker creates a checker for cfg. Documentation links follow
// OnBrokenLinks, every other internal link follows OnBrokenMarkdownLinks.
func NewChecker(cfg site.SiteConfig, logger logging.Logger) *Checker {
	if logger == nil {
		logger = logging.Discard()
	}
	docsPolicy := cfg.OnBrokenLinks
	if !docsPolicy.IsValid() {
		docsPolicy = site.PolicyThrow
	}
	otherPolicy := cfg.OnBrokenMarkdownLinks
	if !otherPolicy.IsValid() {
		otherPolicy = site.PolicyWarn
	}
	return &Checker{
		basePath:    site.JoinBase(cfg.BasePath, ""),
		docsPolicy:  docsPolicy,
		otherPolicy: otherPolicy,
		logger:      logger.WithComponent("linkcheck"),
		routes:      make(map[string]struct{}),
	}
}

// AddRoutes registers published routes. Routes are relative to the base
// path, e.g. "/docs/intro".
func (c *Checker) AddRoutes(routes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range routes {
		c.routes[normalizeRoute(r)] = struct{}{}
	}
}

// Known reports whether route is published.
func (c *Checker) Known(route string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.routes[normalizeRoute(route)]
	return ok
}

// Resolve maps a link found on page to a route relative to the base path.
// ok is false for links the checker does not own: external URLs, other
// schemes, pure fragments and paths outside the base path.
func (c *Checker) Resolve(page, href string) (route string, ok bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "//") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	p := u.Path
	if p == "" {
		return "", false
	}

	if !strings.HasPrefix(p, "/") {
		dir := site.JoinBase(c.basePath, page)
		if !strings.HasSuffix(dir, "/") {
			dir = path.Dir(dir)
		}
		p = path.Join(dir, p)
	}

	base := strings.TrimSuffix(c.basePath, "/")
	if base != "" {
		if p != base && !strings.HasPrefix(p, base+"/") {
			return "", false
		}
		p = strings.TrimPrefix(p, base)
	}
	return normalizeRoute(p), true
}

// PolicyFor returns the policy applied to a broken link to route.
func (c *Checker) PolicyFor(route string) site.BrokenLinkPolicy {
	if route == "/docs" || strings.HasPrefix(route, "/docs/") {
		return c.docsPolicy
	}
	return c.otherPolicy
}

// CheckPage checks every anchor of the document read from r. page is the
// route the document is published under. Broken links are recorded on
// collector with a severity matching their policy.
func (c *Checker) CheckPage(ctx context.Context, page string, r io.Reader, collector *siteerrors.Collector) error {
	links, err := ExtractLinks(r)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", page, err)
	}

	c.mu.Lock()
	c.report.Pages++
	c.mu.Unlock()

	for _, href := range links {
		route, ok := c.Resolve(page, href)
		if !ok {
			continue
		}
		c.mu.Lock()
		c.report.Checked++
		c.mu.Unlock()
		if c.Known(route) {
			continue
		}
		c.broken(ctx, page, href, route, collector)
	}
	return nil
}

func (c *Checker) broken(ctx context.Context, page, href, route string, collector *siteerrors.Collector) {
	policy := c.PolicyFor(route)

	c.mu.Lock()
	c.report.Broken = append(c.report.Broken, Broken{Page: page, Target: href, Policy: policy})
	c.mu.Unlock()

	err := siteerrors.NewLinkError(page, href)
	issue := siteerrors.Issue{Page: page, Target: href, Message: "broken link"}
	switch policy {
	case site.PolicyIgnore:
		return
	case site.PolicyLog:
		issue.Severity = siteerrors.ErrorSeverityInfo
		c.logger.Info(ctx, "Broken link", "page", page, "target", href)
	case site.PolicyWarn:
		issue.Severity = siteerrors.ErrorSeverityWarning
		c.logger.Warn(ctx, err, "Broken link", "page", page, "target", href)
	default:
		issue.Severity = siteerrors.ErrorSeverityError
		c.logger.Error(ctx, err, "Broken link", "page", page, "target", href)
	}
	if collector != nil {
		collector.Add(issue)
	}
}

// Report returns a snapshot of the findings so far, broken links sorted by
// page then target.
func (c *Checker) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.report
	out.Broken = append([]Broken(nil), c.report.Broken...)
	sort.SliceStable(out.Broken, func(i, j int) bool {
		if out.Broken[i].Page != out.Broken[j].Page {
			return out.Broken[i].Page < out.Broken[j].Page
		}
		return out.Broken[i].Target < out.Broken[j].Target
	})
	return out
}

// normalizeRoute maps equivalent spellings of a route onto one key:
// "/docs/intro/", "/docs/intro.html" and "/docs/intro/index.html" all become
// "/docs/intro".
func normalizeRoute(r string) string {
	if r == "" {
		return "/"
	}
	if !strings.HasPrefix(r, "/") {
		r = "/" + r
	}
	r = path.Clean(r)
	r = strings.TrimSuffix(r, "/index.html")
	r = strings.TrimSuffix(r, ".html")
	if r == "" || r == "/index" {
		return "/"
	}
	return r
}
