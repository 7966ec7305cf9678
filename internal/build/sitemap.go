package build

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/apache/sunny-website/internal/site"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

// AbsoluteURL joins the site URL, the base path and route.
func AbsoluteURL(cfg site.SiteConfig, route string) string {
	return strings.TrimSuffix(cfg.URL, "/") + site.JoinBase(cfg.BasePath, route)
}

// WriteSitemap writes an XML sitemap listing routes in the given order.
func WriteSitemap(w io.Writer, cfg site.SiteConfig, routes []string, modified time.Time) error {
	set := urlSet{XMLNS: sitemapNamespace}
	lastMod := modified.UTC().Format("2006-01-02")
	for _, route := range routes {
		priority := 0.5
		if route == "/" {
			priority = 1.0
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        AbsoluteURL(cfg, route),
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteRobots writes a robots.txt allowing everything under the base path.
func WriteRobots(w io.Writer, cfg site.SiteConfig, withSitemap bool) error {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	fmt.Fprintf(&b, "Allow: %s\n", site.JoinBase(cfg.BasePath, ""))
	if withSitemap {
		fmt.Fprintf(&b, "Sitemap: %s\n", AbsoluteURL(cfg, "/"+SitemapFile))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
