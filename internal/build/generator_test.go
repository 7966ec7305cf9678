package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apache/sunny-website/internal/config"
	siteerrors "github.com/apache/sunny-website/internal/errors"
	"github.com/apache/sunny-website/internal/monitoring"
	"github.com/apache/sunny-website/internal/site"
	"github.com/apache/sunny-website/internal/testutils"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newProject lays out a minimal site source tree and returns its root.
func newProject(t *testing.T) string {
	t.Helper()
	return testutils.CreateTempProject(t, map[string]string{
		"static/.DS_Store": "junk",
	})
}

func testOptions(root string) Options {
	opts := OptionsFrom(config.Defaults())
	opts.ProjectRoot = root
	return opts
}

func newTestGenerator(cfg site.SiteConfig, opts Options, metrics *monitoring.Metrics) *Generator {
	g := NewGenerator(cfg, opts, nil, metrics)
	g.now = func() time.Time { return fixedTime }
	g.newID = func() string { return "00000000-0000-0000-0000-000000000001" }
	return g
}

func readOutput(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "build", filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestOptionsFrom(t *testing.T) {
	cfg := config.Defaults()
	cfg.Build.ExtraRoutes = []string{"/community"}
	opts := OptionsFrom(cfg)

	assert.Equal(t, "build", opts.OutputDir)
	assert.Equal(t, "static", opts.StaticDir)
	assert.Equal(t, "docs", opts.DocsDir)
	assert.Equal(t, "blog", opts.BlogDir)
	assert.True(t, opts.Sitemap)
	assert.Equal(t, []string{"/community"}, opts.ExtraRoutes)

	opts.ExtraRoutes[0] = "/changed"
	assert.Equal(t, "/community", cfg.Build.ExtraRoutes[0], "options do not alias the config")
}

func TestBuildDefaultSite(t *testing.T) {
	root := newProject(t)
	metrics := monitoring.NewMetrics(nil)
	g := newTestGenerator(site.DefaultFor(2024), testOptions(root), metrics)

	result, err := g.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	for _, name := range []string{"index.html", "404.html", SitemapFile, RobotsFile, "site.config.json", ManifestFile, "img/logo.svg", "css/custom.css"} {
		assert.FileExists(t, filepath.Join(root, "build", filepath.FromSlash(name)))
	}
	assert.NoFileExists(t, filepath.Join(root, "build", ".DS_Store"))

	index := readOutput(t, root, "index.html")
	assert.Contains(t, index, `<h1 class="hero__title">Apache Sunny</h1>`)
	assert.Contains(t, index, "Apache Sunny Tutorial - 5min ⏱️")

	assert.Empty(t, result.Report.Broken)
	assert.False(t, result.Issues.HasErrors())
	assert.Equal(t, 2, result.Report.Pages)

	m := result.Manifest
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", m.BuildID)
	assert.Equal(t, 2, m.Docs)
	assert.Equal(t, 1, m.Posts)
	assert.Equal(t, 2, m.Assets)
	require.Len(t, m.Pages, 2)
	assert.Equal(t, "/", m.Pages[0].Route)
	assert.Equal(t, "/404.html", m.Pages[1].Route)
	assert.Len(t, m.Pages[0].Hash, 64)
	assert.Equal(t, []string{
		"/",
		"/blog",
		"/blog/2024/01/31/welcome",
		"/docs/guides/setup",
		"/docs/intro",
	}, m.Routes)

	onDisk, err := ReadManifest(filepath.Join(root, "build"))
	require.NoError(t, err)
	assert.Equal(t, m.BuildID, onDisk.BuildID)
	assert.Equal(t, m.Routes, onDisk.Routes)

	sitemap := readOutput(t, root, SitemapFile)
	assert.Contains(t, sitemap, "<loc>https://sunny.apache.org/docs/intro</loc>")
	assert.Contains(t, sitemap, "<lastmod>2024-05-01</lastmod>")

	robots := readOutput(t, root, RobotsFile)
	assert.Equal(t, "User-agent: *\nAllow: /\nSitemap: https://sunny.apache.org/sitemap.xml\n", robots)

	exported := readOutput(t, root, "site.config.json")
	assert.Contains(t, exported, `"title": "Apache Sunny"`)

	assert.Equal(t, 1.0, counterValue(t, metrics, "sunny_build_outcomes_total"))
	assert.Equal(t, 2.0, counterValue(t, metrics, "sunny_pages_written_total"))
}

func TestBuildBrokenDocLinkFails(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "docs", "intro.md")))

	metrics := monitoring.NewMetrics(nil)
	g := newTestGenerator(site.DefaultFor(2024), testOptions(root), metrics)

	result, err := g.Build(context.Background())
	require.Error(t, err)
	assert.True(t, siteerrors.IsBuildError(err))
	require.NotNil(t, result, "the result is returned so the caller can report the links")

	assert.True(t, result.Report.Failed())
	assert.True(t, result.Issues.HasErrors())
	for _, b := range result.Report.Broken {
		assert.Equal(t, site.PolicyThrow, b.Policy)
		assert.True(t, strings.HasPrefix(b.Target, "/docs/intro"))
	}
	assert.Equal(t, len(result.Report.Broken), result.Manifest.BrokenLinks)
	assert.FileExists(t, filepath.Join(root, "build", ManifestFile))
	assert.Equal(t, float64(len(result.Report.Broken)), counterValue(t, metrics, "sunny_broken_links_total"))
}

func TestBuildBrokenDocLinkWarns(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "docs", "intro.md")))

	cfg := site.DefaultFor(2024)
	cfg.OnBrokenLinks = site.PolicyWarn
	g := newTestGenerator(cfg, testOptions(root), nil)

	result, err := g.Build(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Report.Broken)
	assert.False(t, result.Report.Failed())
	assert.NotEmpty(t, result.Issues.IssuesAtLeast(siteerrors.ErrorSeverityWarning))
}

func TestBuildExtraRoutesSatisfyLinks(t *testing.T) {
	root := newProject(t)
	cfg := site.DefaultFor(2024)
	cfg.Presets.Blog = nil

	opts := testOptions(root)
	g := newTestGenerator(cfg, opts, nil)
	result, err := g.Build(context.Background())
	require.NoError(t, err, "/blog is a non-doc link and only warns")
	assert.Len(t, result.Report.Broken, 4, "navbar and footer link /blog on both pages")

	opts.ExtraRoutes = []string{"/blog"}
	g = newTestGenerator(cfg, opts, nil)
	result, err = g.Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Report.Broken)
	assert.Equal(t, 0, result.Manifest.Posts, "posts are not discovered without the blog preset")
}

func TestBuildBasePath(t *testing.T) {
	root := newProject(t)
	cfg := site.DefaultFor(2024)
	cfg.BasePath = "/sunny/"

	result, err := newTestGenerator(cfg, testOptions(root), nil).Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Report.Broken)

	assert.Contains(t, readOutput(t, root, "index.html"), `href="/sunny/docs/intro"`)
	assert.Contains(t, readOutput(t, root, SitemapFile), "<loc>https://sunny.apache.org/sunny/docs/intro</loc>")
	assert.Contains(t, readOutput(t, root, RobotsFile), "Allow: /sunny/\n")
}

func TestBuildClean(t *testing.T) {
	root := newProject(t)
	stale := filepath.Join(root, "build", "stale.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	opts := testOptions(root)
	opts.Clean = false
	_, err := newTestGenerator(site.DefaultFor(2024), opts, nil).Build(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, stale)

	opts.Clean = true
	_, err = newTestGenerator(site.DefaultFor(2024), opts, nil).Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestBuildOptionalOutputs(t *testing.T) {
	root := newProject(t)
	opts := testOptions(root)
	opts.Sitemap = false
	opts.Robots = false
	opts.ConfigFormat = "yaml"

	_, err := newTestGenerator(site.DefaultFor(2024), opts, nil).Build(context.Background())
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(root, "build", SitemapFile))
	assert.NoFileExists(t, filepath.Join(root, "build", RobotsFile))
	assert.NoFileExists(t, filepath.Join(root, "build", "site.config.json"))
	assert.Contains(t, readOutput(t, root, "site.config.yaml"), "title: Apache Sunny")
}

func TestBuildMissingStylesheetWarns(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "src", "css", "custom.css")))

	result, err := newTestGenerator(site.DefaultFor(2024), testOptions(root), nil).Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "build", "css", "custom.css"))

	issues := result.Issues.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, siteerrors.ErrorSeverityWarning, issues[0].Severity)
	assert.Equal(t, "src/css/custom.css", issues[0].Target)
}

func TestBuildRejectsInvalidSite(t *testing.T) {
	root := newProject(t)
	cfg := site.DefaultFor(2024)
	cfg.I18n.DefaultLocale = "fr"

	result, err := newTestGenerator(cfg, testOptions(root), nil).Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, siteerrors.IsConfigError(err))
	assert.NoDirExists(t, filepath.Join(root, "build"))
}

func TestBuildRefusesToCleanRoot(t *testing.T) {
	opts := testOptions(t.TempDir())
	opts.ProjectRoot = ""
	opts.OutputDir = "."

	_, err := newTestGenerator(site.DefaultFor(2024), opts, nil).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to clean")
}

func TestBuildRefusesToCleanSources(t *testing.T) {
	tests := []struct {
		name   string
		outDir func(root string) string
		keep   string
	}{
		{"docs dir", func(string) string { return "docs" }, "docs/intro.md"},
		{"blog dir", func(string) string { return "blog" }, "blog/2024-01-31-welcome.md"},
		{"static dir", func(string) string { return "static" }, "static/img/logo.svg"},
		{"stylesheet dir", func(string) string { return "src/css" }, "src/css/custom.css"},
		{"parent of stylesheet", func(string) string { return "src" }, "src/css/custom.css"},
		{"absolute project root", func(root string) string { return root }, "docs/intro.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t)
			opts := testOptions(root)
			opts.OutputDir = tt.outDir(root)

			_, err := newTestGenerator(site.DefaultFor(2024), opts, nil).Build(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "refusing to clean")
			assert.FileExists(t, filepath.Join(root, filepath.FromSlash(tt.keep)))
		})
	}
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGenerator(site.DefaultFor(2024), testOptions(newProject(t)), nil).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPageRoute(t *testing.T) {
	tests := map[string]string{
		"index.html":            "/",
		"404.html":              "/404.html",
		"docs/intro/index.html": "/docs/intro",
		"/blog/index.html":      "/blog",
	}
	for file, expected := range tests {
		t.Run(file, func(t *testing.T) {
			assert.Equal(t, expected, pageRoute(file))
		})
	}
}

func TestWriteSitemap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSitemap(&buf, site.DefaultFor(2024), []string{"/", "/docs/intro"}, fixedTime))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Less(t,
		strings.Index(out, "<loc>https://sunny.apache.org/</loc>"),
		strings.Index(out, "<loc>https://sunny.apache.org/docs/intro</loc>"))
	assert.Contains(t, out, "<priority>1</priority>")
	assert.Contains(t, out, "<priority>0.5</priority>")
}

func TestWriteRobotsWithoutSitemap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRobots(&buf, site.DefaultFor(2024), false))
	assert.Equal(t, "User-agent: *\nAllow: /\n", buf.String())
}

func TestAbsoluteURL(t *testing.T) {
	cfg := site.DefaultFor(2024)
	cfg.URL = "https://sunny.apache.org/"
	cfg.BasePath = "/sunny/"
	assert.Equal(t, "https://sunny.apache.org/sunny/", AbsoluteURL(cfg, "/"))
	assert.Equal(t, "https://sunny.apache.org/sunny/blog", AbsoluteURL(cfg, "/blog"))
}

// counterValue sums every sample of a counter family.
func counterValue(t *testing.T, m *monitoring.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestBuildAccessibilityAudit(t *testing.T) {
	root := newProject(t)
	opts := testOptions(root)
	opts.Audit = true

	result, err := newTestGenerator(site.DefaultFor(2024), opts, nil).Build(context.Background())
	require.NoError(t, err, "audit findings never fail the build")

	home := result.Issues.IssuesByPage("/")
	require.Len(t, home, 1)
	assert.Equal(t, siteerrors.ErrorSeverityInfo, home[0].Severity)
	assert.Equal(t, "h3", home[0].Target)
	assert.Contains(t, home[0].Message, "heading-order")
	assert.Empty(t, result.Issues.IssuesByPage("/404.html"))
}

func TestAuditPagesSeverity(t *testing.T) {
	issues := siteerrors.NewCollector()
	pages := []Page{{Route: "/", File: "index.html"}}
	rendered := map[string][]byte{"/": []byte(`<!DOCTYPE html><html lang="en"><head><title>t</title></head><body><img src="x.png"><h1>a</h1><h3>b</h3></body></html>`)}

	require.NoError(t, auditPages(pages, rendered, issues))
	got := issues.Issues()
	require.Len(t, got, 2)
	assert.Equal(t, siteerrors.ErrorSeverityWarning, got[0].Severity)
	assert.Equal(t, siteerrors.ErrorSeverityInfo, got[1].Severity)
	assert.False(t, issues.HasErrors())
}
