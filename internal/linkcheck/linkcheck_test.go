package linkcheck

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siteerrors "github.com/apache/sunny-website/internal/errors"
	"github.com/apache/sunny-website/internal/site"
)

func TestExtractLinks(t *testing.T) {
	page := `<html><body>
<nav><a href="/docs/intro">Docs</a><a>no href</a></nav>
<main><img src="/img/logo.png"><a href="https://github.com/apache/sunny">GitHub</a></main>
<footer><a href="/blog">Blog</a></footer>
</body></html>`

	links, err := ExtractLinks(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/intro", "https://github.com/apache/sunny", "/blog"}, links)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		basePath string
		page     string
		href     string
		route    string
		ok       bool
	}{
		{"absolute", "/", "/", "/docs/intro", "/docs/intro", true},
		{"trailing slash", "/", "/", "/docs/intro/", "/docs/intro", true},
		{"html suffix", "/", "/", "/404.html", "/404", true},
		{"index file", "/", "/", "/index.html", "/", true},
		{"query and fragment", "/", "/", "/docs/intro?x=1#top", "/docs/intro", true},
		{"relative from root", "/", "/", "docs/intro", "/docs/intro", true},
		{"relative from doc", "/", "/docs/guides/setup", "../intro", "/docs/intro", true},
		{"base path", "/sunny/", "/", "/sunny/docs/intro", "/docs/intro", true},
		{"base path root", "/sunny/", "/", "/sunny/", "/", true},
		{"relative under base path", "/sunny/", "/", "docs/intro", "/docs/intro", true},
		{"outside base path", "/sunny/", "/", "/other/page", "", false},
		{"external", "/", "/", "https://sunny.apache.org/", "", false},
		{"protocol relative", "/", "/", "//cdn.example.com/a.js", "", false},
		{"mailto", "/", "/", "mailto:dev@sunny.apache.org", "", false},
		{"fragment", "/", "/", "#features", "", false},
		{"empty", "/", "/", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := site.Default()
			cfg.BasePath = tt.basePath
			c := NewChecker(cfg, nil)

			route, ok := c.Resolve(tt.page, tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.route, route)
		})
	}
}

func TestPolicyFor(t *testing.T) {
	cfg := site.Default()
	cfg.OnBrokenLinks = site.PolicyThrow
	cfg.OnBrokenMarkdownLinks = site.PolicyLog
	c := NewChecker(cfg, nil)

	assert.Equal(t, site.PolicyThrow, c.PolicyFor("/docs"))
	assert.Equal(t, site.PolicyThrow, c.PolicyFor("/docs/intro"))
	assert.Equal(t, site.PolicyLog, c.PolicyFor("/docsify"))
	assert.Equal(t, site.PolicyLog, c.PolicyFor("/blog"))
}

func TestNewCheckerFallsBackOnUnknownPolicies(t *testing.T) {
	cfg := site.Default()
	cfg.OnBrokenLinks = "explode"
	cfg.OnBrokenMarkdownLinks = ""
	c := NewChecker(cfg, nil)

	assert.Equal(t, site.PolicyThrow, c.PolicyFor("/docs/x"))
	assert.Equal(t, site.PolicyWarn, c.PolicyFor("/x"))
}

func TestCheckPage(t *testing.T) {
	page := `<html><body>
<a href="/docs/intro">ok</a>
<a href="/docs/missing">broken doc</a>
<a href="/blog">ok</a>
<a href="/community">broken other</a>
<a href="https://github.com/apache/sunny">external</a>
</body></html>`

	tests := []struct {
		name        string
		docs        site.BrokenLinkPolicy
		other       site.BrokenLinkPolicy
		severities  []siteerrors.ErrorSeverity
		expectError bool
		failed      bool
	}{
		{
			name:        "throw and warn",
			docs:        site.PolicyThrow,
			other:       site.PolicyWarn,
			severities:  []siteerrors.ErrorSeverity{siteerrors.ErrorSeverityError, siteerrors.ErrorSeverityWarning},
			expectError: true,
			failed:      true,
		},
		{
			name:       "log only",
			docs:       site.PolicyLog,
			other:      site.PolicyLog,
			severities: []siteerrors.ErrorSeverity{siteerrors.ErrorSeverityInfo, siteerrors.ErrorSeverityInfo},
		},
		{
			name:  "ignore",
			docs:  site.PolicyIgnore,
			other: site.PolicyIgnore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := site.Default()
			cfg.OnBrokenLinks = tt.docs
			cfg.OnBrokenMarkdownLinks = tt.other
			c := NewChecker(cfg, nil)
			c.AddRoutes("/", "/docs/intro", "/blog")

			collector := siteerrors.NewCollector()
			require.NoError(t, c.CheckPage(context.Background(), "/", strings.NewReader(page), collector))

			var severities []siteerrors.ErrorSeverity
			for _, issue := range collector.Issues() {
				severities = append(severities, issue.Severity)
			}
			assert.Equal(t, tt.severities, severities)
			assert.Equal(t, tt.expectError, collector.HasErrors())

			report := c.Report()
			assert.Equal(t, 1, report.Pages)
			assert.Equal(t, 4, report.Checked)
			require.Len(t, report.Broken, 2, "broken links are reported whatever the policy")
			assert.Equal(t, "/community", report.Broken[0].Target)
			assert.Equal(t, "/docs/missing", report.Broken[1].Target)
			assert.Equal(t, tt.failed, report.Failed())
		})
	}
}

func TestCheckPageUnderBasePath(t *testing.T) {
	cfg := site.Default()
	cfg.BasePath = "/sunny/"
	c := NewChecker(cfg, nil)
	c.AddRoutes("/", "/docs/intro")

	collector := siteerrors.NewCollector()
	page := `<a href="/sunny/docs/intro">docs</a><a href="/sunny/">home</a>`
	require.NoError(t, c.CheckPage(context.Background(), "/", strings.NewReader(page), collector))
	assert.Empty(t, collector.Issues())
	assert.Empty(t, c.Report().Broken)
}

func TestKnownNormalizesRoutes(t *testing.T) {
	c := NewChecker(site.Default(), nil)
	c.AddRoutes("/docs/intro/", "404.html", "/")

	assert.True(t, c.Known("/docs/intro"))
	assert.True(t, c.Known("/docs/intro/index.html"))
	assert.True(t, c.Known("/404"))
	assert.True(t, c.Known("/index.html"))
	assert.False(t, c.Known("/blog"))
}
