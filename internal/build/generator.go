// Package build generates the static site: the rendered pages, sitemap,
// robots.txt, the exported generator configuration, static assets and a
// build manifest. Every generated page is link checked before the build
// succeeds, and optionally audited for accessibility.
package build

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/apache/sunny-website/internal/accessibility"
	"github.com/apache/sunny-website/internal/config"
	"github.com/apache/sunny-website/internal/content"
	siteerrors "github.com/apache/sunny-website/internal/errors"
	"github.com/apache/sunny-website/internal/features"
	"github.com/apache/sunny-website/internal/linkcheck"
	"github.com/apache/sunny-website/internal/logging"
	"github.com/apache/sunny-website/internal/monitoring"
	"github.com/apache/sunny-website/internal/site"
	"github.com/apache/sunny-website/internal/validation"
	"github.com/apache/sunny-website/internal/version"
	"github.com/apache/sunny-website/internal/views"
)

const (
	ManifestFile = "build-manifest.json"
	SitemapFile  = "sitemap.xml"
	RobotsFile   = "robots.txt"
	NotFoundFile = "404.html"
)

// Options configures a build. Relative directories are resolved against
// ProjectRoot.
type Options struct {
	ProjectRoot  string
	OutputDir    string
	StaticDir    string
	DocsDir      string
	BlogDir      string
	Clean        bool
	Sitemap      bool
	Robots       bool
	ConfigFormat string
	ExtraRoutes  []string
	Audit        bool
}

// OptionsFrom maps the tool configuration onto build options.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		OutputDir:    cfg.Build.OutputDir,
		StaticDir:    cfg.Build.StaticDir,
		DocsDir:      cfg.Build.DocsDir,
		BlogDir:      cfg.Build.BlogDir,
		Clean:        cfg.Build.Clean,
		Sitemap:      cfg.Build.Sitemap,
		Robots:       cfg.Build.Robots,
		ConfigFormat: cfg.Build.ConfigFormat,
		ExtraRoutes:  append([]string(nil), cfg.Build.ExtraRoutes...),
		Audit:        cfg.Build.Audit,
	}
}

func (o Options) resolve(dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	root := o.ProjectRoot
	if root == "" {
		root = "."
	}
	return filepath.Join(root, dir)
}

// Page is one generated HTML page.
type Page struct {
	Route string `json:"route"`
	File  string `json:"file"`
	Size  int64  `json:"size"`
	Hash  string `json:"hash"`
}

// Manifest describes a finished build. It is written to ManifestFile.
type Manifest struct {
	BuildID     string    `json:"build_id"`
	Version     string    `json:"version"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMS  int64     `json:"duration_ms"`
	Pages       []Page    `json:"pages"`
	Routes      []string  `json:"routes"`
	Assets      int       `json:"assets"`
	Docs        int       `json:"docs"`
	Posts       int       `json:"posts"`
	BrokenLinks int       `json:"broken_links"`
}

// Result is what a build produced, including the issues it found.
type Result struct {
	Manifest Manifest
	Report   linkcheck.Report
	Issues   *siteerrors.Collector
}

// Generator builds the site described by a SiteConfig.
type Generator struct {
	site    site.SiteConfig
	opts    Options
	logger  logging.Logger
	metrics *monitoring.Metrics
	now     func() time.Time
	newID   func() string
}

// NewGenerator creates a generator. logger and metrics may be nil.
func NewGenerator(cfg site.SiteConfig, opts Options, logger logging.Logger, metrics *monitoring.Metrics) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{
		site:    cfg,
		opts:    opts,
		logger:  logger.WithComponent("build"),
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// OutputDir is the resolved output directory.
func (g *Generator) OutputDir() string {
	return g.opts.resolve(g.opts.OutputDir)
}

// Build runs every stage. A non-nil Result is returned whenever the output
// directory was written, even when the build fails on broken links.
func (g *Generator) Build(ctx context.Context) (*Result, error) {
	started := g.now()
	perf := logging.StartOperation(g.logger, "build")

	result, err := g.build(ctx, started)
	if err != nil {
		perf.EndWithError(ctx, err)
	} else {
		perf.End(ctx, "pages", len(result.Manifest.Pages), "broken_links", result.Manifest.BrokenLinks)
	}
	g.metrics.ObserveBuild(g.now().Sub(started), err == nil)
	return result, err
}

func (g *Generator) build(ctx context.Context, started time.Time) (*Result, error) {
	if vr := g.site.Validate(); !vr.Valid {
		return nil, siteerrors.NewConfigError(siteerrors.ErrCodeSiteInvalid,
			"site configuration is invalid: "+vr.Err().Error())
	}
	if g.opts.OutputDir == "" {
		return nil, siteerrors.NewConfigError(siteerrors.ErrCodeConfigInvalid, "output directory is not set")
	}

	out := g.OutputDir()
	issues := siteerrors.NewCollector()
	result := &Result{Issues: issues}
	result.Manifest = Manifest{
		BuildID:   g.newID(),
		Version:   version.GetVersion(),
		StartedAt: started,
	}

	if err := g.stage(ctx, "prepare", func() error { return g.prepare(out) }); err != nil {
		return nil, err
	}

	var (
		docs  []content.Doc
		posts []content.Post
	)
	err := g.stage(ctx, "discover", func() error {
		var err error
		if g.site.Presets.Docs != nil {
			if docs, err = content.Discover(g.opts.resolve(g.opts.DocsDir)); err != nil {
				return err
			}
		}
		if g.site.Presets.Blog != nil {
			if posts, err = content.DiscoverPosts(g.opts.resolve(g.opts.BlogDir)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, siteerrors.WrapBuild(err, siteerrors.ErrCodeBuildFailed, "content discovery failed", "")
	}
	result.Manifest.Docs = len(docs)
	result.Manifest.Posts = len(posts)

	rendered := make(map[string][]byte)
	err = g.stage(ctx, "render", func() error {
		pages, err := g.renderPages(ctx, out, rendered)
		result.Manifest.Pages = pages
		return err
	})
	if err != nil {
		return nil, err
	}
	g.metrics.AddPages(len(result.Manifest.Pages))

	var assets []string
	err = g.stage(ctx, "assets", func() error {
		var err error
		assets, err = g.copyAssets(ctx, out, issues)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Manifest.Assets = len(assets)

	routes := g.publishedRoutes(docs, posts)
	result.Manifest.Routes = routes

	err = g.stage(ctx, "metadata", func() error {
		if g.opts.Sitemap {
			if err := writeFile(filepath.Join(out, SitemapFile), func(b *bytes.Buffer) error {
				return WriteSitemap(b, g.site, routes, started)
			}); err != nil {
				return err
			}
		}
		if g.opts.Robots {
			if err := writeFile(filepath.Join(out, RobotsFile), func(b *bytes.Buffer) error {
				return WriteRobots(b, g.site, g.opts.Sitemap)
			}); err != nil {
				return err
			}
		}
		return writeFile(filepath.Join(out, site.ExportFileName(g.opts.ConfigFormat)), func(b *bytes.Buffer) error {
			return site.Export(b, g.site, g.opts.ConfigFormat)
		})
	})
	if err != nil {
		return nil, err
	}

	err = g.stage(ctx, "linkcheck", func() error {
		checker := linkcheck.NewChecker(g.site, g.logger)
		checker.AddRoutes(routes...)
		checker.AddRoutes(pageRoute(NotFoundFile))
		checker.AddRoutes(assets...)

		for _, page := range result.Manifest.Pages {
			if err := checker.CheckPage(ctx, page.Route, bytes.NewReader(rendered[page.Route]), issues); err != nil {
				return err
			}
		}
		result.Report = checker.Report()
		for _, b := range result.Report.Broken {
			g.metrics.IncBrokenLink(string(b.Policy))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Manifest.BrokenLinks = len(result.Report.Broken)

	if g.opts.Audit {
		err = g.stage(ctx, "audit", func() error {
			return auditPages(result.Manifest.Pages, rendered, issues)
		})
		if err != nil {
			return nil, err
		}
	}

	finished := g.now()
	result.Manifest.FinishedAt = finished
	result.Manifest.DurationMS = finished.Sub(started).Milliseconds()
	if err := g.stage(ctx, "manifest", func() error { return WriteManifest(out, result.Manifest) }); err != nil {
		return nil, err
	}

	if err := issues.Err(); err != nil {
		g.logger.Error(ctx, err, "Build failed", "summary", issues.Summary())
		return result, err
	}
	g.logger.Info(ctx, "Site built", "output", out, "summary", issues.Summary())
	return result, nil
}

// stage runs fn and records its duration.
func (g *Generator) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	g.metrics.ObserveStage(name, time.Since(start))
	g.logger.Debug(ctx, "Stage finished", "stage", name, "duration", time.Since(start), "ok", err == nil)
	return err
}

func (g *Generator) prepare(out string) error {
	if g.opts.Clean {
		if err := validation.ValidateCleanTarget(out, g.sourceDirs()...); err != nil {
			return siteerrors.NewValidationError(siteerrors.ErrCodeInvalidPath,
				"refusing to clean "+out+": "+err.Error())
		}
		if err := os.RemoveAll(out); err != nil {
			return siteerrors.WrapIO(err, siteerrors.ErrCodeWriteFailed, "cleaning output directory")
		}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return siteerrors.WrapIO(err, siteerrors.ErrCodeWriteFailed, "creating output directory")
	}
	return nil
}

// sourceDirs lists the directories a clean must never remove: the project
// root and every input directory.
func (g *Generator) sourceDirs() []string {
	root := g.opts.ProjectRoot
	if root == "" {
		root = "."
	}
	dirs := []string{
		root,
		g.opts.resolve(g.opts.DocsDir),
		g.opts.resolve(g.opts.BlogDir),
		g.opts.resolve(g.opts.StaticDir),
	}
	if theme := g.site.Presets.Theme; theme != nil && theme.CustomCSS != "" {
		dirs = append(dirs, filepath.Dir(g.opts.resolve(theme.CustomCSS)))
	}
	return dirs
}

func (g *Generator) renderPages(ctx context.Context, out string, rendered map[string][]byte) ([]Page, error) {
	pages := []struct {
		file      string
		component templ.Component
	}{
		{"index.html", views.HomePage(g.site, features.Default())},
		{NotFoundFile, views.NotFound(g.site)},
	}

	written := make([]Page, 0, len(pages))
	for _, p := range pages {
		html, err := views.RenderBytes(ctx, p.component)
		if err != nil {
			return nil, siteerrors.ErrRenderFailed(p.file, err)
		}
		target := filepath.Join(out, p.file)
		if err := os.WriteFile(target, html, 0o644); err != nil {
			return nil, siteerrors.WrapIO(err, siteerrors.ErrCodeWriteFailed, "writing "+p.file)
		}

		sum := sha256.Sum256(html)
		page := Page{
			Route: pageRoute(p.file),
			File:  p.file,
			Size:  int64(len(html)),
			Hash:  hex.EncodeToString(sum[:]),
		}
		rendered[page.Route] = html
		written = append(written, page)
	}
	return written, nil
}

// publishedRoutes is every route the full site publishes, sorted: the home
// page, docs and blog posts, the blog index and the configured extra routes.
func (g *Generator) publishedRoutes(docs []content.Doc, posts []content.Post) []string {
	set := map[string]struct{}{"/": {}}
	for _, r := range content.Routes(docs, posts) {
		set[r] = struct{}{}
	}
	if g.site.Presets.Blog != nil {
		set["/blog"] = struct{}{}
	}
	for _, r := range g.opts.ExtraRoutes {
		set[r] = struct{}{}
	}

	routes := make([]string, 0, len(set))
	for r := range set {
		routes = append(routes, r)
	}
	sort.Strings(routes)
	return routes
}

// pageRoute maps an output file to the route it is served under.
func pageRoute(file string) string {
	file = "/" + strings.TrimPrefix(path.Clean(filepath.ToSlash(file)), "/")
	if file == "/index.html" {
		return "/"
	}
	return strings.TrimSuffix(file, "/index.html")
}

func writeFile(name string, fill func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return siteerrors.WrapBuild(err, siteerrors.ErrCodeBuildFailed, "generating "+filepath.Base(name), name)
	}
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		return siteerrors.WrapIO(err, siteerrors.ErrCodeWriteFailed, "writing "+filepath.Base(name))
	}
	return nil
}

// WriteManifest writes m as indented JSON into dir.
func WriteManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), append(data, '\n'), 0o644); err != nil {
		return siteerrors.WrapIO(err, siteerrors.ErrCodeWriteFailed, "writing "+ManifestFile)
	}
	return nil
}

// ReadManifest reads the manifest of the build in dir.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}

// auditPages reports accessibility violations on every rendered page.
// Critical violations are warnings, the rest informational; none fail the
// build.
func auditPages(pages []Page, rendered map[string][]byte, issues *siteerrors.Collector) error {
	for _, page := range pages {
		violations, err := accessibility.Audit(bytes.NewReader(rendered[page.Route]))
		if err != nil {
			return siteerrors.WrapBuild(err, siteerrors.ErrCodeBuildFailed, "auditing page", page.File)
		}
		for _, v := range violations {
			severity := siteerrors.ErrorSeverityInfo
			if v.Rule.Impact == accessibility.ImpactCritical {
				severity = siteerrors.ErrorSeverityWarning
			}
			issues.Add(siteerrors.Issue{
				Page:     page.Route,
				Target:   v.Element,
				Message:  v.Rule.ID + ": " + v.Message,
				Severity: severity,
			})
		}
	}
	return nil
}
