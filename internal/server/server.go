// Package server is the development server: it builds the site, serves
// the output, rebuilds when sources change and tells open browser tabs to
// reload over a websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/apache/sunny-website/internal/build"
	"github.com/apache/sunny-website/internal/config"
	siteerrors "github.com/apache/sunny-website/internal/errors"
	"github.com/apache/sunny-website/internal/logging"
	"github.com/apache/sunny-website/internal/monitoring"
	"github.com/apache/sunny-website/internal/site"
	"github.com/apache/sunny-website/internal/validation"
	"github.com/apache/sunny-website/internal/version"
	"github.com/apache/sunny-website/internal/watcher"
)

// Options configure a Server.
type Options struct {
	// ProjectRoot holds the site sources. Defaults to the working directory.
	ProjectRoot string
	// ConfigFile is the tool configuration file in use, if any. Changes to
	// it are reported but need a restart.
	ConfigFile string
	// AllowedOrigins extends the origins accepted for live reload.
	AllowedOrigins []string
	Logger         logging.Logger
	Metrics        *monitoring.Metrics
}

// Server serves the built site with live reload.
type Server struct {
	cfg       *config.Config
	opts      Options
	basePath  string
	outputDir string
	logger    logging.Logger
	metrics   *monitoring.Metrics
	health    *monitoring.HealthMonitor
	hub       *Hub
	history   *build.History

	buildMutex sync.Mutex
	stateMutex sync.RWMutex
	issues     *siteerrors.Collector

	httpServer   *http.Server
	serverMutex  sync.RWMutex
	watcher      *watcher.FileWatcher
	shutdownOnce sync.Once
}

// New creates a development server. The site configuration is read once
// here to fix the base path; every rebuild reads it again.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if opts.ProjectRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
		opts.ProjectRoot = cwd
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	siteCfg, err := site.Load(resolve(opts.ProjectRoot, cfg.Site.File))
	if err != nil {
		return nil, siteerrors.WrapConfig(err, siteerrors.ErrCodeSiteInvalid, "loading site configuration")
	}

	logger := opts.Logger.WithComponent("server")
	buildOpts := build.OptionsFrom(cfg)
	buildOpts.ProjectRoot = opts.ProjectRoot

	s := &Server{
		cfg:       cfg,
		opts:      opts,
		basePath:  site.JoinBase(siteCfg.BasePath, ""),
		outputDir: resolve(opts.ProjectRoot, buildOpts.OutputDir),
		logger:    logger,
		metrics:   opts.Metrics,
		health:    monitoring.NewHealthMonitor(opts.Logger, version.GetShortVersion()),
		history:   build.NewHistory(0),
	}
	s.hub = NewHub(s.allowedOrigins(), opts.Logger, opts.Metrics)

	s.health.RegisterCheck(monitoring.OutputDirChecker(s.outputDir))
	s.health.RegisterCheck(monitoring.BuildStatusChecker(s.history.Last))

	return s, nil
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// allowedOrigins lists the hosts the server answers on.
func (s *Server) allowedOrigins() []string {
	port := s.cfg.Server.Port
	origins := []string{
		s.cfg.Server.Addr(),
		fmt.Sprintf("localhost:%d", port),
		fmt.Sprintf("127.0.0.1:%d", port),
	}
	return append(origins, s.opts.AllowedOrigins...)
}

func (s *Server) isAllowedOrigin(origin string) bool {
	return validation.ValidateOrigin(origin, s.allowedOrigins()) == nil
}

// Hub is the live reload hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// History records the builds run by this server.
func (s *Server) History() *build.History {
	return s.history
}

// Handler routes live reload, health, metrics and the site itself.
func (s *Server) Handler() http.Handler {
	siteHandler := http.Handler(http.HandlerFunc(s.handleSite))
	prefix := strings.TrimSuffix(s.basePath, "/")
	if prefix != "" {
		siteHandler = http.StripPrefix(prefix, siteHandler)
	}

	mux := http.NewServeMux()
	mux.Handle("/health", s.health.HTTPHandler())
	if s.cfg.Metrics.Enabled {
		mux.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if prefix != "" && r.URL.Path == "/" {
			http.Redirect(w, r, s.basePath, http.StatusFound)
			return
		}
		siteHandler.ServeHTTP(w, r)
	})

	top := http.NewServeMux()
	top.Handle(ReloadPath, s.hub)
	top.Handle("/", s.middlewareChain().Apply(mux))
	return top
}

// Rebuild reads the site configuration and builds the site. Connected
// browsers reload on success or show the error overlay on failure.
func (s *Server) Rebuild(ctx context.Context) error {
	s.buildMutex.Lock()
	defer s.buildMutex.Unlock()

	started := time.Now()
	result, err := s.runBuild(ctx)
	s.history.Record(build.OutcomeOf(result, err, time.Now(), time.Since(started)))

	issues := siteerrors.NewCollector()
	if result != nil && result.Issues != nil {
		issues = result.Issues
	}
	if err != nil && !issues.HasErrors() {
		issues.AddError(err)
	}

	if err != nil {
		s.setIssues(issues)
		s.logger.Error(ctx, err, "Build failed", "issues", issues.Summary())
		s.hub.Broadcast(UpdateMessage{Type: MessageBuildError, Content: issues.ErrorOverlay()})
		return err
	}

	s.setIssues(nil)
	s.logger.Info(ctx, "Build finished",
		"pages", len(result.Manifest.Pages),
		"duration", time.Since(started),
		"issues", issues.Summary(),
	)
	s.hub.Broadcast(UpdateMessage{Type: MessageReload})
	return nil
}

func (s *Server) runBuild(ctx context.Context) (*build.Result, error) {
	siteCfg, err := site.Load(resolve(s.opts.ProjectRoot, s.cfg.Site.File))
	if err != nil {
		return nil, siteerrors.WrapConfig(err, siteerrors.ErrCodeSiteInvalid, "loading site configuration")
	}
	if base := site.JoinBase(siteCfg.BasePath, ""); base != s.basePath {
		s.logger.Warn(ctx, nil, "Base path changed, restart the server to apply it", "base_path", base)
	}

	opts := build.OptionsFrom(s.cfg)
	opts.ProjectRoot = s.opts.ProjectRoot
	return build.NewGenerator(siteCfg, opts, s.opts.Logger, s.metrics).Build(ctx)
}

func (s *Server) setIssues(issues *siteerrors.Collector) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.issues = issues
}

// lastIssues returns the issues of the last build when it failed.
func (s *Server) lastIssues() *siteerrors.Collector {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.issues
}

// Start builds the site, starts watching sources and serves until ctx is
// done or the server is shut down.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		s.logger.Warn(ctx, err, "Initial build failed, serving the last output")
	}

	go s.hub.Run(ctx)

	if s.cfg.Development.LiveReload {
		if err := s.setupFileWatcher(ctx); err != nil {
			return err
		}
	}

	addr := s.cfg.Server.Addr()
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, err, "Shutdown failed")
		}
	}()

	url := fmt.Sprintf("http://%s%s", addr, s.basePath)
	s.logger.Info(ctx, "Serving site", "url", url, "output", s.outputDir, "health_checks", s.health.CheckNames())
	if s.cfg.Server.Open {
		go s.openBrowser(ctx, url)
	}

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) setupFileWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(s.cfg.Development.Debounce, watcher.Options{
		Root:    s.opts.ProjectRoot,
		Logger:  s.opts.Logger,
		Metrics: s.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw.AddFilter(watcher.NoGitFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.SiteSourceFilter)
	fw.AddFilter(watcher.ExcludeDirFilter(s.outputDir))

	for _, dir := range s.watchDirs() {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := fw.AddRecursive(dir); err != nil {
			s.logger.Warn(ctx, err, "Cannot watch directory", "dir", dir)
		}
	}
	// The project root itself holds the site file and .sunny.yml.
	if err := fw.AddPath(s.opts.ProjectRoot); err != nil {
		return fmt.Errorf("watching project root: %w", err)
	}

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		s.reportConfigChange(ctx, events)
		s.logger.Info(ctx, "Sources changed, rebuilding", "files", len(events))
		return s.Rebuild(ctx)
	})

	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	s.serverMutex.Lock()
	s.watcher = fw
	s.serverMutex.Unlock()
	return nil
}

func (s *Server) watchDirs() []string {
	dirs := []string{
		resolve(s.opts.ProjectRoot, s.cfg.Build.DocsDir),
		resolve(s.opts.ProjectRoot, s.cfg.Build.BlogDir),
		resolve(s.opts.ProjectRoot, s.cfg.Build.StaticDir),
	}
	if siteCfg, err := site.Load(resolve(s.opts.ProjectRoot, s.cfg.Site.File)); err == nil {
		if theme := siteCfg.Presets.Theme; theme != nil && theme.CustomCSS != "" {
			dirs = append(dirs, filepath.Dir(resolve(s.opts.ProjectRoot, theme.CustomCSS)))
		}
	}

	seen := make(map[string]bool, len(dirs))
	out := dirs[:0]
	for _, dir := range dirs {
		if dir == "" || seen[dir] || dir == s.opts.ProjectRoot {
			continue
		}
		seen[dir] = true
		out = append(out, dir)
	}
	return out
}

func (s *Server) reportConfigChange(ctx context.Context, events []watcher.ChangeEvent) {
	if s.opts.ConfigFile == "" {
		return
	}
	configFile, err := filepath.Abs(s.opts.ConfigFile)
	if err != nil {
		return
	}
	for _, event := range events {
		if event.Path == configFile {
			s.logger.Warn(ctx, nil, "Tool configuration changed, restart the server to apply it", "file", event.Path)
			return
		}
	}
}

func (s *Server) openBrowser(ctx context.Context, url string) {
	time.Sleep(100 * time.Millisecond)

	if err := validation.ValidateBrowserURL(url); err != nil {
		s.logger.Warn(ctx, err, "Browser open failed due to invalid URL")
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	if err != nil {
		s.logger.Warn(ctx, err, "Failed to open browser")
	}
}

// Shutdown stops the watcher, disconnects live reload clients and shuts
// the HTTP server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		s.serverMutex.RLock()
		fw := s.watcher
		server := s.httpServer
		s.serverMutex.RUnlock()

		if fw != nil {
			if err := fw.Stop(); err != nil {
				s.logger.Warn(ctx, err, "Stopping file watcher failed")
			}
		}

		s.hub.Close()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}
