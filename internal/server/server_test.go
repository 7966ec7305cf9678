package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apache/sunny-website/internal/config"
	"github.com/apache/sunny-website/internal/monitoring"
	"github.com/apache/sunny-website/internal/testutils"
)

func newProject(t *testing.T, extra map[string]string) string {
	t.Helper()
	return testutils.CreateTempProject(t, extra)
}

func testConfig() *config.Config {
	return testutils.CreateTestConfig(3000)
}

func newTestServer(t *testing.T, cfg *config.Config, root string) (*Server, *monitoring.Metrics) {
	t.Helper()
	metrics := monitoring.NewMetrics(nil)
	s, err := New(cfg, Options{ProjectRoot: root, Metrics: metrics})
	require.NoError(t, err)
	return s, metrics
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestNew(t *testing.T) {
	root := newProject(t, nil)
	s, _ := newTestServer(t, testConfig(), root)

	assert.Equal(t, filepath.Join(root, "build"), s.outputDir)
	assert.Equal(t, "/", s.basePath)
	assert.NotNil(t, s.Hub())
	assert.Contains(t, s.allowedOrigins(), "localhost:3000")
	assert.Contains(t, s.allowedOrigins(), "127.0.0.1:3000")
}

func TestNewRejectsBrokenSiteFile(t *testing.T) {
	root := newProject(t, map[string]string{"site.yml": "titel: typo\n"})
	_, err := New(testConfig(), Options{ProjectRoot: root})
	require.Error(t, err)
}

func TestServeBuiltSite(t *testing.T) {
	root := newProject(t, nil)
	s, _ := newTestServer(t, testConfig(), root)
	require.NoError(t, s.Rebuild(context.Background()))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	status, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "hero__title")
	assert.Contains(t, body, ReloadPath)
	assert.NotContains(t, body, `id="sunny-error-overlay"`)

	status, body = get(t, srv.URL+"/img/logo.svg")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<svg/>", body)

	status, body = get(t, srv.URL+"/no/such/page")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "Page Not Found")

	status, _ = get(t, srv.URL+"/404")
	assert.Equal(t, http.StatusOK, status)

	resp, err := http.Post(srv.URL+"/", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	root := newProject(t, nil)
	s, _ := newTestServer(t, testConfig(), root)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	status, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusServiceUnavailable, status, "nothing built yet")
	assert.Contains(t, body, `"status": "unhealthy"`)

	require.NoError(t, s.Rebuild(context.Background()))

	status, body = get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status": "healthy"`)

	status, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "sunny_build_outcomes_total")
	assert.Contains(t, body, "sunny_http_requests_total")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	s, _ := newTestServer(t, cfg, newProject(t, nil))
	require.NoError(t, s.Rebuild(context.Background()))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	status, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotContains(t, body, "sunny_build_outcomes_total")
}

func TestLiveReloadDisabledServesPlainPages(t *testing.T) {
	cfg := testConfig()
	cfg.Development.LiveReload = false
	s, _ := newTestServer(t, cfg, newProject(t, nil))
	require.NoError(t, s.Rebuild(context.Background()))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	_, body := get(t, srv.URL+"/")
	assert.NotContains(t, body, ReloadPath)
}

func TestFailedBuildShowsOverlay(t *testing.T) {
	root := newProject(t, nil)
	s, _ := newTestServer(t, testConfig(), root)
	intro := filepath.Join(root, "docs", "intro.md")
	require.NoError(t, os.Remove(intro))

	err := s.Rebuild(context.Background())
	require.Error(t, err)

	finished, last := s.History().Last()
	assert.False(t, finished.IsZero())
	assert.Error(t, last)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	status, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `id="sunny-error-overlay"`)
	assert.Contains(t, body, "/docs/intro")

	status, body = get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status": "degraded"`)

	require.NoError(t, os.WriteFile(intro, []byte("# Intro\n"), 0o644))
	require.NoError(t, s.Rebuild(context.Background()))

	_, body = get(t, srv.URL+"/")
	assert.Contains(t, body, ReloadPath)
	assert.NotContains(t, body, `id="sunny-error-overlay"`, "overlay clears after a good rebuild")
}

func TestBasePathServing(t *testing.T) {
	root := newProject(t, map[string]string{"site.yml": "base_path: /sunny/\n"})
	s, _ := newTestServer(t, testConfig(), root)
	assert.Equal(t, "/sunny/", s.basePath)
	require.NoError(t, s.Rebuild(context.Background()))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/sunny/", resp.Header.Get("Location"))

	status, body := get(t, srv.URL+"/sunny/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `href="/sunny/docs/intro"`)

	status, _ = get(t, srv.URL+"/sunny/img/logo.svg")
	assert.Equal(t, http.StatusOK, status)

	status, _ = get(t, srv.URL+"/img/logo.svg")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), newProject(t, nil))
	handler := s.Handler()

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed", "http://localhost:3000", "http://localhost:3000"},
		{"foreign", "http://evil.example", ""},
		{"none", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestResolveFile(t *testing.T) {
	s := &Server{outputDir: t.TempDir()}
	for _, rel := range []string{"index.html", "404.html", "docs/intro.html", "blog/index.html", "img/logo.svg"} {
		p := filepath.Join(s.outputDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/", "index.html", true},
		{"", "index.html", true},
		{"/docs/intro", "docs/intro.html", true},
		{"/docs/intro.html", "docs/intro.html", true},
		{"/blog", "blog/index.html", true},
		{"/blog/", "blog/index.html", true},
		{"/img/logo.svg", "img/logo.svg", true},
		{"/docs/", "", false},
		{"/../../etc/passwd", "", false},
		{"/missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := s.resolveFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, filepath.Join(s.outputDir, filepath.FromSlash(tt.want)), got)
			}
		})
	}
}

func TestResolveFileStaysInOutputDir(t *testing.T) {
	root := t.TempDir()
	s := &Server{outputDir: filepath.Join(root, "build")}
	require.NoError(t, os.MkdirAll(s.outputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.html"), []byte("x"), 0o644))

	for _, p := range append(testutils.PathTraversal, "/../secret", "/../secret.html") {
		t.Run(p, func(t *testing.T) {
			got, ok := s.resolveFile(p)
			if ok {
				assert.True(t, strings.HasPrefix(got, s.outputDir+string(filepath.Separator)), got)
			}
		})
	}
}

func TestInjectBeforeBodyEnd(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		snippet string
		want    string
	}{
		{"before body", "<html><body><p>x</p></body></html>", "<s/>", "<html><body><p>x</p><s/></body></html>"},
		{"upper case", "<BODY></BODY>", "<s/>", "<BODY><s/></BODY>"},
		{"last body wins", "<body>&lt;/body&gt;</body><!-- </body> -->", "<s/>", "<body>&lt;/body&gt;</body><!-- <s/></body> -->"},
		{"no body", "<p>x</p>", "<s/>", "<p>x</p><s/>"},
		{"empty snippet", "<body></body>", "", "<body></body>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(injectBeforeBodyEnd([]byte(tt.page), tt.snippet)))
		})
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), newProject(t, nil))
	assert.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, s.Shutdown(context.Background()))
}
