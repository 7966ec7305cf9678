// Package testutils holds fixtures shared by the command, build and server
// tests: a minimal Sunny site source tree and a test tool configuration.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apache/sunny-website/internal/config"
)

// ProjectFiles is the smallest source tree whose default build passes the
// link check: the navbar's doc link, the blog, the logo and the stylesheet.
var ProjectFiles = map[string]string{
	"docs/intro.md":              "---\ntitle: Tutorial Intro\n---\n# Intro\n",
	"docs/guides/setup.md":       "# Setup\n",
	"blog/2024-01-31-welcome.md": "---\ntitle: Welcome\n---\n",
	"static/img/logo.svg":        "<svg/>",
	"src/css/custom.css":         ":root { --ifm-color-primary: #f29111; }\n",
}

// CreateTempProject writes ProjectFiles merged with overrides into a new
// temporary directory and returns it. An empty override body leaves that
// file out.
func CreateTempProject(t *testing.T, overrides map[string]string) string {
	t.Helper()
	root := t.TempDir()

	files := make(map[string]string, len(ProjectFiles)+len(overrides))
	for rel, body := range ProjectFiles {
		files[rel] = body
	}
	for rel, body := range overrides {
		files[rel] = body
	}
	WriteFiles(t, root, files)
	return root
}

// WriteFiles writes each slash separated path under root, creating parent
// directories. Empty bodies are skipped.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		if body == "" {
			continue
		}
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

// Chdir changes the working directory for the rest of the test.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })
}

// CreateTestConfig returns the default tool configuration bound to
// localhost:port.
func CreateTestConfig(port int) *config.Config {
	cfg := config.Defaults()
	cfg.Server.Host = "localhost"
	cfg.Server.Port = port
	return cfg
}

// PathTraversal are request paths that must never resolve outside the
// served directory.
var PathTraversal = []string{
	"../../../etc/passwd",
	"..\\..\\..\\windows\\system32\\config\\sam",
	"....//....//....//etc/passwd",
	"..%2F..%2F..%2Fetc%2Fpasswd",
	"/%2e%2e/%2e%2e/%2e%2e/etc/passwd",
	"/./../../etc/passwd",
	"../../../../../etc/passwd",
}

// WaitForFileChange waits for a file to be modified after originalModTime.
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
