package server

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/apache/sunny-website/internal/build"
	"github.com/apache/sunny-website/internal/middleware"
)

// ReloadPath is the live reload websocket endpoint.
const ReloadPath = "/__livereload"

// reloadScript reconnects after a restart and shows build errors in place.
const reloadScript = `<script>(function(){` +
	`var proto=location.protocol==="https:"?"wss:":"ws:";` +
	`function connect(){var ws=new WebSocket(proto+"//"+location.host+"` + ReloadPath + `");` +
	`ws.onmessage=function(e){var m=JSON.parse(e.data);` +
	`if(m.type==="reload"){location.reload();return;}` +
	`if(m.type==="build_error"){var o=document.getElementById("sunny-error-overlay");if(o){o.remove();}` +
	`document.body.insertAdjacentHTML("beforeend",m.content||"");}};` +
	`ws.onclose=function(){setTimeout(connect,1000);};}` +
	`connect();})();</script>`

// handleSite serves the build output. Extensionless routes map to
// route.html or route/index.html, and unknown routes get the 404 page.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, ok := s.resolveFile(r.URL.Path)
	if !ok {
		s.serveNotFound(w, r)
		return
	}

	if strings.HasSuffix(name, ".html") {
		s.serveHTML(w, r, name, http.StatusOK)
		return
	}

	f, err := os.Open(name)
	if err != nil {
		s.serveNotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// resolveFile maps a request path onto a regular file in the output
// directory.
func (s *Server) resolveFile(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)

	var candidates []string
	if clean == "/" || strings.HasSuffix(urlPath, "/") {
		candidates = []string{path.Join(clean, "index.html")}
	} else {
		candidates = []string{clean, clean + ".html", path.Join(clean, "index.html")}
	}

	for _, candidate := range candidates {
		name := filepath.Join(s.outputDir, filepath.FromSlash(candidate))
		info, err := os.Stat(name)
		if err == nil && info.Mode().IsRegular() {
			return name, true
		}
	}
	return "", false
}

func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(s.outputDir, build.NotFoundFile)
	if _, err := os.Stat(name); err != nil {
		http.NotFound(w, r)
		return
	}
	s.serveHTML(w, r, name, http.StatusNotFound)
}

// serveHTML writes the page with the live reload script and, after a
// failed build, the error overlay injected before </body>.
func (s *Server) serveHTML(w http.ResponseWriter, r *http.Request, name string, status int) {
	page, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error(r.Context(), err, "Failed to read page", "file", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var inject strings.Builder
	if issues := s.lastIssues(); issues != nil {
		inject.WriteString(issues.ErrorOverlay())
	}
	if s.cfg.Development.LiveReload {
		inject.WriteString(reloadScript)
	}
	page = injectBeforeBodyEnd(page, inject.String())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		if _, err := w.Write(page); err != nil {
			s.logger.Debug(r.Context(), "Writing page failed", "file", name, "error", err.Error())
		}
	}
}

// injectBeforeBodyEnd inserts snippet before the last </body>, or appends
// it when the page has none.
func injectBeforeBodyEnd(page []byte, snippet string) []byte {
	if snippet == "" {
		return page
	}
	idx := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if idx < 0 {
		return append(page, snippet...)
	}

	out := make([]byte, 0, len(page)+len(snippet))
	out = append(out, page[:idx]...)
	out = append(out, snippet...)
	return append(out, page[idx:]...)
}

func (s *Server) middlewareChain() *middleware.Chain {
	return middleware.NewChain(
		middleware.Logging(s.logger, s.metrics),
		middleware.CORS(s.isAllowedOrigin),
		middleware.SecurityHeaders(),
		middleware.NoCache(),
	)
}
