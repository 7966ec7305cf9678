package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	siteerrors "github.com/apache/sunny-website/internal/errors"
	"github.com/apache/sunny-website/internal/views"
)

// copyAssets copies the static directory and the custom stylesheet into out.
// It returns the routes of the copied files.
func (g *Generator) copyAssets(ctx context.Context, out string, issues *siteerrors.Collector) ([]string, error) {
	var routes []string

	if g.opts.StaticDir != "" {
		copied, err := copyTree(g.opts.resolve(g.opts.StaticDir), out)
		if err != nil {
			return nil, siteerrors.WrapIO(err, siteerrors.ErrCodeWriteFailed, "copying static files")
		}
		routes = append(routes, copied...)
	}

	if theme := g.site.Presets.Theme; theme != nil && theme.CustomCSS != "" {
		src := g.opts.resolve(theme.CustomCSS)
		dst := filepath.Join(out, filepath.FromSlash(strings.TrimPrefix(views.StylesheetPath, "/")))
		err := copyFile(src, dst)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			g.logger.Warn(ctx, err, "Custom stylesheet not found", "path", src)
			issues.Add(siteerrors.Issue{
				Target:   theme.CustomCSS,
				Message:  "custom stylesheet not found",
				Severity: siteerrors.ErrorSeverityWarning,
			})
		case err != nil:
			return nil, siteerrors.WrapIO(err, siteerrors.ErrCodeWriteFailed, "copying custom stylesheet")
		default:
			routes = append(routes, views.StylesheetPath)
		}
	}

	sort.Strings(routes)
	return routes, nil
}

// copyTree copies every regular file below src into dst, skipping hidden
// entries. A missing src copies nothing.
func copyTree(src, dst string) ([]string, error) {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var routes []string
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != src && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if err := copyFile(p, filepath.Join(dst, rel)); err != nil {
			return err
		}
		routes = append(routes, "/"+filepath.ToSlash(rel))
		return nil
	})
	return routes, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
