package errors

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSeverityString(t *testing.T) {
	testCases := []struct {
		severity ErrorSeverity
		expected string
	}{
		{ErrorSeverityInfo, "info"},
		{ErrorSeverityWarning, "warning"},
		{ErrorSeverityError, "error"},
		{ErrorSeverityFatal, "fatal"},
		{ErrorSeverity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.severity.String())
		})
	}
}

func TestSiteErrorFormatting(t *testing.T) {
	cause := errors.New("permission denied")
	err := WrapIO(cause, ErrCodeWriteFailed, "cannot write page").WithPath("build/index.html")

	assert.Equal(t, "[ERR_WRITE_FAILED] build/index.html cannot write page: permission denied", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.False(t, err.Recoverable)
}

func TestSiteErrorIs(t *testing.T) {
	err := fmt.Errorf("building: %w", NewLinkError("/index.html", "/docs/missing"))

	assert.True(t, errors.Is(err, &SiteError{Type: ErrorTypeLink, Code: ErrCodeBrokenLink}))
	assert.False(t, errors.Is(err, &SiteError{Type: ErrorTypeBuild, Code: ErrCodeBrokenLink}))
	assert.False(t, IsBuildError(err))
	assert.False(t, IsConfigError(err))
}

func TestPredicatesFollowCauses(t *testing.T) {
	inner := NewConfigError(ErrCodeConfigInvalid, "port out of range")
	outer := NewBuildError(ErrCodeBuildFailed, "build aborted", inner)

	assert.True(t, IsBuildError(outer))
	assert.True(t, IsConfigError(outer))
	assert.False(t, IsConfigError(NewBuildError(ErrCodeBuildFailed, "build aborted", errors.New("disk full"))))
}

func TestNewLinkError(t *testing.T) {
	err := NewLinkError("/404.html", "/blog")

	assert.Equal(t, "[ERR_BROKEN_LINK] /404.html broken link to /blog", err.Error())
	assert.Equal(t, "/404.html", err.Context["page"])
	assert.Equal(t, "/blog", err.Context["target"])
	assert.True(t, err.Recoverable)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeBuild, "X", "y"))

	plain := errors.New("disk full")
	wrapped := WrapBuild(plain, ErrCodeWriteFailed, "writing sitemap", "sitemap.xml")
	require.NotNil(t, wrapped)
	assert.Equal(t, "sitemap.xml", wrapped.Path)
	assert.True(t, wrapped.Recoverable)
	assert.ErrorIs(t, wrapped, plain)

	io := WrapIO(wrapped, ErrCodeWriteFailed, "output unavailable")
	assert.False(t, io.Recoverable)
	assert.Equal(t, "sitemap.xml", io.Path)
	assert.ErrorIs(t, io, plain)

	cfg := WrapConfig(plain, ErrCodeSiteInvalid, "loading site configuration")
	assert.True(t, IsConfigError(cfg))
	assert.False(t, cfg.Recoverable)
}

func TestCombineErrors(t *testing.T) {
	assert.Nil(t, CombineErrors(nil, nil))

	single := errors.New("one")
	assert.Equal(t, single, CombineErrors(nil, single))

	a, b := errors.New("a"), errors.New("b")
	combined := CombineErrors(a, nil, b)
	require.Error(t, combined)
	assert.ErrorIs(t, combined, a)
	assert.ErrorIs(t, combined, b)
	var se *SiteError
	require.ErrorAs(t, combined, &se)
	assert.Equal(t, 2, se.Context["error_count"])
	assert.Equal(t, []error{a, b}, CollectErrors(nil, a, nil, b))
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.HasErrors())
	assert.NoError(t, c.Err())
	assert.Equal(t, "no issues", c.Summary())

	c.Add(Issue{Page: "/index.html", Target: "/blog/x", Message: "broken link", Severity: ErrorSeverityWarning})
	assert.False(t, c.HasErrors(), "warnings alone do not fail a build")

	c.Add(Issue{Page: "/index.html", Target: "/docs/missing", Message: "broken link", Severity: ErrorSeverityError})
	c.AddError(nil)
	assert.True(t, c.HasErrors())

	issues := c.Issues()
	require.Len(t, issues, 2)
	assert.False(t, issues[0].Timestamp.IsZero())
	assert.Len(t, c.IssuesByPage("/index.html"), 2)
	assert.Len(t, c.IssuesAtLeast(ErrorSeverityError), 1)
	assert.Equal(t, "1 error(s), 1 warning(s)", c.Summary())

	err := c.Err()
	require.Error(t, err)
	assert.True(t, IsBuildError(err))
	assert.Contains(t, err.Error(), "/docs/missing")
	assert.NotContains(t, err.Error(), "/blog/x")

	c.Clear()
	assert.Empty(t, c.Issues())
	assert.False(t, c.HasErrors())
}

func TestCollectorConcurrentAdd(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				c.Add(Issue{Page: fmt.Sprintf("/p%d", g), Severity: ErrorSeverityInfo})
			}
		}(g)
	}
	wg.Wait()
	assert.Len(t, c.Issues(), 200)
}

func TestErrorOverlay(t *testing.T) {
	c := NewCollector()
	assert.Empty(t, c.ErrorOverlay())

	c.Add(Issue{Page: "/index.html", Target: `/docs/<script>`, Message: "broken link", Severity: ErrorSeverityError})
	c.AddError(errors.New("write failed"))

	overlay := c.ErrorOverlay()
	assert.True(t, strings.HasPrefix(overlay, `<div id="sunny-error-overlay"`))
	assert.Contains(t, overlay, "broken link")
	assert.Contains(t, overlay, "write failed")
	assert.NotContains(t, overlay, "<script>")
}
