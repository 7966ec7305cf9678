package errors

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
)

// ErrorSeverity represents the severity of an issue
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Issue is one finding of a build: a broken link, an unreadable doc, a
// failed page.
type Issue struct {
	Page      string
	Target    string
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// Error implements the error interface
func (i *Issue) Error() string {
	if i.Target != "" {
		return fmt.Sprintf("%s: %s: %s (%s)", i.Page, i.Severity, i.Message, i.Target)
	}
	return fmt.Sprintf("%s: %s: %s", i.Page, i.Severity, i.Message)
}

// Collector gathers issues and plain errors. It is safe for concurrent use.
type Collector struct {
	issues []Issue
	errors []error
	mutex  sync.RWMutex
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		issues: make([]Issue, 0),
		errors: make([]error, 0),
	}
}

// Add records an issue
func (c *Collector) Add(issue Issue) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if issue.Timestamp.IsZero() {
		issue.Timestamp = time.Now()
	}
	c.issues = append(c.issues, issue)
}

// AddError records a plain error. Nil is ignored.
func (c *Collector) AddError(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = append(c.errors, err)
}

// Issues returns a copy of the recorded issues in insertion order
func (c *Collector) Issues() []Issue {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]Issue, len(c.issues))
	copy(result, c.issues)
	return result
}

// IssuesAtLeast returns the issues whose severity is min or higher.
func (c *Collector) IssuesAtLeast(min ErrorSeverity) []Issue {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var result []Issue
	for _, issue := range c.issues {
		if issue.Severity >= min {
			result = append(result, issue)
		}
	}
	return result
}

// IssuesByPage returns the issues recorded against page.
func (c *Collector) IssuesByPage(page string) []Issue {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var result []Issue
	for _, issue := range c.issues {
		if issue.Page == page {
			result = append(result, issue)
		}
	}
	return result
}

// Count returns the number of issues per severity.
func (c *Collector) Count() map[ErrorSeverity]int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	counts := make(map[ErrorSeverity]int)
	for _, issue := range c.issues {
		counts[issue.Severity]++
	}
	return counts
}

// HasErrors reports whether an error or fatal issue, or a plain error, was
// recorded. Warnings do not count.
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if len(c.errors) > 0 {
		return true
	}
	for _, issue := range c.issues {
		if issue.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// Err returns nil when HasErrors is false, otherwise a build error listing
// every failing issue and plain error.
func (c *Collector) Err() error {
	if !c.HasErrors() {
		return nil
	}
	failing := c.IssuesAtLeast(ErrorSeverityError)

	c.mutex.RLock()
	plain := append([]error(nil), c.errors...)
	c.mutex.RUnlock()

	causes := make([]error, 0, len(failing)+len(plain))
	for i := range failing {
		causes = append(causes, &failing[i])
	}
	causes = append(causes, plain...)

	return NewBuildError(ErrCodeBuildFailed,
		fmt.Sprintf("%d problem(s) found", len(causes)),
		CombineErrors(causes...))
}

// Clear drops everything collected so far
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.issues = c.issues[:0]
	c.errors = c.errors[:0]
}

// Summary is a one-line count of the issues, e.g. "2 error(s), 1 warning(s)".
func (c *Collector) Summary() string {
	counts := c.Count()
	severities := make([]ErrorSeverity, 0, len(counts))
	for s := range counts {
		severities = append(severities, s)
	}
	sort.Slice(severities, func(i, j int) bool { return severities[i] > severities[j] })

	parts := make([]string, 0, len(severities))
	for _, s := range severities {
		parts = append(parts, fmt.Sprintf("%d %s(s)", counts[s], s))
	}
	if len(parts) == 0 {
		return "no issues"
	}
	return strings.Join(parts, ", ")
}

// ErrorOverlay renders the failing issues as an HTML overlay for the dev
// server. It returns "" when there is nothing to show.
func (c *Collector) ErrorOverlay() string {
	if !c.HasErrors() {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div id="sunny-error-overlay" style="position:fixed;inset:0;background:rgba(0,0,0,.85);color:#fff;font-family:monospace;font-size:14px;z-index:9999;padding:20px;overflow:auto">`)
	b.WriteString(`<div style="max-width:1000px;margin:0 auto"><h2 style="color:#ff6b6b">Build failed</h2>`)

	for _, issue := range c.IssuesAtLeast(ErrorSeverityWarning) {
		color := "#ff6b6b"
		if issue.Severity == ErrorSeverityWarning {
			color = "#feca57"
		}
		fmt.Fprintf(&b, `<div style="background:#2d3748;padding:12px;margin-bottom:12px;border-left:4px solid %s">`, color)
		fmt.Fprintf(&b, `<strong style="color:%s">%s</strong> <span>%s</span>`, color,
			templ.EscapeString(issue.Severity.String()), templ.EscapeString(issue.Message))
		fmt.Fprintf(&b, `<div style="color:#a0aec0">%s`, templ.EscapeString(issue.Page))
		if issue.Target != "" {
			fmt.Fprintf(&b, ` → %s`, templ.EscapeString(issue.Target))
		}
		b.WriteString(`</div></div>`)
	}

	c.mutex.RLock()
	for _, err := range c.errors {
		fmt.Fprintf(&b, `<div style="background:#2d3748;padding:12px;margin-bottom:12px;border-left:4px solid #ff6b6b">%s</div>`,
			templ.EscapeString(err.Error()))
	}
	c.mutex.RUnlock()

	b.WriteString(`</div></div>`)
	return b.String()
}
