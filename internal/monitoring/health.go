package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/apache/sunny-website/internal/logging"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name        string                 `json:"name"`
	Status      HealthStatus           `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"duration"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Critical    bool                   `json:"critical"`
}

// HealthChecker defines the interface for health check functions
type HealthChecker interface {
	Check(ctx context.Context) HealthCheck
	Name() string
	IsCritical() bool
}

// HealthCheckFunc is a function that implements HealthChecker
type HealthCheckFunc struct {
	name     string
	checkFn  func(ctx context.Context) HealthCheck
	critical bool
}

func (h *HealthCheckFunc) Check(ctx context.Context) HealthCheck {
	return h.checkFn(ctx)
}

func (h *HealthCheckFunc) Name() string {
	return h.name
}

func (h *HealthCheckFunc) IsCritical() bool {
	return h.critical
}

// NewHealthCheckFunc creates a new health check function
func NewHealthCheckFunc(
	name string,
	critical bool,
	checkFn func(ctx context.Context) HealthCheck,
) *HealthCheckFunc {
	return &HealthCheckFunc{
		name:     name,
		checkFn:  checkFn,
		critical: critical,
	}
}

// HealthMonitor runs the registered checks on demand.
type HealthMonitor struct {
	mutex   sync.RWMutex
	checks  map[string]HealthChecker
	logger  logging.Logger
	timeout time.Duration
	started time.Time
	version string
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Uptime    time.Duration          `json:"uptime"`
	Checks    map[string]HealthCheck `json:"checks"`
	Summary   HealthSummary          `json:"summary"`
	Platform  string                 `json:"platform"`
}

// HealthSummary provides a summary of health check results
type HealthSummary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
	Degraded  int `json:"degraded"`
	Unknown   int `json:"unknown"`
	Critical  int `json:"critical"`
}

// NewHealthMonitor creates a monitor. version is reported in responses.
func NewHealthMonitor(logger logging.Logger, version string) *HealthMonitor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &HealthMonitor{
		checks:  make(map[string]HealthChecker),
		logger:  logger.WithComponent("health_monitor"),
		timeout: 5 * time.Second,
		started: time.Now(),
		version: version,
	}
}

// RegisterCheck registers a health check, replacing one of the same name.
func (hm *HealthMonitor) RegisterCheck(checker HealthChecker) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()
	hm.checks[checker.Name()] = checker
}

// CheckNames lists the registered checks in name order.
func (hm *HealthMonitor) CheckNames() []string {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()
	names := make([]string, 0, len(hm.checks))
	for name := range hm.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetHealth runs every check and aggregates the results.
func (hm *HealthMonitor) GetHealth(ctx context.Context) HealthResponse {
	hm.mutex.RLock()
	checkers := make([]HealthChecker, 0, len(hm.checks))
	for _, c := range hm.checks {
		checkers = append(checkers, c)
	}
	hm.mutex.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()

	checks := make(map[string]HealthCheck, len(checkers))
	for _, checker := range checkers {
		start := time.Now()
		result := checker.Check(ctx)
		result.Name = checker.Name()
		result.Critical = checker.IsCritical()
		result.Duration = time.Since(start)
		if result.LastChecked.IsZero() {
			result.LastChecked = time.Now()
		}
		if result.Status != HealthStatusHealthy {
			hm.logger.Warn(ctx, nil, "Health check not healthy",
				"check", result.Name,
				"status", string(result.Status),
				"message", result.Message)
		}
		checks[result.Name] = result
	}

	return HealthResponse{
		Status:    calculateOverallStatus(checks),
		Timestamp: time.Now(),
		Version:   hm.version,
		Uptime:    time.Since(hm.started),
		Checks:    checks,
		Summary:   calculateSummary(checks),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func calculateSummary(checks map[string]HealthCheck) HealthSummary {
	summary := HealthSummary{
		Total: len(checks),
	}

	for _, check := range checks {
		switch check.Status {
		case HealthStatusHealthy:
			summary.Healthy++
		case HealthStatusUnhealthy:
			summary.Unhealthy++
		case HealthStatusDegraded:
			summary.Degraded++
		default:
			summary.Unknown++
		}

		if check.Critical {
			summary.Critical++
		}
	}

	return summary
}

func calculateOverallStatus(checks map[string]HealthCheck) HealthStatus {
	// If any critical check is unhealthy, overall status is unhealthy
	for _, check := range checks {
		if check.Critical && check.Status == HealthStatusUnhealthy {
			return HealthStatusUnhealthy
		}
	}

	for _, check := range checks {
		if check.Status == HealthStatusDegraded || check.Status == HealthStatusUnhealthy {
			return HealthStatusDegraded
		}
	}

	return HealthStatusHealthy
}

// HTTPHandler returns an HTTP handler for health checks
func (hm *HealthMonitor) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := hm.GetHealth(r.Context())

		w.Header().Set("Content-Type", "application/json")

		switch health.Status {
		case HealthStatusHealthy, HealthStatusDegraded:
			w.WriteHeader(http.StatusOK)
		case HealthStatusUnhealthy:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(health); err != nil {
			hm.logger.Error(r.Context(), err, "Failed to encode health response")
		}
	}
}

// OutputDirChecker reports whether the build output contains an index page.
func OutputDirChecker(dir string) HealthChecker {
	return NewHealthCheckFunc("output", true, func(ctx context.Context) HealthCheck {
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			return HealthCheck{
				Status:  HealthStatusUnhealthy,
				Message: fmt.Sprintf("no index page in %s", dir),
			}
		}
		return HealthCheck{
			Status:  HealthStatusHealthy,
			Message: "output directory is populated",
		}
	})
}

// BuildStatusChecker reports the outcome of the most recent build. last
// returns when it finished and its error, if any.
func BuildStatusChecker(last func() (time.Time, error)) HealthChecker {
	return NewHealthCheckFunc("build", false, func(ctx context.Context) HealthCheck {
		finished, err := last()
		switch {
		case finished.IsZero():
			return HealthCheck{
				Status:  HealthStatusUnknown,
				Message: "no build has finished yet",
			}
		case err != nil:
			return HealthCheck{
				Status:   HealthStatusDegraded,
				Message:  err.Error(),
				Metadata: map[string]interface{}{"finished": finished},
			}
		default:
			return HealthCheck{
				Status:   HealthStatusHealthy,
				Message:  "last build succeeded",
				Metadata: map[string]interface{}{"finished": finished},
			}
		}
	})
}
