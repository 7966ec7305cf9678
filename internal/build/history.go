package build

import (
	"sync"
	"time"
)

// DefaultHistorySize is how many recent builds a History keeps.
const DefaultHistorySize = 20

// Outcome is the record of one finished build.
type Outcome struct {
	BuildID  string
	Finished time.Time
	Duration time.Duration
	Pages    int
	Broken   int
	Err      error
}

// Succeeded reports whether the build produced a usable site.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// OutcomeOf summarises result and err, as returned by Generator.Build.
func OutcomeOf(result *Result, err error, finished time.Time, duration time.Duration) Outcome {
	o := Outcome{Finished: finished, Duration: duration, Err: err}
	if result != nil {
		o.BuildID = result.Manifest.BuildID
		o.Pages = len(result.Manifest.Pages)
		o.Broken = result.Manifest.BrokenLinks
	}
	return o
}

// Stats aggregates every build a History has seen.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	Average   time.Duration
}

// SuccessRate is the share of successful builds as a percentage.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// History tracks the builds run by one process, typically the development
// server rebuilding on change. It is safe for concurrent use.
type History struct {
	mutex  sync.RWMutex
	size   int
	recent []Outcome
	stats  Stats
	total  time.Duration
}

// NewHistory keeps the last size outcomes; size <= 0 selects
// DefaultHistorySize.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

// Record adds one finished build.
func (h *History) Record(o Outcome) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.recent = append(h.recent, o)
	if len(h.recent) > h.size {
		h.recent = h.recent[len(h.recent)-h.size:]
	}

	h.stats.Total++
	if o.Succeeded() {
		h.stats.Succeeded++
	} else {
		h.stats.Failed++
	}
	h.total += o.Duration
	h.stats.Average = h.total / time.Duration(h.stats.Total)
}

// Last returns when the most recent build finished and its error. The time
// is zero before the first build.
func (h *History) Last() (time.Time, error) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if len(h.recent) == 0 {
		return time.Time{}, nil
	}
	last := h.recent[len(h.recent)-1]
	return last.Finished, last.Err
}

// Recent returns the kept outcomes, oldest first.
func (h *History) Recent() []Outcome {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return append([]Outcome(nil), h.recent...)
}

// Stats returns the totals over every recorded build.
func (h *History) Stats() Stats {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.stats
}
