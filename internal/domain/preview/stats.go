package preview

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// statsWindow bounds the per-phase duration samples kept for the
// aggregate view
const statsWindow = 256

// Stats accumulates build and load durations across rebuild cycles
type Stats struct {
	mu       sync.Mutex
	buildSec []float64
	loadSec  []float64
	builds   int
	timeouts int
}

// NewStats creates an empty stats accumulator
func NewStats() *Stats {
	return &Stats{}
}

// Record adds one completed rebuild cycle
func (s *Stats) Record(build, load time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds++
	s.buildSec = appendBounded(s.buildSec, build.Seconds())
	s.loadSec = appendBounded(s.loadSec, load.Seconds())
}

// Timeout counts one watchdog kill
func (s *Stats) Timeout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeouts++
}

func appendBounded(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > statsWindow {
		xs = xs[len(xs)-statsWindow:]
	}
	return xs
}

// PhaseSummary aggregates one pipeline phase's durations
type PhaseSummary struct {
	MeanMS   float64 `json:"mean_ms"`
	StddevMS float64 `json:"stddev_ms"`
	P50MS    float64 `json:"p50_ms"`
	P95MS    float64 `json:"p95_ms"`
	MaxMS    float64 `json:"max_ms"`
	Samples  int     `json:"samples"`
}

// Summary is the aggregate view served at /preview/stats
type Summary struct {
	Builds   int          `json:"builds"`
	Timeouts int          `json:"timeouts"`
	Build    PhaseSummary `json:"build"`
	Load     PhaseSummary `json:"load"`
}

// Summary computes the aggregate view over the retained samples
func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summary{
		Builds:   s.builds,
		Timeouts: s.timeouts,
		Build:    summarize(s.buildSec),
		Load:     summarize(s.loadSec),
	}
}

func summarize(samples []float64) PhaseSummary {
	if len(samples) == 0 {
		return PhaseSummary{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	out := PhaseSummary{
		MeanMS:  mean * 1000,
		P50MS:   stat.Quantile(0.5, stat.Empirical, sorted, nil) * 1000,
		P95MS:   stat.Quantile(0.95, stat.Empirical, sorted, nil) * 1000,
		MaxMS:   sorted[len(sorted)-1] * 1000,
		Samples: len(sorted),
	}
	// StdDev is NaN for a single sample
	if len(sorted) > 1 {
		out.StddevMS = std * 1000
	}
	return out
}
