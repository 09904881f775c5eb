package bench

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zoobzio/carbon"
)

// Sentinel errors for programmatic error handling.
var (
	// ErrUnknownScenario indicates a scenario name with no built-in scenario.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrInvalidIterations indicates a non-positive iteration count.
	ErrInvalidIterations = errors.New("iterations must be positive")
)

const durationMetric = "carbon_copy_duration_seconds"

// Result summarises the runs of one scenario.
type Result struct {
	Scenario string
	Count    uint64
	Total    time.Duration
	Mean     time.Duration
}

// Runner times scenarios and records each run in a Prometheus histogram.
type Runner struct {
	copier   *carbon.Copier
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
}

// NewRunner creates a runner with its own metrics registry.
// A nil copier selects one with signals disabled.
func NewRunner(c *carbon.Copier) (*Runner, error) {
	if c == nil {
		c = carbon.New(carbon.WithSignals(false))
	}
	r := &Runner{
		copier:   c,
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    durationMetric,
				Help:    "Duration of individual copy operations in seconds.",
				Buckets: prometheus.ExponentialBuckets(1e-7, 4, 12),
			},
			[]string{"scenario"},
		),
	}
	if err := r.registry.Register(r.duration); err != nil {
		return nil, fmt.Errorf("failed to register duration histogram: %w", err)
	}
	return r, nil
}

// Registry returns the runner's metrics registry.
func (r *Runner) Registry() *prometheus.Registry {
	return r.registry
}

// Run copies the scenario's graph n times, timing each copy.
// The graph is built once; building is not timed.
func (r *Runner) Run(s Scenario, n int) error {
	if n <= 0 {
		return ErrInvalidIterations
	}
	v := s.Build()
	obs := r.duration.WithLabelValues(s.Name)
	for i := 0; i < n; i++ {
		start := time.Now()
		if err := s.Run(r.copier, v); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		obs.Observe(time.Since(start).Seconds())
	}
	return nil
}

// Results reads the recorded runs back from the registry, sorted by scenario.
func (r *Runner) Results() ([]Result, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var results []Result
	for _, mf := range families {
		if mf.GetName() != durationMetric {
			continue
		}
		for _, m := range mf.GetMetric() {
			res := Result{}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "scenario" {
					res.Scenario = lp.GetValue()
				}
			}
			h := m.GetHistogram()
			res.Count = h.GetSampleCount()
			res.Total = time.Duration(h.GetSampleSum() * float64(time.Second))
			if res.Count > 0 {
				res.Mean = res.Total / time.Duration(res.Count)
			}
			results = append(results, res)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Scenario < results[j].Scenario
	})
	return results, nil
}
