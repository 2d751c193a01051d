package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Solves counts finished solves by outcome
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solves_total", Help: "Solve runs by final status."},
		[]string{"status"},
	)
	// Generations counts evolved generations across all solves
	Generations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solver_generations_total", Help: "Generations evolved across all solves."},
	)
	// BestFitness tracks the best fitness of the most recently completed solve
	BestFitness = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "solver_best_fitness", Help: "Best fitness of the most recently completed solve."},
	)
	// SolveDuration records end-to-end solve durations in seconds
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900}},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Solves)
		Registry.MustRegister(Generations)
		Registry.MustRegister(BestFitness)
		Registry.MustRegister(SolveDuration)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
