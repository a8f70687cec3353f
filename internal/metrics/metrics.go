package metrics

import (
	"strconv"
	"sync"
	"time"

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

	// Plans counts planning runs by strategy and outcome
	Plans = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "loading_plans_total", Help: "Loading plan runs by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	// PackDuration tracks the in-memory packing phase in seconds
	PackDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "packing_duration_seconds", Help: "Packing computation duration in seconds.", Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5}},
		[]string{"strategy"},
	)
	// LoadsCommitted counts committed truck loads by profile
	LoadsCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "truck_loads_committed_total", Help: "Committed truck loads by profile."},
		[]string{"profile"},
	)
	// ForcedOvercapacity counts loads created through the single-item fallback
	ForcedOvercapacity = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "forced_overcapacity_loads_total", Help: "Loads forced past stated truck capacity."},
	)
	// CargoUnassigned counts cargo items left unassigned by plan runs
	CargoUnassigned = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "cargo_unassigned_total", Help: "Cargo items left unassigned by plan runs."},
	)
)

// ObserveHTTP records one served request on the counter and histogram.
func ObserveHTTP(method, path string, status int, dur time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequests.WithLabelValues(method, path, code).Inc()
	HTTPDuration.WithLabelValues(method, path, code).Observe(dur.Seconds())
}

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Plans)
		Registry.MustRegister(PackDuration)
		Registry.MustRegister(LoadsCommitted)
		Registry.MustRegister(ForcedOvercapacity)
		Registry.MustRegister(CargoUnassigned)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
