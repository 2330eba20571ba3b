// Package metrics exposes Prometheus instrumentation for the rule-application
// layer. A process-wide registry is created lazily via Get().
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all rule-application metrics.
type Registry struct {
	// OperationsTotal counts capability-interface calls by backend and operation.
	OperationsTotal *prometheus.CounterVec

	// CommitsTotal counts commit outcomes by backend and result ("success"/"failure").
	CommitsTotal *prometheus.CounterVec

	// CommitDuration observes the wall time of commit calls in seconds.
	CommitDuration prometheus.Histogram

	// StagedDirectives tracks the number of directive lines pending in the
	// staging backend. Reset to zero on every commit.
	StagedDirectives prometheus.Gauge

	// UnsupportedCalls counts calls rejected as unsupported, by operation.
	UnsupportedCalls *prometheus.CounterVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dockwall",
		Subsystem: "iptables",
		Name:      "operations_total",
		Help:      "Firewall capability operations issued, by backend and operation.",
	}, []string{"backend", "op"})

	r.CommitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dockwall",
		Subsystem: "iptables",
		Name:      "commits_total",
		Help:      "Commit attempts by backend and result.",
	}, []string{"backend", "result"})

	r.CommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dockwall",
		Subsystem: "iptables",
		Name:      "commit_duration_seconds",
		Help:      "Wall time spent in commit, including the external process.",
		Buckets:   prometheus.DefBuckets,
	})

	r.StagedDirectives = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dockwall",
		Subsystem: "iptables",
		Name:      "staged_directives",
		Help:      "Directive lines currently staged for the next commit.",
	})

	r.UnsupportedCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dockwall",
		Subsystem: "iptables",
		Name:      "unsupported_calls_total",
		Help:      "Calls rejected because the backend does not support them.",
	}, []string{"op"})

	return r
}
