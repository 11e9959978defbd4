// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fuidsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fuid",
		Name:      "generated_total",
		Help:      "Generate calls by resulting fuid status (New, Existing)",
	}, []string{"status"})

	searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fuid",
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Resolved searches by the branch that produced the result",
	}, []string{"branch"})

	semanticFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fuid",
		Subsystem: "semantic",
		Name:      "fallbacks_total",
		Help:      "Unified searches served by the lexical fallback, by reason",
	}, []string{"reason"})

	semanticLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fuid",
		Subsystem: "semantic",
		Name:      "search_seconds",
		Help:      "Latency of hybrid semantic searches",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	httpRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fuid",
		Subsystem: "http",
		Name:      "request_seconds",
		Help:      "HTTP request latency by method, route and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	embeddingsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fuid",
		Subsystem: "semantic",
		Name:      "embedded_names_total",
		Help:      "Names embedded into the vector index",
	})
)

func ObserveGenerate(status string) { fuidsGenerated.WithLabelValues(status).Inc() }

func ObserveSearch(branch string) { searches.WithLabelValues(branch).Inc() }

func ObserveFallback(reason string) { semanticFallbacks.WithLabelValues(reason).Inc() }

func ObserveSemanticLatency(d time.Duration) { semanticLatency.Observe(d.Seconds()) }

func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func AddEmbedded(n int) { embeddingsBuilt.Add(float64(n)) }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
