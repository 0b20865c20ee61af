package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "investagent",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "Latency of LLM operations",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "model"},
	)

	LLMErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investagent",
			Subsystem: "llm",
			Name:      "errors_total",
			Help:      "Errors by LLM operation",
		},
		[]string{"operation", "model"},
	)

	LLMThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investagent",
			Subsystem: "llm",
			Name:      "throttled_total",
			Help:      "Invocations rejected by the local rate limiter",
		},
		[]string{"model"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(LLMLatency, LLMErrors, LLMThrottled)
	})
}
