package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ReportLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gridpulse",
			Subsystem: "report",
			Name:      "latency_seconds",
			Help:      "Latency of report endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ReportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gridpulse",
			Subsystem: "report",
			Name:      "errors_total",
			Help:      "Errors by report endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ReportLatency, ReportErrors)
	})
}
