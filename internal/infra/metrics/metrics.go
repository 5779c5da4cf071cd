package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Lookup outcomes used as the "outcome" label.
const (
	OutcomeFound      = "found"
	OutcomeNotFound   = "not_found"
	OutcomeBadRequest = "bad_request"
)

var (
	SecretLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "secret_lookups_total", Help: "Secret lookups by outcome"},
		[]string{"outcome"},
	)
	SecretLookupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "secret_lookup_duration_seconds",
		Help:    "Time spent serving a secret lookup, including the store read",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})
	StoreLoadErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "store_load_errors_total", Help: "Store reads that fell back to an empty mapping, by reason"},
		[]string{"reason"},
	)
	StoreSeededTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "store_seeded_total", Help: "Times the store file was created with sample secrets"})
	StoreEntries     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "store_entries", Help: "Number of aliases seen on the most recent store read"})
)

// Init registers the service collectors on a fresh registry.
func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		SecretLookupsTotal, SecretLookupDuration,
		StoreLoadErrorsTotal, StoreSeededTotal, StoreEntries,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Debug().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
