package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftai_recommendations_total",
			Help: "Recommendations returned, by outcome (oracle or degraded)",
		},
		[]string{"outcome"},
	)

	AdapterFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftai_adapter_fallbacks_total",
			Help: "Times an adapter substituted its fallback data",
		},
		[]string{"adapter"},
	)

	OracleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "giftai_oracle_duration_seconds",
			Help:    "Selection oracle latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider", "status"},
	)

	ProfileCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftai_profile_cache_lookups_total",
			Help: "Profile cache lookups by result",
		},
		[]string{"result"},
	)

	UnresolvedProductIDs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "giftai_oracle_unresolved_ids_total",
			Help: "Product ids returned by the oracle that were not in the candidate set",
		},
	)
)

const (
	AdapterProfile = "profile"
	AdapterCatalog = "catalog"

	OutcomeOracle   = "oracle"
	OutcomeDegraded = "degraded"
)
