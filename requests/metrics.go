package requests

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduzap_requests_cache_lookups_total",
			Help: "Page cache lookups by key family and result.",
		},
		[]string{"family", "result"},
	)

	cacheInvalidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eduzap_requests_cache_invalidated_keys_total",
			Help: "Cache keys removed by mutation sweeps.",
		},
	)

	searchRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eduzap_requests_search_rejected_total",
			Help: "Search calls rejected by the per-origin debounce.",
		},
	)

	mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduzap_requests_mutations_total",
			Help: "Successful create and delete operations.",
		},
		[]string{"op"},
	)
)

// familyLabel trims the trailing separator for metric labels.
func familyLabel(family string) string {
	return family[:len(family)-1]
}
