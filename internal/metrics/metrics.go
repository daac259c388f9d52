package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Run metrics. Label values are kept to small fixed sets.
var (
	// ImageDownloadsTotal counts download task outcomes by status ("ok", "skip", "fail").
	ImageDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_downloads_total",
			Help: "Total number of image download tasks by outcome.",
		},
		[]string{"status"},
	)

	// CatalogPagesTotal counts catalog pages fetched by resource ("cards", "sets").
	CatalogPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_pages_total",
			Help: "Total number of catalog pages fetched.",
		},
		[]string{"resource"},
	)

	// RequestRetriesTotal counts scheduled HTTP retries by operation ("catalog", "image").
	RequestRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_retries_total",
			Help: "Total number of HTTP request retries.",
		},
		[]string{"operation"},
	)

	// SetEnumerationFailuresTotal counts sets skipped because enumeration failed.
	SetEnumerationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "set_enumeration_failures_total",
			Help: "Total number of sets abandoned after an enumeration error.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ImageDownloadsTotal,
		CatalogPagesTotal,
		RequestRetriesTotal,
		SetEnumerationFailuresTotal,
	)
}
