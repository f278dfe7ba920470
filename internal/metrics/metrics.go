// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the collectors.  A fresh registry per instance keeps tests
// independent of the global default registry.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	ListingsTotal  *prometheus.CounterVec // by event: created, deleted, approved, ...
	QuotaDenied    *prometheus.CounterVec // by action: create, mutate
	ImageCleanup   *prometheus.CounterVec // by result: ok, failed, skipped
	ImagesUploaded prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ListingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_events_total",
			Help: "Listing lifecycle events.",
		}, []string{"event"}),
		QuotaDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quota_denied_total",
			Help: "Requests refused by the publication quota.",
		}, []string{"action"}),
		ImageCleanup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listing_image_cleanup_total",
			Help: "Image removals attempted when listings are deleted.",
		}, []string{"result"}),
		ImagesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listing_images_uploaded_total",
			Help: "Images uploaded to object storage.",
		}),
	}
	m.Registry.MustRegister(
		m.HTTPRequests, m.HTTPDuration, m.ListingsTotal, m.QuotaDenied, m.ImageCleanup, m.ImagesUploaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
