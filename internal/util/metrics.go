package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogLoadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_load_latency_seconds",
		Help:    "Latency of catalog loads",
		Buckets: prometheus.DefBuckets,
	})

	CatalogLoadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_load_failures_total",
		Help: "Total number of failed catalog loads",
	}, []string{"reason"})

	CatalogItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_items",
		Help: "Number of items in the loaded catalog",
	})

	CartItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_added_total",
		Help: "Total number of units added to carts",
	})

	CartItemsRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_removed_total",
		Help: "Total number of units removed from carts",
	})

	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of checkout attempts",
	}, []string{"result"})

	CheckoutAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_amount",
		Help:    "Cart totals at successful checkout",
		Buckets: prometheus.ExponentialBuckets(50, 2, 10),
	})

	ReceiptsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipts_processed_total",
		Help: "Total number of checkout receipts consumed by the receipt worker",
	})

	SessionLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_logins_total",
		Help: "Total number of login attempts",
	}, []string{"result"})

	SessionRegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_registrations_total",
		Help: "Total number of registration attempts",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_sessions",
		Help: "Number of browsing sessions held in memory",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
