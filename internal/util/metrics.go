package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentsParsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_intents_parsed_total",
		Help: "Total number of chat commands parsed, by action",
	}, []string{"action"})

	IntentsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_intents_rejected_total",
		Help: "Total number of chat commands rejected before resolution",
	}, []string{"reason"})

	IntentParseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chat_intent_parse_latency_seconds",
		Help:    "Latency of language-model intent parsing",
		Buckets: prometheus.DefBuckets,
	})

	TransactionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_created_total",
		Help: "Total number of transactions created",
	})

	TransactionsPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_paid_total",
		Help: "Total number of transactions confirmed paid by the gateway",
	})

	TransactionsFulfilledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_fulfilled_total",
		Help: "Total number of transactions fulfilled upstream",
	})

	TransactionsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transactions_failed_total",
		Help: "Total number of failed transactions",
	}, []string{"reason"})

	FulfillmentFlaggedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_flagged_total",
		Help: "Total number of paid transactions flagged for manual review",
	})

	WebhookDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_webhook_duplicates_total",
		Help: "Total number of webhook deliveries that were no-ops",
	})

	CatalogSyncProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_sync_products",
		Help: "Number of products installed by the last catalog sync",
	})

	CatalogSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_failures_total",
		Help: "Total number of catalog sync cycles that fetched nothing",
	})

	UpstreamRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_latency_seconds",
		Help:    "Latency of reseller API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	PaymentGatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_latency_seconds",
		Help:    "Latency of payment gateway calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

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
