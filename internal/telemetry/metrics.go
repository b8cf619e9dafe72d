package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/providertoken"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Issuance metrics
	TokensIssuedTotal     metric.Int64Counter
	TokenIssueErrorsTotal metric.Int64Counter
	TokenIssueDuration    metric.Float64Histogram

	// Cache metrics
	CacheHitsTotal   metric.Int64Counter
	CacheMissesTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance backed by the global
// meter provider, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = NewMetrics(otel.GetMeterProvider())
	})
	return metrics
}

// NewMetrics creates all metric instruments on the given meter provider
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(meterName)

	m := &Metrics{}

	m.TokensIssuedTotal, _ = meter.Int64Counter(
		"providertoken.tokens.issued.total",
		metric.WithDescription("Total number of provider tokens signed"),
		metric.WithUnit("{token}"),
	)

	m.TokenIssueErrorsTotal, _ = meter.Int64Counter(
		"providertoken.tokens.issue.errors.total",
		metric.WithDescription("Total number of failed token issuance attempts"),
		metric.WithUnit("{error}"),
	)

	m.TokenIssueDuration, _ = meter.Float64Histogram(
		"providertoken.tokens.issue.duration",
		metric.WithDescription("Duration of token issuance including retries"),
		metric.WithUnit("ms"),
	)

	m.CacheHitsTotal, _ = meter.Int64Counter(
		"providertoken.cache.hits.total",
		metric.WithDescription("Total number of token requests served from cache"),
		metric.WithUnit("{request}"),
	)

	m.CacheMissesTotal, _ = meter.Int64Counter(
		"providertoken.cache.misses.total",
		metric.WithDescription("Total number of token requests that required signing"),
		metric.WithUnit("{request}"),
	)

	return m
}
