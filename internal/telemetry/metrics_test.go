package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	ctx := context.Background()
	m.TokensIssuedTotal.Add(ctx, 1)
	m.TokenIssueErrorsTotal.Add(ctx, 1)
	m.TokenIssueDuration.Record(ctx, 1.5)
	m.CacheHitsTotal.Add(ctx, 2)
	m.CacheMissesTotal.Add(ctx, 1)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, meterName, rm.ScopeMetrics[0].Scope.Name)

	names := make([]string, 0, len(rm.ScopeMetrics[0].Metrics))
	for _, md := range rm.ScopeMetrics[0].Metrics {
		names = append(names, md.Name)
	}

	assert.ElementsMatch(t, []string{
		"providertoken.tokens.issued.total",
		"providertoken.tokens.issue.errors.total",
		"providertoken.tokens.issue.duration",
		"providertoken.cache.hits.total",
		"providertoken.cache.misses.total",
	}, names)
}

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	assert.Same(t, m, GetMetrics())
}
