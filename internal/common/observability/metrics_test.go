package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordRequest(t *testing.T) {
	reader := metric.NewManualReader()
	obs, err := newWithReader("test", reader)
	require.NoError(t, err)

	ctx := context.Background()
	obs.RecordRequest(ctx, "POST", "/activities/:name/signup", 200, 3*time.Millisecond)
	obs.RecordRequest(ctx, "POST", "/activities/:name/signup", 400, time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	counter, ok := byName["http.server.requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range counter.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)
	assert.Len(t, counter.DataPoints, 2, "one series per status")

	hist, ok := byName["http.server.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)

	require.NoError(t, obs.Shutdown(ctx))
}

func TestNop(t *testing.T) {
	obs := Nop()
	assert.NotPanics(t, func() {
		obs.RecordRequest(context.Background(), "GET", "/", 307, time.Millisecond)
	})
	assert.NoError(t, obs.Shutdown(context.Background()))
}
