package redis

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mailrecon/internal/infrastructure/metrics"
)

func TestInstrumentRecordsOperations(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	client, err := NewClient(ctx, fmt.Sprintf("redis://%s", s.Addr()), m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	_, err = client.Get(ctx, "missing").Result()
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisOperations.WithLabelValues("set")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisOperations.WithLabelValues("get")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RedisErrors.WithLabelValues("get")), "redis.Nil is not an error")

	s.SetError("ERR injected failure")
	require.Error(t, client.Set(ctx, "k", "v", 0).Err())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisErrors.WithLabelValues("set")))
}

func TestInstrumentNilMetrics(t *testing.T) {
	s := miniredis.RunT(t)
	client, err := NewClient(context.Background(), fmt.Sprintf("redis://%s", s.Addr()), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Ping(context.Background()).Err())
}
