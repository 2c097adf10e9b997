package redis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/mailrecon/internal/infrastructure/metrics"
)

// MetricsHook records command counts, latency and failures.
type MetricsHook struct {
	metrics *metrics.Metrics
}

// Instrument attaches a MetricsHook to client. A nil m is a no-op.
func Instrument(client *redis.Client, m *metrics.Metrics) {
	if m == nil {
		return
	}
	client.AddHook(&MetricsHook{metrics: m})
}

func (h *MetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.metrics.RedisErrors.WithLabelValues("dial").Inc()
		}
		return conn, err
	}
}

func (h *MetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(cmd.Name(), time.Since(start), err)
		return err
	}
}

func (h *MetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe("pipeline", time.Since(start), err)
		return err
	}
}

func (h *MetricsHook) observe(op string, d time.Duration, err error) {
	h.metrics.RedisOperations.WithLabelValues(op).Inc()
	h.metrics.RedisDuration.WithLabelValues(op).Observe(d.Seconds())
	// a cache miss is not a failure
	if err != nil && !errors.Is(err, redis.Nil) {
		h.metrics.RedisErrors.WithLabelValues(op).Inc()
	}
}
