package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/mailrecon/internal/infrastructure/metrics"
)

const pingTimeout = 3 * time.Second

// NewClient connects to redisURL, verifies the connection and, when m is
// set, records every command in the redis metrics.
func NewClient(ctx context.Context, redisURL string, m *metrics.Metrics) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis %s: %w", opts.Addr, err)
	}

	Instrument(client, m)
	return client, nil
}
