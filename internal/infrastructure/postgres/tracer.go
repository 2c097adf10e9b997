package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mailrecon/internal/infrastructure/metrics"
)

type queryStartKey struct{}

type queryStart struct {
	at        time.Time
	operation string
	table     string
}

// QueryTracer is a pgx.QueryTracer that feeds the database metrics.
type QueryTracer struct {
	metrics *metrics.Metrics
}

// NewQueryTracer creates a QueryTracer.
func NewQueryTracer(m *metrics.Metrics) *QueryTracer {
	return &QueryTracer{metrics: m}
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	op, table := classifySQL(data.SQL)
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: time.Now(), operation: op, table: table})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	t.metrics.DBQueries.WithLabelValues(start.operation, start.table).Inc()
	t.metrics.DBDuration.WithLabelValues(start.operation, start.table).Observe(time.Since(start.at).Seconds())
	if data.Err != nil {
		t.metrics.DBErrors.WithLabelValues(start.operation).Inc()
	}
}

// classifySQL returns the statement verb and the first table it touches.
func classifySQL(sql string) (operation, table string) {
	fields := strings.Fields(strings.ToLower(sql))
	if len(fields) == 0 {
		return "unknown", "unknown"
	}
	operation = fields[0]
	table = "unknown"

	var marker string
	switch operation {
	case "select", "delete":
		marker = "from"
	case "insert":
		marker = "into"
	case "update":
		if len(fields) > 1 {
			table = strings.Trim(fields[1], `"(`)
		}
		return operation, table
	default:
		return operation, table
	}

	for i := 1; i < len(fields)-1; i++ {
		if fields[i] == marker {
			table = strings.Trim(fields[i+1], `"(`)
			break
		}
	}
	return operation, table
}

// ReportPoolStats samples the pool size into the connections gauge until ctx
// is done.
func ReportPoolStats(ctx context.Context, pool *pgxpool.Pool, m *metrics.Metrics, interval time.Duration) {
	if m == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.DBConnections.Set(float64(pool.Stat().TotalConns()))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
