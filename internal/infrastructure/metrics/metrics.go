package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Scan metrics
	ScansTotal      *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
	EmailsProcessed *prometheus.CounterVec

	// Classifier metrics
	MovementsCreated      *prometheus.CounterVec
	CommunicationsCreated *prometheus.CounterVec
	ExpensesDetected      prometheus.Counter

	// Reconciliation metrics
	CandidatesGenerated prometheus.Counter
	CandidatesResolved  *prometheus.CounterVec
	GenerateDuration    prometheus.Histogram

	// Posting metrics
	PostingsCreated *prometheus.CounterVec
	PostingAmount   prometheus.Histogram

	// Outbox metrics
	OutboxDispatched *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisDuration   *prometheus.HistogramVec
	RedisErrors     *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Scan metrics
		ScansTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_scans_total",
				Help: "Total mailbox scans by result",
			},
			[]string{"result"},
		),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailrecon_scan_duration_seconds",
			Help:    "Duration of mailbox scans",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		EmailsProcessed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_emails_processed_total",
				Help: "Total emails processed by outcome",
			},
			[]string{"outcome"},
		),

		// Classifier metrics
		MovementsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_movements_created_total",
				Help: "Total external movements recorded by direction",
			},
			[]string{"direction"},
		),
		CommunicationsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_communications_created_total",
				Help: "Total service communications recorded by alert type and status",
			},
			[]string{"alert_type", "status"},
		),
		ExpensesDetected: f.NewCounter(prometheus.CounterOpts{
			Name: "mailrecon_expenses_detected_total",
			Help: "Total expenses detected from service communications",
		}),

		// Reconciliation metrics
		CandidatesGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "mailrecon_candidates_generated_total",
			Help: "Total reconciliation candidates generated",
		}),
		CandidatesResolved: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_candidates_resolved_total",
				Help: "Total reconciliation candidates resolved by status",
			},
			[]string{"status"},
		),
		GenerateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailrecon_candidate_generation_duration_seconds",
			Help:    "Duration of candidate generation runs",
			Buckets: prometheus.DefBuckets,
		}),

		// Posting metrics
		PostingsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_postings_created_total",
				Help: "Total ledger postings created by type",
			},
			[]string{"type"},
		),
		PostingAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailrecon_posting_amount",
			Help:    "Ledger posting amounts",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}),

		// Outbox metrics
		OutboxDispatched: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_outbox_dispatched_total",
				Help: "Total outbox events dispatched by type and result",
			},
			[]string{"event_type", "result"},
		),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailrecon_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailrecon_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "mailrecon_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailrecon_redis_duration_seconds",
				Help:    "Redis operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedisErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrecon_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
