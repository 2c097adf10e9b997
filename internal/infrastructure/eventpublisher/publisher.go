package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/infrastructure/metrics"
	"github.com/iho/mailrecon/internal/usecase"
)

// EventPublisher drains the transactional outbox.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	batchSize  int
	interval   time.Duration
	retention  time.Duration
	lastPurge  time.Time
	now        func() time.Time
}

// Publisher delivers one outbox event. An error leaves the event in the
// outbox for the next poll.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	Retention  time.Duration // How long published events are kept; 0 keeps them forever
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger.With().Str("component", "outbox").Logger(),
		metrics:    cfg.Metrics,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		now:        time.Now,
	}
}

// Start runs the publishing loop until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	ep.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			ep.tick(ctx)
		}
	}
}

func (ep *EventPublisher) tick(ctx context.Context) {
	if err := ep.processEvents(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("error processing events")
	}
	if err := ep.purgePublished(ctx); err != nil {
		ep.logger.Warn().Err(err).Msg("error purging published events")
	}
}

// processEvents fetches and publishes a batch of unpublished events.
func (ep *EventPublisher) processEvents(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing events")

	for _, event := range events {
		log := ep.logger.With().
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Str("aggregate_id", event.AggregateID).
			Logger()

		if err := ep.publisher.Publish(log.WithContext(ctx), event); err != nil {
			log.Error().Err(err).Msg("failed to publish event")
			ep.observe(event.EventType, "error")
			continue
		}
		ep.observe(event.EventType, "ok")

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now()); err != nil {
			log.Error().Err(err).Msg("failed to mark event as published")
		}
	}

	return nil
}

func (ep *EventPublisher) observe(eventType, result string) {
	if ep.metrics != nil {
		ep.metrics.OutboxDispatched.WithLabelValues(eventType, result).Inc()
	}
}

// purgePublished deletes published events older than the retention, at most
// once per hour.
func (ep *EventPublisher) purgePublished(ctx context.Context) error {
	if ep.retention <= 0 {
		return nil
	}
	now := ep.now()
	if !ep.lastPurge.IsZero() && now.Sub(ep.lastPurge) < time.Hour {
		return nil
	}
	ep.lastPurge = now
	return ep.outboxRepo.DeletePublished(ctx, now.Add(-ep.retention))
}

// LogPublisher logs events. It is the fallback for event types nothing
// in-process consumes.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
