// Package scheduler triggers mailbox scans on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/provider"
)

// Scanner runs one scan.
type Scanner interface {
	TriggerScan(ctx context.Context, filter provider.Kind) (*domain.ScanResult, error)
}

// Scheduler runs Scanner.TriggerScan on a cron schedule. Runs that would
// overlap a still-running one are skipped by cron, and the scan use case
// skips runs that collide with an HTTP-triggered scan.
type Scheduler struct {
	schedule cron.Schedule
	spec     string
	scanner  Scanner
	logger   zerolog.Logger
	cron     *cron.Cron
}

// New parses spec (standard 5-field cron or a descriptor such as
// "@every 15m") and returns a Scheduler.
func New(spec string, scanner Scanner, logger zerolog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse scan schedule %q: %w", spec, err)
	}

	logger = logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger: logger}

	return &Scheduler{
		schedule: schedule,
		spec:     spec,
		scanner:  scanner,
		logger:   logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}, nil
}

// Start blocks until ctx is cancelled, then waits for a running scan to
// finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.runScan(ctx) }))
	s.cron.Start()
	s.logger.Info().Str("schedule", s.spec).Msg("scan scheduler started")

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info().Msg("scan scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runScan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := s.scanner.TriggerScan(s.logger.WithContext(ctx), provider.KindAll)
	switch {
	case errors.Is(err, domain.ErrTransportFailure):
		s.logger.Warn().Err(err).Msg("scheduled scan could not reach the mailbox")
	case err != nil:
		s.logger.Error().Err(err).Msg("scheduled scan failed")
	case result.Skipped:
		s.logger.Info().Msg("scheduled scan skipped, another scan is running")
	default:
		s.logger.Info().
			Int("processed", result.Processed).
			Int("new", result.New).
			Int("duplicate", result.Duplicate).
			Int("errors", result.Errors).
			Msg("scheduled scan finished")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
