package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/infrastructure/metrics"
	"github.com/iho/mailrecon/internal/provider"
)

// ScanGuard keeps scans single-flight. The in-process flag is checked first;
// the lease in ScanStateRepository extends the guarantee across replicas.
type ScanGuard struct {
	running atomic.Bool
	state   ScanStateRepository
	idGen   IDGenerator
	scope   string
	ttl     time.Duration
}

// NewScanGuard creates a guard for scope. state may be nil for a
// process-local guard.
func NewScanGuard(state ScanStateRepository, idGen IDGenerator, scope string, ttl time.Duration) *ScanGuard {
	if scope == "" {
		scope = DefaultScanScope
	}
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &ScanGuard{state: state, idGen: idGen, scope: scope, ttl: ttl}
}

// Acquire takes the guard. It returns ok=false without error when another
// scan holds it. release must be called exactly once when ok is true.
func (g *ScanGuard) Acquire(ctx context.Context) (release func(), ok bool, err error) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	if g.state == nil {
		return func() { g.running.Store(false) }, true, nil
	}

	token := g.idGen.Generate()
	acquired, err := g.state.AcquireLease(ctx, g.scope, token, time.Now().UTC().Add(g.ttl))
	if err != nil || !acquired {
		g.running.Store(false)
		if err != nil {
			return nil, false, fmt.Errorf("acquire scan lease: %w", err)
		}
		return nil, false, nil
	}

	stop, done := make(chan struct{}), make(chan struct{})
	go g.keepAlive(ctx, token, stop, done)

	release = func() {
		close(stop)
		<-done
		// the lease must be released even when the scan context was cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTransactionTimeout)
		defer cancel()
		if err := g.state.ReleaseLease(releaseCtx, g.scope, token); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("scope", g.scope).Msg("failed to release scan lease")
		}
		g.running.Store(false)
	}
	return release, true, nil
}

// keepAlive renews the lease every third of its TTL until stop is closed.
// A lost lease is logged and not renewed again.
func (g *ScanGuard) keepAlive(ctx context.Context, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	log := zerolog.Ctx(ctx)
	ctx = context.WithoutCancel(ctx)

	interval := g.ttl / 3
	if interval <= 0 {
		interval = g.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			renewCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
			held, err := g.state.RenewLease(renewCtx, g.scope, token, time.Now().UTC().Add(g.ttl))
			cancel()
			if err != nil {
				log.Warn().Err(err).Str("scope", g.scope).Msg("failed to renew scan lease")
				continue
			}
			if !held {
				log.Error().Str("scope", g.scope).Msg("scan lease lost to another holder")
				return
			}
		}
	}
}

// Running reports whether this process holds the guard.
func (g *ScanGuard) Running() bool {
	return g.running.Load()
}

// ScanConfig controls a scan run.
type ScanConfig struct {
	Scope         string
	LookbackDays  int
	AutoReconcile bool
}

// ScanUseCase fetches notification emails and routes each one through the
// parsers and the classifier.
type ScanUseCase struct {
	guard      *ScanGuard
	fetcher    MailFetcher
	parser     EmailParser
	classifier EventClassifier
	generator  CandidateGenerator
	state      ScanStateRepository
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	cfg        ScanConfig
}

// NewScanUseCase creates a new ScanUseCase. generator and state may be nil.
func NewScanUseCase(
	guard *ScanGuard,
	fetcher MailFetcher,
	parser EmailParser,
	classifier EventClassifier,
	generator CandidateGenerator,
	state ScanStateRepository,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
	cfg ScanConfig,
) *ScanUseCase {
	if cfg.Scope == "" {
		cfg.Scope = DefaultScanScope
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	return &ScanUseCase{
		guard:      guard,
		fetcher:    fetcher,
		parser:     parser,
		classifier: classifier,
		generator:  generator,
		state:      state,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// TriggerScan runs one scan over the emails received in the lookback window.
// A scan requested while another one runs returns a Skipped result. Failures
// of single emails are counted; only a mailbox failure aborts the run.
func (uc *ScanUseCase) TriggerScan(ctx context.Context, filter provider.Kind) (*domain.ScanResult, error) {
	if filter == "" {
		filter = provider.KindAll
	}
	log := uc.logger.With().Str("scope", uc.cfg.Scope).Str("filter", string(filter)).Logger()
	ctx = log.WithContext(ctx)

	result := &domain.ScanResult{StartedAt: time.Now().UTC(), NewMovementIDs: []string{}}

	release, ok, err := uc.guard.Acquire(ctx)
	if err != nil {
		uc.observeRun("error", result)
		return nil, err
	}
	if !ok {
		log.Info().Msg("scan already in progress, skipping")
		result.Skipped = true
		result.FinishedAt = time.Now().UTC()
		uc.observeRun("skipped", result)
		return result, nil
	}
	defer release()

	since := result.StartedAt.AddDate(0, 0, -uc.cfg.LookbackDays)
	emails, err := uc.fetcher.FetchSince(ctx, since, uc.parser.Senders(filter))
	if err != nil {
		log.Error().Err(err).Time("since", since).Msg("mailbox fetch failed")
		uc.observeRun("error", result)
		if !errors.Is(err, domain.ErrTransportFailure) {
			err = fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
		}
		return nil, err
	}

	log.Info().Int("emails", len(emails)).Time("since", since).Msg("scan started")

	for _, email := range emails {
		outcome, res := uc.processEmail(ctx, log, email, filter)
		result.Record(outcome)
		if outcome == domain.OutcomeNew && res.MovementID != "" {
			result.NewMovementIDs = append(result.NewMovementIDs, res.MovementID)
		}
		if uc.metrics != nil {
			uc.metrics.EmailsProcessed.WithLabelValues(string(outcome)).Inc()
		}
	}

	if uc.state != nil {
		if err := uc.state.SaveWatermark(ctx, uc.cfg.Scope, result.StartedAt); err != nil {
			log.Error().Err(err).Msg("failed to save scan watermark")
		}
	}

	if uc.cfg.AutoReconcile && uc.generator != nil {
		uc.reconcileNew(ctx, log, result.NewMovementIDs)
	}

	result.FinishedAt = time.Now().UTC()
	uc.observeRun("success", result)

	log.Info().
		Int("processed", result.Processed).
		Int("new", result.New).
		Int("duplicate", result.Duplicate).
		Int("errors", result.Errors).
		Dur("duration", result.FinishedAt.Sub(result.StartedAt)).
		Msg("scan finished")

	return result, nil
}

// processEmail parses and classifies one email. Errors and panics are logged
// and reported as OutcomeError.
func (uc *ScanUseCase) processEmail(ctx context.Context, log zerolog.Logger, email domain.Email, filter provider.Kind) (outcome domain.ScanOutcome, res ClassifyResult) {
	log = log.With().Str("message_id", email.MessageID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("panic while processing email")
			outcome, res = domain.OutcomeError, ClassifyResult{}
		}
	}()

	rec, err := uc.parser.Parse(email, filter)
	if err != nil {
		if errors.Is(err, domain.ErrUnrecognized) {
			log.Debug().Err(err).Str("subject", email.Subject).Msg("email not recognized")
		} else {
			log.Warn().Err(err).Msg("failed to parse email")
		}
		return domain.OutcomeError, ClassifyResult{}
	}

	res, err = uc.classifier.Classify(ctx, rec)
	if err != nil {
		log.Error().Err(err).Str("parser", rec.Parser).Msg("failed to classify email")
		return domain.OutcomeError, ClassifyResult{}
	}

	log.Debug().Str("parser", rec.Parser).Str("outcome", string(res.Outcome)).Msg("email processed")
	return res.Outcome, res
}

func (uc *ScanUseCase) reconcileNew(ctx context.Context, log zerolog.Logger, movementIDs []string) {
	for _, id := range movementIDs {
		gen, err := uc.generator.GenerateCandidates(ctx, GenerateCandidatesInput{MovementID: id})
		if err != nil {
			log.Warn().Err(err).Str("movement_id", id).Msg("candidate generation failed")
			continue
		}
		log.Debug().Str("movement_id", id).Int("candidates", gen.TotalCandidates).Msg("candidates generated")
	}
}

// State returns the persisted watermark and lease of the configured scope.
func (uc *ScanUseCase) State(ctx context.Context) (*domain.ScanState, error) {
	if uc.state == nil {
		return &domain.ScanState{Scope: uc.cfg.Scope}, nil
	}
	return uc.state.Get(ctx, uc.cfg.Scope)
}

// Running reports whether a scan is in flight in this process.
func (uc *ScanUseCase) Running() bool {
	return uc.guard.Running()
}

func (uc *ScanUseCase) observeRun(status string, result *domain.ScanResult) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ScansTotal.WithLabelValues(status).Inc()
	if status == "success" {
		uc.metrics.ScanDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	}
}
