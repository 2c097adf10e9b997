package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/infrastructure/metrics"
)

// ReconciliationConfig holds the matcher defaults. Zero values fall back to
// the package defaults.
type ReconciliationConfig struct {
	ToleranceDays  int
	MaxPerMovement int
	CandidatePool  int
}

func (c ReconciliationConfig) withDefaults() ReconciliationConfig {
	c.ToleranceDays = domain.ClampInt(c.ToleranceDays, DefaultToleranceDays, MaxToleranceDays)
	c.MaxPerMovement = domain.ClampInt(c.MaxPerMovement, DefaultMaxPerMovement, MaxCandidatesPerMovement)
	c.CandidatePool = domain.ClampInt(c.CandidatePool, DefaultCandidatePool, domain.MaxPageSize)
	return c
}

// ReconciliationUseCase proposes and resolves movement/transaction pairings.
type ReconciliationUseCase struct {
	txManager       TransactionManager
	movementRepo    MovementRepository
	candidateRepo   CandidateRepository
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	retrier         Retrier
	idGen           IDGenerator
	metrics         *metrics.Metrics
	cfg             ReconciliationConfig
}

// NewReconciliationUseCase creates a new ReconciliationUseCase. retrier may be nil.
func NewReconciliationUseCase(
	txManager TransactionManager,
	movementRepo MovementRepository,
	candidateRepo CandidateRepository,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	cfg ReconciliationConfig,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:       txManager,
		movementRepo:    movementRepo,
		candidateRepo:   candidateRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		retrier:         retrier,
		idGen:           idGen,
		metrics:         metrics,
		cfg:             cfg.withDefaults(),
	}
}

// GenerateCandidatesInput selects the movements to match. An empty
// MovementID processes the oldest unreconciled movements.
type GenerateCandidatesInput struct {
	MovementID     string
	ToleranceDays  int
	MaxPerMovement int
}

// GenerateCandidatesResult summarizes one generation run. Errors counts the
// movements of the batch that failed and were skipped.
type GenerateCandidatesResult struct {
	ProcessedMovements int
	TotalCandidates    int
	Errors             int
	Candidates         []*domain.ReconciliationCandidate
}

// GenerateCandidates pairs unreconciled movements with unreconciled internal
// transactions of the compatible direction and the exact amount, dated within
// the tolerance window. Pairs that already have a candidate are skipped, so
// re-running is idempotent. In a batch run a movement that fails is logged
// and counted, and the run continues with the next one.
func (uc *ReconciliationUseCase) GenerateCandidates(ctx context.Context, input GenerateCandidatesInput) (*GenerateCandidatesResult, error) {
	start := time.Now()
	defer func() {
		if uc.metrics != nil {
			uc.metrics.GenerateDuration.Observe(time.Since(start).Seconds())
		}
	}()

	tolerance := domain.ClampInt(input.ToleranceDays, uc.cfg.ToleranceDays, MaxToleranceDays)
	perMovement := domain.ClampInt(input.MaxPerMovement, uc.cfg.MaxPerMovement, MaxCandidatesPerMovement)

	movements, err := uc.movementsToMatch(ctx, input.MovementID)
	if err != nil {
		return nil, err
	}

	result := &GenerateCandidatesResult{Candidates: []*domain.ReconciliationCandidate{}}
	for _, movement := range movements {
		created, err := uc.matchMovement(ctx, movement, tolerance, perMovement)
		if err != nil {
			if input.MovementID != "" {
				return nil, fmt.Errorf("match movement %s: %w", movement.ID, err)
			}
			zerolog.Ctx(ctx).Error().Err(err).Str("movement_id", movement.ID).Msg("candidate generation failed for movement")
			result.Errors++
			continue
		}
		result.ProcessedMovements++
		result.TotalCandidates += len(created)
		result.Candidates = append(result.Candidates, created...)
	}

	if uc.metrics != nil {
		uc.metrics.CandidatesGenerated.Add(float64(result.TotalCandidates))
	}

	return result, nil
}

func (uc *ReconciliationUseCase) movementsToMatch(ctx context.Context, movementID string) ([]*domain.ExternalMovement, error) {
	if movementID == "" {
		return uc.movementRepo.ListUnreconciled(ctx, MaxMovementsPerRun)
	}

	movement, err := uc.movementRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if movement.Reconciled {
		return nil, domain.ErrMovementAlreadyReconciled
	}
	return []*domain.ExternalMovement{movement}, nil
}

func (uc *ReconciliationUseCase) matchMovement(ctx context.Context, movement *domain.ExternalMovement, tolerance, perMovement int) ([]*domain.ReconciliationCandidate, error) {
	direction, err := movement.Direction.TransactionDirection()
	if err != nil {
		return nil, err
	}

	day := domain.CalendarDate(movement.OperationDate)
	transactions, err := uc.transactionRepo.FindUnreconciled(ctx, domain.TransactionFilter{
		Direction: direction,
		Amount:    movement.Amount,
		DateFrom:  day.AddDate(0, 0, -tolerance),
		DateTo:    day.AddDate(0, 0, tolerance),
		Limit:     uc.cfg.CandidatePool,
	})
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return nil, nil
	}

	paired, err := uc.candidateRepo.PairedTransactionIDs(ctx, movement.ID)
	if err != nil {
		return nil, err
	}

	// Amount and date hold by construction of the query.
	score, reasons := domain.MatchFlags{Amount: true, Date: true}.Score()

	created := make([]*domain.ReconciliationCandidate, 0, perMovement)
	for _, txn := range transactions {
		if len(created) >= perMovement {
			break
		}
		if _, ok := paired[txn.ID]; ok {
			continue
		}

		candidate := &domain.ReconciliationCandidate{
			ID:            uc.idGen.Generate(),
			MovementID:    movement.ID,
			TransactionID: txn.ID,
			Score:         score,
			Reasons:       reasons,
			Status:        domain.CandidatePending,
			CreatedAt:     time.Now().UTC(),
		}

		inserted, err := uc.candidateRepo.Create(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if inserted {
			created = append(created, candidate)
		}
	}

	return created, nil
}

// UpdateCandidateStatusInput resolves a pending candidate.
type UpdateCandidateStatusInput struct {
	CandidateID string
	Status      domain.CandidateStatus
	Notes       string
}

// UpdateCandidateStatus confirms or rejects a pending candidate. Confirming
// reconciles the movement and the internal transaction and rejects the other
// pending candidates of the movement in the same transaction.
func (uc *ReconciliationUseCase) UpdateCandidateStatus(ctx context.Context, input UpdateCandidateStatusInput) (*domain.ReconciliationCandidate, error) {
	switch input.Status {
	case domain.CandidateConfirmed, domain.CandidateRejected:
	case domain.CandidatePending:
		return nil, domain.NewValidationError("status", "cannot move a candidate back to PENDING", domain.ErrInvalidStatusTransition)
	default:
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", input.Status), domain.ErrInvalidStatusTransition)
	}

	var candidate *domain.ReconciliationCandidate
	operation := func() error {
		var err error
		candidate, err = uc.resolveCandidate(ctx, input)
		return err
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, operation)
	} else {
		err = operation()
	}
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CandidatesResolved.WithLabelValues(string(candidate.Status)).Inc()
	}

	return candidate, nil
}

func (uc *ReconciliationUseCase) resolveCandidate(ctx context.Context, input UpdateCandidateStatusInput) (*domain.ReconciliationCandidate, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	candidate, err := uc.candidateRepo.GetByIDForUpdate(txCtx, tx, input.CandidateID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := candidate.Resolve(input.Status, input.Notes, now); err != nil {
		return nil, err
	}

	if candidate.Status == domain.CandidateConfirmed {
		if err := uc.confirm(txCtx, tx, candidate, now); err != nil {
			return nil, err
		}
	}

	if err := uc.candidateRepo.UpdateStatus(txCtx, tx, candidate); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return candidate, nil
}

func (uc *ReconciliationUseCase) confirm(ctx context.Context, tx Transaction, candidate *domain.ReconciliationCandidate, now time.Time) error {
	movement, err := uc.movementRepo.GetByIDForUpdate(ctx, tx, candidate.MovementID)
	if err != nil {
		return err
	}
	if movement.Reconciled {
		return domain.ErrMovementAlreadyReconciled
	}

	txn, err := uc.transactionRepo.GetByIDForUpdate(ctx, tx, candidate.TransactionID)
	if err != nil {
		return err
	}
	if txn.Reconciled {
		return domain.NewValidationError("transaction_id",
			fmt.Sprintf("transaction %s is already reconciled", txn.ID), domain.ErrInvalidStatusTransition)
	}

	if err := uc.movementRepo.MarkReconciled(ctx, tx, movement.ID, txn.ID, now); err != nil {
		return err
	}
	if err := uc.transactionRepo.MarkReconciled(ctx, tx, txn.ID, now); err != nil {
		return err
	}

	rejected, err := uc.candidateRepo.RejectPendingSiblings(ctx, tx, movement.ID, candidate.ID,
		fmt.Sprintf("superseded by candidate %s", candidate.ID), now)
	if err != nil {
		return err
	}
	if rejected > 0 && uc.metrics != nil {
		uc.metrics.CandidatesResolved.WithLabelValues(string(domain.CandidateRejected)).Add(float64(rejected))
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   candidate.ID,
		AggregateType: domain.AggregateTypeCandidate,
		EventType:     domain.EventTypeCandidateConfirmed,
		Payload: map[string]any{
			"candidate_id":      candidate.ID,
			"movement_id":       movement.ID,
			"transaction_id":    txn.ID,
			"rejected_siblings": rejected,
		},
		CreatedAt: now,
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}

// GetCandidate returns a candidate by id.
func (uc *ReconciliationUseCase) GetCandidate(ctx context.Context, id string) (*domain.ReconciliationCandidate, error) {
	return uc.candidateRepo.GetByID(ctx, id)
}

// ListCandidates lists candidates by movement and status.
func (uc *ReconciliationUseCase) ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]*domain.ReconciliationCandidate, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.candidateRepo.List(ctx, filter)
}

// GetMovement returns a movement by id.
func (uc *ReconciliationUseCase) GetMovement(ctx context.Context, id string) (*domain.ExternalMovement, error) {
	return uc.movementRepo.GetByID(ctx, id)
}

// ListMovements lists movements, optionally filtered by the reconciled flag.
func (uc *ReconciliationUseCase) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]*domain.ExternalMovement, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.movementRepo.List(ctx, filter)
}
