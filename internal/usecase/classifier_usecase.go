package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/infrastructure/metrics"
	"github.com/iho/mailrecon/internal/provider"
)

// ClassifyResult reports what happened to one parsed record.
type ClassifyResult struct {
	Outcome         domain.ScanOutcome
	MovementID      string
	CommunicationID string
	ExpenseID       string
}

// ClassifierUseCase deduplicates parsed records and persists them with their
// outbox events.
type ClassifierUseCase struct {
	txManager    TransactionManager
	movementRepo MovementRepository
	commRepo     CommunicationRepository
	expenseRepo  ExpenseRepository
	outboxRepo   OutboxRepository
	properties   PropertyLookup
	agents       AgentLookup
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewClassifierUseCase creates a new ClassifierUseCase.
func NewClassifierUseCase(
	txManager TransactionManager,
	movementRepo MovementRepository,
	commRepo CommunicationRepository,
	expenseRepo ExpenseRepository,
	outboxRepo OutboxRepository,
	properties PropertyLookup,
	agents AgentLookup,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *ClassifierUseCase {
	return &ClassifierUseCase{
		txManager:    txManager,
		movementRepo: movementRepo,
		commRepo:     commRepo,
		expenseRepo:  expenseRepo,
		outboxRepo:   outboxRepo,
		properties:   properties,
		agents:       agents,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// Classify persists the record unless it was seen before.
func (uc *ClassifierUseCase) Classify(ctx context.Context, rec provider.Record) (ClassifyResult, error) {
	switch {
	case rec.Movement != nil:
		return uc.RecordMovement(ctx, rec.Movement)
	case rec.Communication != nil:
		return uc.RecordCommunication(ctx, rec.Communication)
	default:
		return ClassifyResult{}, domain.ErrUnrecognized
	}
}

// RecordMovement stores a bank movement. A movement already stored under the
// same external id or source email is reported as a duplicate.
func (uc *ClassifierUseCase) RecordMovement(ctx context.Context, movement *domain.ExternalMovement) (ClassifyResult, error) {
	if err := movement.Validate(); err != nil {
		return ClassifyResult{}, err
	}

	exists, err := uc.movementRepo.Exists(ctx, movement.ExternalID, movement.SourceEmailID)
	if err != nil {
		return ClassifyResult{}, fmt.Errorf("check movement %s: %w", movement.ExternalID, err)
	}
	if exists {
		return ClassifyResult{Outcome: domain.OutcomeDuplicate}, nil
	}

	now := time.Now().UTC()
	movement.ID = uc.idGen.Generate()
	movement.Reconciled = false
	movement.TransactionID = nil
	movement.CreatedAt = now
	movement.UpdatedAt = now

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return ClassifyResult{}, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.movementRepo.Create(txCtx, tx, movement); err != nil {
		if errors.Is(err, domain.ErrDuplicateEvent) {
			return ClassifyResult{Outcome: domain.OutcomeDuplicate}, nil
		}
		return ClassifyResult{}, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   movement.ID,
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypeMovementCreated,
		Payload: map[string]any{
			"movement_id": movement.ID,
			"external_id": movement.ExternalID,
			"direction":   string(movement.Direction),
			"amount":      movement.Amount.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return ClassifyResult{}, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return ClassifyResult{}, err
	}

	if uc.metrics != nil {
		uc.metrics.MovementsCreated.WithLabelValues(string(movement.Direction)).Inc()
	}

	return ClassifyResult{Outcome: domain.OutcomeNew, MovementID: movement.ID}, nil
}

// RecordCommunication stores a utility communication, resolving the
// properties it bills and, for invoices and debt notices with an amount and a
// single property, the expense it implies.
func (uc *ClassifierUseCase) RecordCommunication(ctx context.Context, comm *domain.ServiceCommunication) (ClassifyResult, error) {
	if comm.MessageID == "" {
		return ClassifyResult{}, domain.NewValidationError("message_id", "is required", nil)
	}

	comm.ServiceID = domain.NormalizeDigits(comm.ServiceID)
	comm.ProviderFiscalID = domain.NormalizeDigits(comm.ProviderFiscalID)
	if comm.ServiceID == "" {
		return ClassifyResult{}, domain.NewValidationError("service_id", "is required", nil)
	}

	exists, err := uc.commRepo.ExistsByMessageID(ctx, comm.MessageID)
	if err != nil {
		return ClassifyResult{}, fmt.Errorf("check communication %s: %w", comm.MessageID, err)
	}
	if exists {
		return ClassifyResult{Outcome: domain.OutcomeDuplicate}, nil
	}

	now := time.Now().UTC()
	comm.ID = uc.idGen.Generate()
	comm.Status = domain.CommunicationUnprocessed
	comm.CreatedAt = now
	comm.UpdatedAt = now

	expense, err := uc.resolveCommunication(ctx, comm, now)
	if err != nil {
		return ClassifyResult{}, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return ClassifyResult{}, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.commRepo.Create(txCtx, tx, comm); err != nil {
		if errors.Is(err, domain.ErrDuplicateEvent) {
			return ClassifyResult{Outcome: domain.OutcomeDuplicate}, nil
		}
		return ClassifyResult{}, err
	}

	events := []*domain.OutboxEvent{{
		ID:            uc.idGen.Generate(),
		AggregateID:   comm.ID,
		AggregateType: domain.AggregateTypeCommunication,
		EventType:     domain.EventTypeCommunicationCreated,
		Payload: map[string]any{
			"communication_id": comm.ID,
			"alert_type":       string(comm.AlertType),
			"status":           string(comm.Status),
			"service_id":       comm.ServiceID,
		},
		CreatedAt: now,
	}}

	if expense != nil {
		if err := uc.expenseRepo.Create(txCtx, tx, expense); err != nil {
			return ClassifyResult{}, err
		}
		events = append(events, expenseDetectedEvent(uc.idGen.Generate(), expense, now))
	}

	for _, event := range events {
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return ClassifyResult{}, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return ClassifyResult{}, err
	}

	result := ClassifyResult{Outcome: domain.OutcomeNew, CommunicationID: comm.ID}
	if uc.metrics != nil {
		uc.metrics.CommunicationsCreated.WithLabelValues(string(comm.AlertType), string(comm.Status)).Inc()
	}
	if expense != nil {
		result.ExpenseID = expense.ID
		if uc.metrics != nil {
			uc.metrics.ExpensesDetected.Inc()
		}
	}

	return result, nil
}

// resolveCommunication moves comm to its terminal status and returns the
// expense to create, if any. Only infrastructure failures are returned as
// errors; unresolvable lookups are recorded on the communication.
func (uc *ClassifierUseCase) resolveCommunication(ctx context.Context, comm *domain.ServiceCommunication, now time.Time) (*domain.DetectedExpense, error) {
	if comm.AlertType == domain.AlertOther {
		return nil, comm.Transition(domain.CommunicationIgnored, "no actionable alert", now)
	}

	properties, err := uc.properties.FindByServiceID(ctx, comm.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("find properties for service %s: %w", comm.ServiceID, err)
	}
	comm.PropertyIDs = properties

	if len(properties) == 0 {
		return nil, comm.Transition(domain.CommunicationIgnored,
			fmt.Sprintf("no property billed under service %s", comm.ServiceID), now)
	}

	if !comm.AlertType.RequiresExpense() {
		return nil, comm.Transition(domain.CommunicationProcessed, "", now)
	}

	if comm.EstimatedAmount == nil || !comm.EstimatedAmount.IsPositive() {
		return nil, comm.Transition(domain.CommunicationProcessed, "no amount to record", now)
	}

	if len(properties) > 1 {
		return nil, comm.Transition(domain.CommunicationProcessed,
			fmt.Sprintf("service %s bills %d properties, expense needs manual assignment", comm.ServiceID, len(properties)), now)
	}

	agentID, err := uc.lookupAgent(ctx, comm.ProviderFiscalID)
	if errors.Is(err, domain.ErrAgentNotFound) {
		return nil, comm.Transition(domain.CommunicationError,
			fmt.Sprintf("provider agent not found for fiscal id %q", comm.ProviderFiscalID), now)
	}
	if err != nil {
		return nil, err
	}
	comm.ProviderAgentID = &agentID

	expense := &domain.DetectedExpense{
		ID:              uc.idGen.Generate(),
		CommunicationID: comm.ID,
		PropertyID:      properties[0],
		ProviderAgentID: agentID,
		ServiceID:       comm.ServiceID,
		AlertType:       comm.AlertType,
		Amount:          *comm.EstimatedAmount,
		DueDate:         comm.DueDate,
		Period:          comm.Period,
		CreatedAt:       now,
	}
	comm.ExpenseID = &expense.ID

	if err := comm.Transition(domain.CommunicationProcessed, "", now); err != nil {
		return nil, err
	}
	return expense, nil
}

func (uc *ClassifierUseCase) lookupAgent(ctx context.Context, fiscalID string) (string, error) {
	if fiscalID == "" {
		return "", domain.ErrAgentNotFound
	}
	agentID, err := uc.agents.FindByFiscalID(ctx, fiscalID)
	if err != nil {
		if errors.Is(err, domain.ErrAgentNotFound) {
			return "", err
		}
		return "", fmt.Errorf("find agent %s: %w", fiscalID, err)
	}
	return agentID, nil
}

func expenseDetectedEvent(id string, expense *domain.DetectedExpense, now time.Time) *domain.OutboxEvent {
	payload := map[string]any{
		"expense_id":        expense.ID,
		"communication_id":  expense.CommunicationID,
		"property_id":       expense.PropertyID,
		"provider_agent_id": expense.ProviderAgentID,
		"amount":            expense.Amount.String(),
		"period":            expense.Period,
	}
	if expense.DueDate != nil {
		payload["due_date"] = expense.DueDate.Format(time.DateOnly)
	}

	return &domain.OutboxEvent{
		ID:            id,
		AggregateID:   expense.ID,
		AggregateType: domain.AggregateTypeExpense,
		EventType:     domain.EventTypeExpenseDetected,
		Payload:       payload,
		CreatedAt:     now,
	}
}

// GetCommunication returns a communication by id.
func (uc *ClassifierUseCase) GetCommunication(ctx context.Context, id string) (*domain.ServiceCommunication, error) {
	return uc.commRepo.GetByID(ctx, id)
}

// ListCommunications lists communications, optionally filtered by status.
func (uc *ClassifierUseCase) ListCommunications(ctx context.Context, filter domain.CommunicationFilter) ([]*domain.ServiceCommunication, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.commRepo.List(ctx, filter)
}
