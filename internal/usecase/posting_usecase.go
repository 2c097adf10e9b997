package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/infrastructure/metrics"
)

// PostingLineInput is one line of a manual posting. Exactly one of Debit and
// Credit must be positive. AccountCode is resolved when AccountID is empty.
type PostingLineInput struct {
	AccountID      string          `json:"account_id,omitempty"`
	AccountCode    string          `json:"account_code,omitempty"`
	Description    string          `json:"description,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	CounterpartyID string          `json:"counterparty_id,omitempty"`
}

// CreatePostingInput represents input for building a posting.
type CreatePostingInput struct {
	Type           domain.PostingType `json:"type"`
	Description    string             `json:"description"`
	ImputationDate time.Time          `json:"imputation_date"`
	DueDate        time.Time          `json:"due_date"`
	Lines          []PostingLineInput `json:"lines"`
	Metadata       map[string]any     `json:"metadata,omitempty"`
}

// BuildPosting validates input and builds the posting without touching
// storage. Lines must reference accounts by id or by code.
func BuildPosting(input CreatePostingInput) (*domain.LedgerPosting, error) {
	postingType := input.Type
	if postingType == "" {
		postingType = domain.PostingManual
	}

	b := domain.NewPostingBuilder().
		SetType(postingType).
		SetDescription(input.Description).
		SetDates(input.ImputationDate, input.DueDate)
	for k, v := range input.Metadata {
		b.SetMetadata(k, v)
	}

	for i, line := range input.Lines {
		account := line.AccountID
		if account == "" {
			account = line.AccountCode
		}

		debit, credit := line.Debit.IsPositive(), line.Credit.IsPositive()
		var err error
		switch {
		case line.Debit.IsNegative() || line.Credit.IsNegative():
			return nil, domain.NewValidationError(fmt.Sprintf("lines[%d]", i), "must not be negative", domain.ErrNegativeAmount)
		case debit && credit, !debit && !credit:
			return nil, domain.NewValidationError(fmt.Sprintf("lines[%d]", i), "exactly one of debit or credit must be positive", nil)
		case debit:
			err = b.AddDebit(account, line.Description, line.Debit, line.CounterpartyID)
		default:
			err = b.AddCredit(account, line.Description, line.Credit, line.CounterpartyID)
		}
		if err != nil {
			return nil, err
		}
	}

	return b.Build()
}

// PostingUseCase persists ledger postings.
type PostingUseCase struct {
	txManager   TransactionManager
	postingRepo PostingRepository
	expenseRepo ExpenseRepository
	outboxRepo  OutboxRepository
	retrier     Retrier
	factory     *PostingFactory
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewPostingUseCase creates a new PostingUseCase. retrier may be nil.
func NewPostingUseCase(
	txManager TransactionManager,
	postingRepo PostingRepository,
	expenseRepo ExpenseRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	factory *PostingFactory,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *PostingUseCase {
	return &PostingUseCase{
		txManager:   txManager,
		postingRepo: postingRepo,
		expenseRepo: expenseRepo,
		outboxRepo:  outboxRepo,
		retrier:     retrier,
		factory:     factory,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// CreatePosting resolves account codes, builds the posting and stores it with
// its lines and a posting.created event in one transaction.
func (uc *PostingUseCase) CreatePosting(ctx context.Context, input CreatePostingInput) (*domain.LedgerPosting, error) {
	for i := range input.Lines {
		line := &input.Lines[i]
		if line.AccountID != "" || line.AccountCode == "" {
			continue
		}
		id, err := uc.factory.Account(ctx, line.AccountCode)
		if err != nil {
			return nil, err
		}
		line.AccountID = id
	}

	posting, err := BuildPosting(input)
	if err != nil {
		return nil, err
	}

	return posting, uc.store(ctx, posting)
}

// CreateRentPosting builds and stores a rent posting.
func (uc *PostingUseCase) CreateRentPosting(ctx context.Context, input RentInput) (*domain.LedgerPosting, error) {
	posting, err := uc.factory.Rent(ctx, input)
	if err != nil {
		return nil, err
	}
	return posting, uc.store(ctx, posting)
}

// GetPosting returns a stored posting with its lines.
func (uc *PostingUseCase) GetPosting(ctx context.Context, id string) (*domain.LedgerPosting, error) {
	return uc.postingRepo.GetByID(ctx, id)
}

// RecordServiceExpense books a detected expense once. It returns nil when the
// expense already has a posting.
func (uc *PostingUseCase) RecordServiceExpense(ctx context.Context, expenseID string) (*domain.LedgerPosting, error) {
	var posting *domain.LedgerPosting

	err := uc.inTx(ctx, func(txCtx context.Context, tx Transaction) error {
		posting = nil
		expense, err := uc.expenseRepo.GetByIDForUpdate(txCtx, tx, expenseID)
		if err != nil {
			return err
		}
		if expense.PostingID != nil {
			return nil
		}

		posting, err = uc.factory.ServiceExpense(txCtx, expense, time.Now().UTC().Truncate(24*time.Hour))
		if err != nil {
			return err
		}

		if err := uc.persist(txCtx, tx, posting); err != nil {
			return err
		}
		return uc.expenseRepo.SetPosting(txCtx, tx, expense.ID, posting.ID)
	})
	if err != nil {
		return nil, err
	}

	if posting != nil {
		uc.observe(posting)
	}
	return posting, nil
}

func (uc *PostingUseCase) store(ctx context.Context, posting *domain.LedgerPosting) error {
	err := uc.inTx(ctx, func(txCtx context.Context, tx Transaction) error {
		return uc.persist(txCtx, tx, posting)
	})
	if err != nil {
		return err
	}

	uc.observe(posting)
	return nil
}

// inTx runs fn in one transaction. With a retrier the whole transaction is
// run again after a deadlock, serialization failure or lock timeout.
func (uc *PostingUseCase) inTx(ctx context.Context, fn func(context.Context, Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if uc.retrier != nil {
		return uc.retrier.Retry(ctx, attempt)
	}
	return attempt()
}

func (uc *PostingUseCase) persist(ctx context.Context, tx Transaction, posting *domain.LedgerPosting) error {
	now := time.Now().UTC()
	posting.ID = uc.idGen.Generate()
	posting.CreatedAt = now

	if err := uc.postingRepo.Create(ctx, tx, posting); err != nil {
		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   posting.ID,
		AggregateType: domain.AggregateTypePosting,
		EventType:     domain.EventTypePostingCreated,
		Payload: map[string]any{
			"posting_id": posting.ID,
			"type":       string(posting.Type),
			"amount":     posting.OriginalAmount.String(),
		},
		CreatedAt: now,
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *PostingUseCase) observe(posting *domain.LedgerPosting) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.PostingsCreated.WithLabelValues(string(posting.Type)).Inc()
	amount, _ := posting.OriginalAmount.Float64()
	uc.metrics.PostingAmount.Observe(amount)
}
