package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	db querier
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{db: pool}
}

// Create inserts an expense. A second expense for the same communication
// yields domain.ErrDuplicateEvent.
func (r *ExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, e *domain.DetectedExpense) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO detected_expenses (
			id, communication_id, property_id, provider_agent_id, service_id, alert_type,
			amount, due_date, period, posting_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.CommunicationID, e.PropertyID, e.ProviderAgentID, e.ServiceID, string(e.AlertType),
		e.Amount, e.DueDate, e.Period, e.PostingID, e.CreatedAt,
	)
	return mapInsertError(err)
}

// GetByIDForUpdate retrieves an expense by ID with a FOR UPDATE lock.
func (r *ExpenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.DetectedExpense, error) {
	var (
		e         domain.DetectedExpense
		alertType string
	)
	err := txQuerier(tx).QueryRow(ctx, `
		SELECT id, communication_id, property_id, provider_agent_id, service_id, alert_type,
			amount, due_date, period, posting_id, created_at
		FROM detected_expenses WHERE id = $1 FOR UPDATE`, id,
	).Scan(
		&e.ID, &e.CommunicationID, &e.PropertyID, &e.ProviderAgentID, &e.ServiceID, &alertType,
		&e.Amount, &e.DueDate, &e.Period, &e.PostingID, &e.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrExpenseNotFound)
	}
	e.AlertType = domain.AlertType(alertType)
	return &e, nil
}

// SetPosting records the posting that booked the expense.
func (r *ExpenseRepository) SetPosting(ctx context.Context, tx usecase.Transaction, id, postingID string) error {
	tag, err := txQuerier(tx).Exec(ctx,
		`UPDATE detected_expenses SET posting_id = $2 WHERE id = $1`, id, postingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}
