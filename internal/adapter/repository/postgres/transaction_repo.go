package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository over the
// back-office transactions table.
type TransactionRepository struct {
	db querier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: pool}
}

// FindUnreconciled returns unreconciled transactions with the exact amount and
// direction whose date falls in [DateFrom, DateTo].
func (r *TransactionRepository) FindUnreconciled(ctx context.Context, filter domain.TransactionFilter) ([]*domain.InternalTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, direction, amount, date, description, reconciled
		FROM transactions
		WHERE NOT reconciled
			AND direction = $1
			AND amount = $2
			AND date BETWEEN $3 AND $4
		ORDER BY date, id
		LIMIT $5`,
		string(filter.Direction), filter.Amount, filter.DateFrom, filter.DateTo, filter.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]*domain.InternalTransaction, 0)
	for rows.Next() {
		var (
			t         domain.InternalTransaction
			direction string
		)
		if err := rows.Scan(&t.ID, &direction, &t.Amount, &t.Date, &t.Description, &t.Reconciled); err != nil {
			return nil, err
		}
		t.Direction = domain.TransactionDirection(direction)
		txns = append(txns, &t)
	}
	return txns, rows.Err()
}

// GetByIDForUpdate retrieves a transaction by ID with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.InternalTransaction, error) {
	var (
		t         domain.InternalTransaction
		direction string
	)
	err := txQuerier(tx).QueryRow(ctx, `
		SELECT id, direction, amount, date, description, reconciled
		FROM transactions WHERE id = $1 FOR UPDATE`, id,
	).Scan(&t.ID, &direction, &t.Amount, &t.Date, &t.Description, &t.Reconciled)
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}
	t.Direction = domain.TransactionDirection(direction)
	return &t, nil
}

// MarkReconciled flags the transaction as reconciled.
func (r *TransactionRepository) MarkReconciled(ctx context.Context, tx usecase.Transaction, id string, at time.Time) error {
	tag, err := txQuerier(tx).Exec(ctx,
		`UPDATE transactions SET reconciled = TRUE, reconciled_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}
