package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

const movementColumns = `id, external_id, direction, amount, operation_date, origin_account,
	destination_account, counterparty_fiscal_id, counterparty_name, concept, concept_code,
	source_email_id, reconciled, transaction_id, created_at, updated_at`

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	db querier
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return &MovementRepository{db: pool}
}

// Create inserts a movement. A repeated external id yields domain.ErrDuplicateEvent.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, m *domain.ExternalMovement) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO external_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		m.ID, m.ExternalID, string(m.Direction), m.Amount, m.OperationDate, m.OriginAccount,
		m.DestinationAccount, m.CounterpartyFiscalID, m.CounterpartyName, m.Concept, m.ConceptCode,
		m.SourceEmailID, m.Reconciled, m.TransactionID, m.CreatedAt, m.UpdatedAt,
	)
	return mapInsertError(err)
}

// Exists reports whether the external id, or a non-empty source email id, is stored.
func (r *MovementRepository) Exists(ctx context.Context, externalID, sourceEmailID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM external_movements
			WHERE external_id = $1 OR ($2 <> '' AND source_email_id = $2)
		)`, externalID, sourceEmailID).Scan(&exists)
	return exists, err
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.ExternalMovement, error) {
	row := r.db.QueryRow(ctx, `SELECT `+movementColumns+` FROM external_movements WHERE id = $1`, id)
	m, err := scanMovement(row)
	if err != nil {
		return nil, notFound(err, domain.ErrMovementNotFound)
	}
	return m, nil
}

// GetByIDForUpdate retrieves a movement by ID with a FOR UPDATE lock.
func (r *MovementRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ExternalMovement, error) {
	row := txQuerier(tx).QueryRow(ctx, `SELECT `+movementColumns+` FROM external_movements WHERE id = $1 FOR UPDATE`, id)
	m, err := scanMovement(row)
	if err != nil {
		return nil, notFound(err, domain.ErrMovementNotFound)
	}
	return m, nil
}

// ListUnreconciled returns the oldest unreconciled movements.
func (r *MovementRepository) ListUnreconciled(ctx context.Context, limit int) ([]*domain.ExternalMovement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+movementColumns+` FROM external_movements
		WHERE NOT reconciled
		ORDER BY created_at, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectMovements(rows)
}

// List returns movements newest first.
func (r *MovementRepository) List(ctx context.Context, filter domain.MovementFilter) ([]*domain.ExternalMovement, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Reconciled != nil {
		args = append(args, *filter.Reconciled)
		conds = append(conds, fmt.Sprintf("reconciled = $%d", len(args)))
	}

	query := `SELECT ` + movementColumns + ` FROM external_movements`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectMovements(rows)
}

// MarkReconciled links the movement to the confirmed transaction.
func (r *MovementRepository) MarkReconciled(ctx context.Context, tx usecase.Transaction, id, transactionID string, at time.Time) error {
	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE external_movements
		SET reconciled = TRUE, transaction_id = $2, updated_at = $3
		WHERE id = $1 AND NOT reconciled`, id, transactionID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMovementAlreadyReconciled
	}
	return nil
}

func scanMovement(row pgx.Row) (*domain.ExternalMovement, error) {
	var (
		m         domain.ExternalMovement
		direction string
	)
	err := row.Scan(
		&m.ID, &m.ExternalID, &direction, &m.Amount, &m.OperationDate, &m.OriginAccount,
		&m.DestinationAccount, &m.CounterpartyFiscalID, &m.CounterpartyName, &m.Concept, &m.ConceptCode,
		&m.SourceEmailID, &m.Reconciled, &m.TransactionID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Direction = domain.Direction(direction)
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*domain.ExternalMovement, error) {
	defer rows.Close()

	movements := make([]*domain.ExternalMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
