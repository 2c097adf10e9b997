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

const candidateColumns = `id, movement_id, transaction_id, score, reasons, status, notes, created_at, resolved_at`

// CandidateRepository implements usecase.CandidateRepository.
type CandidateRepository struct {
	db querier
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{db: pool}
}

// Create inserts the candidate unless its (movement, transaction) pair
// already exists, and reports whether a row was inserted.
func (r *CandidateRepository) Create(ctx context.Context, c *domain.ReconciliationCandidate) (bool, error) {
	reasons := c.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	tag, err := r.db.Exec(ctx, `
		INSERT INTO reconciliation_candidates (`+candidateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (movement_id, transaction_id) DO NOTHING`,
		c.ID, c.MovementID, c.TransactionID, c.Score, reasons, string(c.Status), c.Notes, c.CreatedAt, c.ResolvedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// PairedTransactionIDs returns the transactions already proposed for a movement.
func (r *CandidateRepository) PairedTransactionIDs(ctx context.Context, movementID string) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx,
		`SELECT transaction_id FROM reconciliation_candidates WHERE movement_id = $1`, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paired := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		paired[id] = struct{}{}
	}
	return paired, rows.Err()
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*domain.ReconciliationCandidate, error) {
	row := r.db.QueryRow(ctx, `SELECT `+candidateColumns+` FROM reconciliation_candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if err != nil {
		return nil, notFound(err, domain.ErrCandidateNotFound)
	}
	return c, nil
}

// GetByIDForUpdate retrieves a candidate by ID with a FOR UPDATE lock.
func (r *CandidateRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ReconciliationCandidate, error) {
	row := txQuerier(tx).QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM reconciliation_candidates WHERE id = $1 FOR UPDATE`, id)
	c, err := scanCandidate(row)
	if err != nil {
		return nil, notFound(err, domain.ErrCandidateNotFound)
	}
	return c, nil
}

// List returns candidates best score first.
func (r *CandidateRepository) List(ctx context.Context, filter domain.CandidateFilter) ([]*domain.ReconciliationCandidate, error) {
	var (
		conds []string
		args  []any
	)
	if filter.MovementID != "" {
		args = append(args, filter.MovementID)
		conds = append(conds, fmt.Sprintf("movement_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + candidateColumns + ` FROM reconciliation_candidates`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY score DESC, created_at, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]*domain.ReconciliationCandidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// UpdateStatus persists the resolution of a candidate.
func (r *CandidateRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, c *domain.ReconciliationCandidate) error {
	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE reconciliation_candidates
		SET status = $2, notes = $3, resolved_at = $4
		WHERE id = $1`, c.ID, string(c.Status), c.Notes, c.ResolvedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCandidateNotFound
	}
	return nil
}

// RejectPendingSiblings rejects every other pending candidate of the movement.
func (r *CandidateRepository) RejectPendingSiblings(ctx context.Context, tx usecase.Transaction, movementID, exceptID, notes string, at time.Time) (int, error) {
	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE reconciliation_candidates
		SET status = $4, notes = $5, resolved_at = $6
		WHERE movement_id = $1 AND id <> $2 AND status = $3`,
		movementID, exceptID, string(domain.CandidatePending), string(domain.CandidateRejected), notes, at)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanCandidate(row pgx.Row) (*domain.ReconciliationCandidate, error) {
	var (
		c      domain.ReconciliationCandidate
		status string
	)
	err := row.Scan(&c.ID, &c.MovementID, &c.TransactionID, &c.Score, &c.Reasons, &status, &c.Notes, &c.CreatedAt, &c.ResolvedAt)
	if err != nil {
		return nil, err
	}
	c.Status = domain.CandidateStatus(status)
	return &c, nil
}
