package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

// PostingRepository implements usecase.PostingRepository.
type PostingRepository struct {
	db querier
}

// NewPostingRepository creates a new PostingRepository.
func NewPostingRepository(pool *pgxpool.Pool) *PostingRepository {
	return &PostingRepository{db: pool}
}

// Create inserts the posting header and its lines in the caller's transaction.
func (r *PostingRepository) Create(ctx context.Context, tx usecase.Transaction, p *domain.LedgerPosting) error {
	q := txQuerier(tx)

	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal posting metadata: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO ledger_postings (
			id, type, description, imputation_date, due_date,
			original_amount, current_amount, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, string(p.Type), p.Description, p.ImputationDate, p.DueDate,
		p.OriginalAmount, p.CurrentAmount, rawMetadata, p.CreatedAt,
	)
	if err != nil {
		return mapInsertError(err)
	}

	for i, l := range p.Lines {
		_, err := q.Exec(ctx, `
			INSERT INTO ledger_posting_lines (
				posting_id, line_no, account_id, description, debit, credit, counterparty_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, i+1, l.AccountID, l.Description, l.Debit, l.Credit, l.CounterpartyID,
		)
		if err != nil {
			return fmt.Errorf("insert posting line %d: %w", i+1, err)
		}
	}
	return nil
}

// GetByID retrieves a posting with its lines.
func (r *PostingRepository) GetByID(ctx context.Context, id string) (*domain.LedgerPosting, error) {
	var (
		p           domain.LedgerPosting
		postingType string
		rawMetadata []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, type, description, imputation_date, due_date,
			original_amount, current_amount, metadata, created_at
		FROM ledger_postings WHERE id = $1`, id,
	).Scan(
		&p.ID, &postingType, &p.Description, &p.ImputationDate, &p.DueDate,
		&p.OriginalAmount, &p.CurrentAmount, &rawMetadata, &p.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrPostingNotFound)
	}
	p.Type = domain.PostingType(postingType)
	if len(rawMetadata) > 0 {
		if err := json.Unmarshal(rawMetadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("decode posting metadata: %w", err)
		}
	}

	rows, err := r.db.Query(ctx, `
		SELECT account_id, description, debit, credit, counterparty_id
		FROM ledger_posting_lines WHERE posting_id = $1
		ORDER BY line_no`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.PostingLine
		if err := rows.Scan(&l.AccountID, &l.Description, &l.Debit, &l.Credit, &l.CounterpartyID); err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}
