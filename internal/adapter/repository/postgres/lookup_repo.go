package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mailrecon/internal/domain"
)

// AccountCodeRepository resolves chart-of-accounts codes. It implements
// usecase.AccountResolver and is usually wrapped by the redis cache in
// the posting factory.
type AccountCodeRepository struct {
	db querier
}

// NewAccountCodeRepository creates a new AccountCodeRepository.
func NewAccountCodeRepository(pool *pgxpool.Pool) *AccountCodeRepository {
	return &AccountCodeRepository{db: pool}
}

// ResolveAccountCode returns the id of the account with the given code.
func (r *AccountCodeRepository) ResolveAccountCode(ctx context.Context, code string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `SELECT id FROM accounts WHERE code = $1`, code).Scan(&id)
	if err != nil {
		return "", notFound(err, domain.ErrAccountCodeNotFound)
	}
	return id, nil
}

// PropertyRepository implements usecase.PropertyLookup.
type PropertyRepository struct {
	db querier
}

// NewPropertyRepository creates a new PropertyRepository.
func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{db: pool}
}

// FindByServiceID returns the properties billed under the normalized service id.
// Stored ids are compared with separators removed.
func (r *PropertyRepository) FindByServiceID(ctx context.Context, serviceID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT property_id FROM property_services
		WHERE regexp_replace(service_id, '[^0-9A-Za-z]', '', 'g') = $1
		ORDER BY property_id`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0, 1)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AgentRepository implements usecase.AgentLookup.
type AgentRepository struct {
	db querier
}

// NewAgentRepository creates a new AgentRepository.
func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: pool}
}

// FindByFiscalID returns the agent registered under the normalized fiscal id.
func (r *AgentRepository) FindByFiscalID(ctx context.Context, fiscalID string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		SELECT id FROM agents
		WHERE regexp_replace(fiscal_id, '[^0-9]', '', 'g') = $1
		LIMIT 1`, fiscalID).Scan(&id)
	if err != nil {
		return "", notFound(err, domain.ErrAgentNotFound)
	}
	return id, nil
}
