package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mailrecon/internal/domain"
)

// ScanStateRepository implements usecase.ScanStateRepository. The lease row
// makes the scan single-flight across replicas sharing the database.
type ScanStateRepository struct {
	db querier
}

// NewScanStateRepository creates a new ScanStateRepository.
func NewScanStateRepository(pool *pgxpool.Pool) *ScanStateRepository {
	return &ScanStateRepository{db: pool}
}

// Get returns the state of scope. A scope never scanned has an empty state.
func (r *ScanStateRepository) Get(ctx context.Context, scope string) (*domain.ScanState, error) {
	state := domain.ScanState{Scope: scope}
	err := r.db.QueryRow(ctx, `
		SELECT last_successful_check, lease_token, lease_expires_at
		FROM scan_state WHERE scope = $1`, scope,
	).Scan(&state.LastSuccessfulCheck, &state.LeaseToken, &state.LeaseExpiresAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return &state, nil
}

// AcquireLease takes the lease when nobody holds it or the holder's lease expired.
func (r *ScanStateRepository) AcquireLease(ctx context.Context, scope, token string, until time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO scan_state (scope, lease_token, lease_expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (scope) DO UPDATE
		SET lease_token = EXCLUDED.lease_token, lease_expires_at = EXCLUDED.lease_expires_at
		WHERE scan_state.lease_token = ''
			OR scan_state.lease_expires_at IS NULL
			OR scan_state.lease_expires_at < NOW()`,
		scope, token, until,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RenewLease moves the expiry of the lease forward if token still holds it.
func (r *ScanStateRepository) RenewLease(ctx context.Context, scope, token string, until time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE scan_state SET lease_expires_at = $3
		WHERE scope = $1 AND lease_token = $2`, scope, token, until)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseLease drops the lease if token still holds it.
func (r *ScanStateRepository) ReleaseLease(ctx context.Context, scope, token string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE scan_state SET lease_token = '', lease_expires_at = NULL
		WHERE scope = $1 AND lease_token = $2`, scope, token)
	return err
}

// SaveWatermark records the start time of the last successful scan.
func (r *ScanStateRepository) SaveWatermark(ctx context.Context, scope string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO scan_state (scope, last_successful_check)
		VALUES ($1, $2)
		ON CONFLICT (scope) DO UPDATE SET last_successful_check = EXCLUDED.last_successful_check`,
		scope, at)
	return err
}
