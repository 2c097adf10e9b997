package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

// Retrier implements usecase.Retrier with exponential backoff. Candidate
// confirmations lock the candidate, movement and transaction rows; two
// reviewers confirming candidates of the same movement either deadlock or
// hit the TxManager lock timeout, and the loser is replayed from scratch.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// NewRetrier creates a new PostgreSQL retrier with default settings.
func NewRetrier(logger zerolog.Logger) *Retrier {
	return &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          logger,
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		code, retryable := retryableCode(err)
		if !retryable {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			r.logger.Error().Err(err).Str("pg_code", code).Int("attempts", retryCount).Msg("giving up on conflicting transaction")
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Str("pg_code", code).
			Int("retry", retryCount).
			Msg("retryable database error, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

// retryableCode reports the SQLSTATE of err when it is a lock conflict.
func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	switch pgErr.Code {
	case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
		return pgErr.Code, true
	}
	return pgErr.Code, false
}

func isRetryableError(err error) bool {
	_, ok := retryableCode(err)
	return ok
}
