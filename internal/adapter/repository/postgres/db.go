package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// querier is the subset of pgxpool.Pool and pgx.Tx used by the repositories.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txQuerier unwraps the pgx transaction behind a usecase.Transaction.
func txQuerier(tx usecase.Transaction) querier {
	return tx.(*Tx).PgxTx()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// mapInsertError turns a unique violation into domain.ErrDuplicateEvent.
func mapInsertError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEvent
	}
	return err
}

func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}
