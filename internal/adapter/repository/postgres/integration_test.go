package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mailrecon/internal/adapter/repository/postgres"
	"github.com/iho/mailrecon/internal/domain"
	dbinfra "github.com/iho/mailrecon/internal/infrastructure/postgres"
	"github.com/iho/mailrecon/internal/usecase"
)

// newTestPool connects to MAILRECON_TEST_DATABASE_URL and migrates it.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("MAILRECON_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("MAILRECON_TEST_DATABASE_URL not set")
	}

	require.NoError(t, dbinfra.RunMigrations(dbURL, "../../../../migrations", zerolog.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := dbinfra.NewPool(ctx, dbURL, 4, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE reconciliation_candidates, detected_expenses, ledger_posting_lines, ledger_postings,
			service_communications, external_movements, transactions, outbox_events, scan_state CASCADE`)
	require.NoError(t, err)
	return pool
}

func TestIntegration_MovementToConfirmedMatch(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	opDate := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	_, err := pool.Exec(ctx,
		`INSERT INTO transactions (id, direction, amount, date) VALUES ('tx-1', 'INGRESO', 1000, $1), ('tx-2', 'INGRESO', 1000, $2)`,
		opDate, opDate.AddDate(0, 0, 1))
	require.NoError(t, err)

	txManager := postgres.NewTxManager(pool, 2*time.Second)
	movementRepo := postgres.NewMovementRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	idGen := postgres.NewULIDGenerator()

	classifier := usecase.NewClassifierUseCase(
		txManager, movementRepo,
		postgres.NewCommunicationRepository(pool), postgres.NewExpenseRepository(pool), outboxRepo,
		postgres.NewPropertyRepository(pool), postgres.NewAgentRepository(pool),
		idGen, nil,
	)
	reconciliation := usecase.NewReconciliationUseCase(
		txManager, movementRepo, postgres.NewCandidateRepository(pool), postgres.NewTransactionRepository(pool),
		outboxRepo, postgres.NewRetrier(zerolog.Nop()), idGen, nil, usecase.ReconciliationConfig{},
	)

	movement := &domain.ExternalMovement{
		ExternalID:    "OP-INT-1",
		Direction:     domain.DirectionCredit,
		Amount:        decimal.RequireFromString("1000.00"),
		OperationDate: opDate,
		SourceEmailID: "<op-int-1@bank.example>",
	}
	recorded, err := classifier.RecordMovement(ctx, movement)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeNew, recorded.Outcome)

	again, err := classifier.RecordMovement(ctx, movement)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDuplicate, again.Outcome)

	generated, err := reconciliation.GenerateCandidates(ctx, usecase.GenerateCandidatesInput{MovementID: recorded.MovementID})
	require.NoError(t, err)
	require.Equal(t, 2, generated.TotalCandidates)

	confirmed, err := reconciliation.UpdateCandidateStatus(ctx, usecase.UpdateCandidateStatusInput{
		CandidateID: generated.Candidates[0].ID,
		Status:      domain.CandidateConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateConfirmed, confirmed.Status)

	stored, err := reconciliation.GetMovement(ctx, recorded.MovementID)
	require.NoError(t, err)
	assert.True(t, stored.Reconciled)
	require.NotNil(t, stored.TransactionID)
	assert.Equal(t, confirmed.TransactionID, *stored.TransactionID)

	sibling, err := reconciliation.GetCandidate(ctx, generated.Candidates[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateRejected, sibling.Status)

	events, err := outboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	var types []string
	for _, e := range events {
		types = append(types, e.EventType)
	}
	assert.ElementsMatch(t, []string{domain.EventTypeMovementCreated, domain.EventTypeCandidateConfirmed}, types)
}

func TestIntegration_ScanLeaseIsExclusive(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := postgres.NewScanStateRepository(pool)

	until := time.Now().Add(time.Minute)
	ok, err := repo.AcquireLease(ctx, "mailbox", "replica-a", until)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.AcquireLease(ctx, "mailbox", "replica-b", until)
	require.NoError(t, err)
	assert.False(t, ok, "a live lease must not be taken over")

	require.NoError(t, repo.ReleaseLease(ctx, "mailbox", "replica-a"))

	ok, err = repo.AcquireLease(ctx, "mailbox", "replica-b", until)
	require.NoError(t, err)
	assert.True(t, ok)
}
