package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mailrecon/internal/domain"
)

func samplePosting() *domain.LedgerPosting {
	day := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	return &domain.LedgerPosting{
		ID:             "post-1",
		Type:           domain.PostingServiceExpense,
		Description:    "Aguas del Sur 11/2025",
		ImputationDate: day,
		DueDate:        day.AddDate(0, 0, 10),
		OriginalAmount: decimal.RequireFromString("1500.50"),
		CurrentAmount:  decimal.RequireFromString("1500.50"),
		Metadata:       map[string]any{"expense_id": "exp-1"},
		CreatedAt:      day,
		Lines: []domain.PostingLine{
			{AccountID: "acc-expense", Debit: decimal.RequireFromString("1500.50"), Credit: decimal.Zero},
			{AccountID: "acc-payable", Debit: decimal.Zero, Credit: decimal.RequireFromString("1500.50"), CounterpartyID: "agent-9"},
		},
	}
}

func TestPostingRepository_CreateWritesLines(t *testing.T) {
	pool := newMockPool(t)
	repo := &PostingRepository{db: pool}
	tx := beginMockTx(t, pool)
	p := samplePosting()

	pool.ExpectExec("INSERT INTO ledger_postings").
		WithArgs("post-1", "SERVICE_EXPENSE", p.Description, p.ImputationDate, p.DueDate,
			pgxmock.AnyArg(), pgxmock.AnyArg(), []byte(`{"expense_id":"exp-1"}`), p.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec("INSERT INTO ledger_posting_lines").
		WithArgs("post-1", 1, "acc-expense", "", pgxmock.AnyArg(), pgxmock.AnyArg(), "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec("INSERT INTO ledger_posting_lines").
		WithArgs("post-1", 2, "acc-payable", "", pgxmock.AnyArg(), pgxmock.AnyArg(), "agent-9").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), tx, p))
	assertExpectations(t, pool)
}

func TestPostingRepository_CreateLineFailure(t *testing.T) {
	pool := newMockPool(t)
	repo := &PostingRepository{db: pool}
	tx := beginMockTx(t, pool)
	boom := errors.New("check constraint")

	pool.ExpectExec("INSERT INTO ledger_postings").
		WithArgs(anyArgs(9)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec("INSERT INTO ledger_posting_lines").
		WithArgs(anyArgs(7)...).
		WillReturnError(boom)

	err := repo.Create(context.Background(), tx, samplePosting())
	require.ErrorIs(t, err, boom)
}

func TestPostingRepository_GetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := &PostingRepository{db: pool}
	p := samplePosting()

	pool.ExpectQuery("FROM ledger_postings WHERE id").
		WithArgs("post-1").
		WillReturnRows(pool.NewRows([]string{
			"id", "type", "description", "imputation_date", "due_date",
			"original_amount", "current_amount", "metadata", "created_at",
		}).AddRow("post-1", "SERVICE_EXPENSE", p.Description, p.ImputationDate, p.DueDate,
			"1500.50", "1500.50", []byte(`{"expense_id":"exp-1"}`), p.CreatedAt))
	pool.ExpectQuery("FROM ledger_posting_lines").
		WithArgs("post-1").
		WillReturnRows(pool.NewRows([]string{"account_id", "description", "debit", "credit", "counterparty_id"}).
			AddRow("acc-expense", "", "1500.50", "0", "").
			AddRow("acc-payable", "", "0", "1500.50", "agent-9"))

	got, err := repo.GetByID(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PostingServiceExpense, got.Type)
	assert.Equal(t, "exp-1", got.Metadata["expense_id"])
	require.Len(t, got.Lines, 2)
	assert.True(t, got.IsBalanced())
	assertExpectations(t, pool)
}

func TestPostingRepository_GetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := &PostingRepository{db: pool}

	pool.ExpectQuery("FROM ledger_postings WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrPostingNotFound)
}
