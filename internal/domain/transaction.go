package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection is the internal ledger sense of a transaction.
type TransactionDirection string

const (
	TransactionIncome  TransactionDirection = "INGRESO"
	TransactionExpense TransactionDirection = "EGRESO"
)

// InternalTransaction is a back-office cash transaction owned by the ledger module.
type InternalTransaction struct {
	ID          string
	Direction   TransactionDirection
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Reconciled  bool
}

// TransactionFilter selects unreconciled transactions for matching.
type TransactionFilter struct {
	Direction TransactionDirection
	Amount    decimal.Decimal
	DateFrom  time.Time
	DateTo    time.Time
	Limit     int
}
