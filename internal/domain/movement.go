package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the bank-side sense of an external movement.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// TransactionDirection maps a bank direction onto the internal ledger direction.
func (d Direction) TransactionDirection() (TransactionDirection, error) {
	switch d {
	case DirectionCredit:
		return TransactionIncome, nil
	case DirectionDebit:
		return TransactionExpense, nil
	default:
		return "", ErrInvalidDirection
	}
}

// ExternalMovement is a bank-reported credit or debit learned from a notification email.
// Only Reconciled and TransactionID change after creation.
type ExternalMovement struct {
	ID                   string
	ExternalID           string
	Direction            Direction
	Amount               decimal.Decimal
	OperationDate        time.Time
	OriginAccount        string
	DestinationAccount   string
	CounterpartyFiscalID string
	CounterpartyName     string
	Concept              string
	ConceptCode          string
	SourceEmailID        string
	Reconciled           bool
	TransactionID        *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate checks the minimum fields of a movement.
func (m *ExternalMovement) Validate() error {
	if m.ExternalID == "" {
		return NewValidationError("external_id", "is required", nil)
	}
	if !m.Direction.Valid() {
		return NewValidationError("direction", string(m.Direction), ErrInvalidDirection)
	}
	if !m.Amount.IsPositive() {
		return NewValidationError("amount", "must be positive", ErrInvalidAmount)
	}
	return nil
}

// MovementFilter selects movements for listing.
type MovementFilter struct {
	Reconciled *bool
	Limit      int
	Offset     int
}
