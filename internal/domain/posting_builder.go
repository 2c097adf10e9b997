package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PostingBuilder accumulates posting lines and yields a posting only when it is
// balanced. It is single-use: after Build it must be Reset.
//
//	b := NewPostingBuilder()
//	b.SetType(PostingRent).SetDescription("rent 2025-01").SetDates(imputation, due)
//	_ = b.AddDebit(tenantReceivable, "rent", amount, tenantID)
//	_ = b.AddCredit(landlordPayable, "net rent", net, landlordID)
//	posting, err := b.Build()
type PostingBuilder struct {
	postingType    PostingType
	description    string
	imputationDate time.Time
	dueDate        time.Time
	lines          []PostingLine
	metadata       map[string]any
	built          bool
}

// NewPostingBuilder returns an empty builder.
func NewPostingBuilder() *PostingBuilder {
	b := &PostingBuilder{}
	return b.Reset()
}

// Reset clears all state so the builder can be reused.
func (b *PostingBuilder) Reset() *PostingBuilder {
	b.postingType = ""
	b.description = ""
	b.imputationDate = time.Time{}
	b.dueDate = time.Time{}
	b.lines = nil
	b.metadata = make(map[string]any)
	b.built = false
	return b
}

// SetType sets the posting type tag.
func (b *PostingBuilder) SetType(t PostingType) *PostingBuilder {
	b.postingType = t
	return b
}

// SetDescription sets the posting description.
func (b *PostingBuilder) SetDescription(description string) *PostingBuilder {
	b.description = description
	return b
}

// SetDates sets the imputation and due dates.
func (b *PostingBuilder) SetDates(imputation, due time.Time) *PostingBuilder {
	b.imputationDate = imputation
	b.dueDate = due
	return b
}

// SetMetadata stores a metadata value on the posting.
func (b *PostingBuilder) SetMetadata(key string, value any) *PostingBuilder {
	b.metadata[key] = value
	return b
}

// AddDebit appends a debit line.
func (b *PostingBuilder) AddDebit(accountID, description string, amount decimal.Decimal, counterpartyID string) error {
	return b.addLine(accountID, description, amount, decimal.Zero, counterpartyID)
}

// AddCredit appends a credit line.
func (b *PostingBuilder) AddCredit(accountID, description string, amount decimal.Decimal, counterpartyID string) error {
	return b.addLine(accountID, description, decimal.Zero, amount, counterpartyID)
}

func (b *PostingBuilder) addLine(accountID, description string, debit, credit decimal.Decimal, counterpartyID string) error {
	if b.built {
		return ErrBuilderConsumed
	}
	if debit.IsNegative() || credit.IsNegative() {
		return NewValidationError("amount", "must not be negative", ErrNegativeAmount)
	}
	if accountID == "" {
		return NewValidationError("account_id", "is required", nil)
	}
	b.lines = append(b.lines, PostingLine{
		AccountID:      accountID,
		Description:    description,
		Debit:          debit,
		Credit:         credit,
		CounterpartyID: counterpartyID,
	})
	return nil
}

// Build validates the accumulated state and returns the posting.
func (b *PostingBuilder) Build() (*LedgerPosting, error) {
	if b.built {
		return nil, ErrBuilderConsumed
	}
	if b.postingType == "" {
		return nil, NewValidationError("type", "is required", nil)
	}
	if b.description == "" {
		return nil, NewValidationError("description", "is required", nil)
	}
	if b.imputationDate.IsZero() {
		return nil, NewValidationError("imputation_date", "is required", nil)
	}
	if b.dueDate.IsZero() {
		return nil, NewValidationError("due_date", "is required", nil)
	}
	if len(b.lines) == 0 {
		return nil, NewValidationError("lines", "at least one line is required", ErrEmptyPosting)
	}

	lines := make([]PostingLine, len(b.lines))
	copy(lines, b.lines)
	posting := &LedgerPosting{
		Type:           b.postingType,
		Description:    b.description,
		ImputationDate: b.imputationDate,
		DueDate:        b.dueDate,
		Lines:          lines,
		Metadata:       make(map[string]any, len(b.metadata)),
	}
	for k, v := range b.metadata {
		posting.Metadata[k] = v
	}

	debit, credit := posting.Totals()
	if !posting.IsBalanced() {
		return nil, NewValidationError("lines",
			fmt.Sprintf("debit %s != credit %s", debit.StringFixed(2), credit.StringFixed(2)),
			ErrUnbalancedPosting)
	}

	posting.OriginalAmount = debit
	posting.CurrentAmount = debit
	b.built = true

	return posting, nil
}
