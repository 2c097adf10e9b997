package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingType tags what a posting records.
type PostingType string

const (
	PostingRent              PostingType = "RENT"
	PostingDepositCollection PostingType = "DEPOSIT_COLLECTION"
	PostingDepositReturn     PostingType = "DEPOSIT_RETURN"
	PostingFeeInstallment    PostingType = "FEE_INSTALLMENT"
	PostingServiceExpense    PostingType = "SERVICE_EXPENSE"
	PostingManual            PostingType = "MANUAL"
)

// BalanceTolerance is the largest accepted |debit - credit| difference.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// PostingLine is one debit or credit of a posting.
type PostingLine struct {
	AccountID      string
	Description    string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	CounterpartyID string
}

// LedgerPosting is a balanced double-entry journal entry.
type LedgerPosting struct {
	ID             string
	Type           PostingType
	Description    string
	ImputationDate time.Time
	DueDate        time.Time
	Lines          []PostingLine
	OriginalAmount decimal.Decimal
	CurrentAmount  decimal.Decimal
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Totals returns the summed debits and credits.
func (p *LedgerPosting) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range p.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// IsBalanced reports whether debits equal credits within BalanceTolerance.
func (p *LedgerPosting) IsBalanced() bool {
	debit, credit := p.Totals()
	return debit.Sub(credit).Abs().LessThanOrEqual(BalanceTolerance)
}
