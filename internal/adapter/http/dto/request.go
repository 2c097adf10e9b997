package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// TriggerScanRequest represents a request to scan the mailbox.
type TriggerScanRequest struct {
	Kind string `json:"kind,omitempty"`
}

// GenerateCandidatesRequest represents a request to propose reconciliation candidates.
type GenerateCandidatesRequest struct {
	MovementID     string `json:"movement_id,omitempty"`
	ToleranceDays  int    `json:"tolerance_days,omitempty"`
	MaxPerMovement int    `json:"max_per_movement,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *GenerateCandidatesRequest) ToUseCaseInput() usecase.GenerateCandidatesInput {
	return usecase.GenerateCandidatesInput{
		MovementID:     r.MovementID,
		ToleranceDays:  r.ToleranceDays,
		MaxPerMovement: r.MaxPerMovement,
	}
}

// UpdateCandidateRequest confirms or rejects a candidate.
type UpdateCandidateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateCandidateRequest) ToUseCaseInput(id string) usecase.UpdateCandidateStatusInput {
	return usecase.UpdateCandidateStatusInput{
		CandidateID: id,
		Status:      domain.CandidateStatus(r.Status),
		Notes:       r.Notes,
	}
}

// PostingLineRequest is one line of a posting request.
type PostingLineRequest struct {
	AccountID      string          `json:"account_id,omitempty"`
	AccountCode    string          `json:"account_code,omitempty"`
	Description    string          `json:"description,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	CounterpartyID string          `json:"counterparty_id,omitempty"`
}

// CreatePostingRequest represents a request to build a ledger posting.
type CreatePostingRequest struct {
	Type           string               `json:"type,omitempty"`
	Description    string               `json:"description"`
	ImputationDate string               `json:"imputation_date"`
	DueDate        string               `json:"due_date"`
	Lines          []PostingLineRequest `json:"lines"`
	Metadata       map[string]any       `json:"metadata,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePostingRequest) ToUseCaseInput() (usecase.CreatePostingInput, error) {
	imputation, err := parseDate("imputation_date", r.ImputationDate)
	if err != nil {
		return usecase.CreatePostingInput{}, err
	}
	due, err := parseDate("due_date", r.DueDate)
	if err != nil {
		return usecase.CreatePostingInput{}, err
	}

	lines := make([]usecase.PostingLineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = usecase.PostingLineInput{
			AccountID:      l.AccountID,
			AccountCode:    l.AccountCode,
			Description:    l.Description,
			Debit:          l.Debit,
			Credit:         l.Credit,
			CounterpartyID: l.CounterpartyID,
		}
	}

	return usecase.CreatePostingInput{
		Type:           domain.PostingType(r.Type),
		Description:    r.Description,
		ImputationDate: imputation,
		DueDate:        due,
		Lines:          lines,
		Metadata:       r.Metadata,
	}, nil
}

// CreateRentPostingRequest represents a monthly rent charge.
type CreateRentPostingRequest struct {
	ContractID     string          `json:"contract_id"`
	TenantID       string          `json:"tenant_id"`
	LandlordID     string          `json:"landlord_id"`
	Period         string          `json:"period"`
	Amount         decimal.Decimal `json:"amount"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	ImputationDate string          `json:"imputation_date"`
	DueDate        string          `json:"due_date"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateRentPostingRequest) ToUseCaseInput() (usecase.RentInput, error) {
	imputation, err := parseDate("imputation_date", r.ImputationDate)
	if err != nil {
		return usecase.RentInput{}, err
	}
	due, err := parseDate("due_date", r.DueDate)
	if err != nil {
		return usecase.RentInput{}, err
	}

	return usecase.RentInput{
		ContractID:     r.ContractID,
		TenantID:       r.TenantID,
		LandlordID:     r.LandlordID,
		Period:         r.Period,
		Amount:         r.Amount,
		CommissionRate: r.CommissionRate,
		ImputationDate: imputation,
		DueDate:        due,
	}, nil
}

// parseDate accepts YYYY-MM-DD. An empty value is the zero time, which the
// posting builder rejects with a field-specific message.
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, fmt.Sprintf("expected YYYY-MM-DD, got %q", value), err)
	}
	return t, nil
}
