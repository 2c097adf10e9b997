package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ScanResultResponse represents the outcome of a scan.
type ScanResultResponse struct {
	Processed      int        `json:"processed"`
	New            int        `json:"new"`
	Duplicate      int        `json:"duplicate"`
	Errors         int        `json:"errors"`
	Skipped        bool       `json:"skipped"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	NewMovementIDs []string   `json:"new_movement_ids"`
}

// ScanResultFromDomain converts a scan result to response.
func ScanResultFromDomain(r *domain.ScanResult) *ScanResultResponse {
	resp := &ScanResultResponse{
		Processed:      r.Processed,
		New:            r.New,
		Duplicate:      r.Duplicate,
		Errors:         r.Errors,
		Skipped:        r.Skipped,
		NewMovementIDs: r.NewMovementIDs,
	}
	if resp.NewMovementIDs == nil {
		resp.NewMovementIDs = []string{}
	}
	if !r.StartedAt.IsZero() {
		resp.StartedAt = &r.StartedAt
	}
	if !r.FinishedAt.IsZero() {
		resp.FinishedAt = &r.FinishedAt
	}
	return resp
}

// ScanStateResponse represents the persisted scan watermark.
type ScanStateResponse struct {
	Scope               string     `json:"scope"`
	LastSuccessfulCheck *time.Time `json:"last_successful_check"`
	Running             bool       `json:"running"`
}

// MovementResponse represents an external movement in API responses.
type MovementResponse struct {
	ID                   string          `json:"id"`
	ExternalID           string          `json:"external_id"`
	Direction            string          `json:"direction"`
	Amount               decimal.Decimal `json:"amount"`
	OperationDate        string          `json:"operation_date"`
	OriginAccount        string          `json:"origin_account,omitempty"`
	DestinationAccount   string          `json:"destination_account,omitempty"`
	CounterpartyFiscalID string          `json:"counterparty_fiscal_id,omitempty"`
	CounterpartyName     string          `json:"counterparty_name,omitempty"`
	Concept              string          `json:"concept,omitempty"`
	ConceptCode          string          `json:"concept_code,omitempty"`
	SourceEmailID        string          `json:"source_email_id,omitempty"`
	Reconciled           bool            `json:"reconciled"`
	TransactionID        *string         `json:"transaction_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// MovementFromDomain converts a domain movement to response.
func MovementFromDomain(m *domain.ExternalMovement) *MovementResponse {
	return &MovementResponse{
		ID:                   m.ID,
		ExternalID:           m.ExternalID,
		Direction:            string(m.Direction),
		Amount:               m.Amount,
		OperationDate:        formatDate(m.OperationDate),
		OriginAccount:        m.OriginAccount,
		DestinationAccount:   m.DestinationAccount,
		CounterpartyFiscalID: m.CounterpartyFiscalID,
		CounterpartyName:     m.CounterpartyName,
		Concept:              m.Concept,
		ConceptCode:          m.ConceptCode,
		SourceEmailID:        m.SourceEmailID,
		Reconciled:           m.Reconciled,
		TransactionID:        m.TransactionID,
		CreatedAt:            m.CreatedAt,
	}
}

// ListMovementsResponse represents a page of movements.
type ListMovementsResponse struct {
	Movements []*MovementResponse `json:"movements"`
	Total     int64               `json:"total"`
}

// MovementsFromDomain converts movements to responses.
func MovementsFromDomain(movements []*domain.ExternalMovement) []*MovementResponse {
	out := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		out[i] = MovementFromDomain(m)
	}
	return out
}

// CommunicationResponse represents a service communication in API responses.
type CommunicationResponse struct {
	ID               string           `json:"id"`
	MessageID        string           `json:"message_id"`
	ProviderFiscalID string           `json:"provider_fiscal_id,omitempty"`
	ProviderName     string           `json:"provider_name,omitempty"`
	Sender           string           `json:"sender"`
	Subject          string           `json:"subject"`
	AlertType        string           `json:"alert_type"`
	ServiceID        string           `json:"service_id,omitempty"`
	EstimatedAmount  *decimal.Decimal `json:"estimated_amount,omitempty"`
	DueDate          *string          `json:"due_date,omitempty"`
	Period           string           `json:"period,omitempty"`
	Status           string           `json:"status"`
	ExpenseID        *string          `json:"expense_id,omitempty"`
	ProviderAgentID  *string          `json:"provider_agent_id,omitempty"`
	PropertyIDs      []string         `json:"property_ids"`
	Notes            string           `json:"notes,omitempty"`
	ReceivedAt       time.Time        `json:"received_at"`
}

// CommunicationFromDomain converts a domain communication to response.
func CommunicationFromDomain(c *domain.ServiceCommunication) *CommunicationResponse {
	resp := &CommunicationResponse{
		ID:               c.ID,
		MessageID:        c.MessageID,
		ProviderFiscalID: c.ProviderFiscalID,
		ProviderName:     c.ProviderName,
		Sender:           c.Sender,
		Subject:          c.Subject,
		AlertType:        string(c.AlertType),
		ServiceID:        c.ServiceID,
		EstimatedAmount:  c.EstimatedAmount,
		Period:           c.Period,
		Status:           string(c.Status),
		ExpenseID:        c.ExpenseID,
		ProviderAgentID:  c.ProviderAgentID,
		PropertyIDs:      c.PropertyIDs,
		Notes:            c.Notes,
		ReceivedAt:       c.ReceivedAt,
	}
	if resp.PropertyIDs == nil {
		resp.PropertyIDs = []string{}
	}
	if c.DueDate != nil {
		d := formatDate(*c.DueDate)
		resp.DueDate = &d
	}
	return resp
}

// ListCommunicationsResponse represents a page of communications.
type ListCommunicationsResponse struct {
	Communications []*CommunicationResponse `json:"communications"`
	Total          int64                    `json:"total"`
}

// CommunicationsFromDomain converts communications to responses.
func CommunicationsFromDomain(comms []*domain.ServiceCommunication) []*CommunicationResponse {
	out := make([]*CommunicationResponse, len(comms))
	for i, c := range comms {
		out[i] = CommunicationFromDomain(c)
	}
	return out
}

// CandidateResponse represents a reconciliation candidate in API responses.
type CandidateResponse struct {
	ID            string     `json:"id"`
	MovementID    string     `json:"movement_id"`
	TransactionID string     `json:"transaction_id"`
	Score         int        `json:"score"`
	Reasons       []string   `json:"reasons"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

// CandidateFromDomain converts a domain candidate to response.
func CandidateFromDomain(c *domain.ReconciliationCandidate) *CandidateResponse {
	reasons := c.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return &CandidateResponse{
		ID:            c.ID,
		MovementID:    c.MovementID,
		TransactionID: c.TransactionID,
		Score:         c.Score,
		Reasons:       reasons,
		Status:        string(c.Status),
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
		ResolvedAt:    c.ResolvedAt,
	}
}

// CandidatesFromDomain converts candidates to responses.
func CandidatesFromDomain(candidates []*domain.ReconciliationCandidate) []*CandidateResponse {
	out := make([]*CandidateResponse, len(candidates))
	for i, c := range candidates {
		out[i] = CandidateFromDomain(c)
	}
	return out
}

// ListCandidatesResponse represents a page of candidates.
type ListCandidatesResponse struct {
	Candidates []*CandidateResponse `json:"candidates"`
	Total      int64                `json:"total"`
}

// GenerateCandidatesResponse summarizes a generation run.
type GenerateCandidatesResponse struct {
	ProcessedMovements int                  `json:"processed_movements"`
	TotalCandidates    int                  `json:"total_candidates"`
	Errors             int                  `json:"errors"`
	Candidates         []*CandidateResponse `json:"candidates"`
}

// GenerateCandidatesFromResult converts a generation result to response.
func GenerateCandidatesFromResult(r *usecase.GenerateCandidatesResult) *GenerateCandidatesResponse {
	return &GenerateCandidatesResponse{
		ProcessedMovements: r.ProcessedMovements,
		TotalCandidates:    r.TotalCandidates,
		Errors:             r.Errors,
		Candidates:         CandidatesFromDomain(r.Candidates),
	}
}

// PostingLineResponse is one line of a posting.
type PostingLineResponse struct {
	AccountID      string          `json:"account_id"`
	Description    string          `json:"description,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	CounterpartyID string          `json:"counterparty_id,omitempty"`
}

// PostingResponse represents a ledger posting in API responses.
type PostingResponse struct {
	ID             string                `json:"id"`
	Type           string                `json:"type"`
	Description    string                `json:"description"`
	ImputationDate string                `json:"imputation_date"`
	DueDate        string                `json:"due_date"`
	Lines          []PostingLineResponse `json:"lines"`
	OriginalAmount decimal.Decimal       `json:"original_amount"`
	CurrentAmount  decimal.Decimal       `json:"current_amount"`
	Metadata       map[string]any        `json:"metadata,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// PostingFromDomain converts a domain posting to response.
func PostingFromDomain(p *domain.LedgerPosting) *PostingResponse {
	lines := make([]PostingLineResponse, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = PostingLineResponse{
			AccountID:      l.AccountID,
			Description:    l.Description,
			Debit:          l.Debit,
			Credit:         l.Credit,
			CounterpartyID: l.CounterpartyID,
		}
	}
	return &PostingResponse{
		ID:             p.ID,
		Type:           string(p.Type),
		Description:    p.Description,
		ImputationDate: formatDate(p.ImputationDate),
		DueDate:        formatDate(p.DueDate),
		Lines:          lines,
		OriginalAmount: p.OriginalAmount,
		CurrentAmount:  p.CurrentAmount,
		Metadata:       p.Metadata,
		CreatedAt:      p.CreatedAt,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
