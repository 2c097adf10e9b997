package domain

import "time"

// Event types
const (
	EventTypeMovementCreated      = "movement.created"
	EventTypeCommunicationCreated = "communication.created"
	EventTypeExpenseDetected      = "expense.detected"
	EventTypeCandidateConfirmed   = "candidate.confirmed"
	EventTypePostingCreated       = "posting.created"
)

// Aggregate types
const (
	AggregateTypeMovement      = "external_movement"
	AggregateTypeCommunication = "service_communication"
	AggregateTypeExpense       = "detected_expense"
	AggregateTypeCandidate     = "reconciliation_candidate"
	AggregateTypePosting       = "ledger_posting"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// MovementCreatedEvent payload
type MovementCreatedEvent struct {
	MovementID string `json:"movement_id"`
	ExternalID string `json:"external_id"`
	Direction  string `json:"direction"`
	Amount     string `json:"amount"`
}

// ExpenseDetectedEvent payload
type ExpenseDetectedEvent struct {
	ExpenseID       string `json:"expense_id"`
	CommunicationID string `json:"communication_id"`
	PropertyID      string `json:"property_id"`
	ProviderAgentID string `json:"provider_agent_id"`
	Amount          string `json:"amount"`
	Period          string `json:"period"`
	DueDate         string `json:"due_date,omitempty"`
}

// CandidateConfirmedEvent payload
type CandidateConfirmedEvent struct {
	CandidateID   string `json:"candidate_id"`
	MovementID    string `json:"movement_id"`
	TransactionID string `json:"transaction_id"`
	Rejected      int    `json:"rejected_siblings"`
}

// PostingCreatedEvent payload
type PostingCreatedEvent struct {
	PostingID string `json:"posting_id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
}
