package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AlertType classifies a utility-provider notification.
type AlertType string

const (
	AlertInvoiceAvailable AlertType = "INVOICE_AVAILABLE"
	AlertUpcomingDue      AlertType = "UPCOMING_DUE"
	AlertDebtNotice       AlertType = "DEBT_NOTICE"
	AlertCutoffNotice     AlertType = "CUTOFF_NOTICE"
	AlertOther            AlertType = "OTHER"
)

// RequiresExpense reports whether the alert announces an amount owed.
func (a AlertType) RequiresExpense() bool {
	return a == AlertInvoiceAvailable || a == AlertDebtNotice
}

// CommunicationStatus is the processing state of a ServiceCommunication.
type CommunicationStatus string

const (
	CommunicationUnprocessed CommunicationStatus = "UNPROCESSED"
	CommunicationProcessed   CommunicationStatus = "PROCESSED"
	CommunicationIgnored     CommunicationStatus = "IGNORED"
	CommunicationError       CommunicationStatus = "ERROR"
)

// IsTerminal reports whether no further transition is allowed.
func (s CommunicationStatus) IsTerminal() bool {
	return s == CommunicationProcessed || s == CommunicationIgnored || s == CommunicationError
}

// ServiceCommunication is a classified utility-provider notification.
type ServiceCommunication struct {
	ID               string
	MessageID        string
	ProviderFiscalID string
	ProviderName     string
	Sender           string
	Subject          string
	Body             string
	AlertType        AlertType
	ServiceID        string
	EstimatedAmount  *decimal.Decimal
	DueDate          *time.Time
	Period           string
	Status           CommunicationStatus
	ExpenseID        *string
	ProviderAgentID  *string
	PropertyIDs      []string
	Notes            string
	ReceivedAt       time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Transition moves the communication out of UNPROCESSED. The state machine is one-way.
func (c *ServiceCommunication) Transition(to CommunicationStatus, note string, at time.Time) error {
	if c.Status != CommunicationUnprocessed || !to.IsTerminal() {
		return NewValidationError("status",
			fmt.Sprintf("cannot move communication from %s to %s", c.Status, to),
			ErrInvalidStatusTransition)
	}
	c.Status = to
	if note != "" {
		if c.Notes != "" {
			c.Notes += "; "
		}
		c.Notes += note
	}
	c.UpdatedAt = at
	return nil
}

// CommunicationFilter selects communications for listing.
type CommunicationFilter struct {
	Status CommunicationStatus
	Limit  int
	Offset int
}

// DetectedExpense is an amount owed to a utility provider for a property,
// derived from exactly one ServiceCommunication.
type DetectedExpense struct {
	ID              string
	CommunicationID string
	PropertyID      string
	ProviderAgentID string
	ServiceID       string
	AlertType       AlertType
	Amount          decimal.Decimal
	DueDate         *time.Time
	Period          string
	PostingID       *string
	CreatedAt       time.Time
}
