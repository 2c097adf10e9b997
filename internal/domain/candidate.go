package domain

import (
	"time"
)

// CandidateStatus is the operator workflow state of a candidate.
type CandidateStatus string

const (
	CandidatePending   CandidateStatus = "PENDING"
	CandidateConfirmed CandidateStatus = "CONFIRMED"
	CandidateRejected  CandidateStatus = "REJECTED"
)

// Match reasons recorded on a candidate.
const (
	ReasonAmountMatch   = "amount_match"
	ReasonDateMatch     = "date_match"
	ReasonFiscalIDMatch = "fiscal_id_match"
)

// Score weights. They add up to 100.
const (
	ScoreAmount   = 50
	ScoreDate     = 30
	ScoreFiscalID = 20
)

// MatchFlags are the facts verified for a movement/transaction pair.
type MatchFlags struct {
	Amount   bool
	Date     bool
	FiscalID bool
}

// Score returns the additive score and the reasons behind it.
func (f MatchFlags) Score() (int, []string) {
	score := 0
	reasons := make([]string, 0, 3)
	if f.Amount {
		score += ScoreAmount
		reasons = append(reasons, ReasonAmountMatch)
	}
	if f.Date {
		score += ScoreDate
		reasons = append(reasons, ReasonDateMatch)
	}
	if f.FiscalID {
		score += ScoreFiscalID
		reasons = append(reasons, ReasonFiscalIDMatch)
	}
	return score, reasons
}

// ReconciliationCandidate proposes pairing one external movement with one
// internal transaction.
type ReconciliationCandidate struct {
	ID            string
	MovementID    string
	TransactionID string
	Score         int
	Reasons       []string
	Status        CandidateStatus
	Notes         string
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

// Resolve moves a pending candidate to a terminal status.
func (c *ReconciliationCandidate) Resolve(to CandidateStatus, notes string, at time.Time) error {
	if to != CandidateConfirmed && to != CandidateRejected {
		return NewValidationError("status", "must be CONFIRMED or REJECTED", ErrInvalidStatusTransition)
	}
	if c.Status != CandidatePending {
		return ErrCandidateNotPending
	}
	c.Status = to
	if notes != "" {
		c.Notes = notes
	}
	c.ResolvedAt = &at
	return nil
}

// CandidateFilter selects candidates for listing.
type CandidateFilter struct {
	MovementID string
	Status     CandidateStatus
	Limit      int
	Offset     int
}
