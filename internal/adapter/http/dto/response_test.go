package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/mailrecon/internal/domain"
)

func TestScanResultFromDomain(t *testing.T) {
	resp := ScanResultFromDomain(&domain.ScanResult{Skipped: true})
	if !resp.Skipped || resp.StartedAt != nil || resp.NewMovementIDs == nil {
		t.Fatalf("unexpected response %+v", resp)
	}

	started := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	resp = ScanResultFromDomain(&domain.ScanResult{Processed: 2, New: 1, StartedAt: started, NewMovementIDs: []string{"m"}})
	if resp.StartedAt == nil || !resp.StartedAt.Equal(started) || resp.FinishedAt != nil {
		t.Fatalf("unexpected timestamps %+v", resp)
	}
}

func TestMovementFromDomain(t *testing.T) {
	txID := "tx-1"
	m := &domain.ExternalMovement{
		ID:            "mov-1",
		ExternalID:    "OP-1",
		Direction:     domain.DirectionDebit,
		Amount:        decimal.RequireFromString("137409.81"),
		OperationDate: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Reconciled:    true,
		TransactionID: &txID,
	}

	resp := MovementFromDomain(m)
	if resp.OperationDate != "2025-12-01" || resp.Direction != "DEBIT" || *resp.TransactionID != "tx-1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["amount"] != "137409.81" {
		t.Fatalf("amount encoded as %v", decoded["amount"])
	}
}

func TestCommunicationFromDomain(t *testing.T) {
	due := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	c := &domain.ServiceCommunication{
		ID:        "com-1",
		AlertType: domain.AlertInvoiceAvailable,
		Status:    domain.CommunicationProcessed,
		DueDate:   &due,
	}

	resp := CommunicationFromDomain(c)
	if resp.DueDate == nil || *resp.DueDate != "2025-12-15" {
		t.Fatalf("due date = %v", resp.DueDate)
	}
	if resp.PropertyIDs == nil {
		t.Fatal("property ids must encode as an empty list")
	}
}

func TestPostingFromDomain(t *testing.T) {
	p := &domain.LedgerPosting{
		ID:             "post-1",
		Type:           domain.PostingRent,
		ImputationDate: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		Lines: []domain.PostingLine{
			{AccountID: "a", Debit: decimal.NewFromInt(100)},
			{AccountID: "b", Credit: decimal.NewFromInt(100)},
		},
		OriginalAmount: decimal.NewFromInt(100),
		CurrentAmount:  decimal.NewFromInt(100),
	}

	resp := PostingFromDomain(p)
	if len(resp.Lines) != 2 || resp.Lines[1].AccountID != "b" || resp.DueDate != "2025-12-10" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCandidateFromDomain_NilReasons(t *testing.T) {
	resp := CandidateFromDomain(&domain.ReconciliationCandidate{ID: "c", Status: domain.CandidatePending})
	if resp.Reasons == nil || resp.Status != "PENDING" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
