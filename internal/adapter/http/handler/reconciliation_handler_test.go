package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/mailrecon/internal/adapter/http/dto"
	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

type reconciliationServiceStub struct {
	generateFn       func(ctx context.Context, input usecase.GenerateCandidatesInput) (*usecase.GenerateCandidatesResult, error)
	updateFn         func(ctx context.Context, input usecase.UpdateCandidateStatusInput) (*domain.ReconciliationCandidate, error)
	listCandidatesFn func(ctx context.Context, filter domain.CandidateFilter) ([]*domain.ReconciliationCandidate, error)
	getMovementFn    func(ctx context.Context, id string) (*domain.ExternalMovement, error)
	listMovementsFn  func(ctx context.Context, filter domain.MovementFilter) ([]*domain.ExternalMovement, error)
}

func (s *reconciliationServiceStub) GenerateCandidates(ctx context.Context, input usecase.GenerateCandidatesInput) (*usecase.GenerateCandidatesResult, error) {
	return s.generateFn(ctx, input)
}

func (s *reconciliationServiceStub) UpdateCandidateStatus(ctx context.Context, input usecase.UpdateCandidateStatusInput) (*domain.ReconciliationCandidate, error) {
	return s.updateFn(ctx, input)
}

func (s *reconciliationServiceStub) ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]*domain.ReconciliationCandidate, error) {
	return s.listCandidatesFn(ctx, filter)
}

func (s *reconciliationServiceStub) GetMovement(ctx context.Context, id string) (*domain.ExternalMovement, error) {
	return s.getMovementFn(ctx, id)
}

func (s *reconciliationServiceStub) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]*domain.ExternalMovement, error) {
	return s.listMovementsFn(ctx, filter)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestReconciliationHandler_Generate(t *testing.T) {
	var captured usecase.GenerateCandidatesInput
	h := NewReconciliationHandler(&reconciliationServiceStub{
		generateFn: func(_ context.Context, input usecase.GenerateCandidatesInput) (*usecase.GenerateCandidatesResult, error) {
			captured = input
			return &usecase.GenerateCandidatesResult{
				ProcessedMovements: 1,
				TotalCandidates:    1,
				Candidates: []*domain.ReconciliationCandidate{{
					ID: "cand-1", MovementID: "mov-1", TransactionID: "tx-1", Score: 80,
					Reasons: []string{domain.ReasonAmountMatch, domain.ReasonDateMatch},
					Status:  domain.CandidatePending,
				}},
			}, nil
		},
	})

	body, _ := json.Marshal(dto.GenerateCandidatesRequest{MovementID: "mov-1", ToleranceDays: 2})
	rec := httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reconciliation/candidates/generate", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.MovementID != "mov-1" || captured.ToleranceDays != 2 {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.GenerateCandidatesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalCandidates != 1 || resp.Candidates[0].Score != 80 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestReconciliationHandler_GenerateReconciledMovement(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationServiceStub{
		generateFn: func(context.Context, usecase.GenerateCandidatesInput) (*usecase.GenerateCandidatesResult, error) {
			return nil, domain.ErrMovementAlreadyReconciled
		},
	})

	rec := httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"movement_id":"mov-1"}`)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestReconciliationHandler_UpdateCandidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "confirm", body: `{"status":"CONFIRMED","notes":"ok"}`, wantStatus: http.StatusOK},
		{name: "already resolved", body: `{"status":"REJECTED"}`, err: domain.ErrCandidateNotPending, wantStatus: http.StatusConflict},
		{name: "back to pending", body: `{"status":"PENDING"}`, err: domain.NewValidationError("status", "must be CONFIRMED or REJECTED", domain.ErrInvalidStatusTransition), wantStatus: http.StatusBadRequest},
		{name: "unknown candidate", body: `{"status":"REJECTED"}`, err: domain.ErrCandidateNotFound, wantStatus: http.StatusNotFound},
		{name: "malformed body", body: `status=CONFIRMED`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured usecase.UpdateCandidateStatusInput
			h := NewReconciliationHandler(&reconciliationServiceStub{
				updateFn: func(_ context.Context, input usecase.UpdateCandidateStatusInput) (*domain.ReconciliationCandidate, error) {
					captured = input
					if tt.err != nil {
						return nil, tt.err
					}
					now := time.Now()
					return &domain.ReconciliationCandidate{ID: input.CandidateID, Status: input.Status, Notes: input.Notes, ResolvedAt: &now}, nil
				},
			})

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/reconciliation/candidates/cand-7", strings.NewReader(tt.body))
			req = withURLParam(req, "id", "cand-7")
			rec := httptest.NewRecorder()
			h.UpdateCandidate(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && (captured.CandidateID != "cand-7" || captured.Status != domain.CandidateConfirmed) {
				t.Fatalf("unexpected input %+v", captured)
			}
		})
	}
}

func TestReconciliationHandler_ListCandidates(t *testing.T) {
	var captured domain.CandidateFilter
	h := NewReconciliationHandler(&reconciliationServiceStub{
		listCandidatesFn: func(_ context.Context, filter domain.CandidateFilter) ([]*domain.ReconciliationCandidate, error) {
			captured = filter
			return []*domain.ReconciliationCandidate{{ID: "c1"}, {ID: "c2"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.ListCandidates(rec, httptest.NewRequest(http.MethodGet, "/?movement_id=mov-1&status=PENDING&limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.MovementID != "mov-1" || captured.Status != domain.CandidatePending || captured.Limit != 10 {
		t.Fatalf("unexpected filter %+v", captured)
	}

	var resp dto.ListCandidatesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected 2 candidates, got %d", resp.Total)
	}

	rec = httptest.NewRecorder()
	h.ListCandidates(rec, httptest.NewRequest(http.MethodGet, "/?status=MAYBE", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestReconciliationHandler_Movements(t *testing.T) {
	var captured domain.MovementFilter
	h := NewReconciliationHandler(&reconciliationServiceStub{
		listMovementsFn: func(_ context.Context, filter domain.MovementFilter) ([]*domain.ExternalMovement, error) {
			captured = filter
			return []*domain.ExternalMovement{{ID: "mov-1", Amount: decimal.NewFromInt(10)}}, nil
		},
		getMovementFn: func(_ context.Context, id string) (*domain.ExternalMovement, error) {
			if id != "mov-1" {
				return nil, domain.ErrMovementNotFound
			}
			return &domain.ExternalMovement{ID: id, Direction: domain.DirectionCredit}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.ListMovements(rec, httptest.NewRequest(http.MethodGet, "/?reconciled=false", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Reconciled == nil || *captured.Reconciled {
		t.Fatalf("expected reconciled=false filter, got %+v", captured)
	}

	rec = httptest.NewRecorder()
	h.ListMovements(rec, httptest.NewRequest(http.MethodGet, "/?reconciled=sometimes", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetMovement(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "mov-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetMovement(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "mov-x"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
