package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/mailrecon/internal/adapter/http/dto"
	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	GenerateCandidates(ctx context.Context, input usecase.GenerateCandidatesInput) (*usecase.GenerateCandidatesResult, error)
	UpdateCandidateStatus(ctx context.Context, input usecase.UpdateCandidateStatusInput) (*domain.ReconciliationCandidate, error)
	ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]*domain.ReconciliationCandidate, error)
	GetMovement(ctx context.Context, id string) (*domain.ExternalMovement, error)
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]*domain.ExternalMovement, error)
}

// ReconciliationHandler handles candidate and movement requests.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// Generate proposes candidates for one movement or a batch of unreconciled ones.
func (h *ReconciliationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateCandidatesRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.reconUC.GenerateCandidates(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to generate candidates", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GenerateCandidatesFromResult(result))
}

// ListCandidates lists candidates, optionally filtered by movement and status.
func (h *ReconciliationHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	filter := domain.CandidateFilter{
		MovementID: r.URL.Query().Get("movement_id"),
		Status:     domain.CandidateStatus(r.URL.Query().Get("status")),
		Limit:      limit,
		Offset:     offset,
	}
	switch filter.Status {
	case "", domain.CandidatePending, domain.CandidateConfirmed, domain.CandidateRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid status filter", string(filter.Status))
		return
	}

	candidates, err := h.reconUC.ListCandidates(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, "failed to list candidates", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListCandidatesResponse{
		Candidates: dto.CandidatesFromDomain(candidates),
		Total:      int64(len(candidates)),
	})
}

// UpdateCandidate confirms or rejects a pending candidate.
func (h *ReconciliationHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing candidate ID", "")
		return
	}

	var req dto.UpdateCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	candidate, err := h.reconUC.UpdateCandidateStatus(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeDomainError(w, r, "failed to update candidate", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CandidateFromDomain(candidate))
}

// ListMovements lists external movements, optionally by reconciled flag.
func (h *ReconciliationHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	reconciled, err := parseBoolQuery(r, "reconciled")
	if err != nil {
		writeDomainError(w, r, "invalid reconciled filter", err)
		return
	}
	limit, offset := parsePage(r)

	movements, err := h.reconUC.ListMovements(r.Context(), domain.MovementFilter{
		Reconciled: reconciled,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeDomainError(w, r, "failed to list movements", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListMovementsResponse{
		Movements: dto.MovementsFromDomain(movements),
		Total:     int64(len(movements)),
	})
}

// GetMovement retrieves a movement by ID.
func (h *ReconciliationHandler) GetMovement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing movement ID", "")
		return
	}

	movement, err := h.reconUC.GetMovement(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get movement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}
