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

// PostingService defines the behavior needed by PostingHandler.
type PostingService interface {
	CreatePosting(ctx context.Context, input usecase.CreatePostingInput) (*domain.LedgerPosting, error)
	CreateRentPosting(ctx context.Context, input usecase.RentInput) (*domain.LedgerPosting, error)
	GetPosting(ctx context.Context, id string) (*domain.LedgerPosting, error)
}

// PostingHandler handles ledger posting requests.
type PostingHandler struct {
	postingUC PostingService
}

// NewPostingHandler creates a new PostingHandler.
func NewPostingHandler(postingUC PostingService) *PostingHandler {
	return &PostingHandler{postingUC: postingUC}
}

// Create builds and stores a balanced posting from explicit lines.
func (h *PostingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, "invalid posting", err)
		return
	}

	posting, err := h.postingUC.CreatePosting(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to create posting", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingFromDomain(posting))
}

// CreateRent books a monthly rent charge split between landlord and agency.
func (h *PostingHandler) CreateRent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRentPostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, "invalid rent posting", err)
		return
	}

	posting, err := h.postingUC.CreateRentPosting(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to create rent posting", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingFromDomain(posting))
}

// Get retrieves a posting with its lines.
func (h *PostingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing posting ID", "")
		return
	}

	posting, err := h.postingUC.GetPosting(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get posting", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PostingFromDomain(posting))
}
