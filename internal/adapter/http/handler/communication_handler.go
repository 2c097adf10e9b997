package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/mailrecon/internal/adapter/http/dto"
	"github.com/iho/mailrecon/internal/domain"
)

// CommunicationService defines the behavior needed by CommunicationHandler.
type CommunicationService interface {
	GetCommunication(ctx context.Context, id string) (*domain.ServiceCommunication, error)
	ListCommunications(ctx context.Context, filter domain.CommunicationFilter) ([]*domain.ServiceCommunication, error)
}

// CommunicationHandler handles service communication requests.
type CommunicationHandler struct {
	commUC CommunicationService
}

// NewCommunicationHandler creates a new CommunicationHandler.
func NewCommunicationHandler(commUC CommunicationService) *CommunicationHandler {
	return &CommunicationHandler{commUC: commUC}
}

// List lists communications, optionally by status.
func (h *CommunicationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	status := domain.CommunicationStatus(r.URL.Query().Get("status"))
	if status != "" && status != domain.CommunicationUnprocessed && !status.IsTerminal() {
		writeError(w, http.StatusBadRequest, "invalid status filter", string(status))
		return
	}

	comms, err := h.commUC.ListCommunications(r.Context(), domain.CommunicationFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, r, "failed to list communications", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListCommunicationsResponse{
		Communications: dto.CommunicationsFromDomain(comms),
		Total:          int64(len(comms)),
	})
}

// Get retrieves a communication by ID.
func (h *CommunicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	comm, err := h.commUC.GetCommunication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get communication", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CommunicationFromDomain(comm))
}
