package handler

import (
	"context"
	"net/http"

	"github.com/iho/mailrecon/internal/adapter/http/dto"
	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/provider"
)

// ScanService defines the behavior needed by ScanHandler.
type ScanService interface {
	TriggerScan(ctx context.Context, filter provider.Kind) (*domain.ScanResult, error)
	State(ctx context.Context) (*domain.ScanState, error)
	Running() bool
}

// ScanHandler handles mailbox scan requests.
type ScanHandler struct {
	scanUC ScanService
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scanUC ScanService) *ScanHandler {
	return &ScanHandler{scanUC: scanUC}
}

// Trigger runs a scan and returns its counts. A scan that overlaps a
// running one returns immediately with skipped set.
func (h *ScanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req dto.TriggerScanRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	kind, err := provider.ParseKind(req.Kind)
	if err != nil {
		writeDomainError(w, r, "invalid scan kind", err)
		return
	}

	result, err := h.scanUC.TriggerScan(r.Context(), kind)
	if err != nil {
		writeDomainError(w, r, "scan failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScanResultFromDomain(result))
}

// State returns the persisted watermark.
func (h *ScanHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.scanUC.State(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to get scan state", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScanStateResponse{
		Scope:               state.Scope,
		LastSuccessfulCheck: state.LastSuccessfulCheck,
		Running:             h.scanUC.Running(),
	})
}
