package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/iho/mailrecon/internal/adapter/http/dto"
	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/infrastructure/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks for it.
// Unmapped errors are logged and answered with a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg(message)
		writeError(w, status, message, "internal error")
		return
	}
	writeError(w, status, message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrMovementNotFound),
		errors.Is(err, domain.ErrCommunicationNotFound),
		errors.Is(err, domain.ErrCandidateNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrPostingNotFound),
		errors.Is(err, domain.ErrExpenseNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCandidateNotPending),
		errors.Is(err, domain.ErrMovementAlreadyReconciled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnbalancedPosting),
		errors.Is(err, domain.ErrEmptyPosting),
		errors.Is(err, domain.ErrAccountCodeNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTransportFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched
// when optional is true.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parsePage reads limit and offset, clamping limit to maxPageSize.
func parsePage(r *http.Request) (limit, offset int) {
	limit = parseIntQuery(r, "limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = parseIntQuery(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parseBoolQuery returns nil when key is absent.
func parseBoolQuery(r *http.Request, key string) (*bool, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, domain.NewValidationError(key, "must be a boolean", err)
	}
	return &b, nil
}
