package eventpublisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/mailrecon/internal/domain"
)

// Handler consumes one event type in-process.
type Handler func(ctx context.Context, event *domain.OutboxEvent) error

// Dispatcher routes events to in-process handlers by type and hands the
// rest to a fallback publisher.
type Dispatcher struct {
	handlers map[string]Handler
	fallback Publisher
}

// NewDispatcher creates a Dispatcher. fallback may be nil.
func NewDispatcher(fallback Publisher) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
		fallback: fallback,
	}
}

// Handle registers h for eventType, replacing any previous handler.
func (d *Dispatcher) Handle(eventType string, h Handler) {
	d.handlers[eventType] = h
}

// Publish implements Publisher.
func (d *Dispatcher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if h, ok := d.handlers[event.EventType]; ok {
		return h(ctx, event)
	}
	if d.fallback != nil {
		return d.fallback.Publish(ctx, event)
	}
	return nil
}

// ExpenseBooker books the ledger posting of a detected expense.
type ExpenseBooker interface {
	RecordServiceExpense(ctx context.Context, expenseID string) (*domain.LedgerPosting, error)
}

// NewExpenseDetectedHandler books the utility-expense posting for an
// expense.detected event. Errors that a retry cannot fix are logged and
// the event is acknowledged; anything else is returned so the outbox
// retries it.
func NewExpenseDetectedHandler(booker ExpenseBooker) Handler {
	return func(ctx context.Context, event *domain.OutboxEvent) error {
		log := zerolog.Ctx(ctx)

		expenseID, _ := event.Payload["expense_id"].(string)
		if expenseID == "" {
			log.Error().Msg("expense.detected event without expense_id, dropping")
			return nil
		}

		posting, err := booker.RecordServiceExpense(ctx, expenseID)
		if err != nil {
			if isPermanent(err) {
				log.Error().Err(err).Str("expense_id", expenseID).Msg("cannot book detected expense, dropping")
				return nil
			}
			return fmt.Errorf("book expense %s: %w", expenseID, err)
		}

		log.Info().
			Str("expense_id", expenseID).
			Str("posting_id", posting.ID).
			Msg("detected expense booked")
		return nil
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrExpenseNotFound) ||
		errors.Is(err, domain.ErrAccountCodeNotFound)
}
