package eventpublisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mailrecon/internal/domain"
)

type stubBooker struct {
	calls []string
	err   error
}

func (s *stubBooker) RecordServiceExpense(_ context.Context, expenseID string) (*domain.LedgerPosting, error) {
	s.calls = append(s.calls, expenseID)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.LedgerPosting{ID: "post-" + expenseID}, nil
}

func expenseEvent(expenseID string) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:          "evt-" + expenseID,
		EventType:   domain.EventTypeExpenseDetected,
		AggregateID: expenseID,
		Payload:     map[string]any{"expense_id": expenseID},
	}
}

func TestDispatcherRoutesByType(t *testing.T) {
	fallback := &stubPublisher{}
	booker := &stubBooker{}

	d := NewDispatcher(fallback)
	d.Handle(domain.EventTypeExpenseDetected, NewExpenseDetectedHandler(booker))

	require.NoError(t, d.Publish(context.Background(), expenseEvent("exp-1")))
	require.NoError(t, d.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-2", EventType: domain.EventTypeMovementCreated}))

	assert.Equal(t, []string{"exp-1"}, booker.calls)
	require.Len(t, fallback.published, 1)
	assert.Equal(t, "evt-2", fallback.published[0].ID)
}

func TestDispatcherWithoutFallback(t *testing.T) {
	d := NewDispatcher(nil)
	assert.NoError(t, d.Publish(context.Background(), &domain.OutboxEvent{EventType: "unknown"}))
}

func TestExpenseDetectedHandlerErrors(t *testing.T) {
	tests := []struct {
		name    string
		event   *domain.OutboxEvent
		err     error
		wantErr bool
		calls   int
	}{
		{name: "missing expense id is dropped", event: &domain.OutboxEvent{EventType: domain.EventTypeExpenseDetected}},
		{name: "unknown account code is dropped", event: expenseEvent("exp-1"), err: domain.ErrAccountCodeNotFound, calls: 1},
		{name: "validation failure is dropped", event: expenseEvent("exp-1"), err: domain.NewValidationError("amount", "must be positive", domain.ErrInvalidAmount), calls: 1},
		{name: "transient failure is retried", event: expenseEvent("exp-1"), err: errors.New("connection reset"), wantErr: true, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booker := &stubBooker{err: tt.err}
			err := NewExpenseDetectedHandler(booker)(context.Background(), tt.event)
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, booker.calls, tt.calls)
		})
	}
}

func TestTransientHandlerFailureLeavesEventInOutbox(t *testing.T) {
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{expenseEvent("exp-1")}}
	d := NewDispatcher(nil)
	d.Handle(domain.EventTypeExpenseDetected, NewExpenseDetectedHandler(&stubBooker{err: errors.New("timeout")}))

	ep := NewEventPublisher(Config{OutboxRepo: repo, Publisher: d})
	require.NoError(t, ep.processEvents(context.Background()))
	assert.Empty(t, repo.marked)
}
