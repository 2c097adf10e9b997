package mocks

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

// MockMovementRepository is an in-memory MovementRepository.
type MockMovementRepository struct {
	mu        sync.RWMutex
	movements map[string]*domain.ExternalMovement

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, movement *domain.ExternalMovement) error
	ExistsFunc           func(ctx context.Context, externalID, sourceEmailID string) (bool, error)
	GetByIDFunc          func(ctx context.Context, id string) (*domain.ExternalMovement, error)
	ListUnreconciledFunc func(ctx context.Context, limit int) ([]*domain.ExternalMovement, error)
	MarkReconciledFunc   func(ctx context.Context, tx usecase.Transaction, id, transactionID string, at time.Time) error
}

func NewMockMovementRepository() *MockMovementRepository {
	return &MockMovementRepository{
		movements: make(map[string]*domain.ExternalMovement),
	}
}

// Put stores a movement directly.
func (m *MockMovementRepository) Put(movement *domain.ExternalMovement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements[movement.ID] = movement
}

func (m *MockMovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.ExternalMovement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, movement)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.movements {
		if existing.ExternalID == movement.ExternalID {
			return domain.ErrDuplicateEvent
		}
	}
	m.movements[movement.ID] = movement
	return nil
}

func (m *MockMovementRepository) Exists(ctx context.Context, externalID, sourceEmailID string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, externalID, sourceEmailID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, existing := range m.movements {
		if existing.ExternalID == externalID || (sourceEmailID != "" && existing.SourceEmailID == sourceEmailID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMovementRepository) GetByID(ctx context.Context, id string) (*domain.ExternalMovement, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if movement, ok := m.movements[id]; ok {
		return movement, nil
	}
	return nil, domain.ErrMovementNotFound
}

func (m *MockMovementRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ExternalMovement, error) {
	return m.GetByID(ctx, id)
}

func (m *MockMovementRepository) ListUnreconciled(ctx context.Context, limit int) ([]*domain.ExternalMovement, error) {
	if m.ListUnreconciledFunc != nil {
		return m.ListUnreconciledFunc(ctx, limit)
	}
	reconciled := false
	return m.List(ctx, domain.MovementFilter{Reconciled: &reconciled, Limit: limit})
}

func (m *MockMovementRepository) List(ctx context.Context, filter domain.MovementFilter) ([]*domain.ExternalMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ExternalMovement
	for _, movement := range m.movements {
		if filter.Reconciled != nil && movement.Reconciled != *filter.Reconciled {
			continue
		}
		out = append(out, movement)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockMovementRepository) MarkReconciled(ctx context.Context, tx usecase.Transaction, id, transactionID string, at time.Time) error {
	if m.MarkReconciledFunc != nil {
		return m.MarkReconciledFunc(ctx, tx, id, transactionID, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	movement, ok := m.movements[id]
	if !ok {
		return domain.ErrMovementNotFound
	}
	movement.Reconciled = true
	movement.TransactionID = &transactionID
	movement.UpdatedAt = at
	return nil
}

// MockCommunicationRepository is an in-memory CommunicationRepository.
type MockCommunicationRepository struct {
	mu    sync.RWMutex
	comms map[string]*domain.ServiceCommunication

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, comm *domain.ServiceCommunication) error
	ExistsByMessageIDFunc func(ctx context.Context, messageID string) (bool, error)
}

func NewMockCommunicationRepository() *MockCommunicationRepository {
	return &MockCommunicationRepository{
		comms: make(map[string]*domain.ServiceCommunication),
	}
}

func (m *MockCommunicationRepository) Create(ctx context.Context, tx usecase.Transaction, comm *domain.ServiceCommunication) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, comm)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.comms {
		if existing.MessageID == comm.MessageID {
			return domain.ErrDuplicateEvent
		}
	}
	m.comms[comm.ID] = comm
	return nil
}

func (m *MockCommunicationRepository) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	if m.ExistsByMessageIDFunc != nil {
		return m.ExistsByMessageIDFunc(ctx, messageID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, existing := range m.comms {
		if existing.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCommunicationRepository) GetByID(ctx context.Context, id string) (*domain.ServiceCommunication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if comm, ok := m.comms[id]; ok {
		return comm, nil
	}
	return nil, domain.ErrCommunicationNotFound
}

func (m *MockCommunicationRepository) List(ctx context.Context, filter domain.CommunicationFilter) ([]*domain.ServiceCommunication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ServiceCommunication
	for _, comm := range m.comms {
		if filter.Status != "" && comm.Status != filter.Status {
			continue
		}
		out = append(out, comm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Count returns the number of stored communications.
func (m *MockCommunicationRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.comms)
}

// MockExpenseRepository is an in-memory ExpenseRepository.
type MockExpenseRepository struct {
	mu       sync.RWMutex
	expenses map[string]*domain.DetectedExpense

	CreateFunc func(ctx context.Context, tx usecase.Transaction, expense *domain.DetectedExpense) error
}

func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		expenses: make(map[string]*domain.DetectedExpense),
	}
}

func (m *MockExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, expense *domain.DetectedExpense) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, expense)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[expense.ID] = expense
	return nil
}

func (m *MockExpenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.DetectedExpense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if expense, ok := m.expenses[id]; ok {
		return expense, nil
	}
	return nil, domain.ErrExpenseNotFound
}

func (m *MockExpenseRepository) SetPosting(ctx context.Context, tx usecase.Transaction, id, postingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense, ok := m.expenses[id]
	if !ok {
		return domain.ErrExpenseNotFound
	}
	expense.PostingID = &postingID
	return nil
}

// All returns the stored expenses.
func (m *MockExpenseRepository) All() []*domain.DetectedExpense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.DetectedExpense, 0, len(m.expenses))
	for _, expense := range m.expenses {
		out = append(out, expense)
	}
	return out
}

// MockCandidateRepository is an in-memory CandidateRepository.
type MockCandidateRepository struct {
	mu         sync.RWMutex
	candidates map[string]*domain.ReconciliationCandidate

	CreateFunc       func(ctx context.Context, candidate *domain.ReconciliationCandidate) (bool, error)
	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, candidate *domain.ReconciliationCandidate) error
}

func NewMockCandidateRepository() *MockCandidateRepository {
	return &MockCandidateRepository{
		candidates: make(map[string]*domain.ReconciliationCandidate),
	}
}

func (m *MockCandidateRepository) Create(ctx context.Context, candidate *domain.ReconciliationCandidate) (bool, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, candidate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.candidates {
		if existing.MovementID == candidate.MovementID && existing.TransactionID == candidate.TransactionID {
			return false, nil
		}
	}
	m.candidates[candidate.ID] = candidate
	return true, nil
}

func (m *MockCandidateRepository) PairedTransactionIDs(ctx context.Context, movementID string) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]struct{})
	for _, c := range m.candidates {
		if c.MovementID == movementID {
			out[c.TransactionID] = struct{}{}
		}
	}
	return out, nil
}

func (m *MockCandidateRepository) GetByID(ctx context.Context, id string) (*domain.ReconciliationCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.candidates[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, domain.ErrCandidateNotFound
}

func (m *MockCandidateRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ReconciliationCandidate, error) {
	return m.GetByID(ctx, id)
}

func (m *MockCandidateRepository) List(ctx context.Context, filter domain.CandidateFilter) ([]*domain.ReconciliationCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ReconciliationCandidate
	for _, c := range m.candidates {
		if filter.MovementID != "" && c.MovementID != filter.MovementID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockCandidateRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, candidate *domain.ReconciliationCandidate) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, candidate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[candidate.ID]; !ok {
		return domain.ErrCandidateNotFound
	}
	copied := *candidate
	m.candidates[candidate.ID] = &copied
	return nil
}

func (m *MockCandidateRepository) RejectPendingSiblings(ctx context.Context, tx usecase.Transaction, movementID, exceptID, notes string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rejected := 0
	for _, c := range m.candidates {
		if c.MovementID != movementID || c.ID == exceptID || c.Status != domain.CandidatePending {
			continue
		}
		c.Status = domain.CandidateRejected
		c.Notes = notes
		resolvedAt := at
		c.ResolvedAt = &resolvedAt
		rejected++
	}
	return rejected, nil
}

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.InternalTransaction

	FindUnreconciledFunc func(ctx context.Context, filter domain.TransactionFilter) ([]*domain.InternalTransaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.InternalTransaction),
	}
}

// Put stores a transaction directly.
func (m *MockTransactionRepository) Put(txn *domain.InternalTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
}

func (m *MockTransactionRepository) FindUnreconciled(ctx context.Context, filter domain.TransactionFilter) ([]*domain.InternalTransaction, error) {
	if m.FindUnreconciledFunc != nil {
		return m.FindUnreconciledFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.InternalTransaction
	for _, txn := range m.transactions {
		if txn.Reconciled || txn.Direction != filter.Direction || !txn.Amount.Equal(filter.Amount) {
			continue
		}
		if txn.Date.Before(filter.DateFrom) || txn.Date.After(filter.DateTo) {
			continue
		}
		out = append(out, txn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.InternalTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.transactions[id]; ok {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) MarkReconciled(ctx context.Context, tx usecase.Transaction, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	txn.Reconciled = true
	return nil
}

// MockPostingRepository is an in-memory PostingRepository.
type MockPostingRepository struct {
	mu       sync.RWMutex
	postings map[string]*domain.LedgerPosting

	CreateFunc func(ctx context.Context, tx usecase.Transaction, posting *domain.LedgerPosting) error
}

func NewMockPostingRepository() *MockPostingRepository {
	return &MockPostingRepository{
		postings: make(map[string]*domain.LedgerPosting),
	}
}

func (m *MockPostingRepository) Create(ctx context.Context, tx usecase.Transaction, posting *domain.LedgerPosting) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, posting)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings[posting.ID] = posting
	return nil
}

func (m *MockPostingRepository) GetByID(ctx context.Context, id string) (*domain.LedgerPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if posting, ok := m.postings[id]; ok {
		return posting, nil
	}
	return nil, domain.ErrPostingNotFound
}

// Count returns the number of stored postings.
func (m *MockPostingRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.postings)
}

// MockOutboxRepository records created events.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published && (limit <= 0 || len(out) < limit) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// EventTypes returns the types of the recorded events in order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.EventType
	}
	return out
}

// MockScanStateRepository keeps scan state in memory with lease semantics.
type MockScanStateRepository struct {
	mu     sync.Mutex
	states map[string]*domain.ScanState

	AcquireLeaseFunc  func(ctx context.Context, scope, token string, until time.Time) (bool, error)
	RenewLeaseFunc    func(ctx context.Context, scope, token string, until time.Time) (bool, error)
	SaveWatermarkFunc func(ctx context.Context, scope string, at time.Time) error
}

func NewMockScanStateRepository() *MockScanStateRepository {
	return &MockScanStateRepository{
		states: make(map[string]*domain.ScanState),
	}
}

func (m *MockScanStateRepository) state(scope string) *domain.ScanState {
	s, ok := m.states[scope]
	if !ok {
		s = &domain.ScanState{Scope: scope}
		m.states[scope] = s
	}
	return s
}

func (m *MockScanStateRepository) Get(ctx context.Context, scope string) (*domain.ScanState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *m.state(scope)
	return &copied, nil
}

func (m *MockScanStateRepository) AcquireLease(ctx context.Context, scope, token string, until time.Time) (bool, error) {
	if m.AcquireLeaseFunc != nil {
		return m.AcquireLeaseFunc(ctx, scope, token, until)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state(scope)
	if s.LeaseToken != "" && s.LeaseExpiresAt != nil && s.LeaseExpiresAt.After(time.Now()) {
		return false, nil
	}
	s.LeaseToken = token
	s.LeaseExpiresAt = &until
	return true, nil
}

func (m *MockScanStateRepository) RenewLease(ctx context.Context, scope, token string, until time.Time) (bool, error) {
	if m.RenewLeaseFunc != nil {
		return m.RenewLeaseFunc(ctx, scope, token, until)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state(scope)
	if s.LeaseToken != token {
		return false, nil
	}
	s.LeaseExpiresAt = &until
	return true, nil
}

func (m *MockScanStateRepository) ReleaseLease(ctx context.Context, scope, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state(scope)
	if s.LeaseToken == token {
		s.LeaseToken = ""
		s.LeaseExpiresAt = nil
	}
	return nil
}

func (m *MockScanStateRepository) SaveWatermark(ctx context.Context, scope string, at time.Time) error {
	if m.SaveWatermarkFunc != nil {
		return m.SaveWatermarkFunc(ctx, scope, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state(scope).LastSuccessfulCheck = &at
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte(usecase.IdempotencyInFlight)
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
