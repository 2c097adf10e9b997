package usecase

import (
	"context"
	"time"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/provider"
)

// MovementRepository defines data access for external movements.
type MovementRepository interface {
	Create(ctx context.Context, tx Transaction, movement *domain.ExternalMovement) error
	// Exists reports whether a movement with the external id or source email id is stored.
	Exists(ctx context.Context, externalID, sourceEmailID string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.ExternalMovement, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.ExternalMovement, error)
	ListUnreconciled(ctx context.Context, limit int) ([]*domain.ExternalMovement, error)
	List(ctx context.Context, filter domain.MovementFilter) ([]*domain.ExternalMovement, error)
	MarkReconciled(ctx context.Context, tx Transaction, id, transactionID string, at time.Time) error
}

// CommunicationRepository defines data access for service communications.
type CommunicationRepository interface {
	Create(ctx context.Context, tx Transaction, comm *domain.ServiceCommunication) error
	ExistsByMessageID(ctx context.Context, messageID string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.ServiceCommunication, error)
	List(ctx context.Context, filter domain.CommunicationFilter) ([]*domain.ServiceCommunication, error)
}

// ExpenseRepository defines data access for detected expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, tx Transaction, expense *domain.DetectedExpense) error
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.DetectedExpense, error)
	SetPosting(ctx context.Context, tx Transaction, id, postingID string) error
}

// CandidateRepository defines data access for reconciliation candidates.
type CandidateRepository interface {
	// Create inserts the candidate unless its (movement, transaction) pair exists.
	Create(ctx context.Context, candidate *domain.ReconciliationCandidate) (bool, error)
	PairedTransactionIDs(ctx context.Context, movementID string) (map[string]struct{}, error)
	GetByID(ctx context.Context, id string) (*domain.ReconciliationCandidate, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.ReconciliationCandidate, error)
	List(ctx context.Context, filter domain.CandidateFilter) ([]*domain.ReconciliationCandidate, error)
	UpdateStatus(ctx context.Context, tx Transaction, candidate *domain.ReconciliationCandidate) error
	RejectPendingSiblings(ctx context.Context, tx Transaction, movementID, exceptID, notes string, at time.Time) (int, error)
}

// TransactionRepository reads and updates the internal ledger transactions
// that movements are reconciled against.
type TransactionRepository interface {
	FindUnreconciled(ctx context.Context, filter domain.TransactionFilter) ([]*domain.InternalTransaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.InternalTransaction, error)
	MarkReconciled(ctx context.Context, tx Transaction, id string, at time.Time) error
}

// PostingRepository defines data access for ledger postings and their lines.
type PostingRepository interface {
	Create(ctx context.Context, tx Transaction, posting *domain.LedgerPosting) error
	GetByID(ctx context.Context, id string) (*domain.LedgerPosting, error)
}

// ScanStateRepository persists the scan watermark and the cross-process lease.
type ScanStateRepository interface {
	Get(ctx context.Context, scope string) (*domain.ScanState, error)
	// AcquireLease takes the lease for scope when it is free or expired.
	AcquireLease(ctx context.Context, scope, token string, until time.Time) (bool, error)
	// RenewLease extends the lease while token still holds it.
	RenewLease(ctx context.Context, scope, token string, until time.Time) (bool, error)
	ReleaseLease(ctx context.Context, scope, token string) error
	SaveWatermark(ctx context.Context, scope string, at time.Time) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AccountResolver maps a chart-of-accounts code to an account id.
type AccountResolver interface {
	ResolveAccountCode(ctx context.Context, code string) (string, error)
}

// PropertyLookup finds properties billed under a utility service id.
type PropertyLookup interface {
	FindByServiceID(ctx context.Context, serviceID string) ([]string, error)
}

// AgentLookup finds the agent registered for a fiscal id.
type AgentLookup interface {
	FindByFiscalID(ctx context.Context, fiscalID string) (string, error)
}

// MailFetcher reads notification emails received since a point in time.
// Failures to reach the mailbox wrap domain.ErrTransportFailure.
type MailFetcher interface {
	FetchSince(ctx context.Context, since time.Time, senders []string) ([]domain.Email, error)
}

// EmailParser routes an email to the provider parser that recognizes it.
type EmailParser interface {
	Senders(filter provider.Kind) []string
	Parse(email domain.Email, filter provider.Kind) (provider.Record, error)
}

// EventClassifier deduplicates and persists a parsed record.
type EventClassifier interface {
	Classify(ctx context.Context, rec provider.Record) (ClassifyResult, error)
}

// CandidateGenerator proposes reconciliation candidates.
type CandidateGenerator interface {
	GenerateCandidates(ctx context.Context, input GenerateCandidatesInput) (*GenerateCandidatesResult, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient database errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops the claim on key so the request can be retried.
	Release(ctx context.Context, key string) error
}
