package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyInFlight is the value an IdempotencyStore holds for a key
	// whose request has not completed yet.
	IdempotencyInFlight = "processing"
)

// Reconciliation limits.
const (
	MaxMovementsPerRun       = 200
	DefaultToleranceDays     = 1
	MaxToleranceDays         = 3
	DefaultCandidatePool     = 50
	DefaultMaxPerMovement    = 5
	MaxCandidatesPerMovement = 10
)

// Scan defaults.
const (
	DefaultScanScope    = "mailbox"
	DefaultLookbackDays = 3
	DefaultLeaseTTL     = 15 * time.Minute
)

// Account code cache.
const (
	DefaultAccountCacheTTL = time.Hour
	accountCacheKeyPrefix  = "account_code:"
)
