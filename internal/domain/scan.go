package domain

import "time"

// ScanOutcome is the result of routing one email through the pipeline.
type ScanOutcome string

const (
	OutcomeNew       ScanOutcome = "new"
	OutcomeDuplicate ScanOutcome = "duplicate"
	OutcomeError     ScanOutcome = "error"
)

// ScanResult tallies one orchestrator run.
type ScanResult struct {
	Processed      int
	New            int
	Duplicate      int
	Errors         int
	Skipped        bool
	StartedAt      time.Time
	FinishedAt     time.Time
	NewMovementIDs []string
}

// Record counts an outcome.
func (r *ScanResult) Record(outcome ScanOutcome) {
	r.Processed++
	switch outcome {
	case OutcomeNew:
		r.New++
	case OutcomeDuplicate:
		r.Duplicate++
	default:
		r.Errors++
	}
}

// ScanState is the persisted watermark and lease of a scan scope.
type ScanState struct {
	Scope               string
	LastSuccessfulCheck *time.Time
	LeaseToken          string
	LeaseExpiresAt      *time.Time
}
