package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the outcome of acting on an opportunity.
type ExecutionStatus string

const (
	// StatusSimulated means the transaction was built and logged, not sent.
	StatusSimulated ExecutionStatus = "simulated"
	// StatusBroadcast means the wallet accepted the transaction.
	StatusBroadcast ExecutionStatus = "broadcast"
	StatusAbandoned ExecutionStatus = "abandoned"
)

// ExecutionResult records what the executor did with an opportunity.
type ExecutionResult struct {
	OpportunityID uuid.UUID
	Kind          Kind
	Status        ExecutionStatus
	TxHash        string
	Reason        string
	At            time.Time
}

// NewExecutionResult starts a result for opp.
func NewExecutionResult(opp *Opportunity, at time.Time) *ExecutionResult {
	return &ExecutionResult{
		OpportunityID: opp.ID,
		Kind:          opp.Kind,
		At:            at,
	}
}

// Abandon marks the result abandoned with err as the reason.
func (r *ExecutionResult) Abandon(err error) {
	r.Status = StatusAbandoned
	if err != nil {
		r.Reason = err.Error()
	}
}

func (r *ExecutionResult) IsAbandoned() bool {
	return r.Status == StatusAbandoned
}

// Stats counts runner activity since start.
type Stats struct {
	Cycles        uint64
	Opportunities uint64
	Executions    uint64
	Abandoned     uint64
	StartedAt     time.Time
	LastCycle     time.Time
}

// Uptime is the time since the runner started.
func (s Stats) Uptime(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// CycleReport summarizes one detection and execution pass.
type CycleReport struct {
	Number        uint64
	StartedAt     time.Time
	Duration      time.Duration
	Opportunities []*Opportunity
	Results       []*ExecutionResult
}
