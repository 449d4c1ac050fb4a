// Package ui provides the Bubble Tea dashboard for the optimizer.
package ui

import (
	"time"

	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	"github.com/fd1az/defi-optimizer/business/strategy/domain"
)

// Message types for TUI updates

// OpportunityMsg is sent when a strategy detects an opportunity.
type OpportunityMsg struct {
	Opportunity *domain.Opportunity
}

// ExecutionMsg carries the executor's outcome for an opportunity.
type ExecutionMsg struct {
	Opportunity *domain.Opportunity
	Result      *domain.ExecutionResult
}

// CycleMsg is sent after every runner cycle.
type CycleMsg struct {
	Report *domain.CycleReport
	Stats  domain.Stats
}

// PriceUpdateMsg is sent when prices are updated.
type PriceUpdateMsg struct {
	Prices []marketDomain.TokenPrice
}

// YieldUpdateMsg is sent when pool APYs are refreshed.
type YieldUpdateMsg struct {
	Pools []marketDomain.YieldPool
}

// ConnectionStatusMsg is sent when connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // module name, or "config"
	Status  string // "connecting", "connected", "done", "failed"
	Message string
}
