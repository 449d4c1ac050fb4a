package ui

import "time"

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// Startup step statuses.
const (
	StepPending    = "pending"
	StepConnecting = "connecting"
	StepConnected  = "connected"
	StepDone       = "done"
	StepFailed     = "failed"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name    string
	Status  string
	Message string
}

// Finished reports whether the step no longer blocks the dashboard.
func (s *StartupStep) Finished() bool {
	return s.Status == StepConnected || s.Status == StepDone
}

// StartupOrder lists the startup steps in display order. Keys match the
// Step field of StartupMsg.
var StartupOrder = []string{"config", "chain", "market", "wallet", "quoting", "strategy"}

func defaultStartupSteps() map[string]*StartupStep {
	names := map[string]string{
		"config":   "Loading configuration",
		"chain":    "Connecting to chain source",
		"market":   "Starting price feed",
		"wallet":   "Loading agent wallet",
		"quoting":  "Preparing quote venues",
		"strategy": "Starting strategies",
	}
	steps := make(map[string]*StartupStep, len(names))
	for key, name := range names {
		steps[key] = &StartupStep{Name: name, Status: StepPending}
	}
	return steps
}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}
