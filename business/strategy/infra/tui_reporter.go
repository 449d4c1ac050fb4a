package infra

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	"github.com/fd1az/defi-optimizer/business/strategy/domain"
	"github.com/fd1az/defi-optimizer/pkg/ui"
)

// TUIReporter forwards runner activity to the Bubble Tea dashboard.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter sends to the global program started by ui.Run.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: ui.Send}
}

// NewTUIReporterWith sends through fn; tests pass a recorder.
func NewTUIReporterWith(fn func(tea.Msg)) *TUIReporter {
	return &TUIReporter{send: fn}
}

func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "strategy", Status: ui.StepDone})
	return nil
}

func (r *TUIReporter) ReportCycle(report *domain.CycleReport, stats domain.Stats) {
	r.send(ui.CycleMsg{Report: report, Stats: stats})
}

func (r *TUIReporter) ReportOpportunity(opp *domain.Opportunity) {
	r.send(ui.OpportunityMsg{Opportunity: opp})
}

func (r *TUIReporter) ReportExecution(opp *domain.Opportunity, result *domain.ExecutionResult) {
	r.send(ui.ExecutionMsg{Opportunity: opp, Result: result})
}

func (r *TUIReporter) UpdatePrices(prices []marketDomain.TokenPrice) {
	r.send(ui.PriceUpdateMsg{Prices: prices})
}

func (r *TUIReporter) UpdateYields(pools []marketDomain.YieldPool) {
	r.send(ui.YieldUpdateMsg{Pools: pools})
}

func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

// Stop is a no-op; the program is shut down by main.
func (r *TUIReporter) Stop() error {
	return nil
}
