// Package infra contains infrastructure adapters for the strategy context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	"github.com/fd1az/defi-optimizer/business/strategy/domain"
)

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu    sync.Mutex
	out   io.Writer
	conns map[string]bool
	now   func() time.Time
}

// NewConsoleReporter writes to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo writes to out.
func NewConsoleReporterTo(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{
		out:   out,
		conns: make(map[string]bool),
		now:   time.Now,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "DeFi Optimizer Started")
	fmt.Fprintln(r.out, "======================")
	return nil
}

// ReportOpportunity prints a detected opportunity.
func (r *ConsoleReporter) ReportOpportunity(opp *domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, heavyRule)
	fmt.Fprintf(r.out, "%s OPPORTUNITY DETECTED\n", kindTitle(opp.Kind))
	fmt.Fprintln(r.out, heavyRule)
	fmt.Fprintf(r.out, "ID:             %s\n", opp.ID)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", opp.DetectedAt.Format(time.RFC3339))

	switch opp.Kind {
	case domain.KindSwap:
		if q := opp.Quote; q != nil {
			fmt.Fprintf(r.out, "Pair:           %s\n", q.Pair())
			fmt.Fprintf(r.out, "Venue:          %s\n", q.Venue)
			fmt.Fprintln(r.out, lightRule)
			fmt.Fprintf(r.out, "  In:           %s\n", q.InAmount)
			fmt.Fprintf(r.out, "  Out:          %s\n", q.OutAmount)
			fmt.Fprintf(r.out, "  Min out:      %s (%d bps)\n", q.OtherAmountThreshold, q.SlippageBps)
			fmt.Fprintf(r.out, "  Rate:         %s\n", q.Rate().StringFixed(6))
		}
	case domain.KindArbitrage:
		if opp.Best != nil && opp.Alternative != nil {
			fmt.Fprintf(r.out, "Pair:           %s\n", opp.Best.Pair())
			fmt.Fprintln(r.out, lightRule)
			fmt.Fprintln(r.out, "QUOTES")
			fmt.Fprintf(r.out, "  %-13s %s\n", opp.Best.Venue+":", opp.Best.OutAmount)
			fmt.Fprintf(r.out, "  %-13s %s\n", opp.Alternative.Venue+":", opp.Alternative.OutAmount)
			fmt.Fprintln(r.out, lightRule)
			fmt.Fprintln(r.out, "PROFIT")
			fmt.Fprintf(r.out, "  Extra out:    %s %s (%s%%)\n", opp.Profit, opp.Best.Output.Symbol(), opp.ProfitPct.StringFixed(3))
		}
	case domain.KindYield:
		fmt.Fprintln(r.out, lightRule)
		fmt.Fprintf(r.out, "  From:         %s (%s%% APY)\n", opp.From.Name, opp.From.APY.StringFixed(2))
		fmt.Fprintf(r.out, "  To:           %s (%s%% APY)\n", opp.To.Name, opp.To.APY.StringFixed(2))
		fmt.Fprintf(r.out, "  Gain:         +%s APY points\n", opp.Profit.StringFixed(2))
	}
	fmt.Fprintln(r.out, heavyRule)
}

// ReportExecution prints the outcome of an execution.
func (r *ConsoleReporter) ReportExecution(opp *domain.Opportunity, res *domain.ExecutionResult) {
	if res == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("[%s] %s %s: %s", res.At.Format("15:04:05"), opp.Kind, opp.ShortID(), res.Status)
	switch {
	case res.IsAbandoned():
		line += " (" + res.Reason + ")"
	case res.TxHash != "":
		line += " tx=" + res.TxHash
	}
	fmt.Fprintln(r.out, line)
}

// ReportCycle prints a one-line cycle summary.
func (r *ConsoleReporter) ReportCycle(report *domain.CycleReport, stats domain.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "[%s] cycle #%d: %d opportunities in %s (total: %d executed, %d abandoned)\n",
		report.StartedAt.Format("15:04:05"), report.Number, len(report.Opportunities),
		report.Duration.Round(time.Millisecond), stats.Executions, stats.Abandoned)
}

// UpdatePrices is a no-op; the console only prints opportunities.
func (r *ConsoleReporter) UpdatePrices(prices []marketDomain.TokenPrice) {}

// UpdateYields is a no-op for the console.
func (r *ConsoleReporter) UpdateYields(pools []marketDomain.YieldPool) {}

// UpdateConnectionStatus prints connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.conns[name]; ok && prev == connected {
		return
	}
	r.conns[name] = connected

	status := "disconnected"
	if connected {
		status = "connected"
		if latency > 0 {
			status = fmt.Sprintf("connected (%s)", latency.Round(time.Millisecond))
		}
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", r.now().Format("15:04:05"), name, status)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "DeFi Optimizer Stopped")
	return nil
}

func kindTitle(k domain.Kind) string {
	switch k {
	case domain.KindSwap:
		return "SWAP"
	case domain.KindArbitrage:
		return "ARBITRAGE"
	case domain.KindYield:
		return "YIELD"
	default:
		return "UNKNOWN"
	}
}
