package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chainDomain "github.com/fd1az/defi-optimizer/business/chain/domain"
	"github.com/fd1az/defi-optimizer/business/strategy/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

// Runner drives detection and execution on a fixed interval.
type Runner struct {
	interval time.Duration
	detector *Detector
	executor *Executor
	market   Market
	chain    ChainStatus
	reporter Reporter
	log      logger.LoggerInterface
	tracer   trace.Tracer
	now      func() time.Time

	mu      sync.RWMutex
	stats   domain.Stats
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// serializes cycles between the loop and RunOnce callers
	cycleMu sync.Mutex

	cycles        metric.Int64Counter
	opportunities metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// NewRunner wires a runner. chain may be nil.
func NewRunner(
	interval time.Duration,
	detector *Detector,
	executor *Executor,
	market Market,
	chain ChainStatus,
	reporter Reporter,
	log logger.LoggerInterface,
) (*Runner, error) {
	if interval <= 0 {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "strategy interval must be positive")
	}

	r := &Runner{
		interval: interval,
		detector: detector,
		executor: executor,
		market:   market,
		chain:    chain,
		reporter: reporter,
		log:      log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return r, nil
}

func (r *Runner) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.cycles, err = meter.Int64Counter("optimizer_cycles_total",
		metric.WithDescription("Completed detection cycles"))
	if err != nil {
		return err
	}
	r.opportunities, err = meter.Int64Counter("optimizer_opportunities_total",
		metric.WithDescription("Opportunities detected by kind"))
	if err != nil {
		return err
	}
	r.cycleDuration, err = meter.Float64Histogram("optimizer_cycle_duration_seconds",
		metric.WithDescription("Time to run one cycle"),
		metric.WithUnit("s"))
	return err
}

// Start runs one cycle immediately and then one per interval until Stop
// or ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return apperror.Precondition(apperror.CodeInvalidState, "runner already started")
	}
	r.running = true
	r.stats.StartedAt = r.now()
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	r.log.Info(ctx, "starting strategy runner", "interval", r.interval.String())

	if err := r.reporter.Start(ctx); err != nil {
		cancel()
		r.mu.Lock()
		r.running = false
		close(r.done)
		r.mu.Unlock()
		return err
	}

	go r.run(runCtx)
	return nil
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info(context.Background(), "runner stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes the reporter's market view, detects opportunities and
// executes each one. Failures are logged and not retried.
func (r *Runner) RunOnce(ctx context.Context) *domain.CycleReport {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	started := r.now()
	ctx, span := r.tracer.Start(ctx, "strategy.cycle")
	defer span.End()

	pools := r.detector.ReadPools(ctx)
	r.publishMarket(ctx, pools)

	report := &domain.CycleReport{StartedAt: started}
	report.Opportunities = r.detector.DetectWith(ctx, pools)
	if len(report.Opportunities) == 0 {
		r.log.Info(ctx, "no opportunities")
	}

	var abandoned uint64
	for _, opp := range report.Opportunities {
		r.log.Info(ctx, "opportunity detected", "id", opp.ShortID(), "kind", opp.Kind, "summary", opp.Summary())
		r.reporter.ReportOpportunity(opp)
		r.opportunities.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(opp.Kind))))

		res, err := r.executor.Execute(ctx, opp)
		if err != nil {
			abandoned++
			r.log.Warn(ctx, "execution abandoned", "id", opp.ShortID(), "kind", opp.Kind, "error", err)
		}
		report.Results = append(report.Results, res)
		r.reporter.ReportExecution(opp, res)
	}
	report.Duration = r.now().Sub(started)

	r.mu.Lock()
	r.stats.Cycles++
	r.stats.Opportunities += uint64(len(report.Opportunities))
	r.stats.Executions += uint64(len(report.Results)) - abandoned
	r.stats.Abandoned += abandoned
	r.stats.LastCycle = r.now()
	report.Number = r.stats.Cycles
	stats := r.stats
	r.mu.Unlock()

	span.SetAttributes(
		attribute.Int64("cycle", int64(report.Number)),
		attribute.Int("opportunities", len(report.Opportunities)),
	)
	r.cycles.Add(ctx, 1)
	r.cycleDuration.Record(ctx, report.Duration.Seconds())
	r.reporter.ReportCycle(report, stats)
	return report
}

func (r *Runner) publishMarket(ctx context.Context, pools PoolSnapshot) {
	r.reporter.UpdatePrices(r.market.Prices(ctx))

	if pools.Err != nil {
		r.log.Warn(ctx, "pool refresh failed", "error", pools.Err)
	} else {
		r.reporter.UpdateYields(pools.Pools)
	}

	r.reporter.UpdateConnectionStatus("market:"+r.market.FeedSource(), true, 0)
	if r.chain != nil {
		st := r.chain.Status()
		r.reporter.UpdateConnectionStatus("chain:"+st.Source, st.State == chainDomain.StateConnected, st.Latency)
	}
}

// Stop ends the loop, waits for an in-flight cycle, then stops the reporter.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
	return r.reporter.Stop()
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() domain.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// CheckHealthy reports unhealthy when a started runner has missed two
// consecutive intervals.
func (r *Runner) CheckHealthy(ctx context.Context) (bool, string) {
	r.mu.RLock()
	running, stats := r.running, r.stats
	r.mu.RUnlock()

	if !running {
		return true, "idle"
	}
	if stats.LastCycle.IsZero() {
		if r.now().Sub(stats.StartedAt) > 2*r.interval {
			return false, "no cycle completed"
		}
		return true, "starting"
	}
	if age := r.now().Sub(stats.LastCycle); age > 2*r.interval {
		return false, fmt.Sprintf("last cycle %s ago", age.Truncate(time.Second))
	}
	return true, fmt.Sprintf("%d cycles, %d opportunities", stats.Cycles, stats.Opportunities)
}
