package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	quotingDomain "github.com/fd1az/defi-optimizer/business/quoting/domain"
	"github.com/fd1az/defi-optimizer/business/strategy/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

const (
	tracerName = "strategy"
	meterName  = "strategy"
)

// DetectorConfig holds the strategy parameters.
type DetectorConfig struct {
	Modes        []domain.Kind
	Input        *asset.Asset
	Output       *asset.Asset
	TradeAmount  decimal.Decimal
	SlippageBps  int
	MinProfitPct decimal.Decimal
	CurrentPool  string
	MinAPYDiff   decimal.Decimal
}

// Detector runs the enabled strategies and returns what they found.
type Detector struct {
	cfg     DetectorConfig
	request quotingDomain.QuoteRequest
	quotes  Quotes
	market  Market
	log     logger.LoggerInterface
	tracer  trace.Tracer
	now     func() time.Time

	detections metric.Int64Counter
}

// NewDetector validates the trade request up front so every cycle quotes
// the same thing.
func NewDetector(cfg DetectorConfig, quotes Quotes, market Market, log logger.LoggerInterface) (*Detector, error) {
	req, err := quotingDomain.NewQuoteRequest(cfg.Input, cfg.Output, cfg.TradeAmount, cfg.SlippageBps)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeConfigurationError, "strategy trade request")
	}
	for _, m := range cfg.Modes {
		switch m {
		case domain.KindSwap, domain.KindArbitrage, domain.KindYield:
		default:
			return nil, apperror.New(apperror.CodeUnknownOpportunityKind, apperror.WithContext(string(m)))
		}
	}

	detections, err := otel.Meter(meterName).Int64Counter("strategy_detections_total",
		metric.WithDescription("Strategy evaluations by kind and result"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &Detector{
		cfg:        cfg,
		request:    req,
		quotes:     quotes,
		market:     market,
		log:        log,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
		detections: detections,
	}, nil
}

// Request returns the quote request the swap and arbitrage strategies use.
func (d *Detector) Request() quotingDomain.QuoteRequest {
	return d.request
}

// PoolSnapshot is one read of the yield pools. A cycle reads pools once so
// the dashboard and the yield strategy see the same APYs.
type PoolSnapshot struct {
	Pools []marketDomain.YieldPool
	Err   error
}

// ReadPools takes one pool snapshot from the market.
func (d *Detector) ReadPools(ctx context.Context) PoolSnapshot {
	pools, err := d.market.Pools(ctx)
	return PoolSnapshot{Pools: pools, Err: err}
}

// Detect evaluates every enabled strategy once, reading pools itself.
func (d *Detector) Detect(ctx context.Context) []*domain.Opportunity {
	return d.DetectWith(ctx, d.ReadPools(ctx))
}

// DetectWith evaluates every enabled strategy once against pools already
// read this cycle. A failing strategy is logged and skipped.
func (d *Detector) DetectWith(ctx context.Context, pools PoolSnapshot) []*domain.Opportunity {
	ctx, span := d.tracer.Start(ctx, "strategy.detect",
		trace.WithAttributes(attribute.Int("modes", len(d.cfg.Modes))))
	defer span.End()

	var found []*domain.Opportunity
	for _, mode := range d.cfg.Modes {
		var (
			opp *domain.Opportunity
			err error
		)
		switch mode {
		case domain.KindSwap:
			opp, err = d.detectSwap(ctx)
		case domain.KindArbitrage:
			opp, err = d.detectArbitrage(ctx)
		case domain.KindYield:
			opp, err = d.detectYield(ctx, pools)
		}

		result := "none"
		switch {
		case err != nil:
			result = "error"
			span.RecordError(err)
			d.log.Warn(ctx, "strategy failed", "kind", mode, "error", err)
		case opp != nil:
			result = "found"
			found = append(found, opp)
		}
		d.detections.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", string(mode)),
			attribute.String("result", result),
		))
	}

	span.SetAttributes(attribute.Int("opportunities", len(found)))
	span.SetStatus(codes.Ok, "")
	return found
}

func (d *Detector) detectSwap(ctx context.Context) (*domain.Opportunity, error) {
	venue := d.quotes.Primary()
	q, err := d.quotes.Quote(ctx, venue, d.request)
	if err != nil {
		return nil, err
	}
	if q == nil {
		d.log.Debug(ctx, "no swap route", "venue", venue, "pair", d.request.Pair())
		return nil, nil
	}
	return domain.EvaluateSwap(q, d.now()), nil
}

func (d *Detector) detectArbitrage(ctx context.Context) (*domain.Opportunity, error) {
	venues := d.quotes.Venues()
	if len(venues) < 2 {
		return nil, apperror.Precondition(apperror.CodeDetectionFailed, "arbitrage needs two venues")
	}

	a, err := d.quotes.Quote(ctx, venues[0], d.request)
	if err != nil {
		return nil, err
	}
	b, err := d.quotes.Quote(ctx, venues[1], d.request)
	if err != nil {
		return nil, err
	}

	opp := domain.EvaluateArbitrage(a, b, d.cfg.MinProfitPct, d.now())
	if opp == nil && a.HasOutput() && b.HasOutput() {
		d.log.Debug(ctx, "spread below threshold",
			"venue_a", venues[0], "out_a", a.OutAmount.String(),
			"venue_b", venues[1], "out_b", b.OutAmount.String(),
			"min_pct", d.cfg.MinProfitPct.String())
	}
	return opp, nil
}

func (d *Detector) detectYield(ctx context.Context, snap PoolSnapshot) (*domain.Opportunity, error) {
	if snap.Err != nil {
		return nil, snap.Err
	}
	pools := snap.Pools

	var current marketDomain.YieldPool
	found := false
	for _, p := range pools {
		if p.Is(d.cfg.CurrentPool) {
			current, found = p, true
			break
		}
	}
	if !found {
		return nil, apperror.NotFound(apperror.CodePoolNotFound, d.cfg.CurrentPool)
	}

	best, ok := marketDomain.BestExcept(pools, current.Name)
	if !ok {
		return nil, nil
	}

	opp := domain.EvaluateYield(current, best, d.cfg.MinAPYDiff, d.now())
	if opp != nil && opp.To.Is(current.Name) {
		d.log.Debug(ctx, "current pool is already the best", "pool", current.Name)
		return nil, nil
	}
	return opp, nil
}
