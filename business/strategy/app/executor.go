package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-optimizer/business/strategy/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

// ExecutorConfig controls what happens after a transaction is built.
type ExecutorConfig struct {
	// SimulateBroadcast hands the unsigned payload to the wallet, which
	// returns a placeholder hash. Nothing is signed.
	SimulateBroadcast bool
}

// Executor acts on opportunities. It never signs: the furthest it goes is
// building the swap transaction and, optionally, a simulated broadcast.
type Executor struct {
	cfg    ExecutorConfig
	quotes Quotes
	wallet Wallet
	log    logger.LoggerInterface
	tracer trace.Tracer
	now    func() time.Time

	executions metric.Int64Counter
}

func NewExecutor(cfg ExecutorConfig, quotes Quotes, wallet Wallet, log logger.LoggerInterface) (*Executor, error) {
	executions, err := otel.Meter(meterName).Int64Counter("strategy_executions_total",
		metric.WithDescription("Executions by kind and status"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &Executor{
		cfg:        cfg,
		quotes:     quotes,
		wallet:     wallet,
		log:        log,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
		executions: executions,
	}, nil
}

// Execute acts on opp. The result is always non-nil; when err is non-nil
// the result is abandoned and carries err as its reason.
func (e *Executor) Execute(ctx context.Context, opp *domain.Opportunity) (*domain.ExecutionResult, error) {
	ctx, span := e.tracer.Start(ctx, "strategy.execute",
		trace.WithAttributes(
			attribute.String("opportunity.id", opp.ID.String()),
			attribute.String("opportunity.kind", string(opp.Kind)),
		))
	defer span.End()

	res := domain.NewExecutionResult(opp, e.now())

	var err error
	switch opp.Kind {
	case domain.KindSwap, domain.KindArbitrage:
		err = e.executeSwap(ctx, opp, res)
	case domain.KindYield:
		err = e.executeYield(ctx, opp, res)
	default:
		err = apperror.New(apperror.CodeUnknownOpportunityKind, apperror.WithContext(string(opp.Kind)))
	}

	if err != nil {
		res.Abandon(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "abandoned")
	} else {
		span.SetStatus(codes.Ok, string(res.Status))
	}

	e.executions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(opp.Kind)),
		attribute.String("status", string(res.Status)),
	))
	return res, err
}

func (e *Executor) executeSwap(ctx context.Context, opp *domain.Opportunity, res *domain.ExecutionResult) error {
	q := opp.ExecutableQuote()
	if q == nil {
		return apperror.Validation(apperror.CodeInvalidQuote, "opportunity has no quote")
	}

	owner, err := e.wallet.Owner()
	if err != nil {
		return err
	}

	if q.Input.Equals(asset.SOL) {
		if err := e.wallet.RequireBalance(ctx, q.InAmount.ToDecimal()); err != nil {
			return err
		}
	}

	tx, err := e.quotes.BuildSwap(ctx, q, owner)
	if err != nil {
		return err
	}
	if !tx.HasPayload() {
		return apperror.New(apperror.CodeSwapTransactionMissing, apperror.WithContext(q.Venue))
	}

	e.log.Info(ctx, "would sign and broadcast swap transaction",
		"opportunity", opp.ShortID(),
		"venue", q.Venue,
		"in", q.InAmount.String(),
		"out", q.OutAmount.String(),
		"min_out", q.OtherAmountThreshold.String(),
		"last_valid_block_height", tx.LastValidBlockHeight,
		"priority_fee_lamports", tx.PrioritizationFeeLamports)

	if !e.cfg.SimulateBroadcast {
		res.Status = domain.StatusSimulated
		return nil
	}

	hash, err := e.wallet.Broadcast(ctx, tx.SwapTransaction)
	if err != nil {
		return err
	}
	res.Status = domain.StatusBroadcast
	res.TxHash = string(hash)
	e.log.Info(ctx, "transaction sent", "opportunity", opp.ShortID(), "tx", res.TxHash)
	return nil
}

func (e *Executor) executeYield(ctx context.Context, opp *domain.Opportunity, res *domain.ExecutionResult) error {
	if _, err := e.wallet.Owner(); err != nil {
		return err
	}

	e.log.Info(ctx, "would withdraw and redeposit liquidity",
		"opportunity", opp.ShortID(),
		"withdraw_from", opp.From.Name,
		"from_apy", opp.From.APY.StringFixed(2),
		"deposit_into", opp.To.Name,
		"to_apy", opp.To.APY.StringFixed(2))

	res.Status = domain.StatusSimulated
	return nil
}
