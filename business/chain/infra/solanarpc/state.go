// Package solanarpc reads chain state from a Solana JSON-RPC endpoint.
package solanarpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-optimizer/business/chain/app"
	"github.com/fd1az/defi-optimizer/business/chain/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/cache"
	"github.com/fd1az/defi-optimizer/internal/circuitbreaker"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

const (
	tracerName = "chain.solanarpc"
	meterName  = "chain.solanarpc"

	blockhashKey = "latest"
)

var (
	_ app.ChainState    = (*ChainState)(nil)
	_ app.AccountReader = (*ChainState)(nil)
)

// Config holds configuration for the RPC chain source.
type Config struct {
	RPCURL              string
	Commitment          rpc.CommitmentType
	CacheTTL            time.Duration // blockhash reuse window
	PriorityFeeLamports uint64
}

// ParseCommitment maps "processed", "confirmed" and "finalized";
// anything else is confirmed.
func ParseCommitment(s string) rpc.CommitmentType {
	switch s {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

type rpcMetrics struct {
	requests  metric.Int64Counter
	errors    metric.Int64Counter
	latency   metric.Float64Histogram
	slot      metric.Int64Gauge
	cacheHits metric.Int64Counter
}

// ChainState implements app.ChainState and app.AccountReader over
// solana-go's RPC client.
type ChainState struct {
	cfg Config
	log logger.LoggerInterface

	client   *rpc.Client
	clientMu sync.RWMutex

	hashCache *cache.Cache[string, *domain.Blockhash]

	cbSlot  *circuitbreaker.CircuitBreaker[uint64]
	cbHash  *circuitbreaker.CircuitBreaker[*domain.Blockhash]
	tracer  trace.Tracer
	metrics *rpcMetrics
}

// NewChainState creates the adapter. The client is created by Connect.
func NewChainState(cfg Config, log logger.LoggerInterface) (*ChainState, error) {
	if cfg.RPCURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("solana rpc url is required"))
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}

	s := &ChainState{
		cfg:       cfg,
		log:       log,
		hashCache: cache.New[string, *domain.Blockhash](time.Minute),
		tracer:    otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	onChange := func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	slotCfg := circuitbreaker.DefaultConfig("solana-rpc-slot")
	slotCfg.OnStateChange = onChange
	s.cbSlot = circuitbreaker.New[uint64](slotCfg)

	hashCfg := circuitbreaker.DefaultConfig("solana-rpc-blockhash")
	hashCfg.OnStateChange = onChange
	s.cbHash = circuitbreaker.New[*domain.Blockhash](hashCfg)

	return s, nil
}

func (s *ChainState) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &rpcMetrics{}

	s.metrics.requests, err = meter.Int64Counter(
		"solana_rpc_requests_total",
		metric.WithDescription("Solana RPC requests by method"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	s.metrics.errors, err = meter.Int64Counter(
		"solana_rpc_errors_total",
		metric.WithDescription("Failed Solana RPC requests by method"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	s.metrics.latency, err = meter.Float64Histogram(
		"solana_rpc_latency_ms",
		metric.WithDescription("Solana RPC round trip"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.slot, err = meter.Int64Gauge(
		"solana_slot",
		metric.WithDescription("Last observed slot"),
	)
	if err != nil {
		return err
	}

	s.metrics.cacheHits, err = meter.Int64Counter(
		"solana_blockhash_cache_hits_total",
		metric.WithDescription("Blockhash lookups served from cache"),
	)
	return err
}

// Connect creates the client and verifies the endpoint with getSlot.
func (s *ChainState) Connect(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "solanarpc.connect",
		trace.WithAttributes(attribute.String("url", s.cfg.RPCURL)),
	)
	defer span.End()

	client := rpc.New(s.cfg.RPCURL)

	slot, err := client.GetSlot(ctx, s.cfg.Commitment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "getSlot failed")
		return apperror.New(apperror.CodeChainConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to reach solana rpc"))
	}

	s.clientMu.Lock()
	s.client = client
	s.clientMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	s.log.Info(ctx, "solana rpc connected", "url", s.cfg.RPCURL, "slot", slot)
	return nil
}

func (s *ChainState) Source() string { return "rpc" }

func (s *ChainState) rpcClient() (*rpc.Client, error) {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	if s.client == nil {
		return nil, apperror.New(apperror.CodeChainConnectionFailed,
			apperror.WithContext("solana rpc not connected"))
	}
	return s.client, nil
}

func (s *ChainState) record(ctx context.Context, method string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("method", method))
	s.metrics.requests.Add(ctx, 1, attrs)
	s.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	if err != nil {
		s.metrics.errors.Add(ctx, 1, attrs)
	}
}

// Slot returns the current slot at the configured commitment.
func (s *ChainState) Slot(ctx context.Context) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "solanarpc.get_slot")
	defer span.End()

	client, err := s.rpcClient()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	start := time.Now()
	slot, err := s.cbSlot.Execute(func() (uint64, error) {
		return client.GetSlot(ctx, s.cfg.Commitment)
	})
	s.record(ctx, "getSlot", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "getSlot failed")
		return 0, apperror.Wrap(err, apperror.CodeChainRPCError, "getSlot")
	}

	s.metrics.slot.Record(ctx, int64(slot))
	span.SetAttributes(attribute.Int64("slot", int64(slot)))
	return slot, nil
}

// LatestBlockhash returns a recent blockhash, reused for CacheTTL.
func (s *ChainState) LatestBlockhash(ctx context.Context) (*domain.Blockhash, error) {
	ctx, span := s.tracer.Start(ctx, "solanarpc.get_latest_blockhash")
	defer span.End()

	if bh, ok := s.hashCache.Get(ctx, blockhashKey); ok {
		s.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return bh, nil
	}

	client, err := s.rpcClient()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	start := time.Now()
	bh, err := s.cbHash.Execute(func() (*domain.Blockhash, error) {
		out, err := client.GetLatestBlockhash(ctx, s.cfg.Commitment)
		if err != nil {
			return nil, err
		}
		if out == nil || out.Value == nil {
			return nil, fmt.Errorf("empty getLatestBlockhash result")
		}
		return &domain.Blockhash{
			Hash:                 out.Value.Blockhash.String(),
			LastValidBlockHeight: out.Value.LastValidBlockHeight,
			Slot:                 out.Context.Slot,
		}, nil
	})
	s.record(ctx, "getLatestBlockhash", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "getLatestBlockhash failed")
		return nil, apperror.Wrap(err, apperror.CodeChainRPCError, "getLatestBlockhash")
	}

	if s.cfg.CacheTTL > 0 {
		s.hashCache.Set(ctx, blockhashKey, bh, s.cfg.CacheTTL)
	}
	span.SetAttributes(
		attribute.String("blockhash", bh.Hash),
		attribute.Int64("last_valid_block_height", int64(bh.LastValidBlockHeight)),
	)
	return bh, nil
}

// PriorityFee returns the configured fee.
func (s *ChainState) PriorityFee(ctx context.Context) (uint64, error) {
	return s.cfg.PriorityFeeLamports, nil
}

// Balance returns the lamports held by account.
func (s *ChainState) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "solanarpc.get_balance",
		trace.WithAttributes(attribute.String("account", account.String())),
	)
	defer span.End()

	client, err := s.rpcClient()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	start := time.Now()
	lamports, err := s.cbSlot.Execute(func() (uint64, error) {
		out, err := client.GetBalance(ctx, account, s.cfg.Commitment)
		if err != nil {
			return 0, err
		}
		return out.Value, nil
	})
	s.record(ctx, "getBalance", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "getBalance failed")
		return 0, apperror.Wrap(err, apperror.CodeChainRPCError, "getBalance")
	}

	span.SetAttributes(attribute.Int64("lamports", int64(lamports)))
	return lamports, nil
}

// Close releases the client and cache.
func (s *ChainState) Close() error {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	var err error
	if s.client != nil {
		err = s.client.Close()
		s.client = nil
	}
	s.hashCache.Close()
	return err
}
