// Package jupiter implements the quoting ports against the Jupiter swap
// aggregator API.
package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-optimizer/business/quoting/app"
	"github.com/fd1az/defi-optimizer/business/quoting/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/cache"
	"github.com/fd1az/defi-optimizer/internal/circuitbreaker"
	"github.com/fd1az/defi-optimizer/internal/httpclient"
	"github.com/fd1az/defi-optimizer/internal/logger"
	"github.com/fd1az/defi-optimizer/internal/ratelimit"
)

const (
	tracerName = "jupiter"
	meterName  = "jupiter"

	// VenueName is the venue this client quotes as.
	VenueName = "jupiter"

	// DefaultBaseURL is the public v6 API.
	DefaultBaseURL = "https://quote-api.jup.ag/v6"
)

var (
	_ app.Quoter      = (*Client)(nil)
	_ app.SwapBuilder = (*Client)(nil)

	errNoRoute = errors.New("jupiter: no route")
)

// Config holds the client settings.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	QuoteCacheTTL  time.Duration
}

type clientMetrics struct {
	quotes    metric.Int64Counter
	noRoute   metric.Int64Counter
	cacheHits metric.Int64Counter
	latency   metric.Float64Histogram
}

// Client quotes and builds swaps through Jupiter.
type Client struct {
	cfg  Config
	http httpclient.Client
	log  logger.LoggerInterface

	quotes *cache.Cache[string, *domain.Quote]
	cb     *circuitbreaker.CircuitBreaker[*QuoteResponse]
	cbSwap *circuitbreaker.CircuitBreaker[*SwapResponse]

	tracer  trace.Tracer
	metrics *clientMetrics
}

// NewClient creates the client with its rate limiter and breakers.
func NewClient(cfg Config, log logger.LoggerInterface, opts ...httpclient.Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}

	base := []httpclient.Option{
		httpclient.WithProviderName(VenueName),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
		httpclient.WithRateLimiter(ratelimit.New(VenueName, cfg.RequestsPerSec, cfg.Burst)),
	}
	hc, err := httpclient.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	c := &Client{
		cfg:    cfg,
		http:   hc,
		log:    log,
		quotes: cache.New[string, *domain.Quote](time.Minute),
		tracer: otel.Tracer(tracerName),
	}

	onChange := func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	quoteCfg := circuitbreaker.DefaultConfig("jupiter-quote")
	quoteCfg.OnStateChange = onChange
	// a missing route is an answer, not an outage
	quoteCfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, errNoRoute) }
	c.cb = circuitbreaker.New[*QuoteResponse](quoteCfg)

	swapCfg := circuitbreaker.DefaultConfig("jupiter-swap")
	swapCfg.OnStateChange = onChange
	c.cbSwap = circuitbreaker.New[*SwapResponse](swapCfg)

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	c.metrics = &clientMetrics{}

	c.metrics.quotes, err = meter.Int64Counter("jupiter_quotes_total",
		metric.WithDescription("Quotes fetched from Jupiter"))
	if err != nil {
		return err
	}
	c.metrics.noRoute, err = meter.Int64Counter("jupiter_no_route_total",
		metric.WithDescription("Quote requests without a route"))
	if err != nil {
		return err
	}
	c.metrics.cacheHits, err = meter.Int64Counter("jupiter_quote_cache_hits_total",
		metric.WithDescription("Quotes served from cache"))
	if err != nil {
		return err
	}
	c.metrics.latency, err = meter.Float64Histogram("jupiter_request_duration_seconds",
		metric.WithDescription("Jupiter request latency"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}
	return nil
}

func (c *Client) Venue() string { return VenueName }

// Close stops the quote cache janitor.
func (c *Client) Close() error {
	c.quotes.Close()
	return nil
}

// Quote fetches a quote. No route yields nil, nil.
func (c *Client) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "jupiter.quote",
		trace.WithAttributes(
			attribute.String("pair", req.Pair()),
			attribute.String("amount", req.Amount.RawString()),
		))
	defer span.End()

	key := req.Key()
	if q, ok := c.quotes.Get(ctx, key); ok {
		c.metrics.cacheHits.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return q, nil
	}

	start := time.Now()
	resp, err := c.cb.Execute(func() (*QuoteResponse, error) {
		return c.fetchQuote(ctx, req)
	})
	c.metrics.latency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("endpoint", "quote")))

	if errors.Is(err, errNoRoute) {
		c.metrics.noRoute.Add(ctx, 1)
		span.AddEvent("no route")
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return nil, apperror.Wrap(err, apperror.CodeQuoteFailed, "jupiter quote")
	}

	quote, err := c.toQuote(req, resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid quote")
		return nil, err
	}

	c.metrics.quotes.Add(ctx, 1)
	if c.cfg.QuoteCacheTTL > 0 {
		c.quotes.Set(ctx, key, quote, c.cfg.QuoteCacheTTL)
	}
	span.SetStatus(codes.Ok, "quoted")
	return quote, nil
}

func (c *Client) fetchQuote(ctx context.Context, req domain.QuoteRequest) (*QuoteResponse, error) {
	var out QuoteResponse
	_, err := c.http.NewRequest(
		httpclient.WithResponseErrorHandler(quoteErrorHandler),
		httpclient.WithLabels(httpclient.Label{Key: "endpoint", Value: "quote"}),
	).
		SetQueryParam("inputMint", req.Input.Mint()).
		SetQueryParam("outputMint", req.Output.Mint()).
		SetQueryParam("amount", req.Amount.RawString()).
		SetQueryParam("slippageBps", strconv.Itoa(req.SlippageBps)).
		SetQueryParam("swapMode", string(domain.SwapModeExactIn)).
		SetResult(&out).
		Get(ctx, "/quote")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// quoteErrorHandler turns "no route" answers into errNoRoute.
func quoteErrorHandler(status int, body []byte) error {
	if status < 400 {
		return nil
	}
	if status == http.StatusNotFound {
		return errNoRoute
	}
	var e ErrorResponse
	if json.Unmarshal(body, &e) == nil && noRouteCodes[e.ErrorCode] {
		return errNoRoute
	}
	return httpclient.DefaultErrorHandler(VenueName)(status, body)
}

func (c *Client) toQuote(req domain.QuoteRequest, resp *QuoteResponse) (*domain.Quote, error) {
	invalid := func(cause error, what string) error {
		return apperror.New(apperror.CodeInvalidQuote,
			apperror.WithCause(cause),
			apperror.WithContext("jupiter: "+what))
	}

	if resp.InputMint != req.Input.Mint() || resp.OutputMint != req.Output.Mint() {
		return nil, invalid(nil, fmt.Sprintf("quoted %s->%s", resp.InputMint, resp.OutputMint))
	}
	in, err := asset.ParseRaw(req.Input, resp.InAmount)
	if err != nil {
		return nil, invalid(err, "inAmount")
	}
	out, err := asset.ParseRaw(req.Output, resp.OutAmount)
	if err != nil {
		return nil, invalid(err, "outAmount")
	}
	minOut := domain.MinimumOut(out, resp.SlippageBps)
	if resp.OtherAmountThreshold != "" {
		if minOut, err = asset.ParseRaw(req.Output, resp.OtherAmountThreshold); err != nil {
			return nil, invalid(err, "otherAmountThreshold")
		}
	}
	impact := decimal.Zero
	if resp.PriceImpactPct != "" {
		if impact, err = decimal.NewFromString(resp.PriceImpactPct); err != nil {
			return nil, invalid(err, "priceImpactPct")
		}
	}

	route := make([]domain.RouteStep, 0, len(resp.RoutePlan))
	for _, step := range resp.RoutePlan {
		route = append(route, domain.RouteStep{
			Label:      step.SwapInfo.Label,
			AMMKey:     step.SwapInfo.AMMKey,
			InputMint:  step.SwapInfo.InputMint,
			OutputMint: step.SwapInfo.OutputMint,
			InAmount:   step.SwapInfo.InAmount,
			OutAmount:  step.SwapInfo.OutAmount,
			FeeAmount:  step.SwapInfo.FeeAmount,
			FeeMint:    step.SwapInfo.FeeMint,
			Percent:    step.Percent,
		})
	}

	mode := domain.SwapMode(resp.SwapMode)
	if mode == "" {
		mode = domain.SwapModeExactIn
	}

	return &domain.Quote{
		Venue:                VenueName,
		Input:                req.Input,
		Output:               req.Output,
		InAmount:             in,
		OutAmount:            out,
		OtherAmountThreshold: minOut,
		SwapMode:             mode,
		SlippageBps:          resp.SlippageBps,
		PriceImpactPct:       impact,
		RoutePlan:            route,
		ContextSlot:          resp.ContextSlot,
		TimeTaken:            time.Duration(resp.TimeTaken * float64(time.Second)),
		CreatedAt:            time.Now(),
	}, nil
}

// toResponse rebuilds the wire quote the swap endpoint expects.
func toResponse(q *domain.Quote) *QuoteResponse {
	plan := make([]RoutePlanStep, 0, len(q.RoutePlan))
	for _, s := range q.RoutePlan {
		plan = append(plan, RoutePlanStep{
			SwapInfo: SwapInfo{
				AMMKey:     s.AMMKey,
				Label:      s.Label,
				InputMint:  s.InputMint,
				OutputMint: s.OutputMint,
				InAmount:   s.InAmount,
				OutAmount:  s.OutAmount,
				FeeAmount:  s.FeeAmount,
				FeeMint:    s.FeeMint,
			},
			Percent: s.Percent,
		})
	}
	return &QuoteResponse{
		InputMint:            q.Input.Mint(),
		InAmount:             q.InAmount.RawString(),
		OutputMint:           q.Output.Mint(),
		OutAmount:            q.OutAmount.RawString(),
		OtherAmountThreshold: q.OtherAmountThreshold.RawString(),
		SwapMode:             string(q.SwapMode),
		SlippageBps:          q.SlippageBps,
		PriceImpactPct:       q.PriceImpactPct.String(),
		RoutePlan:            plan,
		ContextSlot:          q.ContextSlot,
		TimeTaken:            q.TimeTaken.Seconds(),
	}
}

// SwapTransaction asks Jupiter for the unsigned swap transaction.
func (c *Client) SwapTransaction(ctx context.Context, quote *domain.Quote, owner solana.PublicKey) (*domain.SwapTransaction, error) {
	if quote == nil {
		return nil, apperror.Validation(apperror.CodeInvalidQuote, "nil quote")
	}
	if owner.IsZero() {
		return nil, apperror.Precondition(apperror.CodeWalletAddressMissing, "swap needs an owner")
	}

	ctx, span := c.tracer.Start(ctx, "jupiter.swap",
		trace.WithAttributes(
			attribute.String("pair", quote.Pair()),
			attribute.String("owner", owner.String()),
		))
	defer span.End()

	start := time.Now()
	resp, err := c.cbSwap.Execute(func() (*SwapResponse, error) {
		var out SwapResponse
		_, err := c.http.NewRequest(httpclient.WithLabels(httpclient.Label{Key: "endpoint", Value: "swap"})).
			SetBody(SwapRequest{
				QuoteResponse:             toResponse(quote),
				UserPublicKey:             owner.String(),
				WrapAndUnwrapSol:          true,
				DynamicComputeUnitLimit:   true,
				PrioritizationFeeLamports: "auto",
			}).
			SetResult(&out).
			Post(ctx, "/swap")
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
	c.metrics.latency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("endpoint", "swap")))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "swap failed")
		return nil, apperror.Wrap(err, apperror.CodeSwapBuildFailed, "jupiter swap")
	}

	span.SetStatus(codes.Ok, "built")
	return &domain.SwapTransaction{
		SwapTransaction:           resp.SwapTransaction,
		LastValidBlockHeight:      resp.LastValidBlockHeight,
		PrioritizationFeeLamports: resp.PrioritizationFeeLamports,
	}, nil
}
