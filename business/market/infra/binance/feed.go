package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-optimizer/business/market/app"
	"github.com/fd1az/defi-optimizer/business/market/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/logger"
	"github.com/fd1az/defi-optimizer/internal/wsconn"
)

const (
	tracerName = "binance"
	meterName  = "binance"

	// BaseWSURL is the public spot stream endpoint.
	BaseWSURL = "wss://stream.binance.com:9443"
)

var _ app.PriceFeed = (*Feed)(nil)

// Config holds the live feed settings.
type Config struct {
	BaseURL      string
	Symbols      []string      // e.g. "SOLUSDT"
	StaleTimeout time.Duration // older ticks fall back
	ReadTimeout  time.Duration
}

type feedMetrics struct {
	messages    metric.Int64Counter
	parseErrors metric.Int64Counter
	fallbacks   metric.Int64Counter
}

type tick struct {
	usd decimal.Decimal
	at  time.Time
}

// Feed serves the latest Binance ticker prices. Stablecoins are pinned to
// one dollar; tokens without a fresh tick are served by the fallback feed.
type Feed struct {
	cfg      Config
	registry *asset.Registry
	fallback app.PriceFeed
	log      logger.LoggerInterface
	now      func() time.Time

	connMu sync.Mutex
	conn   *wsconn.Client

	mu    sync.RWMutex
	ticks map[asset.MintID]tick
	// pair symbol ("SOLUSDT") to token
	bySymbol map[string]*asset.Asset

	tracer  trace.Tracer
	metrics *feedMetrics
}

// NewFeed resolves every configured symbol against registry.
func NewFeed(cfg Config, registry *asset.Registry, fallback app.PriceFeed, log logger.LoggerInterface) (*Feed, error) {
	if len(cfg.Symbols) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("binance: no symbols configured"))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseWSURL
	}

	f := &Feed{
		cfg:      cfg,
		registry: registry,
		fallback: fallback,
		log:      log,
		now:      time.Now,
		ticks:    make(map[asset.MintID]tick),
		bySymbol: make(map[string]*asset.Asset, len(cfg.Symbols)),
		tracer:   otel.Tracer(tracerName),
	}

	for _, sym := range cfg.Symbols {
		base, ok := BaseSymbol(sym)
		if !ok {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext(fmt.Sprintf("binance: %s is not quoted in a USD stablecoin", sym)))
		}
		token, ok := registry.GetBySymbol(base)
		if !ok {
			return nil, apperror.New(apperror.CodeUnknownToken,
				apperror.WithContext(fmt.Sprintf("binance: %s", sym)))
		}
		f.bySymbol[strings.ToUpper(sym)] = token
	}

	if err := f.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return f, nil
}

func (f *Feed) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	f.metrics = &feedMetrics{}

	f.metrics.messages, err = meter.Int64Counter("binance_messages_total",
		metric.WithDescription("Total ticker messages received"))
	if err != nil {
		return err
	}
	f.metrics.parseErrors, err = meter.Int64Counter("binance_parse_errors_total",
		metric.WithDescription("Message parse errors"))
	if err != nil {
		return err
	}
	f.metrics.fallbacks, err = meter.Int64Counter("binance_fallback_total",
		metric.WithDescription("Price reads served by the fallback feed"))
	if err != nil {
		return err
	}
	return nil
}

func (f *Feed) Source() string { return "binance" }

// StreamURL builds the combined stream URL for the configured symbols.
func (f *Feed) StreamURL() (string, error) {
	streams := make([]string, 0, len(f.cfg.Symbols))
	for _, sym := range f.cfg.Symbols {
		streams = append(streams, MiniTickerStream(sym))
	}

	u, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("binance: websocket url"))
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

// Connect opens the stream. Calling it again after success is a no-op.
func (f *Feed) Connect(ctx context.Context) error {
	ctx, span := f.tracer.Start(ctx, "binance.connect",
		trace.WithAttributes(attribute.StringSlice("symbols", f.cfg.Symbols)))
	defer span.End()

	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn != nil {
		return nil
	}

	wsURL, err := f.StreamURL()
	if err != nil {
		return err
	}

	wsCfg := wsconn.DefaultConfig(wsURL, "binance")
	wsCfg.ReadTimeout = f.cfg.ReadTimeout
	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err),
			apperror.WithContext("binance"))
	}
	conn.OnMessage(f.handleMessage)
	conn.OnStateChange(func(s wsconn.State, err error) {
		if err != nil {
			f.log.Warn(context.Background(), "binance stream state changed", "state", string(s), "error", err)
			return
		}
		f.log.Debug(context.Background(), "binance stream state changed", "state", string(s))
	})

	if err := conn.Connect(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "connect failed")
		conn.Close()
		return err
	}

	f.conn = conn
	span.SetStatus(codes.Ok, "connected")
	f.log.Info(ctx, "binance feed connected", "url", wsURL)
	return nil
}

// Close stops the stream.
func (f *Feed) Close() error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	return err
}

func (f *Feed) handleMessage(ctx context.Context, data []byte) {
	f.metrics.messages.Add(ctx, 1)

	var event StreamEvent
	if err := json.Unmarshal(data, &event); err != nil || !strings.HasSuffix(event.Stream, "@miniTicker") {
		f.metrics.parseErrors.Add(ctx, 1)
		return
	}

	var ticker MiniTickerEvent
	if err := json.Unmarshal(event.Data, &ticker); err != nil {
		f.metrics.parseErrors.Add(ctx, 1)
		return
	}
	f.Apply(&ticker)
}

// Apply records a ticker update. Unknown symbols and bad prices are dropped.
func (f *Feed) Apply(ticker *MiniTickerEvent) bool {
	token, ok := f.bySymbol[strings.ToUpper(ticker.Symbol)]
	if !ok {
		return false
	}
	usd, err := ticker.ParseClose()
	if err != nil || !usd.IsPositive() {
		return false
	}

	at := ticker.Timestamp()
	if ticker.EventTime == 0 {
		at = f.now()
	}

	f.mu.Lock()
	f.ticks[token.ID()] = tick{usd: usd, at: at}
	f.mu.Unlock()
	return true
}

// Price serves the live tick when fresh, else the fallback price.
func (f *Feed) Price(ctx context.Context, token *asset.Asset) (domain.TokenPrice, error) {
	if token == nil {
		return domain.TokenPrice{}, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithContext("nil token"))
	}
	if p, ok := f.live(token); ok {
		return p, nil
	}

	f.metrics.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("token", token.Symbol())))
	if f.fallback == nil {
		return domain.TokenPrice{}, apperror.New(apperror.CodePriceStale,
			apperror.WithMessage("No fresh ticker and no fallback feed"),
			apperror.WithContext(token.Symbol()))
	}
	return f.fallback.Price(ctx, token)
}

// Snapshot overlays live prices on the fallback snapshot.
func (f *Feed) Snapshot(ctx context.Context) []domain.TokenPrice {
	var out []domain.TokenPrice
	if f.fallback != nil {
		out = f.fallback.Snapshot(ctx)
	}
	for i, p := range out {
		if live, ok := f.live(p.Asset); ok {
			out[i] = live
		}
	}
	return out
}

func (f *Feed) live(token *asset.Asset) (domain.TokenPrice, bool) {
	now := f.now()
	if token.IsStable() {
		return domain.TokenPrice{Asset: token, USD: decimal.NewFromInt(1), Timestamp: now, Source: f.Source()}, true
	}

	f.mu.RLock()
	t, ok := f.ticks[token.ID()]
	f.mu.RUnlock()
	if !ok {
		return domain.TokenPrice{}, false
	}
	if f.cfg.StaleTimeout > 0 && now.Sub(t.at) > f.cfg.StaleTimeout {
		return domain.TokenPrice{}, false
	}
	return domain.TokenPrice{Asset: token, USD: t.usd, Timestamp: t.at, Source: f.Source()}, true
}
