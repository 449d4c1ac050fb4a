package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/defi-optimizer/business/market/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

const meterName = "market"

// MarketService combines the price feed and the yield source.
type MarketService struct {
	feed   PriceFeed
	yields YieldSource
	log    logger.LoggerInterface

	priceGauge metric.Float64Gauge
	apyGauge   metric.Float64Gauge
}

// NewMarketService creates a new MarketService.
func NewMarketService(feed PriceFeed, yields YieldSource, log logger.LoggerInterface) (*MarketService, error) {
	meter := otel.Meter(meterName)

	priceGauge, err := meter.Float64Gauge("market_token_price_usd",
		metric.WithDescription("Last observed token price"),
		metric.WithUnit("USD"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	apyGauge, err := meter.Float64Gauge("market_pool_apy_percent",
		metric.WithDescription("Last observed pool APY"),
		metric.WithUnit("%"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &MarketService{
		feed:       feed,
		yields:     yields,
		log:        log,
		priceGauge: priceGauge,
		apyGauge:   apyGauge,
	}, nil
}

// FeedSource names the active price feed.
func (s *MarketService) FeedSource() string {
	return s.feed.Source()
}

// Price returns one token's USD price.
func (s *MarketService) Price(ctx context.Context, token *asset.Asset) (domain.TokenPrice, error) {
	p, err := s.feed.Price(ctx, token)
	if err != nil {
		return domain.TokenPrice{}, err
	}
	s.priceGauge.Record(ctx, p.USD.InexactFloat64(),
		metric.WithAttributes(attribute.String("token", p.Symbol()), attribute.String("source", p.Source)))
	return p, nil
}

// CrossPrice returns the base->quote rate implied by both USD prices.
func (s *MarketService) CrossPrice(ctx context.Context, base, quote *asset.Asset) (asset.Price, error) {
	bp, err := s.Price(ctx, base)
	if err != nil {
		return asset.Price{}, err
	}
	qp, err := s.Price(ctx, quote)
	if err != nil {
		return asset.Price{}, err
	}
	if qp.USD.IsZero() {
		return asset.Price{}, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithContext(fmt.Sprintf("%s has a zero price", quote.Symbol())))
	}
	return domain.Cross(bp, qp), nil
}

// Prices returns the feed's snapshot.
func (s *MarketService) Prices(ctx context.Context) []domain.TokenPrice {
	prices := s.feed.Snapshot(ctx)
	for _, p := range prices {
		s.priceGauge.Record(ctx, p.USD.InexactFloat64(),
			metric.WithAttributes(attribute.String("token", p.Symbol()), attribute.String("source", p.Source)))
	}
	return prices
}

// Pools returns all pools, best APY first.
func (s *MarketService) Pools(ctx context.Context) ([]domain.YieldPool, error) {
	pools, err := s.yields.Pools(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pools {
		s.apyGauge.Record(ctx, p.APY.InexactFloat64(), metric.WithAttributes(attribute.String("pool", p.Name)))
	}
	domain.SortByAPY(pools)
	return pools, nil
}

// Pool returns a single pool.
func (s *MarketService) Pool(ctx context.Context, name string) (domain.YieldPool, error) {
	return s.yields.Pool(ctx, name)
}

// CheckFresh reports whether token has a price younger than maxAge; used
// as a health check.
func (s *MarketService) CheckFresh(ctx context.Context, token *asset.Asset, maxAge time.Duration) (bool, string) {
	p, err := s.feed.Price(ctx, token)
	if err != nil {
		return false, err.Error()
	}
	if p.IsStale(maxAge) {
		return false, fmt.Sprintf("%s price is %s old", token.Symbol(), p.Age().Round(time.Second))
	}
	return true, fmt.Sprintf("%s %s via %s", token.Symbol(), p.USD.StringFixed(2), p.Source)
}
