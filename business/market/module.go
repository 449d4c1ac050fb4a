// Package market implements the market bounded context: token prices and
// yield pool APYs.
package market

import (
	"context"
	"io"
	"time"

	"github.com/fd1az/defi-optimizer/business/market/app"
	marketDI "github.com/fd1az/defi-optimizer/business/market/di"
	"github.com/fd1az/defi-optimizer/business/market/infra/binance"
	"github.com/fd1az/defi-optimizer/business/market/infra/mock"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/config"
	"github.com/fd1az/defi-optimizer/internal/di"
	"github.com/fd1az/defi-optimizer/internal/logger"
	"github.com/fd1az/defi-optimizer/internal/monolith"
)

const (
	connectTimeout = 10 * time.Second
	retryInterval  = 5 * time.Second
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.PriceFeed, func(sr di.ServiceRegistry) app.PriceFeed {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		initial := make(map[string]float64, len(cfg.Market.InitialPrices))
		for _, p := range cfg.Market.InitialPrices {
			initial[p.Symbol] = p.USD
		}
		mockFeed, err := mock.NewPriceFeed(mock.PriceFeedConfig{
			Initial:         initial,
			Jitter:          cfg.Market.PriceJitter,
			RefreshInterval: cfg.Market.RefreshInterval,
			Seed:            cfg.Market.Seed,
		}, registry)
		if err != nil {
			panic("failed to create mock price feed: " + err.Error())
		}

		if cfg.Market.Feed != config.ModeBinance {
			return mockFeed
		}

		feed, err := binance.NewFeed(binance.Config{
			BaseURL:      cfg.Market.Binance.WebSocketURL,
			Symbols:      cfg.Market.Binance.Symbols,
			StaleTimeout: cfg.Market.StaleTimeout,
		}, registry, mockFeed, log)
		if err != nil {
			panic("failed to create binance feed: " + err.Error())
		}
		return feed
	})

	di.RegisterToken(c, marketDI.YieldSource, func(sr di.ServiceRegistry) app.YieldSource {
		cfg := sr.Get("config").(*config.Config)

		pools := make([]mock.Pool, 0, len(cfg.Market.Pools))
		for _, p := range cfg.Market.Pools {
			pools = append(pools, mock.Pool{Name: p.Name, APY: p.APY})
		}
		return mock.NewYieldSource(pools, cfg.Market.APYJitter, cfg.Market.Seed)
	})

	di.RegisterToken(c, marketDI.MarketService, func(sr di.ServiceRegistry) *app.MarketService {
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewMarketService(marketDI.GetPriceFeed(sr), marketDI.GetYieldSource(sr), log)
		if err != nil {
			panic("failed to create market service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup connects the live feed, if any, without blocking on it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	feed := marketDI.GetPriceFeed(mono.Services())

	if connector, ok := feed.(interface{ Connect(context.Context) error }); ok {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := connector.Connect(connectCtx)
		cancel()

		if err != nil {
			// the mock fallback serves prices until the stream is up
			log.Warn(ctx, "price stream connection failed, will retry in background", "error", err)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-time.After(retryInterval):
						if err := connector.Connect(ctx); err != nil {
							log.Warn(ctx, "price stream retry failed", "error", err)
							continue
						}
						log.Info(ctx, "price stream connected")
						return
					}
				}
			}()
		}
	}
	if closer, ok := feed.(io.Closer); ok {
		mono.OnClose(closer.Close)
	}

	svc := marketDI.GetMarketService(mono.Services())
	pools, err := svc.Pools(ctx)
	if err != nil {
		return err
	}
	log.Info(ctx, "market module started", "feed", svc.FeedSource(), "tokens", len(svc.Prices(ctx)), "pools", len(pools))
	return nil
}
