// Package quoting implements the quoting bounded context: swap quotes per
// venue and unsigned swap transactions.
package quoting

import (
	"context"
	"io"
	"strings"

	chainDI "github.com/fd1az/defi-optimizer/business/chain/di"
	marketDI "github.com/fd1az/defi-optimizer/business/market/di"
	"github.com/fd1az/defi-optimizer/business/quoting/app"
	quotingDI "github.com/fd1az/defi-optimizer/business/quoting/di"
	"github.com/fd1az/defi-optimizer/business/quoting/infra/jupiter"
	"github.com/fd1az/defi-optimizer/business/quoting/infra/mock"
	"github.com/fd1az/defi-optimizer/internal/config"
	"github.com/fd1az/defi-optimizer/internal/di"
	"github.com/fd1az/defi-optimizer/internal/logger"
	"github.com/fd1az/defi-optimizer/internal/monolith"
)

// jupiterClient is only resolved in jupiter mode.
var jupiterClient = di.NewToken[*jupiter.Client]("quoting:jupiterClient")

// Module implements the quoting bounded context.
type Module struct{}

// RegisterServices registers all quoting services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, jupiterClient, func(sr di.ServiceRegistry) *jupiter.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := jupiter.NewClient(jupiter.Config{
			BaseURL:        cfg.Quoting.Jupiter.BaseURL,
			Timeout:        cfg.Quoting.Jupiter.Timeout,
			RequestsPerSec: cfg.Quoting.Jupiter.RequestsPerSec,
			Burst:          cfg.Quoting.Jupiter.Burst,
			QuoteCacheTTL:  cfg.Quoting.Jupiter.QuoteCacheTTL,
		}, log)
		if err != nil {
			panic("failed to create jupiter client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, quotingDI.Quoters, func(sr di.ServiceRegistry) []app.Quoter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		rates := marketDI.GetMarketService(sr)
		chain := chainDI.GetChainService(sr)

		quoters := make([]app.Quoter, 0, len(cfg.Quoting.Venues))
		for i, v := range cfg.Quoting.Venues {
			if cfg.Quoting.Mode == config.ModeJupiter && strings.EqualFold(v.Name, jupiter.VenueName) {
				quoters = append(quoters, di.GetToken(sr, jupiterClient))
				continue
			}

			var seed uint64
			if cfg.Market.Seed != 0 {
				seed = cfg.Market.Seed + uint64(i) + 1
			}
			q, err := mock.NewVenueQuoter(mock.VenueConfig{
				Name:           v.Name,
				BandLow:        v.BandLow,
				BandHigh:       v.BandHigh,
				PriceImpactPct: cfg.Quoting.PriceImpactPct,
			}, rates, chain, seed, log)
			if err != nil {
				panic("failed to create venue " + v.Name + ": " + err.Error())
			}
			quoters = append(quoters, q)
		}
		return quoters
	})

	di.RegisterToken(c, quotingDI.SwapBuilder, func(sr di.ServiceRegistry) app.SwapBuilder {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Quoting.Mode == config.ModeJupiter {
			return di.GetToken(sr, jupiterClient)
		}
		return mock.NewSwapBuilder(cfg.Quoting.MockPayload, chainDI.GetChainService(sr), log)
	})

	di.RegisterToken(c, quotingDI.QuotingService, func(sr di.ServiceRegistry) *app.QuotingService {
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewQuotingService(quotingDI.GetQuoters(sr), quotingDI.GetSwapBuilder(sr), log)
		if err != nil {
			panic("failed to create quoting service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup registers cleanup for live clients.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := quotingDI.GetQuotingService(mono.Services())

	if closer, ok := quotingDI.GetSwapBuilder(mono.Services()).(io.Closer); ok {
		mono.OnClose(closer.Close)
	}

	log.Info(ctx, "quoting module started", "mode", mono.Config().Quoting.Mode, "venues", svc.Venues())
	return nil
}
