// Package strategy implements the strategy bounded context: detecting swap,
// arbitrage and yield opportunities and acting on them.
package strategy

import (
	"context"

	chainDI "github.com/fd1az/defi-optimizer/business/chain/di"
	marketDI "github.com/fd1az/defi-optimizer/business/market/di"
	quotingDI "github.com/fd1az/defi-optimizer/business/quoting/di"
	"github.com/fd1az/defi-optimizer/business/strategy/app"
	strategyDI "github.com/fd1az/defi-optimizer/business/strategy/di"
	"github.com/fd1az/defi-optimizer/business/strategy/domain"
	"github.com/fd1az/defi-optimizer/business/strategy/infra"
	walletDI "github.com/fd1az/defi-optimizer/business/wallet/di"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/config"
	"github.com/fd1az/defi-optimizer/internal/di"
	"github.com/fd1az/defi-optimizer/internal/logger"
	"github.com/fd1az/defi-optimizer/internal/monolith"
)

// Module implements the strategy bounded context.
type Module struct{}

// RegisterServices registers all strategy services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, strategyDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.App.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	di.RegisterToken(c, strategyDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		input, ok := registry.Resolve(cfg.Strategy.InputToken)
		if !ok {
			panic("unknown strategy input token: " + cfg.Strategy.InputToken)
		}
		output, ok := registry.Resolve(cfg.Strategy.OutputToken)
		if !ok {
			panic("unknown strategy output token: " + cfg.Strategy.OutputToken)
		}

		modes := make([]domain.Kind, 0, len(cfg.Strategy.Modes))
		for _, mode := range cfg.Strategy.Modes {
			modes = append(modes, domain.Kind(mode))
		}

		d, err := app.NewDetector(app.DetectorConfig{
			Modes:        modes,
			Input:        input,
			Output:       output,
			TradeAmount:  cfg.Strategy.TradeAmountDecimal(),
			SlippageBps:  cfg.Strategy.SlippageBps,
			MinProfitPct: cfg.Strategy.Arbitrage.MinProfitPctDecimal(),
			CurrentPool:  cfg.Strategy.Yield.CurrentPool,
			MinAPYDiff:   cfg.Strategy.Yield.MinAPYDiffDecimal(),
		}, quotingDI.GetQuotingService(sr), marketDI.GetMarketService(sr), log)
		if err != nil {
			panic("failed to create detector: " + err.Error())
		}
		return d
	})

	di.RegisterToken(c, strategyDI.Executor, func(sr di.ServiceRegistry) *app.Executor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		e, err := app.NewExecutor(app.ExecutorConfig{
			SimulateBroadcast: cfg.Execution.SimulateBroadcast,
		}, quotingDI.GetQuotingService(sr), walletDI.GetWalletService(sr), log)
		if err != nil {
			panic("failed to create executor: " + err.Error())
		}
		return e
	})

	di.RegisterToken(c, strategyDI.Runner, func(sr di.ServiceRegistry) *app.Runner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		r, err := app.NewRunner(
			cfg.Strategy.Interval,
			strategyDI.GetDetector(sr),
			strategyDI.GetExecutor(sr),
			marketDI.GetMarketService(sr),
			chainDI.GetChainService(sr),
			strategyDI.GetReporter(sr),
			log,
		)
		if err != nil {
			panic("failed to create runner: " + err.Error())
		}
		return r
	})

	return nil
}

// Startup resolves the runner so wiring errors surface before the first
// cycle. main decides whether to Start it or run a single cycle.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	runner := strategyDI.GetRunner(mono.Services())
	mono.OnClose(runner.Stop)

	req := strategyDI.GetDetector(mono.Services()).Request()
	log.Info(ctx, "strategy module started",
		"modes", cfg.Strategy.Modes,
		"trade", req.Amount.String()+" "+req.Pair(),
		"slippage_bps", req.SlippageBps,
		"interval", cfg.Strategy.Interval.String(),
		"simulate_broadcast", cfg.Execution.SimulateBroadcast)
	return nil
}
