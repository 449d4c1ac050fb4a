// Package main is the entry point for the Solana DeFi strategy optimizer.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/defi-optimizer/business/chain"
	chainDI "github.com/fd1az/defi-optimizer/business/chain/di"
	"github.com/fd1az/defi-optimizer/business/market"
	marketDI "github.com/fd1az/defi-optimizer/business/market/di"
	"github.com/fd1az/defi-optimizer/business/quoting"
	"github.com/fd1az/defi-optimizer/business/strategy"
	strategyDI "github.com/fd1az/defi-optimizer/business/strategy/di"
	"github.com/fd1az/defi-optimizer/business/wallet"
	walletDI "github.com/fd1az/defi-optimizer/business/wallet/di"
	"github.com/fd1az/defi-optimizer/internal/apm"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/config"
	"github.com/fd1az/defi-optimizer/internal/di"
	"github.com/fd1az/defi-optimizer/internal/health"
	"github.com/fd1az/defi-optimizer/internal/logger"
	"github.com/fd1az/defi-optimizer/internal/metrics"
	"github.com/fd1az/defi-optimizer/internal/monolith"
	"github.com/fd1az/defi-optimizer/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// startupNotifier reports module startup progress; the TUI shows it.
type startupNotifier func(step, status, message string)

type namedModule struct {
	name string
	monolith.Module
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	once := flag.Bool("once", false, "Run a single cycle and exit (implies -cli)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("defi-optimizer %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging and scripting
	tuiMode := !*cliMode && !*once

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
		if tuiMode && ui.Program != nil {
			ui.Program.Quit()
		}
	}()

	if err := run(ctx, *configPath, tuiMode, *once); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	logLevel := logger.ParseLevel(cfg.App.LogLevel)

	var log *logger.Logger
	if tuiMode {
		// the dashboard owns the terminal
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting DeFi optimizer",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	if cfg.Telemetry.Enabled {
		stop, err := setupTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	log.Info(ctx, "asset registry loaded", "tokens", mono.AssetRegistry().Count())
	defer func() {
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "shutdown errors", "error", err)
		}
	}()

	// dependency order: quoting needs market and chain, strategy needs all
	modules := []namedModule{
		{"chain", &chain.Module{}},
		{"market", &market.Module{}},
		{"wallet", &wallet.Module{}},
		{"quoting", &quoting.Module{}},
		{"strategy", &strategy.Module{}},
	}
	for _, m := range modules {
		if err := mono.RegisterModules(m.Module); err != nil {
			return fmt.Errorf("failed to register %s module: %w", m.name, err)
		}
	}

	if cfg.Health.Enabled && !once {
		healthServer := newHealthServer(cfg, mono.Services(), log)
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := healthServer.Stop(shutdownCtx); err != nil {
					log.Warn(shutdownCtx, "health server shutdown failed", "error", err)
				}
			}()
		}
	}

	if tuiMode {
		return runTUI(ctx, cfg, func(notify startupNotifier) error {
			notify("config", ui.StepDone, "")
			if err := startModules(ctx, mono, modules, notify); err != nil {
				return err
			}
			return strategyDI.GetRunner(mono.Services()).Start(ctx)
		})
	}

	if err := startModules(ctx, mono, modules, nil); err != nil {
		return err
	}

	runner := strategyDI.GetRunner(mono.Services())
	if once {
		report := runner.RunOnce(ctx)
		log.Info(ctx, "single cycle complete",
			"opportunities", len(report.Opportunities),
			"duration", report.Duration.String())
		return nil
	}
	return runCLI(ctx, runner, log)
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (func(), error) {
	traceProvider, err := apm.NewTraceProvider(log, apm.Settings{
		Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	metricSettings := metrics.Settings{ServiceName: cfg.Telemetry.ServiceName}
	// the OTLP metric reader speaks gRPC only
	if apm.Provider(cfg.Telemetry.TraceProvider) == apm.OTLPGRPCProvider {
		metricSettings.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
		metricSettings.OTLPHeaders = apm.ParseHeaders(cfg.Telemetry.OTLPHeaders)
		metricSettings.Insecure = strings.HasPrefix(cfg.Telemetry.OTLPEndpoint, "http://")
	}
	metricProvider, err := metrics.NewMetricProvider(ctx, metricSettings)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go metricProvider.Serve(ctx, port, log)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "metrics shutdown failed", "error", err)
		}
		if err := traceProvider.Stop(); err != nil {
			log.Warn(shutdownCtx, "trace provider shutdown failed", "error", err)
		}
	}, nil
}

func newHealthServer(cfg *config.Config, sr di.ServiceRegistry, log *logger.Logger) *health.Server {
	s := health.NewServer(cfg.Health.Port, version, log)

	s.RegisterCheck("chain", chainDI.GetChainService(sr).CheckReachable)
	s.RegisterCheck("wallet", walletDI.GetWalletService(sr).CheckConfigured)

	marketSvc := marketDI.GetMarketService(sr)
	maxAge := cfg.Market.StaleTimeout
	if maxAge <= 0 {
		maxAge = 2 * cfg.Market.RefreshInterval
	}
	s.RegisterCheck("market", func(ctx context.Context) (bool, string) {
		return marketSvc.CheckFresh(ctx, asset.SOL, maxAge)
	})

	s.RegisterCheck("strategy", strategyDI.GetRunner(sr).CheckHealthy)
	return s
}

type moduleStarter interface {
	StartModules(context.Context, ...monolith.Module) error
}

// startModules starts modules one at a time so progress can be reported.
func startModules(ctx context.Context, mono moduleStarter, modules []namedModule, notify startupNotifier) error {
	if notify == nil {
		notify = func(string, string, string) {}
	}

	for _, m := range modules {
		notify(m.name, ui.StepConnecting, "")
		if err := mono.StartModules(ctx, m.Module); err != nil {
			notify(m.name, ui.StepFailed, err.Error())
			return fmt.Errorf("failed to start %s module: %w", m.name, err)
		}
		notify(m.name, ui.StepDone, "")
	}
	return nil
}

func runCLI(ctx context.Context, runner interface {
	Start(context.Context) error
	Stop() error
}, log *logger.Logger) error {
	log.Info(ctx, "all modules started, beginning strategy cycles")

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start runner: %w", err)
	}

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	if err := runner.Stop(); err != nil {
		log.Error(context.Background(), "error stopping runner", "error", err)
	}
	return nil
}

func runTUI(ctx context.Context, cfg *config.Config, startFunc func(startupNotifier) error) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		notify := func(step, status, message string) {
			ui.Send(ui.StartupMsg{Step: step, Status: status, Message: message})
		}
		if err := startFunc(notify); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// blocks until the user quits or a signal arrives
	if err := ui.Run(ui.Config{
		CurrentPool: cfg.Strategy.Yield.CurrentPool,
		StaleAfter:  cfg.Market.StaleTimeout,
	}); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
