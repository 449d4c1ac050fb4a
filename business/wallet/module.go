// Package wallet implements the wallet bounded context: agent wallet
// credentials, balance and (mocked) broadcast.
package wallet

import (
	"context"

	"github.com/shopspring/decimal"

	chainDI "github.com/fd1az/defi-optimizer/business/chain/di"
	"github.com/fd1az/defi-optimizer/business/wallet/app"
	walletDI "github.com/fd1az/defi-optimizer/business/wallet/di"
	"github.com/fd1az/defi-optimizer/business/wallet/domain"
	"github.com/fd1az/defi-optimizer/business/wallet/infra/agentwallet"
	"github.com/fd1az/defi-optimizer/internal/config"
	"github.com/fd1az/defi-optimizer/internal/di"
	"github.com/fd1az/defi-optimizer/internal/logger"
	"github.com/fd1az/defi-optimizer/internal/monolith"
)

// Module implements the wallet bounded context.
type Module struct{}

// RegisterServices registers all wallet services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, walletDI.Wallet, func(sr di.ServiceRegistry) app.Wallet {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		creds := agentwallet.LoadCredentials(context.Background(), cfg.Wallet.ConfigPath, domain.Credentials{
			APIToken:      cfg.Wallet.APIToken,
			SolanaAddress: cfg.Wallet.Address,
		}, log)

		var balances app.BalanceReader
		if cfg.Chain.Mode == config.ModeRPC && creds.HasAddress() {
			balances = chainDI.GetAccountReader(sr)
		}

		return agentwallet.NewWallet(creds, agentwallet.Config{
			MockBalance: decimal.NewFromFloat(cfg.Wallet.MockBalance),
			MockTxHash:  cfg.Wallet.MockTxHash,
		}, balances, log)
	})

	di.RegisterToken(c, walletDI.WalletService, func(sr di.ServiceRegistry) *app.WalletService {
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewWalletService(walletDI.GetWallet(sr), log)
		if err != nil {
			panic("failed to create wallet service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup validates the configured address without failing on its absence:
// operations that need it are abandoned later.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := walletDI.GetWalletService(mono.Services())

	if _, err := svc.Owner(); err != nil {
		log.Warn(ctx, "wallet not usable for execution", "error", err)
		log.Info(ctx, "wallet module started", "address", svc.Address())
		return nil
	}

	bal, err := svc.Balance(ctx)
	if err != nil {
		log.Warn(ctx, "failed to read wallet balance", "error", err)
	}
	log.Info(ctx, "wallet module started", "address", svc.Address(), "balance_sol", bal.String())
	return nil
}
