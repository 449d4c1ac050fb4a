// Package chain implements the chain bounded context: slot, blockhash and
// fee data for building Solana transactions.
package chain

import (
	"context"
	"io"

	"github.com/fd1az/defi-optimizer/business/chain/app"
	chainDI "github.com/fd1az/defi-optimizer/business/chain/di"
	"github.com/fd1az/defi-optimizer/business/chain/infra/mock"
	"github.com/fd1az/defi-optimizer/business/chain/infra/solanarpc"
	"github.com/fd1az/defi-optimizer/internal/config"
	"github.com/fd1az/defi-optimizer/internal/di"
	"github.com/fd1az/defi-optimizer/internal/logger"
	"github.com/fd1az/defi-optimizer/internal/monolith"
)

// mockStartSlot puts the mock chain near mainnet heights.
const mockStartSlot = 250_000_000

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers all chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, chainDI.ChainState, func(sr di.ServiceRegistry) app.ChainState {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Chain.Mode != config.ModeRPC {
			return mock.NewChainState(mock.Config{
				StartSlot:            mockStartSlot,
				LastValidBlockHeight: cfg.Chain.LastValidBlockHeight,
				PriorityFeeLamports:  cfg.Chain.PriorityFeeLamports,
			})
		}

		state, err := solanarpc.NewChainState(solanarpc.Config{
			RPCURL:              cfg.Chain.RPCURL,
			Commitment:          solanarpc.ParseCommitment(cfg.Chain.Commitment),
			CacheTTL:            cfg.Chain.CacheTTL,
			PriorityFeeLamports: cfg.Chain.PriorityFeeLamports,
		}, log)
		if err != nil {
			panic("failed to create solana rpc chain state: " + err.Error())
		}
		return state
	})

	di.RegisterToken(c, chainDI.AccountReader, func(sr di.ServiceRegistry) app.AccountReader {
		reader, ok := chainDI.GetChainState(sr).(app.AccountReader)
		if !ok {
			panic("chain source cannot read accounts; set chain.mode to rpc")
		}
		return reader
	})

	di.RegisterToken(c, chainDI.ChainService, func(sr di.ServiceRegistry) *app.ChainService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewChainService(chainDI.GetChainState(sr), log)
	})

	return nil
}

// Startup connects live sources and takes a first reading.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	state := chainDI.GetChainState(mono.Services())

	if connector, ok := state.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			// reads fail until the endpoint comes back; quoting falls back to slot 0
			log.Error(ctx, "failed to connect chain source", "error", err)
		}
	}
	if closer, ok := state.(io.Closer); ok {
		mono.OnClose(closer.Close)
	}

	status := chainDI.GetChainService(mono.Services()).Refresh(ctx)
	log.Info(ctx, "chain module started", "source", status.Source, "state", string(status.State), "slot", status.Slot)
	return nil
}
