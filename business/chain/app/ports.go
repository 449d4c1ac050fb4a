// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/fd1az/defi-optimizer/business/chain/domain"
)

// ChainState provides the cluster data a swap transaction needs.
type ChainState interface {
	// Source names the backing implementation ("mock", "rpc").
	Source() string

	Slot(ctx context.Context) (uint64, error)

	LatestBlockhash(ctx context.Context) (*domain.Blockhash, error)

	// PriorityFee returns the prioritization fee in lamports.
	PriorityFee(ctx context.Context) (uint64, error)
}

// AccountReader reads on-chain account data. Only live sources have one.
type AccountReader interface {
	// Balance returns the account's lamports.
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
}
