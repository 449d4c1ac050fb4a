// Package app contains application services and port definitions for the quoting context.
package app

import (
	"context"

	"github.com/gagliardetto/solana-go"

	chainDomain "github.com/fd1az/defi-optimizer/business/chain/domain"
	"github.com/fd1az/defi-optimizer/business/quoting/domain"
	"github.com/fd1az/defi-optimizer/internal/asset"
)

// Quoter quotes swaps on one venue. A nil quote with a nil error means the
// venue has no route for the pair.
type Quoter interface {
	Venue() string
	Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error)
}

// SwapBuilder turns a quote into an unsigned transaction for owner.
type SwapBuilder interface {
	SwapTransaction(ctx context.Context, quote *domain.Quote, owner solana.PublicKey) (*domain.SwapTransaction, error)
}

// RateSource provides the fair cross rate between two tokens.
type RateSource interface {
	CrossPrice(ctx context.Context, base, quote *asset.Asset) (asset.Price, error)
}

// ChainReader provides the chain data a transaction is built against.
type ChainReader interface {
	Slot(ctx context.Context) (uint64, error)
	LatestBlockhash(ctx context.Context) (*chainDomain.Blockhash, error)
	PriorityFee(ctx context.Context) (uint64, error)
}
