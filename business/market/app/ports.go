// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/fd1az/defi-optimizer/business/market/domain"
	"github.com/fd1az/defi-optimizer/internal/asset"
)

// PriceFeed provides USD token prices.
type PriceFeed interface {
	// Source names the feed ("mock", "binance").
	Source() string

	// Price returns the token's current price, or PRICE_UNAVAILABLE.
	Price(ctx context.Context, token *asset.Asset) (domain.TokenPrice, error)

	// Snapshot returns every price the feed knows, ordered by symbol.
	Snapshot(ctx context.Context) []domain.TokenPrice
}

// YieldSource provides pool APYs.
type YieldSource interface {
	Pools(ctx context.Context) ([]domain.YieldPool, error)

	// Pool returns one pool by name, or POOL_NOT_FOUND.
	Pool(ctx context.Context, name string) (domain.YieldPool, error)
}
