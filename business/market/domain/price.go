// Package domain contains the core domain types for the market context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-optimizer/internal/asset"
)

// TokenPrice is a token's USD price at a point in time.
type TokenPrice struct {
	Asset     *asset.Asset
	USD       decimal.Decimal
	Timestamp time.Time
	Source    string
}

// Symbol returns the token symbol.
func (p TokenPrice) Symbol() string {
	if p.Asset == nil {
		return ""
	}
	return p.Asset.Symbol()
}

// Age returns how old the price is.
func (p TokenPrice) Age() time.Duration {
	return time.Since(p.Timestamp)
}

// IsStale reports whether the price is older than maxAge.
func (p TokenPrice) IsStale(maxAge time.Duration) bool {
	return p.Age() > maxAge
}

// Cross returns the rate base->quote implied by two USD prices, stamped
// with the older of the two timestamps.
func Cross(base, quote TokenPrice) asset.Price {
	ts := base.Timestamp
	if quote.Timestamp.Before(ts) {
		ts = quote.Timestamp
	}
	return asset.CrossPrice(base.Asset, quote.Asset, base.USD, quote.USD, ts)
}
