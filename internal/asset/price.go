package asset

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of fixed-point decimals kept in a Price.
const PricePrecision = 18

var pricePrecisionMultiplier = new(big.Int).Exp(big.NewInt(10), big.NewInt(PricePrecision), nil)

// Price is an exchange rate: one whole base token is worth Rate whole quote
// tokens. SOL/USDC = 170 means 1 SOL buys 170 USDC.
type Price struct {
	rate      *big.Int
	base      *Asset
	quote     *Asset
	timestamp time.Time
}

// NewPrice creates a price from a decimal rate.
func NewPrice(base, quote *Asset, rate decimal.Decimal, timestamp time.Time) Price {
	if base == nil || quote == nil {
		panic("asset: nil base or quote in price")
	}
	if rate.IsNegative() {
		panic("asset: negative price rate")
	}
	return Price{
		rate:      rate.Shift(PricePrecision).BigInt(),
		base:      base,
		quote:     quote,
		timestamp: timestamp,
	}
}

// CrossPrice derives base/quote from two USD prices. A zero quote price
// yields a zero rate.
func CrossPrice(base, quote *Asset, baseUSD, quoteUSD decimal.Decimal, timestamp time.Time) Price {
	rate := decimal.Zero
	if !quoteUSD.IsZero() {
		rate = baseUSD.DivRound(quoteUSD, PricePrecision)
	}
	return NewPrice(base, quote, rate, timestamp)
}

func (p Price) Rate() decimal.Decimal {
	if p.rate == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(p.rate, -PricePrecision)
}

func (p Price) Base() *Asset {
	return p.base
}

func (p Price) Quote() *Asset {
	return p.quote
}

func (p Price) Timestamp() time.Time {
	return p.timestamp
}

// Pair returns e.g. "SOL/USDC".
func (p Price) Pair() string {
	if p.base == nil || p.quote == nil {
		return "???/???"
	}
	return p.base.Symbol() + "/" + p.quote.Symbol()
}

func (p Price) IsZero() bool {
	return p.rate == nil || p.rate.Sign() == 0
}

// Scale multiplies the rate by factor, e.g. a venue's execution quality.
func (p Price) Scale(factor decimal.Decimal) Price {
	if factor.IsNegative() {
		panic("asset: negative price factor")
	}
	return NewPrice(p.base, p.quote, p.Rate().Mul(factor), p.timestamp)
}

// Invert returns quote/base.
func (p Price) Invert() Price {
	if p.IsZero() {
		return Price{rate: big.NewInt(0), base: p.quote, quote: p.base, timestamp: p.timestamp}
	}
	sq := new(big.Int).Mul(pricePrecisionMultiplier, pricePrecisionMultiplier)
	return Price{
		rate:      new(big.Int).Quo(sq, p.rate),
		base:      p.quote,
		quote:     p.base,
		timestamp: p.timestamp,
	}
}

// Convert turns an amount of the base token into the quote token,
// rounding down to the quote token's base unit.
func (p Price) Convert(amount Amount) (Amount, error) {
	if amount.Asset() == nil {
		return Amount{}, ErrNilAsset
	}
	if !amount.Asset().Equals(p.base) {
		return Amount{}, fmt.Errorf("%w: expected %s, got %s",
			ErrAssetMismatch, p.base.Symbol(), amount.Asset().Symbol())
	}

	// quoteRaw = baseRaw * rate / 10^18 * 10^(quoteDecimals - baseDecimals)
	shift := int64(p.quote.Decimals()) - int64(p.base.Decimals())

	v := new(big.Int).Mul(amount.Raw(), p.rate)
	if shift > 0 {
		v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil))
	}
	v.Quo(v, pricePrecisionMultiplier)
	if shift < 0 {
		v.Quo(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil))
	}

	return NewAmount(p.quote, v), nil
}

func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.Rate().String(), p.Pair())
}

func (p Price) Age() time.Duration {
	return time.Since(p.timestamp)
}

// IsStale reports whether the price is older than maxAge.
func (p Price) IsStale(maxAge time.Duration) bool {
	return p.Age() > maxAge
}
