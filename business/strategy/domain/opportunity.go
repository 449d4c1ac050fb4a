// Package domain contains the core domain types for the strategy context.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	quotingDomain "github.com/fd1az/defi-optimizer/business/quoting/domain"
)

// Kind is the type of opportunity a strategy produced.
type Kind string

const (
	KindSwap      Kind = "swap"
	KindArbitrage Kind = "arbitrage"
	KindYield     Kind = "yield"
)

func (k Kind) String() string {
	return string(k)
}

// Opportunity is a detected trade. Which fields are set depends on Kind:
// Quote for swaps, Best and Alternative for arbitrage, From and To for yield.
type Opportunity struct {
	ID         uuid.UUID
	Kind       Kind
	DetectedAt time.Time

	Quote *quotingDomain.Quote

	Best        *quotingDomain.Quote
	Alternative *quotingDomain.Quote

	From marketDomain.YieldPool
	To   marketDomain.YieldPool

	// Profit is in output tokens for arbitrage and APY points for yield.
	Profit    decimal.Decimal
	ProfitPct decimal.Decimal
}

func newOpportunity(kind Kind, at time.Time) *Opportunity {
	return &Opportunity{
		ID:         uuid.New(),
		Kind:       kind,
		DetectedAt: at,
	}
}

// ExecutableQuote returns the quote a swap or arbitrage would trade on.
func (o *Opportunity) ExecutableQuote() *quotingDomain.Quote {
	switch o.Kind {
	case KindSwap:
		return o.Quote
	case KindArbitrage:
		return o.Best
	default:
		return nil
	}
}

// ShortID is the first block of the ID, for logs and the dashboard.
func (o *Opportunity) ShortID() string {
	return o.ID.String()[:8]
}

// Summary is a one-line description.
func (o *Opportunity) Summary() string {
	switch o.Kind {
	case KindSwap:
		if o.Quote == nil {
			return "swap: no quote"
		}
		return fmt.Sprintf("swap %s -> %s on %s",
			o.Quote.InAmount, o.Quote.OutAmount, o.Quote.Venue)
	case KindArbitrage:
		if o.Best == nil || o.Alternative == nil {
			return "arbitrage: incomplete"
		}
		return fmt.Sprintf("arbitrage %s: %s pays %s vs %s %s (+%s, %s%%)",
			o.Best.Pair(), o.Best.Venue, o.Best.OutAmount,
			o.Alternative.Venue, o.Alternative.OutAmount,
			o.Profit.String(), o.ProfitPct.StringFixed(3))
	case KindYield:
		return fmt.Sprintf("yield: move %s (%s%%) -> %s (%s%%), +%s pts",
			o.From.Name, o.From.APY.StringFixed(2),
			o.To.Name, o.To.APY.StringFixed(2), o.Profit.StringFixed(2))
	default:
		return fmt.Sprintf("%s: unknown", o.Kind)
	}
}
