package domain

import (
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	quotingDomain "github.com/fd1az/defi-optimizer/business/quoting/domain"
)

var hundred = decimal.NewFromInt(100)

// EvaluateSwap turns a quote with a positive output into a swap opportunity.
func EvaluateSwap(q *quotingDomain.Quote, at time.Time) *Opportunity {
	if !q.HasOutput() {
		return nil
	}
	opp := newOpportunity(KindSwap, at)
	opp.Quote = q
	return opp
}

// EvaluateArbitrage compares two quotes for the same pair. The quote with
// the larger output is Best; profit is the output difference and its
// percentage is relative to the worse output. Returns nil unless profit is
// positive and at least minProfitPct.
func EvaluateArbitrage(a, b *quotingDomain.Quote, minProfitPct decimal.Decimal, at time.Time) *Opportunity {
	if !a.HasOutput() || !b.HasOutput() || !a.SamePair(b) {
		return nil
	}

	best, other := a, b
	if cmp, err := a.OutAmount.Cmp(b.OutAmount); err != nil {
		return nil
	} else if cmp < 0 {
		best, other = b, a
	}

	bestOut := best.OutAmount.ToDecimal()
	otherOut := other.OutAmount.ToDecimal()
	profit := bestOut.Sub(otherOut)
	if !profit.IsPositive() {
		return nil
	}

	pct := profit.Div(otherOut).Mul(hundred)
	if pct.LessThan(minProfitPct) {
		return nil
	}

	opp := newOpportunity(KindArbitrage, at)
	opp.Best = best
	opp.Alternative = other
	opp.Profit = profit
	opp.ProfitPct = pct
	return opp
}

// EvaluateYield compares two pools. The higher-APY pool is the target;
// an opportunity exists only when the APY gap is strictly above minDiff.
func EvaluateYield(a, b marketDomain.YieldPool, minDiff decimal.Decimal, at time.Time) *Opportunity {
	from, to := a, b
	if a.APY.GreaterThan(b.APY) {
		from, to = b, a
	}

	diff := to.APY.Sub(from.APY)
	if !diff.GreaterThan(minDiff) {
		return nil
	}

	opp := newOpportunity(KindYield, at)
	opp.From = from
	opp.To = to
	opp.Profit = diff
	if from.APY.IsPositive() {
		opp.ProfitPct = diff.Div(from.APY).Mul(hundred)
	}
	return opp
}
