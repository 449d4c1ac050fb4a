package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// YieldPool is a liquidity or staking pool and its current APY in percent.
type YieldPool struct {
	Name      string // "venue:pair"
	Venue     string
	Pair      string
	APY       decimal.Decimal
	UpdatedAt time.Time
}

// NewYieldPool splits name into venue and pair.
func NewYieldPool(name string, apy decimal.Decimal, at time.Time) YieldPool {
	venue, pair := SplitPoolName(name)
	return YieldPool{Name: name, Venue: venue, Pair: pair, APY: apy, UpdatedAt: at}
}

// SplitPoolName splits "raydium:SOL-USDC" into ("raydium", "SOL-USDC").
// A name without a colon is all pair.
func SplitPoolName(name string) (venue, pair string) {
	if v, p, ok := strings.Cut(name, ":"); ok {
		return v, p
	}
	return "", name
}

// Is reports whether the pool has the given name, ignoring case.
func (p YieldPool) Is(name string) bool {
	return strings.EqualFold(p.Name, name)
}

// SortByAPY orders pools best first; ties keep name order.
func SortByAPY(pools []YieldPool) {
	sort.SliceStable(pools, func(i, j int) bool {
		if c := pools[i].APY.Cmp(pools[j].APY); c != 0 {
			return c > 0
		}
		return pools[i].Name < pools[j].Name
	})
}

// BestExcept returns the highest-APY pool other than exclude.
func BestExcept(pools []YieldPool, exclude string) (YieldPool, bool) {
	var best YieldPool
	found := false
	for _, p := range pools {
		if p.Is(exclude) {
			continue
		}
		if !found || p.APY.GreaterThan(best.APY) {
			best = p
			found = true
		}
	}
	return best, found
}
