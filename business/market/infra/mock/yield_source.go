package mock

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-optimizer/business/market/app"
	"github.com/fd1az/defi-optimizer/business/market/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/jitter"
)

var _ app.YieldSource = (*YieldSource)(nil)

// Pool is a configured pool and its base APY in percent.
type Pool struct {
	Name string
	APY  float64
}

// YieldSource reports each pool's base APY moved by U(-spread, +spread)
// percentage points on every read, floored at zero.
type YieldSource struct {
	pools  []Pool
	spread float64
	rng    *jitter.Source
	now    func() time.Time
}

// NewYieldSource creates the mock yield source.
func NewYieldSource(pools []Pool, spread float64, seed uint64) *YieldSource {
	return &YieldSource{
		pools:  pools,
		spread: spread,
		rng:    jitter.New(seed),
		now:    time.Now,
	}
}

func (y *YieldSource) perturb(p Pool) domain.YieldPool {
	apy := math.Max(0, p.APY+y.rng.Uniform(-y.spread, y.spread))
	return domain.NewYieldPool(p.Name, decimal.NewFromFloat(apy).Round(4), y.now())
}

func (y *YieldSource) Pools(ctx context.Context) ([]domain.YieldPool, error) {
	out := make([]domain.YieldPool, 0, len(y.pools))
	for _, p := range y.pools {
		out = append(out, y.perturb(p))
	}
	return out, nil
}

func (y *YieldSource) Pool(ctx context.Context, name string) (domain.YieldPool, error) {
	for _, p := range y.pools {
		if domain.NewYieldPool(p.Name, decimal.Zero, time.Time{}).Is(name) {
			return y.perturb(p), nil
		}
	}
	return domain.YieldPool{}, apperror.NotFound(apperror.CodePoolNotFound, fmt.Sprintf("pool %q", name))
}
