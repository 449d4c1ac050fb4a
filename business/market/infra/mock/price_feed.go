// Package mock provides randomly perturbed price and yield data.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-optimizer/business/market/app"
	"github.com/fd1az/defi-optimizer/business/market/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/jitter"
)

var _ app.PriceFeed = (*PriceFeed)(nil)

// PriceFeedConfig configures the mock feed.
type PriceFeedConfig struct {
	// Initial maps token symbol or mint to its starting USD price.
	Initial         map[string]float64
	Jitter          float64 // each refresh multiplies by 1+U(-Jitter, Jitter)
	RefreshInterval time.Duration
	Seed            uint64
}

type entry struct {
	token *asset.Asset
	base  decimal.Decimal // stablecoins are re-centred on this every refresh
	usd   decimal.Decimal
}

// PriceFeed is a random-walk price feed, refreshed lazily on read once
// RefreshInterval has passed.
type PriceFeed struct {
	cfg PriceFeedConfig
	rng *jitter.Source
	now func() time.Time

	mu          sync.Mutex
	entries     []*entry // by symbol, so a seed replays the same walk
	byID        map[asset.MintID]*entry
	lastRefresh time.Time
}

// NewPriceFeed seeds the feed from cfg.Initial. Every key must resolve in
// registry.
func NewPriceFeed(cfg PriceFeedConfig, registry *asset.Registry) (*PriceFeed, error) {
	return newPriceFeed(cfg, registry, time.Now)
}

func newPriceFeed(cfg PriceFeedConfig, registry *asset.Registry, now func() time.Time) (*PriceFeed, error) {
	f := &PriceFeed{
		cfg:  cfg,
		rng:  jitter.New(cfg.Seed),
		now:  now,
		byID: make(map[asset.MintID]*entry, len(cfg.Initial)),
	}

	for key, usd := range cfg.Initial {
		token, ok := registry.Resolve(key)
		if !ok {
			return nil, apperror.New(apperror.CodeUnknownToken,
				apperror.WithContext(fmt.Sprintf("initial price for unknown token %q", key)))
		}
		d := decimal.NewFromFloat(usd)
		e := &entry{token: token, base: d, usd: d}
		f.entries = append(f.entries, e)
		f.byID[token.ID()] = e
	}
	sort.Slice(f.entries, func(i, j int) bool {
		return f.entries[i].token.Symbol() < f.entries[j].token.Symbol()
	})

	f.lastRefresh = now()
	return f, nil
}

func (f *PriceFeed) Source() string { return "mock" }

// Price returns the token's current price.
func (f *PriceFeed) Price(ctx context.Context, token *asset.Asset) (domain.TokenPrice, error) {
	if token == nil {
		return domain.TokenPrice{}, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithContext("nil token"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshLocked()

	e, ok := f.byID[token.ID()]
	if !ok {
		return domain.TokenPrice{}, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithContext(fmt.Sprintf("no price for %s", token.Symbol())))
	}
	return f.priceLocked(e), nil
}

// Snapshot returns all prices ordered by symbol.
func (f *PriceFeed) Snapshot(ctx context.Context) []domain.TokenPrice {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshLocked()

	out := make([]domain.TokenPrice, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, f.priceLocked(e))
	}
	return out
}

func (f *PriceFeed) priceLocked(e *entry) domain.TokenPrice {
	return domain.TokenPrice{
		Asset:     e.token,
		USD:       e.usd,
		Timestamp: f.lastRefresh,
		Source:    f.Source(),
	}
}

func (f *PriceFeed) refreshLocked() {
	now := f.now()
	if now.Sub(f.lastRefresh) < f.cfg.RefreshInterval {
		return
	}

	for _, e := range f.entries {
		factor := decimal.NewFromFloat(f.rng.Factor(f.cfg.Jitter))
		if e.token.IsStable() {
			e.usd = e.base.Mul(factor)
		} else {
			e.usd = e.usd.Mul(factor)
		}
	}
	f.lastRefresh = now
}
