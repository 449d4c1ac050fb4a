package mock

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestFeed(t *testing.T, c *clock) *PriceFeed {
	t.Helper()
	f, err := newPriceFeed(PriceFeedConfig{
		Initial:         map[string]float64{"SOL": 170, "USDC": 1},
		Jitter:          0.005,
		RefreshInterval: 30 * time.Second,
		Seed:            42,
	}, asset.DefaultRegistry(), c.now)
	if err != nil {
		t.Fatalf("newPriceFeed: %v", err)
	}
	return f
}

func TestPriceFeed_UnknownInitialToken(t *testing.T) {
	_, err := NewPriceFeed(PriceFeedConfig{Initial: map[string]float64{"BONK": 0.00002}}, asset.DefaultRegistry())
	if !apperror.HasCode(err, apperror.CodeUnknownToken) {
		t.Fatalf("expected UNKNOWN_TOKEN, got %v", err)
	}
}

func TestPriceFeed_StableWithinInterval(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	f := newTestFeed(t, c)
	ctx := context.Background()

	first, err := f.Price(ctx, asset.SOL)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if !first.USD.Equal(decimal.NewFromInt(170)) {
		t.Errorf("expected initial 170, got %s", first.USD)
	}

	c.t = c.t.Add(29 * time.Second)
	second, _ := f.Price(ctx, asset.SOL)
	if !second.USD.Equal(first.USD) {
		t.Errorf("price moved before the refresh interval: %s -> %s", first.USD, second.USD)
	}
}

func TestPriceFeed_RefreshStaysWithinJitter(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	f := newTestFeed(t, c)
	ctx := context.Background()

	prev := decimal.NewFromInt(170)
	for i := 0; i < 50; i++ {
		c.t = c.t.Add(30 * time.Second)

		sol, err := f.Price(ctx, asset.SOL)
		if err != nil {
			t.Fatalf("Price: %v", err)
		}
		ratio := sol.USD.Div(prev).InexactFloat64()
		if ratio < 0.995 || ratio > 1.005 {
			t.Fatalf("step %d moved by %.5f", i, ratio)
		}
		if !sol.Timestamp.Equal(c.t) {
			t.Errorf("timestamp not updated on refresh")
		}
		prev = sol.USD

		usdc, _ := f.Price(ctx, asset.USDC)
		if v := usdc.USD.InexactFloat64(); v < 0.995 || v > 1.005 {
			t.Fatalf("stablecoin drifted off peg: %v", v)
		}
	}
}

func TestPriceFeed_MissingToken(t *testing.T) {
	f := newTestFeed(t, &clock{t: time.Now()})
	_, err := f.Price(context.Background(), asset.MSOL)
	if !apperror.HasCode(err, apperror.CodePriceUnavailable) {
		t.Fatalf("expected PRICE_UNAVAILABLE, got %v", err)
	}
}

func TestPriceFeed_SnapshotSorted(t *testing.T) {
	f := newTestFeed(t, &clock{t: time.Now()})
	snap := f.Snapshot(context.Background())
	if len(snap) != 2 {
		t.Fatalf("expected 2 prices, got %d", len(snap))
	}
	if snap[0].Symbol() != "SOL" || snap[1].Symbol() != "USDC" {
		t.Errorf("unexpected order: %s, %s", snap[0].Symbol(), snap[1].Symbol())
	}
}

func TestPriceFeed_SameSeedSameWalk(t *testing.T) {
	c1 := &clock{t: time.Unix(0, 0)}
	c2 := &clock{t: time.Unix(0, 0)}
	a, b := newTestFeed(t, c1), newTestFeed(t, c2)

	for i := 0; i < 5; i++ {
		c1.t = c1.t.Add(time.Minute)
		c2.t = c2.t.Add(time.Minute)
		pa, _ := a.Price(context.Background(), asset.SOL)
		pb, _ := b.Price(context.Background(), asset.SOL)
		if !pa.USD.Equal(pb.USD) {
			t.Fatalf("step %d diverged: %s vs %s", i, pa.USD, pb.USD)
		}
	}
}

func TestYieldSource(t *testing.T) {
	pools := []Pool{{Name: "raydium:SOL-USDC", APY: 12.5}, {Name: "tiny:X", APY: 0.2}}
	y := NewYieldSource(pools, 1.5, 7)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		got, err := y.Pools(ctx)
		if err != nil {
			t.Fatalf("Pools: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 pools, got %d", len(got))
		}
		ray := got[0].APY.InexactFloat64()
		if ray < 11 || ray > 14 {
			t.Fatalf("raydium APY out of band: %v", ray)
		}
		if got[1].APY.IsNegative() {
			t.Fatalf("APY went negative: %s", got[1].APY)
		}
		if got[0].Venue != "raydium" || got[0].Pair != "SOL-USDC" {
			t.Errorf("name not split: %+v", got[0])
		}
	}

	p, err := y.Pool(ctx, "RAYDIUM:sol-usdc")
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if p.Name != "raydium:SOL-USDC" {
		t.Errorf("unexpected pool %q", p.Name)
	}

	if _, err := y.Pool(ctx, "nowhere"); !apperror.HasCode(err, apperror.CodePoolNotFound) {
		t.Errorf("expected POOL_NOT_FOUND, got %v", err)
	}
}
