package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	quotingDomain "github.com/fd1az/defi-optimizer/business/quoting/domain"
	"github.com/fd1az/defi-optimizer/internal/asset"
)

var at = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func quote(venue string, in, out *asset.Asset, outRaw uint64) *quotingDomain.Quote {
	return &quotingDomain.Quote{
		Venue:     venue,
		Input:     in,
		Output:    out,
		InAmount:  asset.NewAmountFromUint64(in, 100_000_000),
		OutAmount: asset.NewAmountFromUint64(out, outRaw),
	}
}

func TestEvaluateSwap(t *testing.T) {
	if EvaluateSwap(nil, at) != nil {
		t.Error("nil quote must not produce an opportunity")
	}
	if EvaluateSwap(quote("a", asset.SOL, asset.USDC, 0), at) != nil {
		t.Error("zero output must not produce an opportunity")
	}

	q := quote("a", asset.SOL, asset.USDC, 17_250_000)
	opp := EvaluateSwap(q, at)
	if opp == nil {
		t.Fatal("expected a swap opportunity")
	}
	if opp.Kind != KindSwap || opp.Quote != q || opp.ExecutableQuote() != q {
		t.Errorf("unexpected opportunity %+v", opp)
	}
	if got, want := opp.Summary(), "swap 0.1 SOL -> 17.25 USDC on a"; got != want {
		t.Errorf("summary: expected %q, got %q", want, got)
	}
}

func TestEvaluateArbitrage(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *quotingDomain.Quote
		minPct   string
		wantBest string
		wantPct  string
	}{
		{
			name:     "a pays more",
			a:        quote("alpha", asset.SOL, asset.USDC, 17_200_000),
			b:        quote("beta", asset.SOL, asset.USDC, 17_000_000),
			minPct:   "0.1",
			wantBest: "alpha",
			wantPct:  "1.176",
		},
		{
			name:     "b pays more",
			a:        quote("alpha", asset.SOL, asset.USDC, 10_000_000),
			b:        quote("beta", asset.SOL, asset.USDC, 10_050_000),
			minPct:   "0.1",
			wantBest: "beta",
			wantPct:  "0.500",
		},
		{
			name:     "exactly at threshold",
			a:        quote("alpha", asset.SOL, asset.USDC, 10_010_000),
			b:        quote("beta", asset.SOL, asset.USDC, 10_000_000),
			minPct:   "0.1",
			wantBest: "alpha",
			wantPct:  "0.100",
		},
		{
			name:   "below threshold",
			a:      quote("alpha", asset.SOL, asset.USDC, 10_005_000),
			b:      quote("beta", asset.SOL, asset.USDC, 10_000_000),
			minPct: "0.1",
		},
		{
			name:   "equal outputs",
			a:      quote("alpha", asset.SOL, asset.USDC, 10_000_000),
			b:      quote("beta", asset.SOL, asset.USDC, 10_000_000),
			minPct: "0",
		},
		{
			name:   "missing quote",
			a:      quote("alpha", asset.SOL, asset.USDC, 10_000_000),
			minPct: "0",
		},
		{
			name:   "pair mismatch",
			a:      quote("alpha", asset.SOL, asset.USDC, 10_000_000),
			b:      quote("beta", asset.SOL, asset.USDT, 12_000_000),
			minPct: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp := EvaluateArbitrage(tt.a, tt.b, decimal.RequireFromString(tt.minPct), at)
			if tt.wantBest == "" {
				if opp != nil {
					t.Fatalf("expected no opportunity, got %s", opp.Summary())
				}
				return
			}
			if opp == nil {
				t.Fatal("expected an opportunity")
			}
			if opp.Best.Venue != tt.wantBest {
				t.Errorf("best: expected %s, got %s", tt.wantBest, opp.Best.Venue)
			}
			if opp.ExecutableQuote() != opp.Best {
				t.Error("arbitrage must execute the best quote")
			}
			if got := opp.ProfitPct.StringFixed(3); got != tt.wantPct {
				t.Errorf("pct: expected %s, got %s", tt.wantPct, got)
			}
			if !opp.Profit.IsPositive() {
				t.Errorf("profit must be positive, got %s", opp.Profit)
			}
		})
	}
}

func pool(name, apy string) marketDomain.YieldPool {
	return marketDomain.NewYieldPool(name, decimal.RequireFromString(apy), at)
}

func TestEvaluateYield(t *testing.T) {
	tests := []struct {
		name    string
		a, b    marketDomain.YieldPool
		minDiff string
		wantTo  string
	}{
		{"b better", pool("raydium:SOL-USDC", "5.0"), pool("orca:SOL-USDC", "8.0"), "2.0", "orca:SOL-USDC"},
		{"a better", pool("raydium:SOL-USDC", "9.0"), pool("orca:SOL-USDC", "6.5"), "2.0", "raydium:SOL-USDC"},
		{"gap equals threshold", pool("raydium:SOL-USDC", "5.0"), pool("orca:SOL-USDC", "7.0"), "2.0", ""},
		{"gap below threshold", pool("raydium:SOL-USDC", "5.0"), pool("orca:SOL-USDC", "6.0"), "2.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp := EvaluateYield(tt.a, tt.b, decimal.RequireFromString(tt.minDiff), at)
			if tt.wantTo == "" {
				if opp != nil {
					t.Fatalf("expected no opportunity, got %s", opp.Summary())
				}
				return
			}
			if opp == nil {
				t.Fatal("expected an opportunity")
			}
			if opp.To.Name != tt.wantTo {
				t.Errorf("to: expected %s, got %s", tt.wantTo, opp.To.Name)
			}
			if !opp.To.APY.GreaterThan(opp.From.APY) {
				t.Errorf("target APY %s must exceed source %s", opp.To.APY, opp.From.APY)
			}
			if opp.ExecutableQuote() != nil {
				t.Error("yield opportunities carry no quote")
			}
		})
	}
}

func TestOpportunityIDsAreUnique(t *testing.T) {
	q := quote("a", asset.SOL, asset.USDC, 1)
	a, b := EvaluateSwap(q, at), EvaluateSwap(q, at)
	if a.ID == b.ID {
		t.Error("expected distinct IDs")
	}
	if len(a.ShortID()) != 8 {
		t.Errorf("unexpected short id %q", a.ShortID())
	}
}

func TestExecutionResult_Abandon(t *testing.T) {
	opp := EvaluateSwap(quote("a", asset.SOL, asset.USDC, 1), at)
	res := NewExecutionResult(opp, at)
	if res.OpportunityID != opp.ID || res.Kind != KindSwap {
		t.Fatalf("unexpected result %+v", res)
	}

	res.Abandon(errors.New("no wallet"))
	if !res.IsAbandoned() || res.Reason != "no wallet" {
		t.Errorf("unexpected abandoned result %+v", res)
	}
}

func TestStats_Uptime(t *testing.T) {
	if (Stats{}).Uptime(at) != 0 {
		t.Error("unstarted stats have no uptime")
	}
	s := Stats{StartedAt: at}
	if got := s.Uptime(at.Add(time.Minute)); got != time.Minute {
		t.Errorf("expected 1m, got %s", got)
	}
}
