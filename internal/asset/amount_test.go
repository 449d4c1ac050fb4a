package asset_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/shopspring/decimal"
)

func TestAmount_Basic(t *testing.T) {
	// 1 SOL = 1e9 lamports
	oneSOL := asset.NewAmount(asset.SOL, big.NewInt(asset.LamportsPerSOL))

	if oneSOL.IsZero() {
		t.Error("expected non-zero amount")
	}
	if !oneSOL.ToDecimal().Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", oneSOL.ToDecimal().String())
	}
	if oneSOL.String() != "1 SOL" {
		t.Errorf("expected '1 SOL', got '%s'", oneSOL.String())
	}
	if oneSOL.Uint64() != asset.LamportsPerSOL {
		t.Errorf("expected %d lamports, got %d", asset.LamportsPerSOL, oneSOL.Uint64())
	}
}

func TestAmount_AddSub(t *testing.T) {
	one := asset.NewAmountFromUint64(asset.USDC, 1_000_000)
	two := asset.NewAmountFromUint64(asset.USDC, 2_000_000)

	sum, err := one.Add(two)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.ToDecimal().Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected 3, got %s", sum.ToDecimal())
	}

	diff, err := sum.Sub(one)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !diff.Equals(two) {
		t.Errorf("expected 2 USDC, got %s", diff)
	}

	if _, err := one.Sub(two); !errors.Is(err, asset.ErrNegativeResult) {
		t.Errorf("expected ErrNegativeResult, got %v", err)
	}
}

func TestAmount_CannotMixTokens(t *testing.T) {
	sol := asset.NewAmountFromUint64(asset.SOL, 1)
	usdc := asset.NewAmountFromUint64(asset.USDC, 1)

	if _, err := sol.Add(usdc); !errors.Is(err, asset.ErrAssetMismatch) {
		t.Errorf("expected ErrAssetMismatch, got %v", err)
	}
	if _, err := sol.Cmp(usdc); err == nil {
		t.Error("expected error comparing different tokens")
	}
}

func TestAmount_MulFrac(t *testing.T) {
	// 1% slippage on 17 USDC
	out := asset.NewAmountFromUint64(asset.USDC, 17_000_000)
	min := out.MulFrac(9_900, 10_000)

	if min.RawString() != "16830000" {
		t.Errorf("expected 16830000, got %s", min.RawString())
	}
}

func TestParseRaw(t *testing.T) {
	a, err := asset.ParseRaw(asset.USDC, "17000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.ToDecimal().Equal(decimal.NewFromInt(17)) {
		t.Errorf("expected 17, got %s", a.ToDecimal())
	}

	for _, bad := range []string{"", "1.5", "abc", "-1"} {
		if _, err := asset.ParseRaw(asset.USDC, bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	amount, err := asset.ParseDecimal(asset.SOL, decimal.RequireFromString("0.1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount.Uint64() != 100_000_000 {
		t.Errorf("expected 100000000 lamports, got %d", amount.Uint64())
	}
}

func TestParseDecimal_TooManyDecimals(t *testing.T) {
	// USDC has 6 decimals
	_, err := asset.ParseDecimal(asset.USDC, decimal.RequireFromString("1.1234567"))
	if !errors.Is(err, asset.ErrTooManyDecimals) {
		t.Errorf("expected ErrTooManyDecimals, got %v", err)
	}
}

func TestPrice_Convert(t *testing.T) {
	price := asset.NewPrice(asset.SOL, asset.USDC, decimal.NewFromInt(170), time.Now())
	tenthSOL, _ := asset.ParseString(asset.SOL, "0.1")

	usdc, err := price.Convert(tenthSOL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usdc.RawString() != "17000000" {
		t.Errorf("expected 17000000, got %s", usdc.RawString())
	}

	if _, err := price.Convert(usdc); err == nil {
		t.Error("expected error converting quote token")
	}
}

func TestPrice_ConvertUpscalesDecimals(t *testing.T) {
	// USDC (6) -> SOL (9)
	price := asset.NewPrice(asset.USDC, asset.SOL, decimal.RequireFromString("0.005"), time.Now())
	usdc, _ := asset.ParseString(asset.USDC, "20")

	sol, err := price.Convert(usdc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sol.ToDecimal().Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("expected 0.1 SOL, got %s", sol)
	}
}

func TestCrossPrice(t *testing.T) {
	p := asset.CrossPrice(asset.SOL, asset.USDC,
		decimal.NewFromInt(170), decimal.NewFromInt(1), time.Now())
	if !p.Rate().Equal(decimal.NewFromInt(170)) {
		t.Errorf("expected 170, got %s", p.Rate())
	}

	zero := asset.CrossPrice(asset.SOL, asset.USDC, decimal.NewFromInt(170), decimal.Zero, time.Now())
	if !zero.IsZero() {
		t.Error("expected zero rate when quote price is zero")
	}
}

func TestPrice_Scale(t *testing.T) {
	p := asset.NewPrice(asset.SOL, asset.USDC, decimal.NewFromInt(200), time.Now())
	scaled := p.Scale(decimal.RequireFromString("0.995"))

	if !scaled.Rate().Equal(decimal.NewFromInt(199)) {
		t.Errorf("expected 199, got %s", scaled.Rate())
	}
}

func TestPrice_Invert(t *testing.T) {
	price := asset.NewPrice(asset.SOL, asset.USDC, decimal.NewFromInt(200), time.Now())
	inverted := price.Invert()

	diff := inverted.Rate().Sub(decimal.RequireFromString("0.005")).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.0000001")) {
		t.Errorf("expected ~0.005, got %s", inverted.Rate())
	}
	if inverted.Pair() != "USDC/SOL" {
		t.Errorf("expected USDC/SOL, got %s", inverted.Pair())
	}
}

func TestPrice_IsStale(t *testing.T) {
	old := asset.NewPrice(asset.SOL, asset.USDC, decimal.NewFromInt(1), time.Now().Add(-time.Minute))
	if !old.IsStale(30 * time.Second) {
		t.Error("expected minute-old price to be stale")
	}
	if old.IsStale(2 * time.Minute) {
		t.Error("expected price within max age to be fresh")
	}
}

func TestMintID(t *testing.T) {
	id, err := asset.ParseMintID(asset.MintUSDC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !id.Equals(asset.USDC.ID()) {
		t.Error("parsed mint should equal the well-known USDC mint")
	}
	if id.String() != asset.MintUSDC {
		t.Errorf("round trip mismatch: %s", id)
	}

	if _, err := asset.ParseMintID("not-base58-0OIl"); err == nil {
		t.Error("expected error for invalid base58")
	}
	if _, err := asset.ParseMintID("11111111111111111111111111111111"); !errors.Is(err, asset.ErrZeroMint) {
		t.Errorf("expected ErrZeroMint for the all-zero key, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := asset.DefaultRegistry()

	if r.Count() != 4 {
		t.Fatalf("expected 4 tokens, got %d", r.Count())
	}

	sol, ok := r.GetBySymbol("sol")
	if !ok || sol.Decimals() != asset.DecimalsSOL {
		t.Fatalf("SOL lookup failed: %v %v", sol, ok)
	}

	usdc, ok := r.GetByMint(asset.MintUSDC)
	if !ok || !usdc.IsStable() {
		t.Fatalf("USDC lookup by mint failed")
	}

	if a, ok := r.Resolve(asset.MintMSOL); !ok || a.Symbol() != "mSOL" {
		t.Errorf("Resolve by mint failed: %v", a)
	}
	if _, ok := r.Resolve("BONK"); ok {
		t.Error("unexpected token resolved")
	}

	all := r.All()
	if all[0].Symbol() != "SOL" {
		t.Errorf("expected tokens ordered by symbol, first is %s", all[0].Symbol())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	r.Register(asset.SOL)
}
