// Package domain contains the core domain types for the quoting context.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
)

// MaxSlippageBps is 100%.
const MaxSlippageBps = 10_000

// SwapMode says which side of the swap is fixed.
type SwapMode string

const (
	SwapModeExactIn  SwapMode = "ExactIn"
	SwapModeExactOut SwapMode = "ExactOut"
)

// QuoteRequest asks a venue how much Output it gives for Amount of Input.
type QuoteRequest struct {
	Input       *asset.Asset
	Output      *asset.Asset
	Amount      asset.Amount // of Input
	SlippageBps int
}

// NewQuoteRequest builds and validates a request for a whole-token amount.
func NewQuoteRequest(input, output *asset.Asset, amount decimal.Decimal, slippageBps int) (QuoteRequest, error) {
	if input == nil || output == nil {
		return QuoteRequest{}, apperror.Validation(apperror.CodeRequiredField, "input and output tokens are required")
	}
	raw, err := asset.ParseDecimal(input, amount)
	if err != nil {
		return QuoteRequest{}, apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s %s", amount, input.Symbol())))
	}
	req := QuoteRequest{Input: input, Output: output, Amount: raw, SlippageBps: slippageBps}
	return req, req.Validate()
}

// Validate checks the request is quotable.
func (r QuoteRequest) Validate() error {
	switch {
	case r.Input == nil || r.Output == nil:
		return apperror.Validation(apperror.CodeRequiredField, "input and output tokens are required")
	case r.Input.Equals(r.Output):
		return apperror.Validation(apperror.CodeInvalidInput, "input and output tokens are the same")
	case !r.Amount.IsPositive():
		return apperror.Validation(apperror.CodeInvalidTradeSize, "amount must be positive")
	case r.SlippageBps < 0 || r.SlippageBps > MaxSlippageBps:
		return apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("slippage %d bps out of range", r.SlippageBps))
	}
	return nil
}

// Pair renders "SOL/USDC".
func (r QuoteRequest) Pair() string {
	return r.Input.Symbol() + "/" + r.Output.Symbol()
}

// Key identifies the request for caching.
func (r QuoteRequest) Key() string {
	return fmt.Sprintf("%s:%s:%s:%d", r.Input.Mint(), r.Output.Mint(), r.Amount.RawString(), r.SlippageBps)
}

// RouteStep is one hop of a route.
type RouteStep struct {
	Label      string // AMM name
	AMMKey     string
	InputMint  string
	OutputMint string
	InAmount   string
	OutAmount  string
	FeeAmount  string
	FeeMint    string
	Percent    int
}

// Quote is a venue's answer to a QuoteRequest. Quotes live for one cycle.
type Quote struct {
	Venue  string
	Input  *asset.Asset
	Output *asset.Asset

	InAmount  asset.Amount
	OutAmount asset.Amount
	// OtherAmountThreshold is the minimum output after slippage.
	OtherAmountThreshold asset.Amount

	SwapMode       SwapMode
	SlippageBps    int
	PriceImpactPct decimal.Decimal
	RoutePlan      []RouteStep
	ContextSlot    uint64
	TimeTaken      time.Duration
	CreatedAt      time.Time
}

// MinimumOut returns floor(out * (10000 - bps) / 10000).
func MinimumOut(out asset.Amount, slippageBps int) asset.Amount {
	if slippageBps < 0 {
		slippageBps = 0
	}
	if slippageBps > MaxSlippageBps {
		slippageBps = MaxSlippageBps
	}
	return out.MulFrac(int64(MaxSlippageBps-slippageBps), MaxSlippageBps)
}

// Pair renders "SOL/USDC".
func (q *Quote) Pair() string {
	return q.Input.Symbol() + "/" + q.Output.Symbol()
}

// SamePair reports whether both quotes convert the same tokens.
func (q *Quote) SamePair(other *Quote) bool {
	return other != nil && q.Input.Equals(other.Input) && q.Output.Equals(other.Output)
}

// HasOutput reports whether the quote yields anything.
func (q *Quote) HasOutput() bool {
	return q != nil && q.OutAmount.IsPositive()
}

// Rate is the executed price in output tokens per input token.
func (q *Quote) Rate() decimal.Decimal {
	in := q.InAmount.ToDecimal()
	if in.IsZero() {
		return decimal.Zero
	}
	return q.OutAmount.ToDecimal().Div(in)
}

func (q *Quote) String() string {
	return fmt.Sprintf("%s: %s -> %s (min %s)", q.Venue, q.InAmount, q.OutAmount, q.OtherAmountThreshold)
}

// SwapTransaction is an unsigned transaction built from a quote.
type SwapTransaction struct {
	SwapTransaction           string // base64
	LastValidBlockHeight      uint64
	PrioritizationFeeLamports uint64
}

// HasPayload reports whether there is a transaction to sign.
func (t *SwapTransaction) HasPayload() bool {
	return t != nil && t.SwapTransaction != ""
}
