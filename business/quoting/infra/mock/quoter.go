// Package mock implements venues that quote from the market cross rate.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-optimizer/business/quoting/app"
	"github.com/fd1az/defi-optimizer/business/quoting/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/jitter"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

var _ app.Quoter = (*VenueQuoter)(nil)

// VenueConfig sets one venue's execution band.
type VenueConfig struct {
	Name           string
	BandLow        float64
	BandHigh       float64
	PriceImpactPct float64
}

// VenueQuoter quotes the fair cross rate times a factor drawn from the
// venue's band. Every mocked venue is a VenueQuoter with its own band.
type VenueQuoter struct {
	cfg   VenueConfig
	rates app.RateSource
	chain app.ChainReader
	rng   *jitter.Source
	log   logger.LoggerInterface
	now   func() time.Time
}

// NewVenueQuoter creates a mocked venue. chain may be nil.
func NewVenueQuoter(cfg VenueConfig, rates app.RateSource, chain app.ChainReader, seed uint64, log logger.LoggerInterface) (*VenueQuoter, error) {
	if cfg.Name == "" {
		return nil, apperror.Validation(apperror.CodeRequiredField, "venue name is required")
	}
	if cfg.BandLow <= 0 || cfg.BandHigh < cfg.BandLow {
		return nil, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("venue %s: invalid band [%v, %v]", cfg.Name, cfg.BandLow, cfg.BandHigh))
	}
	return &VenueQuoter{
		cfg:   cfg,
		rates: rates,
		chain: chain,
		rng:   jitter.New(seed),
		log:   log,
		now:   time.Now,
	}, nil
}

func (q *VenueQuoter) Venue() string { return q.cfg.Name }

// Quote returns nil, nil when either token has no price.
func (q *VenueQuoter) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := q.now()

	rate, err := q.rates.CrossPrice(ctx, req.Input, req.Output)
	if err != nil {
		if apperror.HasCode(err, apperror.CodePriceUnavailable) {
			q.log.Debug(ctx, "no route", "venue", q.cfg.Name, "pair", req.Pair(), "error", err)
			return nil, nil
		}
		return nil, apperror.Wrap(err, apperror.CodeQuoteFailed, q.cfg.Name)
	}

	factor := decimal.NewFromFloat(q.rng.Uniform(q.cfg.BandLow, q.cfg.BandHigh))
	out, err := rate.Scale(factor).Convert(req.Amount)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeQuoteFailed, q.cfg.Name, err)
	}
	if out.Raw().Sign() <= 0 {
		return nil, nil
	}
	minOut := domain.MinimumOut(out, req.SlippageBps)

	var slot uint64
	if q.chain != nil {
		if slot, err = q.chain.Slot(ctx); err != nil {
			q.log.Debug(ctx, "quote without context slot", "venue", q.cfg.Name, "error", err)
		}
	}

	return &domain.Quote{
		Venue:                q.cfg.Name,
		Input:                req.Input,
		Output:               req.Output,
		InAmount:             req.Amount,
		OutAmount:            out,
		OtherAmountThreshold: minOut,
		SwapMode:             domain.SwapModeExactIn,
		SlippageBps:          req.SlippageBps,
		PriceImpactPct:       decimal.NewFromFloat(q.cfg.PriceImpactPct),
		RoutePlan: []domain.RouteStep{{
			Label:      q.cfg.Name,
			InputMint:  req.Input.Mint(),
			OutputMint: req.Output.Mint(),
			InAmount:   req.Amount.RawString(),
			OutAmount:  out.RawString(),
			FeeAmount:  "0",
			FeeMint:    req.Input.Mint(),
			Percent:    100,
		}},
		ContextSlot: slot,
		TimeTaken:   q.now().Sub(start),
		CreatedAt:   start,
	}, nil
}
