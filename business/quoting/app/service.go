package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-optimizer/business/quoting/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

const (
	tracerName = "quoting"
	meterName  = "quoting"
)

// QuotingService routes quote requests to venues and builds swaps.
type QuotingService struct {
	quoters []Quoter
	builder SwapBuilder
	log     logger.LoggerInterface
	tracer  trace.Tracer

	quoteCounter  metric.Int64Counter
	quoteDuration metric.Float64Histogram
	quoteOutput   metric.Float64Gauge
}

// NewQuotingService creates a service over quoters, in priority order.
func NewQuotingService(quoters []Quoter, builder SwapBuilder, log logger.LoggerInterface) (*QuotingService, error) {
	if len(quoters) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("no quote venues"))
	}

	meter := otel.Meter(meterName)
	quoteCounter, err := meter.Int64Counter("quoting_quotes_total",
		metric.WithDescription("Quote requests by venue and outcome"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	quoteDuration, err := meter.Float64Histogram("quoting_quote_duration_seconds",
		metric.WithDescription("Time to obtain a quote"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	quoteOutput, err := meter.Float64Gauge("quoting_quote_output",
		metric.WithDescription("Last quoted output amount, in output token units"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &QuotingService{
		quoters:       quoters,
		builder:       builder,
		log:           log,
		tracer:        otel.Tracer(tracerName),
		quoteCounter:  quoteCounter,
		quoteDuration: quoteDuration,
		quoteOutput:   quoteOutput,
	}, nil
}

// Venues lists venue names in priority order.
func (s *QuotingService) Venues() []string {
	names := make([]string, len(s.quoters))
	for i, q := range s.quoters {
		names[i] = q.Venue()
	}
	return names
}

// Primary is the first venue.
func (s *QuotingService) Primary() string {
	return s.quoters[0].Venue()
}

// Quote asks one venue. A nil quote with nil error means no route.
func (s *QuotingService) Quote(ctx context.Context, venue string, req domain.QuoteRequest) (*domain.Quote, error) {
	for _, q := range s.quoters {
		if strings.EqualFold(q.Venue(), venue) {
			return s.quote(ctx, q, req)
		}
	}
	return nil, apperror.NotFound(apperror.CodeVenueNotFound, venue)
}

func (s *QuotingService) quote(ctx context.Context, q Quoter, req domain.QuoteRequest) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "quoting.quote",
		trace.WithAttributes(
			attribute.String("venue", q.Venue()),
			attribute.String("pair", req.Pair()),
		))
	defer span.End()

	start := time.Now()
	quote, err := q.Quote(ctx, req)
	s.quoteDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("venue", q.Venue())))

	status := "ok"
	switch {
	case err != nil:
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
	case quote == nil:
		status = "no_route"
		span.AddEvent("no route")
	default:
		span.SetAttributes(attribute.String("out_amount", quote.OutAmount.RawString()))
		span.SetStatus(codes.Ok, "quoted")
		s.quoteOutput.Record(ctx, quote.OutAmount.ToDecimal().InexactFloat64(), metric.WithAttributes(
			attribute.String("venue", q.Venue()),
			attribute.String("pair", req.Pair()),
		))
	}
	s.quoteCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("venue", q.Venue()),
		attribute.String("status", status),
	))
	return quote, err
}

// QuoteAll asks every venue in order. Failures and missing routes are
// logged and skipped; the result holds one entry per venue, nil where no
// quote was obtained.
func (s *QuotingService) QuoteAll(ctx context.Context, req domain.QuoteRequest) []*domain.Quote {
	out := make([]*domain.Quote, len(s.quoters))
	for i, q := range s.quoters {
		quote, err := s.quote(ctx, q, req)
		if err != nil {
			s.log.Warn(ctx, "quote failed", "venue", q.Venue(), "pair", req.Pair(), "error", err)
			continue
		}
		if quote == nil {
			s.log.Info(ctx, "no route", "venue", q.Venue(), "pair", req.Pair())
			continue
		}
		out[i] = quote
	}
	return out
}

// BuildSwap builds the unsigned transaction for quote.
func (s *QuotingService) BuildSwap(ctx context.Context, quote *domain.Quote, owner solana.PublicKey) (*domain.SwapTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "quoting.build_swap")
	defer span.End()

	tx, err := s.builder.SwapTransaction(ctx, quote, owner)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("has_payload", tx.HasPayload()))
	return tx, nil
}
