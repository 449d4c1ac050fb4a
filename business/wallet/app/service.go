// Package app contains the wallet application service.
package app

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-optimizer/business/wallet/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

const (
	tracerName = "wallet"
	meterName  = "wallet"
)

// WalletService exposes the agent wallet to the strategy context.
type WalletService struct {
	wallet Wallet
	log    logger.LoggerInterface
	tracer trace.Tracer

	broadcasts   metric.Int64Counter
	balanceGauge metric.Float64Gauge
}

// NewWalletService creates a new WalletService.
func NewWalletService(wallet Wallet, log logger.LoggerInterface) (*WalletService, error) {
	meter := otel.Meter(meterName)

	broadcasts, err := meter.Int64Counter("wallet_broadcasts_total",
		metric.WithDescription("Transactions handed to the wallet for broadcast"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	balanceGauge, err := meter.Float64Gauge("wallet_balance_sol",
		metric.WithDescription("Last observed wallet balance"),
		metric.WithUnit("SOL"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &WalletService{
		wallet:       wallet,
		log:          log,
		tracer:       otel.Tracer(tracerName),
		broadcasts:   broadcasts,
		balanceGauge: balanceGauge,
	}, nil
}

// Address returns the configured address, possibly empty.
func (s *WalletService) Address() string {
	return s.wallet.Credentials().SolanaAddress
}

// HasAddress reports whether an address is configured.
func (s *WalletService) HasAddress() bool {
	return s.wallet.Credentials().HasAddress()
}

// Owner returns the wallet's public key, failing with
// WALLET_ADDRESS_MISSING or INVALID_SOLANA_ADDRESS.
func (s *WalletService) Owner() (solana.PublicKey, error) {
	return s.wallet.Credentials().PublicKey()
}

// Balance returns the SOL balance.
func (s *WalletService) Balance(ctx context.Context) (decimal.Decimal, error) {
	bal, err := s.wallet.Balance(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	s.balanceGauge.Record(ctx, bal.InexactFloat64())
	return bal, nil
}

// RequireBalance fails with INSUFFICIENT_BALANCE when the wallet holds
// less than amount SOL.
func (s *WalletService) RequireBalance(ctx context.Context, amount decimal.Decimal) error {
	bal, err := s.Balance(ctx)
	if err != nil {
		return err
	}
	if bal.LessThan(amount) {
		return apperror.Precondition(apperror.CodeInsufficientBalance,
			fmt.Sprintf("have %s SOL, need %s SOL", bal, amount))
	}
	return nil
}

// Broadcast hands a signed transaction to the wallet.
func (s *WalletService) Broadcast(ctx context.Context, signedBase64 string) (domain.TxHash, error) {
	ctx, span := s.tracer.Start(ctx, "wallet.broadcast",
		trace.WithAttributes(attribute.Int("payload_len", len(signedBase64))))
	defer span.End()

	hash, err := s.wallet.SendRawTransaction(ctx, signedBase64)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "broadcast failed")
		s.broadcasts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		return "", err
	}

	span.SetAttributes(attribute.String("tx_hash", hash.String()))
	span.SetStatus(codes.Ok, "sent")
	s.broadcasts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	return hash, nil
}

// CheckConfigured reports whether an address is set; used as a health check.
func (s *WalletService) CheckConfigured(ctx context.Context) (bool, string) {
	if _, err := s.Owner(); err != nil {
		return false, err.Error()
	}
	return true, s.Address()
}
