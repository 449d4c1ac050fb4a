package agentwallet

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-optimizer/business/wallet/app"
	"github.com/fd1az/defi-optimizer/business/wallet/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

var _ app.Wallet = (*Wallet)(nil)

// payloadPreview is how much of a transaction payload gets logged.
const payloadPreview = 30

// Config holds the mocked wallet responses.
type Config struct {
	MockBalance decimal.Decimal // SOL
	MockTxHash  string
}

// Wallet is the mocked agent wallet. When balances is set the SOL balance
// is read on chain instead of the mocked value.
type Wallet struct {
	creds    domain.Credentials
	cfg      Config
	balances app.BalanceReader
	log      logger.LoggerInterface
}

// NewWallet creates a new Wallet. balances may be nil.
func NewWallet(creds domain.Credentials, cfg Config, balances app.BalanceReader, log logger.LoggerInterface) *Wallet {
	return &Wallet{creds: creds, cfg: cfg, balances: balances, log: log}
}

func (w *Wallet) Credentials() domain.Credentials {
	return w.creds
}

// Balance returns the SOL balance.
func (w *Wallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	if w.balances == nil {
		return w.cfg.MockBalance, nil
	}

	owner, err := w.creds.PublicKey()
	if err != nil {
		return decimal.Zero, err
	}
	lamports, err := w.balances.Balance(ctx, owner)
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.CodeChainRPCError, "get balance")
	}
	return asset.NewAmountFromUint64(asset.SOL, lamports).ToDecimal(), nil
}

// SendRawTransaction pretends to broadcast the payload.
func (w *Wallet) SendRawTransaction(ctx context.Context, signedBase64 string) (domain.TxHash, error) {
	if signedBase64 == "" {
		return "", apperror.Precondition(apperror.CodeSwapTransactionMissing, "empty transaction payload")
	}
	if !w.creds.HasAddress() {
		return "", apperror.Precondition(apperror.CodeWalletAddressMissing, "cannot broadcast without an address")
	}

	preview := signedBase64
	if len(preview) > payloadPreview {
		preview = preview[:payloadPreview] + "..."
	}
	w.log.Info(ctx, "sending raw transaction", "payload", preview, "from", w.creds.SolanaAddress)

	return domain.TxHash(w.cfg.MockTxHash), nil
}
