package app

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-optimizer/business/wallet/domain"
)

// Wallet is the agent wallet.
type Wallet interface {
	Credentials() domain.Credentials
	// Balance returns the SOL balance of the configured address.
	Balance(ctx context.Context) (decimal.Decimal, error)
	// SendRawTransaction broadcasts a signed, base64-encoded transaction.
	SendRawTransaction(ctx context.Context, signedBase64 string) (domain.TxHash, error)
}

// BalanceReader reads an account's lamport balance on chain.
type BalanceReader interface {
	Balance(ctx context.Context, owner solana.PublicKey) (uint64, error)
}
