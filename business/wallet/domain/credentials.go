// Package domain contains the core domain types for the wallet context.
package domain

import (
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/fd1az/defi-optimizer/internal/apperror"
)

// Credentials are the agent wallet's API token and account address.
type Credentials struct {
	APIToken      string
	SolanaAddress string
}

// HasAddress reports whether an address is configured.
func (c Credentials) HasAddress() bool {
	return strings.TrimSpace(c.SolanaAddress) != ""
}

// HasToken reports whether an API token is configured.
func (c Credentials) HasToken() bool {
	return strings.TrimSpace(c.APIToken) != ""
}

// PublicKey parses the address.
func (c Credentials) PublicKey() (solana.PublicKey, error) {
	if !c.HasAddress() {
		return solana.PublicKey{}, apperror.Precondition(apperror.CodeWalletAddressMissing, "no solana address configured")
	}
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(c.SolanaAddress))
	if err != nil {
		return solana.PublicKey{}, apperror.New(apperror.CodeInvalidSolanaAddress,
			apperror.WithCause(err),
			apperror.WithContext(c.SolanaAddress))
	}
	return pk, nil
}

// Merge returns c with every non-empty field of override applied.
func (c Credentials) Merge(override Credentials) Credentials {
	if strings.TrimSpace(override.APIToken) != "" {
		c.APIToken = override.APIToken
	}
	if strings.TrimSpace(override.SolanaAddress) != "" {
		c.SolanaAddress = override.SolanaAddress
	}
	return c
}

// TxHash is a transaction signature as returned by a broadcast.
type TxHash string

func (h TxHash) String() string { return string(h) }
