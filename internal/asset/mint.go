// Package asset provides a type-safe model for Solana SPL tokens.
// Quantities are big.Int raw units (lamports, token base units);
// decimal.Decimal is only used at boundaries (config, UI, logs).
package asset

import (
	solana "github.com/gagliardetto/solana-go"
)

// MintID identifies a token by its mint account. The symbol is display
// metadata only. Native SOL is identified by the wrapped-SOL mint, which is
// how swap aggregators address it.
type MintID struct {
	key solana.PublicKey
}

// NewMintID wraps a mint public key.
func NewMintID(key solana.PublicKey) MintID {
	if key.IsZero() {
		panic("asset: zero mint address")
	}
	return MintID{key: key}
}

// ParseMintID parses a base58 mint address.
func ParseMintID(s string) (MintID, error) {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return MintID{}, err
	}
	if key.IsZero() {
		return MintID{}, ErrZeroMint
	}
	return MintID{key: key}, nil
}

// MustParseMintID parses a base58 mint address and panics on failure.
func MustParseMintID(s string) MintID {
	id, err := ParseMintID(s)
	if err != nil {
		panic("asset: invalid mint " + s + ": " + err.Error())
	}
	return id
}

// PublicKey returns the mint account.
func (id MintID) PublicKey() solana.PublicKey {
	return id.key
}

// IsZero reports whether the id is unset.
func (id MintID) IsZero() bool {
	return id.key.IsZero()
}

// String returns the base58 mint address.
func (id MintID) String() string {
	return id.key.String()
}

// Equals compares two mints.
func (id MintID) Equals(other MintID) bool {
	return id.key.Equals(other.key)
}
