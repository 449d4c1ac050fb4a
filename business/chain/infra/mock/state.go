// Package mock provides an in-process chain state for running without RPC.
package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/fd1az/defi-optimizer/business/chain/app"
	"github.com/fd1az/defi-optimizer/business/chain/domain"
)

var _ app.ChainState = (*ChainState)(nil)

// Config holds the fixed values the mock serves.
type Config struct {
	StartSlot            uint64
	LastValidBlockHeight uint64
	PriorityFeeLamports  uint64
}

// ChainState advances one slot per domain.SlotDuration of wall time.
type ChainState struct {
	cfg   Config
	start time.Time
	now   func() time.Time
}

// NewChainState creates a mock chain starting at cfg.StartSlot now.
func NewChainState(cfg Config) *ChainState {
	return newChainState(cfg, time.Now)
}

func newChainState(cfg Config, now func() time.Time) *ChainState {
	return &ChainState{cfg: cfg, start: now(), now: now}
}

func (c *ChainState) Source() string { return "mock" }

func (c *ChainState) Slot(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	elapsed := c.now().Sub(c.start)
	return c.cfg.StartSlot + uint64(elapsed/domain.SlotDuration), nil
}

// LatestBlockhash derives a stable hash per slot. LastValidBlockHeight is
// the configured constant.
func (c *ChainState) LatestBlockhash(ctx context.Context) (*domain.Blockhash, error) {
	slot, err := c.Slot(ctx)
	if err != nil {
		return nil, err
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], slot)
	sum := sha256.Sum256(buf[:])

	return &domain.Blockhash{
		Hash:                 solana.HashFromBytes(sum[:]).String(),
		LastValidBlockHeight: c.cfg.LastValidBlockHeight,
		Slot:                 slot,
	}, nil
}

func (c *ChainState) PriorityFee(ctx context.Context) (uint64, error) {
	return c.cfg.PriorityFeeLamports, nil
}
