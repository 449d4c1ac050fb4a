package app_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/defi-optimizer/business/chain/app"
	"github.com/fd1az/defi-optimizer/business/chain/domain"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

type stubState struct {
	slot uint64
	err  error
}

func (s *stubState) Source() string { return "stub" }

func (s *stubState) Slot(context.Context) (uint64, error) { return s.slot, s.err }

func (s *stubState) LatestBlockhash(context.Context) (*domain.Blockhash, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Blockhash{Hash: "h", LastValidBlockHeight: 100000000, Slot: s.slot}, nil
}

func (s *stubState) PriorityFee(context.Context) (uint64, error) { return 1000, nil }

func TestChainService_TracksStatus(t *testing.T) {
	state := &stubState{slot: 42}
	svc := app.NewChainService(state, logger.New(io.Discard, logger.LevelError, "test", nil))
	ctx := context.Background()

	assert.Equal(t, domain.StateDisconnected, svc.Status().State)

	status := svc.Refresh(ctx)
	assert.Equal(t, domain.StateConnected, status.State)
	assert.Equal(t, uint64(42), status.Slot)
	assert.Equal(t, "stub", status.Source)

	state.err = errors.New("rpc down")
	_, err := svc.LatestBlockhash(ctx)
	require.Error(t, err)

	status = svc.Status()
	assert.Equal(t, domain.StateDegraded, status.State)
	assert.Equal(t, uint64(42), status.Slot, "last good slot is kept")
	assert.EqualError(t, status.Err, "rpc down")

	fee, err := svc.PriorityFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), fee)
}

func TestChainService_CheckReachable(t *testing.T) {
	state := &stubState{slot: 7}
	svc := app.NewChainService(state, logger.New(io.Discard, logger.LevelError, "test", nil))

	ok, msg := svc.CheckReachable(context.Background())
	assert.True(t, ok)
	assert.Contains(t, msg, "slot 7")

	state.err = errors.New("rpc down")
	ok, msg = svc.CheckReachable(context.Background())
	assert.False(t, ok)
	assert.Contains(t, msg, "rpc down")
}
