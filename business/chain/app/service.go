package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fd1az/defi-optimizer/business/chain/domain"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

// ChainService exposes chain state to other contexts and remembers the
// last observed status for health and the dashboard.
type ChainService struct {
	state ChainState
	log   logger.LoggerInterface
	now   func() time.Time

	mu     sync.RWMutex
	status domain.Status
}

// NewChainService creates a new ChainService.
func NewChainService(state ChainState, log logger.LoggerInterface) *ChainService {
	return &ChainService{
		state: state,
		log:   log,
		now:   time.Now,
		status: domain.Status{
			Source: state.Source(),
			State:  domain.StateDisconnected,
		},
	}
}

// Slot returns the current slot.
func (s *ChainService) Slot(ctx context.Context) (uint64, error) {
	start := s.now()
	slot, err := s.state.Slot(ctx)
	s.observe(slot, s.now().Sub(start), err)
	return slot, err
}

// LatestBlockhash returns a recent blockhash.
func (s *ChainService) LatestBlockhash(ctx context.Context) (*domain.Blockhash, error) {
	start := s.now()
	bh, err := s.state.LatestBlockhash(ctx)
	var slot uint64
	if bh != nil {
		slot = bh.Slot
	}
	s.observe(slot, s.now().Sub(start), err)
	return bh, err
}

// PriorityFee returns the prioritization fee in lamports.
func (s *ChainService) PriorityFee(ctx context.Context) (uint64, error) {
	return s.state.PriorityFee(ctx)
}

// Status returns the last observed status.
func (s *ChainService) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Refresh probes the source and returns the resulting status.
func (s *ChainService) Refresh(ctx context.Context) domain.Status {
	if _, err := s.Slot(ctx); err != nil {
		s.log.Warn(ctx, "chain probe failed", "source", s.state.Source(), "error", err)
	}
	return s.Status()
}

func (s *ChainService) observe(slot uint64, latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Latency = latency
	s.status.Err = err
	if err != nil {
		if s.status.State == domain.StateConnected {
			s.status.State = domain.StateDegraded
		}
		return
	}
	s.status.State = domain.StateConnected
	s.status.LastUpdate = s.now()
	if slot > s.status.Slot {
		s.status.Slot = slot
	}
}

// CheckReachable probes the source for the health endpoint.
func (s *ChainService) CheckReachable(ctx context.Context) (bool, string) {
	st := s.Refresh(ctx)
	if st.State != domain.StateConnected {
		msg := string(st.State)
		if st.Err != nil {
			msg += ": " + st.Err.Error()
		}
		return false, msg
	}
	return true, fmt.Sprintf("%s slot %d (%dms)", st.Source, st.Slot, st.Latency.Milliseconds())
}
