package rendezvous

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// SingleUse is a barrier that trips exactly once.
//
// Waiters block on a counting semaphore that starts with no permits; the
// last party to arrive hands out exactly parties-1 permits. Any Wait after
// the rendezvous returns ErrExhausted instead of being counted toward a
// phase that will never come.
type SingleUse struct {
	parties int
	action  Action
	logger  zerolog.Logger
	sem     *semaphore.Weighted

	mu       sync.Mutex
	arrived  int
	tripped  bool
	poisoned bool
}

func newSingleUse(parties int, action Action, logger zerolog.Logger) *SingleUse {
	permits := int64(parties - 1)
	sem := semaphore.NewWeighted(permits)
	// Start empty: waiters may only pass on permits handed out by Release.
	sem.TryAcquire(permits)
	return &SingleUse{
		parties: parties,
		action:  action,
		logger:  logger,
		sem:     sem,
	}
}

// Wait blocks until every party has called Wait.
// See Barrier.Wait for cancellation and poisoning; as there, the arrival
// that trips the barrier proceeds even if ctx is already done.
func (s *SingleUse) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.poisoned {
		s.mu.Unlock()
		return ErrPoisoned
	}
	if s.arrived == s.parties {
		s.mu.Unlock()
		return ErrExhausted
	}
	last := s.arrived+1 == s.parties
	if err := ctx.Err(); err != nil && !last {
		s.mu.Unlock()
		return contextError(err)
	}
	s.arrived++
	s.mu.Unlock()

	if last {
		return s.trip()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return s.abandon(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return ErrPoisoned
	}
	return nil
}

// WaitTimeout is Wait bounded by d.
func (s *SingleUse) WaitTimeout(d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return s.Wait(ctx)
}

func (s *SingleUse) trip() error {
	var actionErr error
	if s.action != nil {
		actionErr = s.action(0)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return ErrPoisoned
	}
	if actionErr != nil {
		s.poisonLocked()
		s.logger.Warn().Err(actionErr).Msg("barrier action failed, single-use barrier poisoned")
		return fmt.Errorf("barrier action: %w", actionErr)
	}
	s.tripped = true
	s.sem.Release(int64(s.parties - 1))
	s.logger.Debug().Int("parties", s.parties).Msg("single-use barrier tripped")
	return nil
}

func (s *SingleUse) abandon(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tripped {
		// Permits were handed out while ctx was finishing.
		return nil
	}
	if s.poisoned {
		return ErrPoisoned
	}
	s.poisonLocked()
	s.logger.Warn().Err(cause).Msg("waiter gave up, single-use barrier poisoned")
	return contextError(cause)
}

// poisonLocked wakes every blocked waiter. Caller holds s.mu.
func (s *SingleUse) poisonLocked() {
	s.poisoned = true
	s.sem.Release(int64(s.parties - 1))
}

// Parties returns the number of parties needed to trip the barrier.
func (s *SingleUse) Parties() int {
	return s.parties
}

// Done returns true once the barrier has tripped.
func (s *SingleUse) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tripped
}

// IsPoisoned returns true if a waiter gave up or the action failed.
func (s *SingleUse) IsPoisoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poisoned
}
