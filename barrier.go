package rendezvous

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five-vee/rendezvous/internal/phase"
)

// Barrier is a cyclic barrier for a fixed number of parties.
//
// Each phase trips once every party has called Wait, after which the
// barrier is immediately open for the next phase. A waiter that gives up
// poisons its phase; the phase still needs all of its arrivals before the
// barrier moves on to a clean generation, and each of those late arrivals
// returns ErrPoisoned.
type Barrier struct {
	parties int
	action  Action
	logger  zerolog.Logger

	mu      sync.Mutex
	current *phase.Phase
	joined  int
}

func newBarrier(parties int, action Action, logger zerolog.Logger) *Barrier {
	return &Barrier{
		parties: parties,
		action:  action,
		logger:  logger,
		current: phase.New(0),
	}
}

// Wait blocks until every party has called Wait in the current phase.
//
// The last party to arrive runs the barrier action, releases the others
// and returns without blocking. If ctx is done before the phase completes
// the phase is poisoned and Wait returns ErrTimedOut or ErrCancelled.
// Waiters of a poisoned phase return ErrPoisoned. The last party never
// blocks, so its arrival counts even if ctx is already done.
func (b *Barrier) Wait(ctx context.Context) error {
	return b.arrive(ctx, nil)
}

// WaitTimeout is Wait bounded by d.
func (b *Barrier) WaitTimeout(d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return b.Wait(ctx)
}

// arrive counts one arrival in the current phase. guard runs under the
// lock before the arrival is counted and may reject it.
//
// An arrival that would trip the barrier never blocks, so it proceeds even
// if ctx is already done. Any other arrival with a done ctx is not counted.
func (b *Barrier) arrive(ctx context.Context, guard func(generation uint64) error) error {
	b.mu.Lock()
	p := b.current
	last := p.Arrived()+1 == b.parties
	if err := ctx.Err(); err != nil && !last {
		b.mu.Unlock()
		return contextError(err)
	}
	if guard != nil {
		if err := guard(p.Generation()); err != nil {
			b.mu.Unlock()
			return err
		}
	}
	if n := p.Arrive(); n > b.parties {
		b.mu.Unlock()
		panic(fmt.Sprintf("rendezvous: %d arrivals in generation %d of a %d-party barrier", n, p.Generation(), b.parties))
	}
	if last {
		// Open the next generation before anyone of this one is released.
		b.current = phase.New(p.Generation() + 1)
		b.mu.Unlock()
		return b.trip(p)
	}
	b.mu.Unlock()

	select {
	case <-p.Released():
		return nil
	case <-p.Poisoned():
		return ErrPoisoned
	case <-ctx.Done():
		return b.abandon(p, ctx.Err())
	}
}

// trip completes a full phase. Called by the last party to arrive.
func (b *Barrier) trip(p *phase.Phase) error {
	if p.IsPoisoned() {
		b.logger.Debug().Uint64("generation", p.Generation()).Msg("poisoned phase drained")
		return ErrPoisoned
	}
	if b.action != nil {
		if err := b.action(p.Generation()); err != nil {
			if p.Poison() {
				b.logger.Warn().Err(err).Uint64("generation", p.Generation()).Msg("barrier action failed, phase poisoned")
			}
			return fmt.Errorf("barrier action in generation %d: %w", p.Generation(), err)
		}
	}
	if !p.Release() {
		// A waiter gave up while the action was running.
		return ErrPoisoned
	}
	b.logger.Debug().Uint64("generation", p.Generation()).Int("parties", b.parties).Msg("barrier tripped")
	return nil
}

// abandon handles a waiter whose context is done.
func (b *Barrier) abandon(p *phase.Phase, cause error) error {
	if p.Poison() {
		b.logger.Warn().Err(cause).Uint64("generation", p.Generation()).Msg("waiter gave up, phase poisoned")
		return contextError(cause)
	}
	// Lost the race: the phase settled while ctx was finishing.
	if p.IsReleased() {
		return nil
	}
	return ErrPoisoned
}

// Reset poisons the phase in flight, if any party has arrived in it, and
// opens a fresh generation. Parties that have not yet arrived in the
// poisoned phase will be counted in the new one.
func (b *Barrier) Reset() {
	b.mu.Lock()
	p := b.current
	if p.Arrived() == 0 {
		b.mu.Unlock()
		return
	}
	arrived := p.Arrived()
	b.current = phase.New(p.Generation() + 1)
	b.mu.Unlock()

	if p.Poison() {
		b.logger.Warn().Uint64("generation", p.Generation()).Int("arrived", arrived).Msg("barrier reset, phase poisoned")
	}
}

// Parties returns the number of parties needed to trip the barrier.
func (b *Barrier) Parties() int {
	return b.parties
}

// Generation returns the id of the phase now accepting arrivals.
//
// The next generation opens the moment the last party arrives, so while
// the barrier action runs and the previous phase's waiters are being
// woken, Generation already reports the new phase.
func (b *Barrier) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.Generation()
}

// Waiting returns the number of parties that arrived in the phase now
// accepting arrivals. Like Generation, it moves on to the next phase as
// soon as the last party arrives, before the waiters have returned.
func (b *Barrier) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.Arrived()
}

// IsPoisoned returns true if the current phase is poisoned.
func (b *Barrier) IsPoisoned() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.IsPoisoned()
}
