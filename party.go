package rendezvous

import (
	"context"
	"fmt"
	"time"
)

// Party is one registered participant of a Barrier.
// Waiting through a Party catches a participant arriving twice in the same
// phase, which would otherwise silently trip the barrier early.
type Party struct {
	b  *Barrier
	id int

	// Guarded by b.mu.
	arrived    bool
	generation uint64
}

// Join registers a participant. At most Parties() participants may join.
func (b *Barrier) Join() (*Party, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.joined >= b.parties {
		return nil, fmt.Errorf("%w: barrier has %d parties", ErrTooManyParties, b.parties)
	}
	p := &Party{b: b, id: b.joined}
	b.joined++
	return p, nil
}

// ID returns the participant's join order, starting from zero.
func (p *Party) ID() int {
	return p.id
}

// Wait is Barrier.Wait, rejecting a second arrival in the same phase with
// ErrDuplicateArrival. A rejected arrival is not counted.
func (p *Party) Wait(ctx context.Context) error {
	return p.b.arrive(ctx, p.check)
}

// WaitTimeout is Wait bounded by d.
func (p *Party) WaitTimeout(d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return p.Wait(ctx)
}

func (p *Party) check(generation uint64) error {
	if p.arrived && p.generation == generation {
		return fmt.Errorf("%w: party %d in generation %d", ErrDuplicateArrival, p.id, generation)
	}
	p.arrived = true
	p.generation = generation
	return nil
}
