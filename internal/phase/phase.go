package phase

import "sync/atomic"

const (
	open     = 0
	released = 1
	poisoned = 2
)

// Phase is one generation of a barrier.
// It settles exactly once, either released or poisoned.
//
// Arrive and Arrived must be called with the barrier's lock held.
// Settling is safe without it.
type Phase struct {
	generation uint64
	arrived    int

	state    atomic.Int32
	release  chan struct{}
	poisoned chan struct{}
}

// New returns an open phase for the given generation.
func New(generation uint64) *Phase {
	return &Phase{
		generation: generation,
		release:    make(chan struct{}),
		poisoned:   make(chan struct{}),
	}
}

// Generation returns the phase's generation.
func (p *Phase) Generation() uint64 {
	return p.generation
}

// Arrive counts one arrival and returns the new count.
func (p *Phase) Arrive() int {
	p.arrived++
	return p.arrived
}

// Arrived returns the number of arrivals so far.
func (p *Phase) Arrived() int {
	return p.arrived
}

// Release wakes every waiter of the phase.
// Returns false if the phase had already settled.
func (p *Phase) Release() bool {
	if !p.state.CompareAndSwap(open, released) {
		return false
	}
	close(p.release)
	return true
}

// Poison breaks the phase so that no waiter can complete it.
// Returns false if the phase had already settled.
func (p *Phase) Poison() bool {
	if !p.state.CompareAndSwap(open, poisoned) {
		return false
	}
	close(p.poisoned)
	return true
}

// Released is closed once the phase completes.
func (p *Phase) Released() <-chan struct{} {
	return p.release
}

// Poisoned is closed once the phase is poisoned.
func (p *Phase) Poisoned() <-chan struct{} {
	return p.poisoned
}

// IsReleased returns true if the phase completed.
func (p *Phase) IsReleased() bool {
	return p.state.Load() == released
}

// IsPoisoned returns true if the phase was poisoned.
func (p *Phase) IsPoisoned() bool {
	return p.state.Load() == poisoned
}
