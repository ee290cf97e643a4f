package rendezvous

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidConfiguration is the error corresponding to a barrier
	// constructed with fewer than one party.
	ErrInvalidConfiguration = fmt.Errorf("invalid barrier configuration")

	// ErrTimedOut is returned to a waiter whose deadline passed before
	// the phase completed.
	ErrTimedOut = fmt.Errorf("timed out waiting for other parties")

	// ErrCancelled is returned to a waiter whose context was cancelled
	// before the phase completed.
	ErrCancelled = fmt.Errorf("cancelled waiting for other parties")

	// ErrPoisoned is returned to every waiter of a phase that was broken
	// by another party's cancellation, a failed barrier action, or Reset.
	ErrPoisoned = fmt.Errorf("barrier phase is poisoned")

	// ErrTooManyParties is returned by Join once every party has joined.
	ErrTooManyParties = fmt.Errorf("more parties joined than the barrier was built for")

	// ErrDuplicateArrival is returned when a party arrives twice in the
	// same phase.
	ErrDuplicateArrival = fmt.Errorf("party arrived twice in the same phase")

	// ErrExhausted is returned when a SingleUse barrier is waited on after
	// its only rendezvous.
	ErrExhausted = fmt.Errorf("single-use barrier already tripped")
)

// Waiter is anything a worker can block on at a checkpoint.
type Waiter interface {
	Wait(ctx context.Context) error
}

var (
	_ Waiter = (*Barrier)(nil)
	_ Waiter = (*Party)(nil)
	_ Waiter = (*SingleUse)(nil)
)

// Action runs once per phase, on the last party to arrive, after every
// party has arrived and before any of them is released.
// A non-nil error poisons the phase.
type Action func(generation uint64) error

// Builder builds a barrier.
type Builder struct {
	parties int
	action  Action
	logger  zerolog.Logger
}

// NewBuilder returns a builder of a barrier for the given number of parties.
func NewBuilder(parties int) *Builder {
	return &Builder{parties: parties, logger: zerolog.Nop()}
}

// WithAction sets the barrier action.
func (b *Builder) WithAction(action Action) *Builder {
	b.action = action
	return b
}

// WithLogger overrides the logger. The default discards everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build builds a cyclic Barrier.
func (b *Builder) Build() (*Barrier, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	return newBarrier(b.parties, b.action, b.logger), nil
}

// BuildSingleUse builds a SingleUse barrier.
func (b *Builder) BuildSingleUse() (*SingleUse, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	return newSingleUse(b.parties, b.action, b.logger), nil
}

func (b *Builder) validate() error {
	if b.parties < 1 {
		return fmt.Errorf("%w: parties must be at least 1, got %d", ErrInvalidConfiguration, b.parties)
	}
	return nil
}

// New returns a cyclic Barrier for the given number of parties.
func New(parties int) (*Barrier, error) {
	return NewBuilder(parties).Build()
}

// NewSingleUse returns a SingleUse barrier for the given number of parties.
func NewSingleUse(parties int) (*SingleUse, error) {
	return NewBuilder(parties).BuildSingleUse()
}

// contextError maps a done context onto ErrTimedOut or ErrCancelled,
// keeping the context's own error in the chain.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimedOut, err)
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
