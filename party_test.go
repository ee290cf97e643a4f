package rendezvous_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five-vee/rendezvous"
)

func TestBarrier_Join(t *testing.T) {
	b, err := rendezvous.New(2)
	require.NoError(t, err)

	p0, err := b.Join()
	require.NoError(t, err)
	p1, err := b.Join()
	require.NoError(t, err)
	assert.Equal(t, 0, p0.ID())
	assert.Equal(t, 1, p1.ID())

	_, err = b.Join()
	assert.ErrorIs(t, err, rendezvous.ErrTooManyParties)
}

func TestParty_DuplicateArrival(t *testing.T) {
	b, err := rendezvous.New(2)
	require.NoError(t, err)
	p0, err := b.Join()
	require.NoError(t, err)
	p1, err := b.Join()
	require.NoError(t, err)

	first := waitAsync(context.Background(), p0)
	require.Eventually(t, func() bool { return b.Waiting() == 1 }, time.Second, time.Millisecond)

	// Without the guard this would trip the barrier with one real party.
	assert.ErrorIs(t, p0.WaitTimeout(time.Second), rendezvous.ErrDuplicateArrival)
	assert.Equal(t, 1, b.Waiting(), "a rejected arrival is not counted")
	assertBlocked(t, first)

	require.NoError(t, p1.WaitTimeout(time.Second))
	require.NoError(t, receive(t, first))

	// Next phase: both may arrive again.
	second := waitAsync(context.Background(), p0)
	require.NoError(t, p1.WaitTimeout(time.Second))
	assert.NoError(t, receive(t, second))
	assert.Equal(t, uint64(2), b.Generation())
}

func TestParty_RetryAfterTimeoutIsDuplicate(t *testing.T) {
	b, err := rendezvous.New(2)
	require.NoError(t, err)
	p0, err := b.Join()
	require.NoError(t, err)
	p1, err := b.Join()
	require.NoError(t, err)

	require.ErrorIs(t, p0.WaitTimeout(10*time.Millisecond), rendezvous.ErrTimedOut)

	// The timed-out party is still counted in the poisoned phase and may
	// not be counted twice.
	assert.ErrorIs(t, p0.WaitTimeout(time.Second), rendezvous.ErrDuplicateArrival)
	assert.ErrorIs(t, p1.WaitTimeout(time.Second), rendezvous.ErrPoisoned)

	// Clean generation.
	done := waitAsync(context.Background(), p0)
	require.NoError(t, p1.WaitTimeout(time.Second))
	assert.NoError(t, receive(t, done))
}

func TestParty_SinglePartyZeroTimeout(t *testing.T) {
	b, err := rendezvous.New(1)
	require.NoError(t, err)
	p, err := b.Join()
	require.NoError(t, err)

	assert.NoError(t, p.WaitTimeout(0))
	assert.NoError(t, p.WaitTimeout(0))
	assert.Equal(t, uint64(2), b.Generation())
}
