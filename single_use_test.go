package rendezvous_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five-vee/rendezvous"
	"github.com/five-vee/rendezvous/internal/logger"
)

func TestSingleUse_Rendezvous(t *testing.T) {
	for _, parties := range []int{1, 2, 5} {
		s, err := rendezvous.NewSingleUse(parties)
		require.NoError(t, err)

		events := runParties(t, s, parties, 1)
		assert.NoError(t, events.Verify(parties, 1))
		assert.True(t, s.Done())
	}
}

func TestSingleUse_NoPrematureRelease(t *testing.T) {
	s, err := rendezvous.NewSingleUse(3)
	require.NoError(t, err)

	first := waitAsync(context.Background(), s)
	second := waitAsync(context.Background(), s)
	assertBlocked(t, first)
	assertBlocked(t, second)
	assert.False(t, s.Done())

	require.NoError(t, s.WaitTimeout(time.Second))
	assert.NoError(t, receive(t, first))
	assert.NoError(t, receive(t, second))
}

func TestSingleUse_Exhausted(t *testing.T) {
	s, err := rendezvous.NewSingleUse(2)
	require.NoError(t, err)
	runParties(t, s, 2, 1)

	// A second phase would otherwise block forever or be released by
	// leftover permits.
	assert.ErrorIs(t, s.WaitTimeout(time.Second), rendezvous.ErrExhausted)
	assert.ErrorIs(t, s.WaitTimeout(time.Second), rendezvous.ErrExhausted)
}

func TestSingleUse_TimeoutPoisons(t *testing.T) {
	s, err := rendezvous.NewBuilder(3).WithLogger(logger.NewTestLogger(t)).BuildSingleUse()
	require.NoError(t, err)

	blocked := waitAsync(context.Background(), s)
	time.Sleep(10 * time.Millisecond)

	err = s.WaitTimeout(20 * time.Millisecond)
	require.ErrorIs(t, err, rendezvous.ErrTimedOut)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, s.IsPoisoned())
	assert.ErrorIs(t, receive(t, blocked), rendezvous.ErrPoisoned)

	// Late arrivals are turned away.
	assert.ErrorIs(t, s.WaitTimeout(time.Second), rendezvous.ErrPoisoned)
	assert.False(t, s.Done())
}

func TestSingleUse_ActionError(t *testing.T) {
	boom := errors.New("boom")
	s, err := rendezvous.NewBuilder(2).
		WithAction(func(uint64) error { return boom }).
		BuildSingleUse()
	require.NoError(t, err)

	waiter := waitAsync(context.Background(), s)
	assertBlocked(t, waiter)
	assert.ErrorIs(t, s.WaitTimeout(time.Second), boom)
	assert.ErrorIs(t, receive(t, waiter), rendezvous.ErrPoisoned)
	assert.True(t, s.IsPoisoned())
}

func TestSingleUse_LastArrivalIgnoresDoneContext(t *testing.T) {
	s, err := rendezvous.NewSingleUse(1)
	require.NoError(t, err)
	assert.NoError(t, s.WaitTimeout(0))
	assert.True(t, s.Done())

	s, err = rendezvous.NewSingleUse(2)
	require.NoError(t, err)
	// Not the last arrival: turned away and not counted.
	assert.ErrorIs(t, s.WaitTimeout(0), rendezvous.ErrTimedOut)
	assert.False(t, s.IsPoisoned())
	runParties(t, s, 2, 1)
	assert.True(t, s.Done())
}
