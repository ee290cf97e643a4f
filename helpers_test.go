package rendezvous_test

import (
	"context"
	"testing"
	"time"

	"github.com/five-vee/rendezvous"
)

// waitAsync calls w.Wait on a new goroutine.
func waitAsync(ctx context.Context, w rendezvous.Waiter) <-chan error {
	c := make(chan error, 1)
	go func() {
		c <- w.Wait(ctx)
	}()
	return c
}

// assertBlocked fails if c yields within a short grace period.
func assertBlocked(t *testing.T, c <-chan error) {
	t.Helper()
	select {
	case err := <-c:
		t.Fatalf("Wait() returned %v before every party arrived", err)
	case <-time.After(50 * time.Millisecond):
	}
}

// receive returns the result of an async Wait, failing if it never comes.
func receive(t *testing.T, c <-chan error) error {
	t.Helper()
	select {
	case err := <-c:
		return err
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return")
		return nil
	}
}
