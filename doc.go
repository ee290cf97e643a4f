// Package rendezvous provides counting rendezvous barriers.
//
// A barrier lets a fixed-size party of goroutines meet at a checkpoint:
// no goroutine returns from Wait in a phase until every party has called
// Wait in that phase. Barrier is cyclic and may be reused for any number
// of phases. SingleUse trips exactly once.
//
// A phase whose waiter is cancelled or times out is poisoned: every other
// waiter of that phase returns ErrPoisoned instead of blocking forever.
package rendezvous
