package worker

import (
	"fmt"
	"sync"
)

// Stage is where in a phase an event was recorded.
type Stage int

const (
	// Before is recorded once a worker's pre-checkpoint work is done.
	Before Stage = iota
	// After is recorded once a worker is released from the checkpoint.
	After
)

func (s Stage) String() string {
	switch s {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Event is one entry in a Log.
type Event struct {
	Worker int
	Phase  int
	Stage  Stage
}

// Log is an append-only record of events shared by a group of workers.
type Log struct {
	mu     sync.Mutex
	events []Event
}

// Append records an event.
func (l *Log) Append(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

// Events returns a copy of the events in the order they were recorded.
func (l *Log) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Verify checks that, in every phase, all parties recorded Before ahead of
// any party recording After.
func (l *Log) Verify(parties, phases int) error {
	events := l.Events()
	for ph := 0; ph < phases; ph++ {
		befores, afters := 0, 0
		for i, e := range events {
			if e.Phase != ph {
				continue
			}
			switch e.Stage {
			case Before:
				befores++
			case After:
				if befores < parties {
					return fmt.Errorf("phase %d: worker %d passed the checkpoint at event %d after only %d of %d arrivals",
						ph, e.Worker, i, befores, parties)
				}
				afters++
			}
		}
		if befores != parties {
			return fmt.Errorf("phase %d: got %d arrivals, want %d", ph, befores, parties)
		}
		if afters != parties {
			return fmt.Errorf("phase %d: got %d departures, want %d", ph, afters, parties)
		}
	}
	return nil
}
