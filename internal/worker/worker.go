package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/lthibault/jitterbug"
	"github.com/rs/zerolog"

	"github.com/five-vee/rendezvous"
)

// WorkFunc is the work a worker does before each checkpoint.
type WorkFunc func(ctx context.Context) error

// Worker does its share of the work, meets the rest of the party at the
// checkpoint, then carries on, once per phase.
type Worker struct {
	id          int
	waiter      rendezvous.Waiter
	work        WorkFunc
	waitTimeout time.Duration
	events      *Log
	logger      zerolog.Logger
}

// Run runs phases phases.
// Returns the first error from the work or the checkpoint.
func (w *Worker) Run(ctx context.Context, phases int) error {
	for ph := 0; ph < phases; ph++ {
		if w.work != nil {
			if err := w.work(ctx); err != nil {
				return fmt.Errorf("worker %d phase %d: %w", w.id, ph, err)
			}
		}
		w.events.Append(Event{Worker: w.id, Phase: ph, Stage: Before})
		w.logger.Info().Int("phase", ph).Msg("part 1 of the work is finished")

		if err := w.wait(ctx); err != nil {
			return fmt.Errorf("worker %d phase %d: %w", w.id, ph, err)
		}

		w.events.Append(Event{Worker: w.id, Phase: ph, Stage: After})
		w.logger.Info().Int("phase", ph).Msg("part 2 of the work is finished")
	}
	return nil
}

func (w *Worker) wait(ctx context.Context) error {
	if w.waitTimeout <= 0 {
		return w.waiter.Wait(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, w.waitTimeout)
	defer cancel()
	return w.waiter.Wait(ctx)
}

// JitteredWork returns a WorkFunc that takes roughly interval, normally
// distributed with the given standard deviation, and a func to stop its
// ticker. A non-positive interval means no work.
func JitteredWork(interval, stdev time.Duration) (WorkFunc, func()) {
	if interval <= 0 {
		return func(ctx context.Context) error { return ctx.Err() }, func() {}
	}
	ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: stdev})
	work := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			return nil
		}
	}
	return work, ticker.Stop
}
