package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/five-vee/rendezvous"
)

// Config customizes a Group.
type Config struct {
	// Phases is how many times each worker meets the others.
	Phases int

	// Work builds the pre-checkpoint work of worker id.
	// The returned stop func is called once the worker returns.
	// Nil means no work.
	Work func(id int) (WorkFunc, func())

	// WaitTimeout bounds each checkpoint wait. Zero waits forever.
	WaitTimeout time.Duration

	Logger zerolog.Logger
}

// Group starts one worker per waiter.
type Group struct {
	cfg    Config
	events Log
}

// NewGroup returns a group with the given config.
func NewGroup(cfg Config) *Group {
	return &Group{cfg: cfg}
}

// Events returns the group's shared event log.
func (g *Group) Events() *Log {
	return &g.events
}

// Run starts one worker per waiter and blocks until all of them return.
// The first failure cancels the rest; every worker's error is returned.
func (g *Group) Run(ctx context.Context, waiters []rendezvous.Waiter) error {
	eg, ctx := errgroup.WithContext(ctx)

	var (
		mu   sync.Mutex
		errs error
	)
	for id, waiter := range waiters {
		w := &Worker{
			id:          id,
			waiter:      waiter,
			waitTimeout: g.cfg.WaitTimeout,
			events:      &g.events,
			logger:      g.cfg.Logger.With().Int("worker", id).Logger(),
		}
		var stop func()
		if g.cfg.Work != nil {
			w.work, stop = g.cfg.Work(id)
		}
		eg.Go(func() error {
			if stop != nil {
				defer stop()
			}
			err := w.Run(ctx, g.cfg.Phases)
			if err != nil {
				w.logger.Error().Err(err).Msg("worker failed")
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return err
		})
	}
	_ = eg.Wait()
	return errs
}
