package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/five-vee/rendezvous"
	"github.com/five-vee/rendezvous/internal/config"
	"github.com/five-vee/rendezvous/internal/worker"
)

func newRootCmd(log zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "rendezvous",
		Short:         "Run groups of workers that meet at a barrier",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(log))
	return root
}

func newRunCmd(log zerolog.Logger) *cobra.Command {
	v := viper.New()
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the workers and have them meet at the checkpoint once per phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd, cfg, log)
		},
	}
	fset := pflag.NewFlagSet("run", pflag.ContinueOnError)
	if err := config.RegisterFlags(fset, v); err != nil {
		panic(fmt.Sprintf("DEVELOPER ERROR: %s", err))
	}
	runCmd.Flags().AddFlagSet(fset)
	return runCmd
}

func run(cmd *cobra.Command, cfg config.Config, log zerolog.Logger) error {
	waiters, err := newWaiters(cfg, log)
	if err != nil {
		return err
	}

	g := worker.NewGroup(worker.Config{
		Phases: cfg.Phases,
		Work: func(int) (worker.WorkFunc, func()) {
			return worker.JitteredWork(cfg.Work, cfg.Jitter)
		},
		WaitTimeout: cfg.Timeout,
		Logger:      log,
	})
	if err := g.Run(cmd.Context(), waiters); err != nil {
		return err
	}
	if err := g.Events().Verify(cfg.Workers, cfg.Phases); err != nil {
		return fmt.Errorf("rendezvous violated: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d workers met %d time(s)\n", cfg.Workers, cfg.Phases)
	return nil
}

// newWaiters builds the barrier and hands one waiter to each worker.
func newWaiters(cfg config.Config, log zerolog.Logger) ([]rendezvous.Waiter, error) {
	builder := rendezvous.NewBuilder(cfg.Workers).
		WithLogger(log).
		WithAction(func(generation uint64) error {
			log.Info().Uint64("generation", generation).Msg("all workers arrived")
			return nil
		})

	waiters := make([]rendezvous.Waiter, cfg.Workers)
	if cfg.SingleUse {
		s, err := builder.BuildSingleUse()
		if err != nil {
			return nil, err
		}
		for i := range waiters {
			waiters[i] = s
		}
		return waiters, nil
	}

	b, err := builder.Build()
	if err != nil {
		return nil, err
	}
	for i := range waiters {
		p, err := b.Join()
		if err != nil {
			return nil, err
		}
		waiters[i] = p
	}
	return waiters, nil
}
