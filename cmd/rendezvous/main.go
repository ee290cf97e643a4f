package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/five-vee/rendezvous/internal/logger"
)

func main() {
	log := logger.New(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(log).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("rendezvous failed")
		cancel()
		os.Exit(1)
	}
}
