// Command trainer sweeps transformation parameters over a marketing-mix
// dataset, fits constrained models for every combination and stores the
// scored records.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().execute(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
