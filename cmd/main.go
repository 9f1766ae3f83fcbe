package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/desertthunder/sieve/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	runner := NewRunner(RunnerOpts{Logger: logger})

	err := runner.app().Run(ctx, os.Args)
	stop()
	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
