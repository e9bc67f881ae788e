package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"slidepress/internal/cli"
)

func main() {
	// SIGINT/SIGTERM cancel the run; in-flight jobs are killed and the
	// report still gets written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
