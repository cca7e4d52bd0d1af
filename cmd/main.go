package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lesson-progress-engine/internal/cli"
)

func main() {
	// every subcommand sees the same cancellation, not only start
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "learnd:", err)
		os.Exit(1)
	}
}
