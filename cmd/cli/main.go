package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sheetdiff/domain/core"
)

func main() {
	// Load environment variables from .env file when present
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode is 130 for interrupted runs, 1 for every other failure
func exitCode(err error) int {
	if core.IsCancelled(err) {
		return 130
	}
	return 1
}
