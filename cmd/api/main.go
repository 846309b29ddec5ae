// Package main runs the beats catalog API server.
//
// Configuration comes from flags, the environment and an optional .env file;
// see internal/config. The server stops on SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/sixtrece/beats-server/internal/di"
	"github.com/sixtrece/beats-server/internal/di/providers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "beats: bootstrap: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*providers.LoggerHandle](injector)
	<-ctx.Done()
	log.Info("shutdown requested, draining connections")

	// Reverse dependency order: HTTP server first, logger last. The logger
	// is closed by then, so failures go to stderr.
	if err := injector.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "beats: shutdown: %v\n", err)
		os.Exit(1)
	}
}
