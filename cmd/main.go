package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shugur-Network/relaydex/internal/config"
	"github.com/Shugur-Network/relaydex/internal/logger"
)

// These variables are set at build time via -ldflags
var (
	version = "dev"     // Set via -X main.version=...
	commit  = "unknown" // Set via -X main.commit=...
	date    = "unknown" // Set via -X main.date=...
)

func main() {
	config.SetVersion(version)

	// SIGINT/SIGTERM cancel ctx. start waits on it and shuts the node down
	// before returning; lookup aborts its in-flight fetch.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := Execute(ctx)
	stop()
	_ = logger.Shutdown()
	os.Exit(code)
}
