// Command heliopulse aggregates space weather data from several upstream
// providers and serves it over HTTP with per-group provenance.
package main

import (
	"context"
	"os"

	"heliopulse/internal/logger"
)

func main() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", err)
		_ = logger.GetGlobalLogger().Sync()
		os.Exit(1)
	}
}
