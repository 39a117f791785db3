// Package commands implements the avlctl subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/avltree/pkg/config"
	"github.com/Sumatoshi-tech/avltree/pkg/observability"
	"github.com/Sumatoshi-tech/avltree/pkg/version"
)

// GlobalOptions holds the persistent root flags shared by every subcommand.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	LogJSON    bool
}

// observabilityInit matches observability.Init; tests replace it.
type observabilityInit func(observability.Config) (observability.Providers, error)

// startSession loads the configuration and initializes observability for a
// one-shot subcommand.
func startSession(global *GlobalOptions, initFn observabilityInit) (observability.Providers, error) {
	cfg, err := config.LoadConfig(global.ConfigPath)
	if err != nil {
		return observability.Providers{}, err
	}

	obsCfg, err := observabilityConfig(cfg, global, observability.ModeCLI)
	if err != nil {
		return observability.Providers{}, err
	}

	providers, err := initFn(obsCfg)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

func shutdown(providers observability.Providers) {
	shutdownErr := providers.Shutdown(context.Background())
	if shutdownErr != nil {
		providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

func observabilityConfig(cfg *config.Config, global *GlobalOptions, mode observability.AppMode) (observability.Config, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.ShutdownTimeoutSec = int(cfg.Telemetry.ShutdownTimeout / time.Second)
	obsCfg.LogJSON = global.LogJSON || cfg.Logging.Format == config.FormatJSON

	level, err := observability.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return observability.Config{}, err
	}

	switch {
	case global.Verbose:
		level = slog.LevelDebug
	case global.Quiet:
		level = slog.LevelError
	}

	obsCfg.LogLevel = level

	return obsCfg, nil
}
