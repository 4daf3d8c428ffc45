// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fauxid/fauxid/internal/observability"
	"github.com/fauxid/fauxid/internal/xdg"
)

// ServeDeps contains injectable dependencies for the serve command.
// Nil fields use their default implementations.
type ServeDeps struct {
	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// ConfigFileFinder locates the default config file, returning "" when
	// there is none.
	// Default: xdg.ExistingConfigFile
	ConfigFileFinder func() (string, error)

	// Started, when set, is called once the engine is ready.
	Started func()
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready,
				observability.WithLogger(logger),
				observability.WithBuildInfo(version, commit))
		}
	}
	if out.ConfigFileFinder == nil {
		out.ConfigFileFinder = xdg.ExistingConfigFile
	}
	return &out
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Registry() *prometheus.Registry
}
