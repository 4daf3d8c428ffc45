// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package main

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fauxid/fauxid/internal/observability"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeObservability records how serve drives the observability server.
type fakeObservability struct {
	addr     string
	ready    observability.ReadinessChecker
	registry *prometheus.Registry
	startErr error
	errCh    chan error

	started atomic.Bool
	stopped atomic.Bool
}

func (f *fakeObservability) Start() (<-chan error, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started.Store(true)
	return f.errCh, nil
}

func (f *fakeObservability) Stop(context.Context) error {
	f.stopped.Store(true)
	return nil
}

func (f *fakeObservability) Addr() string                   { return f.addr }
func (f *fakeObservability) Registry() *prometheus.Registry { return f.registry }

func newFakeObservability() *fakeObservability {
	return &fakeObservability{
		registry: prometheus.NewRegistry(),
		errCh:    make(chan error, 1),
	}
}

// fakeDeps wires fake into ServeDeps and never finds a default config file.
func fakeDeps(fake *fakeObservability) *ServeDeps {
	return &ServeDeps{
		ObservabilityServerFactory: func(addr string, ready observability.ReadinessChecker, _ *slog.Logger) ObservabilityServer {
			fake.addr = addr
			fake.ready = ready
			return fake
		},
		ConfigFileFinder: func() (string, error) { return "", nil },
	}
}

// keepDefaultLogger restores slog's default logger after serve replaces it.
func keepDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
