// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fauxid/fauxid/internal/auth"
	"github.com/fauxid/fauxid/internal/broadcast"
	"github.com/fauxid/fauxid/internal/clock"
	"github.com/fauxid/fauxid/pkg/errutil"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCore builds a core on a manual clock with a silent logger.
func newTestCore(t *testing.T, opts ...auth.CoreOption) (*auth.Core, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	base := []auth.CoreOption{
		auth.WithClock(clk),
		auth.WithLogger(discardLogger()),
		auth.WithResetDelivery(auth.ResetDeliveryFunc(nopDelivery)),
	}
	core := auth.NewCore(append(base, opts...)...)
	t.Cleanup(core.Close)
	return core, clk
}

// jsonLogger returns a logger writing JSON lines into the returned buffer.
func jsonLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func mustCreate(t *testing.T, core *auth.Core, email, password string) auth.Account {
	t.Helper()
	acct, err := core.Directory().Create(email, password)
	require.NoError(t, err)
	return acct
}

func assertKind(t *testing.T, err error, kind auth.Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := auth.KindOf(err)
	require.True(t, ok, "expected typed failure, got %v", err)
	require.Equal(t, kind, got, "unexpected failure kind: %v", err)
}

func assertFatal(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	errutil.AssertErrorTag(t, err, "fatal")
	require.True(t, auth.IsFatal(err))
	_, typed := auth.KindOf(err)
	require.False(t, typed, "fatal error must not carry a failure kind")
	errutil.AssertErrorCode(t, err, code)
}

func nopDelivery(context.Context, auth.PasswordResetToken) error { return nil }

func nextEvent(t *testing.T, sub *broadcast.Subscription[auth.LifecycleEvent]) auth.LifecycleEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for lifecycle event")
		return auth.LifecycleEvent{}
	}
}

func assertNoEvent(t *testing.T, sub *broadcast.Subscription[auth.LifecycleEvent]) {
	t.Helper()
	select {
	case ev := <-sub.C():
		t.Fatalf("unexpected lifecycle event %+v", ev)
	default:
	}
}
