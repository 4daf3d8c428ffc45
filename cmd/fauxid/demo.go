// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fauxid/fauxid/internal/auth"
	"github.com/fauxid/fauxid/internal/clock"
)

// demoEpoch is the manual clock's starting instant.
var demoEpoch = time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

// NewDemoCmd creates the demo subcommand.
func NewDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through sign-up, email change and sign-in",
		Long: `Run a scripted session against a fresh in-memory engine on a manual
clock: create a@x.com, sign in, change the email to b@x.com, sign out,
sign in as b@x.com, then show that a@x.com no longer exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// demoStep is one line of the scripted walkthrough.
type demoStep struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// runDemo runs the walkthrough and writes one line per step to out. It
// fails if any step deviates from the expected outcome.
func runDemo(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	clk := clock.NewManual(demoEpoch)
	core := auth.NewCore(
		auth.WithClock(clk),
		auth.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	defer core.Close()

	events := core.Lifecycle().Subscribe()
	defer events.Unsubscribe()

	session := core.Session()
	defer session.Close()

	steps := []demoStep{
		{"sign up a@x.com", func(ctx context.Context) (string, error) {
			id, err := session.SignUp(ctx, "a@x.com", "pw1")
			return "account " + id, err
		}},
		{"sign in a@x.com", func(ctx context.Context) (string, error) {
			if err := session.SignIn(ctx, "a@x.com", "pw1", false); err != nil {
				return "", err
			}
			return session.State().Status.String(), nil
		}},
		{"change email to b@x.com", func(ctx context.Context) (string, error) {
			clk.Advance(time.Minute)
			return "ok", session.ChangeEmail(ctx, "b@x.com")
		}},
		{"sign out", func(ctx context.Context) (string, error) {
			if err := session.SignOut(ctx); err != nil {
				return "", err
			}
			return session.State().Status.String(), nil
		}},
		{"sign in b@x.com", func(ctx context.Context) (string, error) {
			if err := session.SignIn(ctx, "b@x.com", "pw1", false); err != nil {
				return "", err
			}
			token, err := session.CurrentToken(ctx)
			if err != nil {
				return "", err
			}
			id, err := core.Admin().ResolveToken(ctx, token)
			return "token resolves to " + id, err
		}},
		{"sign in a@x.com", func(ctx context.Context) (string, error) {
			err := session.SignIn(ctx, "a@x.com", "pw1", false)
			if !auth.IsKind(err, auth.KindUserNotFound) {
				return "", oops.Code("DEMO_UNEXPECTED_OUTCOME").
					Wrapf(err, "expected %s", auth.KindUserNotFound)
			}
			kind, _ := auth.KindOf(err)
			return "rejected: " + string(kind), nil
		}},
	}

	for i, step := range steps {
		result, err := step.run(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(out, "%d. %-26s FAILED\n", i+1, step.name)
			return oops.With("step", step.name).Wrap(err)
		}
		_, _ = fmt.Fprintf(out, "%d. %-26s %s\n", i+1, step.name, result)
	}

	// Closing the notifier ends the stream once queued events are read.
	core.Lifecycle().Close()
	for event := range events.C() {
		_, _ = fmt.Fprintf(out, "event: %s %s at %s\n", event.Kind, event.AccountID, event.OccurredAt.Format(time.RFC3339))
	}
	return nil
}
