// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"log/slog"
	"time"

	"github.com/fauxid/fauxid/internal/broadcast"
	"github.com/fauxid/fauxid/internal/clock"
)

// EventKind names an account lifecycle transition.
type EventKind string

// Lifecycle event kinds.
const (
	EventAccountCreated EventKind = "account_created"
	EventAccountDeleted EventKind = "account_deleted"
)

// LifecycleEvent reports that an account was created or deleted. It is
// published after the directory mutation is visible to readers.
type LifecycleEvent struct {
	ID         string
	Kind       EventKind
	AccountID  string
	OccurredAt time.Time
}

// LifecycleNotifier multicasts LifecycleEvents. It is hot: subscribers only
// see events published after they subscribe. Every subscriber receives every
// later event in order; a slow one delays only itself. With a positive
// lifecycle buffer, channel subscribers that fall that far behind drop events
// instead.
type LifecycleNotifier struct {
	hub     *broadcast.Hub[LifecycleEvent]
	clock   clock.Clock
	ids     *idGenerator
	metrics *Metrics
}

func newLifecycleNotifier(buffer int, clk clock.Clock, ids *idGenerator, metrics *Metrics, logger *slog.Logger) *LifecycleNotifier {
	opts := []broadcast.Option{
		broadcast.WithName("lifecycle"),
		broadcast.WithBuffer(buffer),
		broadcast.WithLogger(logger),
	}
	if dropped := metrics.droppedCounter(); dropped != nil {
		opts = append(opts, broadcast.WithDropCounter(dropped))
	}
	return &LifecycleNotifier{
		hub:     broadcast.NewHub[LifecycleEvent](opts...),
		clock:   clk,
		ids:     ids,
		metrics: metrics,
	}
}

// Subscribe returns a channel subscription. Callers must Unsubscribe.
func (n *LifecycleNotifier) Subscribe() *broadcast.Subscription[LifecycleEvent] {
	return n.hub.Subscribe()
}

// Observe runs fn for each later event on its own goroutine. A panicking fn
// is logged and does not stop delivery. Call stop to detach; stop must not be
// called from inside fn.
func (n *LifecycleNotifier) Observe(fn func(LifecycleEvent)) (stop func()) {
	return n.hub.Observe(fn)
}

// Publish delivers event to the current subscribers.
func (n *LifecycleNotifier) Publish(event LifecycleEvent) {
	n.metrics.lifecycleEvent(event.Kind)
	n.hub.Publish(event)
}

// Subscribers returns the number of attached subscribers.
func (n *LifecycleNotifier) Subscribers() int {
	return n.hub.Len()
}

// Close detaches every subscriber and closes their channels.
func (n *LifecycleNotifier) Close() {
	n.hub.Close()
}

func (n *LifecycleNotifier) publish(kind EventKind, accountID string) {
	if n == nil {
		return
	}
	n.Publish(LifecycleEvent{
		ID:         n.ids.NewString(),
		Kind:       kind,
		AccountID:  accountID,
		OccurredAt: n.clock.Now(),
	})
}
