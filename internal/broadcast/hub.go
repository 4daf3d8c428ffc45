// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package broadcast

import (
	"sync"
)

// Hub distributes values to the subscribers present at publish time.
type Hub[T any] struct {
	mu     sync.RWMutex
	subs   map[*Subscription[T]]struct{}
	closed bool
	opts   options
}

// NewHub creates a hub.
func NewHub[T any](opts ...Option) *Hub[T] {
	return &Hub[T]{
		subs: make(map[*Subscription[T]]struct{}),
		opts: buildOptions(opts),
	}
}

// Subscribe attaches a new channel subscriber. Values published before this
// call are never delivered to it. Subscribing to a closed hub returns a
// subscription whose channel is already closed. Callers must Unsubscribe.
func (h *Hub[T]) Subscribe() *Subscription[T] {
	if h.opts.buffer > 0 {
		return h.attach(newBoundedSubscription[T](h.opts.buffer, h.remove))
	}
	return h.attach(newPumpedSubscription[T](h.remove))
}

// Observe calls fn, in publish order, for every value published after the
// call. fn runs on a dedicated goroutine; a slow fn delays only itself and
// never loses values. See observe for the stop contract.
func (h *Hub[T]) Observe(fn func(T)) (stop func()) {
	return observe(h.attach(newQueuedSubscription[T](h.remove)), fn, h.opts)
}

func (h *Hub[T]) attach(sub *Subscription[T]) *Subscription[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.detach()
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish delivers v to every current subscriber without blocking and
// returns how many subscribers accepted it.
func (h *Hub[T]) Publish(v T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs {
		if sub.deliver(v) {
			delivered++
			continue
		}
		if h.opts.dropped != nil {
			h.opts.dropped.Inc()
		}
		h.opts.logger.Warn("value dropped: subscriber buffer full",
			"broadcast", h.opts.name,
			"buffer", h.opts.buffer,
		)
	}
	return delivered
}

// Len returns the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close detaches every subscription. Values already queued are still
// delivered; later publishes are no-ops.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.detach()
	}
}

func (h *Hub[T]) remove(sub *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		sub.detach()
	}
}
