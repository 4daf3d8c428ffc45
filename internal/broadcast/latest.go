// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package broadcast

import (
	"sync"
)

// Latest holds the most recently published value and replays it to new
// subscribers. After that replay, a subscriber receives every later value in
// publish order.
type Latest[T any] struct {
	mu     sync.Mutex
	value  T
	has    bool
	subs   map[*Subscription[T]]struct{}
	closed bool
	opts   options
}

// NewLatest creates an empty Latest. Subscribers receive nothing until the
// first Publish. WithBuffer has no effect on a Latest.
func NewLatest[T any](opts ...Option) *Latest[T] {
	return &Latest[T]{
		subs: make(map[*Subscription[T]]struct{}),
		opts: buildOptions(opts),
	}
}

// Subscribe attaches a channel subscriber. If a value has been published it
// is the first one received. Callers must Unsubscribe.
func (l *Latest[T]) Subscribe() *Subscription[T] {
	return l.attach(newPumpedSubscription[T](l.remove))
}

// Observe calls fn with the current value (if any) and every later one.
func (l *Latest[T]) Observe(fn func(T)) (stop func()) {
	return observe(l.attach(newQueuedSubscription[T](l.remove)), fn, l.opts)
}

func (l *Latest[T]) attach(sub *Subscription[T]) *Subscription[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		sub.detach()
		return sub
	}
	if l.has {
		sub.deliver(l.value)
	}
	l.subs[sub] = struct{}{}
	return sub
}

// Publish records v as the current value and queues it for every subscriber.
func (l *Latest[T]) Publish(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.value = v
	l.has = true
	for sub := range l.subs {
		sub.deliver(v)
	}
}

// Value returns the current value and whether one has been published.
func (l *Latest[T]) Value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.has
}

// Close detaches every subscription. Values already queued are still
// delivered.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	for sub := range l.subs {
		delete(l.subs, sub)
		sub.detach()
	}
}

func (l *Latest[T]) remove(sub *Subscription[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.subs[sub]; ok {
		delete(l.subs, sub)
		sub.detach()
	}
}
