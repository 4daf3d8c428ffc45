// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package broadcast

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/fauxid/fauxid/pkg/errutil"
)

// Subscription is a single subscriber's view of a Hub or Latest.
//
// By default every value reaches the subscriber in publish order through an
// unbounded queue. A Hub built WithBuffer(n) instead gives channel
// subscribers a fixed buffer that drops values when full.
type Subscription[T any] struct {
	ch     chan T
	box    *mailbox[T]
	stop   chan struct{}
	pumped chan struct{}
	once   sync.Once
	remove func(*Subscription[T])
}

// newBoundedSubscription buffers up to n values in its channel.
func newBoundedSubscription[T any](n int, remove func(*Subscription[T])) *Subscription[T] {
	return &Subscription[T]{ch: make(chan T, n), remove: remove}
}

// newQueuedSubscription has no channel; its consumer reads the mailbox.
func newQueuedSubscription[T any](remove func(*Subscription[T])) *Subscription[T] {
	return &Subscription[T]{box: newMailbox[T](), remove: remove}
}

// newPumpedSubscription moves queued values onto its channel from a
// dedicated goroutine.
func newPumpedSubscription[T any](remove func(*Subscription[T])) *Subscription[T] {
	s := &Subscription[T]{
		ch:     make(chan T),
		box:    newMailbox[T](),
		stop:   make(chan struct{}),
		pumped: make(chan struct{}),
		remove: remove,
	}
	go s.pump()
	return s
}

func (s *Subscription[T]) pump() {
	defer close(s.pumped)
	defer close(s.ch)
	for {
		v, ok := s.box.next(s.stop)
		if !ok {
			return
		}
		select {
		case s.ch <- v:
		case <-s.stop:
			return
		}
	}
}

// C returns the receive channel. It is closed after Unsubscribe, or once the
// owning primitive is closed and queued values have been received.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Unsubscribe detaches the subscription and discards values not yet
// received. It is idempotent.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		s.remove(s)
		if s.stop != nil {
			close(s.stop)
			<-s.pumped
		}
	})
}

// deliver offers v and reports whether the subscription accepted it. The
// owner calls it under its lock.
func (s *Subscription[T]) deliver(v T) bool {
	if s.box != nil {
		return s.box.push(v)
	}
	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

// detach ends delivery. The owner calls it once, under its lock.
func (s *Subscription[T]) detach() {
	if s.box != nil {
		s.box.close()
		return
	}
	close(s.ch)
}

// Option configures a Hub or Latest.
type Option func(*options)

type options struct {
	name    string
	buffer  int
	logger  *slog.Logger
	dropped prometheus.Counter
}

// WithName labels log lines emitted by the primitive.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithBuffer opts a Hub's channel subscribers into a fixed buffer of n
// values; a value that does not fit is dropped for that subscriber only.
// n <= 0 keeps the unbounded default. Observers and Latest are never
// bounded.
func WithBuffer(n int) Option {
	return func(o *options) {
		o.buffer = n
	}
}

// WithLogger sets the logger for dropped values and observer panics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDropCounter counts values dropped because a bounded subscriber was full.
func WithDropCounter(c prometheus.Counter) Option {
	return func(o *options) {
		o.dropped = c
	}
}

func buildOptions(opts []Option) options {
	o := options{
		name:   "broadcast",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// observe drains sub's queue on its own goroutine and calls fn for every
// value in order. A panicking fn is recovered and logged; later values are
// still delivered. The returned stop function detaches sub, lets fn finish
// the values queued before it, and waits for the goroutine to exit, so it
// must not be called from inside fn.
func observe[T any](sub *Subscription[T], fn func(T), o options) (stop func()) {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			v, ok := sub.box.next(nil)
			if !ok {
				return
			}
			err := oops.Code("OBSERVER_PANIC").
				With("broadcast", o.name).
				Recoverf(func() { fn(v) }, "observer panicked")
			if err != nil {
				errutil.LogError(o.logger, "broadcast observer failed", err)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.Unsubscribe()
			<-done
		})
	}
}
