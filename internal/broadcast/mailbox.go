// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package broadcast

import "sync"

// mailbox is an unbounded FIFO with a single consumer. Publishers never
// block on it.
type mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	ready  chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{ready: make(chan struct{}, 1)}
}

// push queues v and reports whether the mailbox was still open.
func (m *mailbox[T]) push(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, v)
	m.mu.Unlock()
	m.signal()
	return true
}

// close stops further pushes. Queued values remain readable.
func (m *mailbox[T]) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox[T]) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// next blocks until a value is queued, the mailbox is closed and drained, or
// abort is closed. A nil abort never fires.
func (m *mailbox[T]) next(abort <-chan struct{}) (T, bool) {
	var zero T
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			v := m.items[0]
			m.items[0] = zero
			m.items = m.items[1:]
			m.mu.Unlock()
			return v, true
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return zero, false
		}

		select {
		case <-m.ready:
		case <-abort:
			return zero, false
		}
	}
}
