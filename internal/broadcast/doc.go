// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

// Package broadcast provides the two fan-out primitives used by the identity
// engine.
//
// Hub is a hot multicast channel: subscribers only see values published after
// they subscribed.
//
// Latest is a replay-last-value channel: a new subscriber first receives the
// most recent value, then every later one.
//
// Each subscriber has its own unbounded queue, so a slow subscriber delays
// only itself and receives every value in publish order. A Hub created
// WithBuffer(n) bounds its channel subscribers instead and drops what does
// not fit.
//
// Both are safe for concurrent Publish, Subscribe and Unsubscribe. Once
// Unsubscribe returns, no further value is delivered to that subscription and
// its channel is closed.
package broadcast
