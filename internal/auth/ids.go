// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fauxid/fauxid/internal/clock"
)

// idGenerator mints ULIDs stamped with the engine clock, so identifiers sort
// by creation time even under a manual clock.
type idGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
	clock   clock.Clock
}

func newIDGenerator(clk clock.Clock) *idGenerator {
	return &idGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		clock:   clk,
	}
}

func (g *idGenerator) New() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(timestamp(g.clock.Now()), g.entropy)
}

// timestamp clamps t into the range a ULID can encode.
func timestamp(t time.Time) uint64 {
	switch {
	case t.Before(time.UnixMilli(0)):
		return 0
	case t.After(ulid.Time(ulid.MaxTime())):
		return ulid.MaxTime()
	default:
		return ulid.Timestamp(t)
	}
}

func (g *idGenerator) NewString() string {
	return g.New().String()
}
