// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package clock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fauxid/fauxid/internal/clock"
)

func TestSystem(t *testing.T) {
	before := time.Now()
	now := clock.System().Now()
	assert.False(t, now.Before(before))
}

func TestManual(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("stays frozen", func(t *testing.T) {
		c := clock.NewManual(start)
		assert.Equal(t, start, c.Now())
		assert.Equal(t, start, c.Now())
	})

	t.Run("advance moves forward", func(t *testing.T) {
		c := clock.NewManual(start)
		got := c.Advance(90 * time.Second)
		assert.Equal(t, start.Add(90*time.Second), got)
		assert.Equal(t, got, c.Now())
	})

	t.Run("set can move backwards", func(t *testing.T) {
		c := clock.NewManual(start)
		c.Set(start.Add(-time.Hour))
		assert.Equal(t, start.Add(-time.Hour), c.Now())
	})

	t.Run("concurrent advance is consistent", func(t *testing.T) {
		c := clock.NewManual(start)
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Advance(time.Second)
			}()
		}
		wg.Wait()
		assert.Equal(t, start.Add(50*time.Second), c.Now())
	})
}

func TestFunc(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	c := clock.Func(func() time.Time { return fixed })
	assert.Equal(t, fixed, c.Now())
}
