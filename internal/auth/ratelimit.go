// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"sync"
	"time"

	"github.com/fauxid/fauxid/internal/clock"
)

// DefaultResetCooldown is the minimum time between reset requests for one email.
const DefaultResetCooldown = 60 * time.Second

// ResetRateLimiter gates password reset requests per email. Records are
// never deleted; the table grows with the number of distinct emails that
// ever requested a reset.
type ResetRateLimiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
	clock    clock.Clock
}

// NewResetRateLimiter creates a limiter with the given cooldown.
func NewResetRateLimiter(cooldown time.Duration, clk clock.Clock) *ResetRateLimiter {
	return &ResetRateLimiter{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
		clock:    clk,
	}
}

// Attempt runs admit for email unless a stamped request for the same email
// happened within the cooldown. The email is stamped only when admit
// succeeds. The check, admit and stamp are one atomic step per limiter.
func (l *ResetRateLimiter) Attempt(email string, admit func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if last, ok := l.last[email]; ok {
		if wait := l.cooldown - now.Sub(last); wait > 0 {
			return failure(KindRateLimitExceeded).
				With("email", email).
				With("retry_after", wait).
				Errorf("password reset requested too recently")
		}
	}

	if err := admit(); err != nil {
		return err
	}
	l.last[email] = now
	return nil
}

// Remaining returns how long email must wait before another request is
// admitted, or zero.
func (l *ResetRateLimiter) Remaining(email string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[email]
	if !ok {
		return 0
	}
	if wait := l.cooldown - l.clock.Now().Sub(last); wait > 0 {
		return wait
	}
	return 0
}
