// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/fauxid/fauxid/internal/clock"
	"github.com/fauxid/fauxid/pkg/errutil"
)

// Reset stage label values.
const (
	resetStageTrigger = "trigger"
	resetStageConsume = "consume"
)

// ResetDelivery hands a freshly minted reset token to the account owner.
// Delivery errors are logged and never fail the reset request.
type ResetDelivery interface {
	Deliver(ctx context.Context, token PasswordResetToken) error
}

// ResetDeliveryFunc adapts a function into a ResetDelivery.
type ResetDeliveryFunc func(ctx context.Context, token PasswordResetToken) error

// Deliver implements ResetDelivery.
func (f ResetDeliveryFunc) Deliver(ctx context.Context, token PasswordResetToken) error {
	return f(ctx, token)
}

// LogDelivery records that a token was issued. The token value is not logged.
func LogDelivery(logger *slog.Logger) ResetDelivery {
	return ResetDeliveryFunc(func(ctx context.Context, token PasswordResetToken) error {
		logger.InfoContext(ctx, "password reset token issued",
			"email", token.Email,
			"account_id", token.AccountID,
			"expires_at", token.ExpiresAt,
		)
		return nil
	})
}

// PasswordResetFlow issues and redeems single-use password reset tokens.
type PasswordResetFlow struct {
	directory *Directory
	limiter   *ResetRateLimiter
	ledger    *resetLedger
	delivery  ResetDelivery
	ttl       time.Duration
	clock     clock.Clock
	metrics   *Metrics
	logger    *slog.Logger
}

func newPasswordResetFlow(directory *Directory, limiter *ResetRateLimiter, delivery ResetDelivery, ttl time.Duration, clk clock.Clock, metrics *Metrics, logger *slog.Logger) *PasswordResetFlow {
	return &PasswordResetFlow{
		directory: directory,
		limiter:   limiter,
		ledger:    newResetLedger(),
		delivery:  delivery,
		ttl:       ttl,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
	}
}

// Trigger mints a reset token for email. Checks run in order: rate limit
// (KindRateLimitExceeded), then account existence (KindEmailNotInDatabase).
// Only a successful request stamps the rate limiter.
func (f *PasswordResetFlow) Trigger(ctx context.Context, email string) (PasswordResetToken, error) {
	var minted PasswordResetToken
	err := f.limiter.Attempt(email, func() error {
		acct, ok := f.directory.FindByEmail(email)
		if !ok {
			return failure(KindEmailNotInDatabase).
				With("email", email).
				Errorf("no account for email")
		}

		value, hash, err := GenerateResetToken()
		if err != nil {
			return err
		}
		now := f.clock.Now()
		minted = PasswordResetToken{
			Value:     value,
			Email:     email,
			AccountID: acct.ID,
			ExpiresAt: now.Add(f.ttl),
			CreatedAt: now,
		}
		f.ledger.put(hash, resetRecord{
			email:     email,
			accountID: acct.ID,
			expiresAt: minted.ExpiresAt,
			createdAt: now,
		})
		return nil
	})
	f.metrics.passwordReset(resetStageTrigger, err)
	if err != nil {
		return PasswordResetToken{}, err
	}

	if derr := f.delivery.Deliver(ctx, minted); derr != nil {
		errutil.LogWarnContext(ctx, f.logger, "password reset delivery failed",
			oops.Code("RESET_DELIVERY_FAILED").With("email", email).Wrap(derr))
	}
	return minted, nil
}

// Consume redeems value and sets newPassword on the owning account. The
// token is removed on every outcome except KindTokenNotFound. If the account
// was deleted after the token was minted, Consume succeeds without effect.
func (f *PasswordResetFlow) Consume(ctx context.Context, value, newPassword string) error {
	err := f.consume(ctx, value, newPassword)
	f.metrics.passwordReset(resetStageConsume, err)
	return err
}

func (f *PasswordResetFlow) consume(ctx context.Context, value, newPassword string) error {
	rec, ok := f.ledger.take(hashResetToken(value))
	if !ok {
		return failure(KindTokenNotFound).Errorf("reset token not found")
	}
	if f.clock.Now().After(rec.expiresAt) {
		return failure(KindTokenExpired).
			With("email", rec.email).
			With("expired_at", rec.expiresAt).
			Errorf("reset token expired")
	}

	err := f.directory.UpdatePassword(rec.accountID, newPassword)
	switch {
	case IsKind(err, KindAccountNotFound):
		f.logger.DebugContext(ctx, "reset token redeemed for deleted account",
			"account_id", rec.accountID)
		return nil
	case err != nil:
		return err
	}

	f.logger.InfoContext(ctx, "password reset", "account_id", rec.accountID)
	return nil
}

// PurgeExpired removes tokens past their expiry and returns how many were
// removed. A purged token then fails with KindTokenNotFound.
func (f *PasswordResetFlow) PurgeExpired() int {
	return f.ledger.purge(f.clock.Now())
}

// Pending returns the number of living reset tokens.
func (f *PasswordResetFlow) Pending() int {
	return f.ledger.len()
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (f *PasswordResetFlow) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := f.PurgeExpired(); n > 0 {
				f.logger.DebugContext(ctx, "expired reset tokens purged", "count", n)
			}
		}
	}
}
