// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/fauxid/fauxid/internal/clock"
)

// Core is the single identity domain shared by every facade: one directory,
// one token issuer, one reset flow and one lifecycle notifier. Build it once
// per process with NewCore.
type Core struct {
	clock     clock.Clock
	hasher    PasswordHasher
	directory *Directory
	verifier  *CredentialVerifier
	issuer    *TokenIssuer
	limiter   *ResetRateLimiter
	resets    *PasswordResetFlow
	lifecycle *LifecycleNotifier
	metrics   *Metrics
	logger    *slog.Logger
	admin     *AdminFacade
}

type coreConfig struct {
	clock           clock.Clock
	hasher          PasswordHasher
	tokenSource     TokenSource
	accessTTL       time.Duration
	resetCooldown   time.Duration
	resetTTL        time.Duration
	delivery        ResetDelivery
	logger          *slog.Logger
	metrics         *Metrics
	lifecycleBuffer int
}

// CoreOption configures a Core during construction.
type CoreOption func(*coreConfig)

// WithClock sets the time source for every time-dependent rule.
func WithClock(c clock.Clock) CoreOption {
	return func(cfg *coreConfig) { cfg.clock = c }
}

// WithHasher sets how passwords are stored. Defaults to PlainHasher.
func WithHasher(h PasswordHasher) CoreOption {
	return func(cfg *coreConfig) { cfg.hasher = h }
}

// WithTokenSource sets how token values are minted. Defaults to OpaqueTokenSource.
func WithTokenSource(s TokenSource) CoreOption {
	return func(cfg *coreConfig) { cfg.tokenSource = s }
}

// WithAccessTokenTTL sets the access token lifetime. Zero disables expiry.
func WithAccessTokenTTL(d time.Duration) CoreOption {
	return func(cfg *coreConfig) { cfg.accessTTL = d }
}

// WithResetCooldown sets the per-email reset request cooldown.
func WithResetCooldown(d time.Duration) CoreOption {
	return func(cfg *coreConfig) { cfg.resetCooldown = d }
}

// WithResetTTL sets how long a reset token stays redeemable.
func WithResetTTL(d time.Duration) CoreOption {
	return func(cfg *coreConfig) { cfg.resetTTL = d }
}

// WithResetDelivery sets the hook that receives minted reset tokens.
// Defaults to LogDelivery.
func WithResetDelivery(d ResetDelivery) CoreOption {
	return func(cfg *coreConfig) { cfg.delivery = d }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) CoreOption {
	return func(cfg *coreConfig) { cfg.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) CoreOption {
	return func(cfg *coreConfig) { cfg.metrics = m }
}

// WithLifecycleBuffer bounds each lifecycle channel subscriber to n queued
// events, dropping the overflow. n <= 0, the default, never drops.
func WithLifecycleBuffer(n int) CoreOption {
	return func(cfg *coreConfig) { cfg.lifecycleBuffer = n }
}

// NewCore builds an identity core. Without options it uses the system clock,
// plaintext password storage, opaque tokens, a one hour access TTL, a 60s
// reset cooldown and a one hour reset TTL.
func NewCore(opts ...CoreOption) *Core {
	cfg := coreConfig{
		clock:         clock.System(),
		hasher:        NewPlainHasher(),
		tokenSource:   OpaqueTokenSource{},
		accessTTL:     DefaultAccessTokenTTL,
		resetCooldown: DefaultResetCooldown,
		resetTTL:      DefaultResetTTL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.delivery == nil {
		cfg.delivery = LogDelivery(cfg.logger)
	}

	logger := cfg.logger.With("component", "auth")
	ids := newIDGenerator(cfg.clock)

	c := &Core{
		clock:   cfg.clock,
		hasher:  cfg.hasher,
		metrics: cfg.metrics,
		logger:  logger,
	}
	c.lifecycle = newLifecycleNotifier(cfg.lifecycleBuffer, cfg.clock, ids, cfg.metrics, logger)
	c.directory = newDirectory(cfg.hasher, cfg.clock, ids, c.lifecycle, cfg.metrics, logger)
	c.verifier = NewCredentialVerifier(c.directory, cfg.hasher)
	c.issuer = newTokenIssuer(cfg.tokenSource, cfg.clock, ids, cfg.accessTTL, func(id string) bool {
		_, ok := c.directory.FindByID(id)
		return ok
	}, cfg.metrics, logger)
	c.limiter = NewResetRateLimiter(cfg.resetCooldown, cfg.clock)
	c.resets = newPasswordResetFlow(c.directory, c.limiter, cfg.delivery, cfg.resetTTL, cfg.clock, cfg.metrics, logger)

	c.directory.OnDeleted(func(acct Account) {
		c.issuer.RevokeAllFor(acct.ID)
	})
	c.admin = &AdminFacade{core: c}

	return c
}

// Clock returns the core's time source.
func (c *Core) Clock() clock.Clock { return c.clock }

// Directory returns the account store.
func (c *Core) Directory() *Directory { return c.directory }

// Verifier returns the credential verifier.
func (c *Core) Verifier() *CredentialVerifier { return c.verifier }

// Issuer returns the token issuer.
func (c *Core) Issuer() *TokenIssuer { return c.issuer }

// Resets returns the password reset flow.
func (c *Core) Resets() *PasswordResetFlow { return c.resets }

// RateLimiter returns the reset request limiter.
func (c *Core) RateLimiter() *ResetRateLimiter { return c.limiter }

// Lifecycle returns the account lifecycle notifier.
func (c *Core) Lifecycle() *LifecycleNotifier { return c.lifecycle }

// Logger returns the core's logger.
func (c *Core) Logger() *slog.Logger { return c.logger }

// Session returns a new session facade with its own session state.
func (c *Core) Session() *SessionFacade { return newSessionFacade(c) }

// Admin returns the stateless administrative facade.
func (c *Core) Admin() *AdminFacade { return c.admin }

// DeleteAccount removes an account. When it returns, lookups miss, every
// token of the account is revoked and AccountDeleted has been published.
func (c *Core) DeleteAccount(ctx context.Context, id string) (Account, error) {
	acct, err := c.directory.Delete(id)
	if err != nil {
		return Account{}, err
	}
	c.logger.InfoContext(ctx, "account deleted", "account_id", acct.ID)
	return acct, nil
}

// Close releases lifecycle subscribers. The core must not be used afterwards.
func (c *Core) Close() {
	c.lifecycle.Close()
}
