// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/fauxid/fauxid/internal/clock"
)

// DefaultAccessTokenTTL is how long an access token resolves after issue.
const DefaultAccessTokenTTL = time.Hour

// mintAttempts bounds retries when a TokenSource repeats a value.
const mintAttempts = 3

var errTokenCollision = errors.New("token value already issued")

// AccessToken is a short-lived credential bound to an account.
type AccessToken struct {
	Value     string
	AccountID string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the issuer has no access TTL
	// Detached tokens were issued administratively and are never superseded.
	Detached bool
}

// Expired reports whether the token is past its expiry at now.
func (t AccessToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// RefreshToken is a long-lived credential that mints new access tokens. It
// survives sign-out and is destroyed only with its account.
type RefreshToken struct {
	Value     string
	AccountID string
	IssuedAt  time.Time
	Detached  bool
}

// TokenPair is the result of a sign-in.
type TokenPair struct {
	Access  AccessToken
	Refresh RefreshToken
}

// TokenIssuer mints, resolves and revokes tokens. Each account has at most
// one session-bound access token; issuing or refreshing a session-bound token
// supersedes the previous one. Detached tokens are independent.
type TokenIssuer struct {
	mu             sync.Mutex
	access         map[string]*AccessToken
	refresh        map[string]*RefreshToken
	sessionAccess  map[string]string
	accessByOwner  map[string]map[string]struct{}
	refreshByOwner map[string]map[string]struct{}

	source        TokenSource
	clock         clock.Clock
	ids           *idGenerator
	accessTTL     time.Duration
	accountExists func(string) bool
	metrics       *Metrics
	logger        *slog.Logger
}

func newTokenIssuer(source TokenSource, clk clock.Clock, ids *idGenerator, accessTTL time.Duration, accountExists func(string) bool, metrics *Metrics, logger *slog.Logger) *TokenIssuer {
	return &TokenIssuer{
		access:         make(map[string]*AccessToken),
		refresh:        make(map[string]*RefreshToken),
		sessionAccess:  make(map[string]string),
		accessByOwner:  make(map[string]map[string]struct{}),
		refreshByOwner: make(map[string]map[string]struct{}),
		source:         source,
		clock:          clk,
		ids:            ids,
		accessTTL:      accessTTL,
		accountExists:  accountExists,
		metrics:        metrics,
		logger:         logger,
	}
}

// IssueSession mints a session-bound access/refresh pair for accountID,
// superseding the account's previous session-bound access token.
func (ti *TokenIssuer) IssueSession(ctx context.Context, accountID string) (TokenPair, error) {
	return ti.issue(ctx, accountID, false)
}

// IssueDetached mints an independent access/refresh pair for accountID.
func (ti *TokenIssuer) IssueDetached(ctx context.Context, accountID string) (TokenPair, error) {
	return ti.issue(ctx, accountID, true)
}

func (ti *TokenIssuer) issue(ctx context.Context, accountID string, detached bool) (TokenPair, error) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	// Checked under the issuer lock: a concurrent delete either happened
	// already, or its revocation hook will wait for this lock.
	if !ti.accountExists(accountID) {
		return TokenPair{}, failure(KindAccountNotFound).
			With("account_id", accountID).
			Errorf("account not found")
	}

	at, err := ti.mintAccess(ctx, accountID, detached)
	if err != nil {
		return TokenPair{}, err
	}

	now := ti.clock.Now()
	value, err := ti.mint(ctx, TokenClaims{
		ID:        ti.ids.NewString(),
		AccountID: accountID,
		Kind:      TokenRefresh,
		IssuedAt:  now,
	})
	if err != nil {
		ti.dropAccess(at.Value)
		return TokenPair{}, err
	}
	rt := &RefreshToken{Value: value, AccountID: accountID, IssuedAt: now, Detached: detached}
	ti.refresh[value] = rt
	index(ti.refreshByOwner, accountID, value)
	ti.metrics.tokenIssued(TokenRefresh)

	return TokenPair{Access: *at, Refresh: *rt}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
func (ti *TokenIssuer) Refresh(ctx context.Context, refreshValue string) (AccessToken, error) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	rt, ok := ti.refresh[refreshValue]
	if !ok {
		return AccessToken{}, failure(KindInvalidRefreshToken).Errorf("refresh token not recognized")
	}

	at, err := ti.mintAccess(ctx, rt.AccountID, rt.Detached)
	if err != nil {
		return AccessToken{}, err
	}
	return *at, nil
}

// Resolve returns the account an access token belongs to. Unknown, revoked,
// superseded and expired tokens all fail with KindInvalidAccessToken.
func (ti *TokenIssuer) Resolve(accessValue string) (string, error) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	at, ok := ti.access[accessValue]
	if !ok {
		return "", failure(KindInvalidAccessToken).Errorf("access token not recognized")
	}
	if at.Expired(ti.clock.Now()) {
		ti.dropAccess(accessValue)
		return "", failure(KindInvalidAccessToken).
			With("account_id", at.AccountID).
			With("expired_at", at.ExpiresAt).
			Errorf("access token expired")
	}
	return at.AccountID, nil
}

// RevokeAccessToken deletes the account's session-bound access token and
// reports whether one existed. Refresh tokens are untouched.
func (ti *TokenIssuer) RevokeAccessToken(accountID string) bool {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	value, ok := ti.sessionAccess[accountID]
	if !ok {
		return false
	}
	ti.dropAccess(value)
	return true
}

// RevokeAllFor deletes every access and refresh token owned by accountID.
func (ti *TokenIssuer) RevokeAllFor(accountID string) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	for value := range ti.accessByOwner[accountID] {
		delete(ti.access, value)
	}
	for value := range ti.refreshByOwner[accountID] {
		delete(ti.refresh, value)
	}
	delete(ti.accessByOwner, accountID)
	delete(ti.refreshByOwner, accountID)
	delete(ti.sessionAccess, accountID)

	ti.logger.Debug("tokens revoked", "account_id", accountID)
}

// mintAccess must be called with mu held.
func (ti *TokenIssuer) mintAccess(ctx context.Context, accountID string, detached bool) (*AccessToken, error) {
	now := ti.clock.Now()
	var expires time.Time
	if ti.accessTTL > 0 {
		expires = now.Add(ti.accessTTL)
	}

	value, err := ti.mint(ctx, TokenClaims{
		ID:        ti.ids.NewString(),
		AccountID: accountID,
		Kind:      TokenAccess,
		IssuedAt:  now,
		ExpiresAt: expires,
	})
	if err != nil {
		return nil, err
	}

	at := &AccessToken{
		Value:     value,
		AccountID: accountID,
		IssuedAt:  now,
		ExpiresAt: expires,
		Detached:  detached,
	}
	if !detached {
		if previous, ok := ti.sessionAccess[accountID]; ok {
			ti.dropAccess(previous)
		}
		ti.sessionAccess[accountID] = value
	}
	ti.access[value] = at
	index(ti.accessByOwner, accountID, value)
	ti.metrics.tokenIssued(TokenAccess)

	return at, nil
}

// mint asks the source for a value not already in use. Must be called with mu held.
func (ti *TokenIssuer) mint(ctx context.Context, claims TokenClaims) (string, error) {
	var value string
	backoff := retry.WithMaxRetries(mintAttempts-1, retry.NewConstant(time.Millisecond))

	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		v, err := ti.source.Mint(claims)
		if err != nil {
			return err
		}
		_, inAccess := ti.access[v]
		_, inRefresh := ti.refresh[v]
		if v == "" || inAccess || inRefresh {
			return retry.RetryableError(errTokenCollision)
		}
		value = v
		return nil
	})
	if err != nil {
		return "", oops.Code("TOKEN_MINT_FAILED").
			With("account_id", claims.AccountID).
			With("kind", string(claims.Kind)).
			Wrap(err)
	}
	return value, nil
}

// dropAccess must be called with mu held.
func (ti *TokenIssuer) dropAccess(value string) {
	at, ok := ti.access[value]
	if !ok {
		return
	}
	delete(ti.access, value)
	if owned := ti.accessByOwner[at.AccountID]; owned != nil {
		delete(owned, value)
		if len(owned) == 0 {
			delete(ti.accessByOwner, at.AccountID)
		}
	}
	if ti.sessionAccess[at.AccountID] == value {
		delete(ti.sessionAccess, at.AccountID)
	}
}

func index(m map[string]map[string]struct{}, owner, value string) {
	set, ok := m[owner]
	if !ok {
		set = make(map[string]struct{})
		m[owner] = set
	}
	set[value] = struct{}{}
}
