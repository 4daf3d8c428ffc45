// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/fauxid/fauxid/internal/clock"
)

// Directory is the authoritative in-memory account store. It owns the email
// uniqueness invariant: the availability check and the write that claims an
// email happen under one lock.
type Directory struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]string

	hasher    PasswordHasher
	clock     clock.Clock
	ids       *idGenerator
	lifecycle *LifecycleNotifier
	metrics   *Metrics
	logger    *slog.Logger

	hookMu    sync.RWMutex
	onDeleted []func(Account)
}

func newDirectory(hasher PasswordHasher, clk clock.Clock, ids *idGenerator, lifecycle *LifecycleNotifier, metrics *Metrics, logger *slog.Logger) *Directory {
	return &Directory{
		byID:      make(map[string]*Account),
		byEmail:   make(map[string]string),
		hasher:    hasher,
		clock:     clk,
		ids:       ids,
		lifecycle: lifecycle,
		metrics:   metrics,
		logger:    logger,
	}
}

// OnDeleted registers fn to run after an account is removed and before the
// AccountDeleted event is published. Hooks run outside the directory lock.
func (d *Directory) OnDeleted(fn func(Account)) {
	if fn == nil {
		return
	}
	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.onDeleted = append(d.onDeleted, fn)
}

// Create registers a new account. Fails with KindEmailNotAvailable if the
// email is already claimed.
func (d *Directory) Create(email, password string) (Account, error) {
	secret, err := d.hasher.Hash(password)
	if err != nil {
		return Account{}, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	d.mu.Lock()
	if _, taken := d.byEmail[email]; taken {
		d.mu.Unlock()
		return Account{}, failure(KindEmailNotAvailable).
			With("email", email).
			Errorf("email already in use")
	}

	now := d.clock.Now()
	acct := &Account{
		ID:             d.ids.NewString(),
		Email:          email,
		PasswordSecret: secret,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	d.byID[acct.ID] = acct
	d.byEmail[email] = acct.ID
	created := *acct
	d.metrics.setAccounts(len(d.byID))
	d.mu.Unlock()

	d.logger.Debug("account created", "account_id", created.ID)
	d.lifecycle.publish(EventAccountCreated, created.ID)

	return created, nil
}

// FindByEmail looks up an account by its exact email.
func (d *Directory) FindByEmail(email string) (Account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[email]
	if !ok {
		return Account{}, false
	}
	return *d.byID[id], true
}

// FindByID looks up an account by identifier.
func (d *Directory) FindByID(id string) (Account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	acct, ok := d.byID[id]
	if !ok {
		return Account{}, false
	}
	return *acct, true
}

// IsEmailAvailable reports whether no account currently owns email.
func (d *Directory) IsEmailAvailable(email string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, taken := d.byEmail[email]
	return !taken
}

// UpdateEmail moves an account to newEmail, keeping its identifier. Setting
// the account's current email again succeeds without change.
func (d *Directory) UpdateEmail(id, newEmail string) (Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acct, ok := d.byID[id]
	if !ok {
		return Account{}, failure(KindAccountNotFound).
			With("account_id", id).
			Errorf("account not found")
	}
	if acct.Email == newEmail {
		return *acct, nil
	}
	if _, taken := d.byEmail[newEmail]; taken {
		return Account{}, failure(KindEmailNotAvailable).
			With("email", newEmail).
			Errorf("email already in use")
	}

	delete(d.byEmail, acct.Email)
	d.byEmail[newEmail] = id
	acct.Email = newEmail
	acct.UpdatedAt = d.clock.Now()

	return *acct, nil
}

// UpdatePassword replaces an account's stored secret.
func (d *Directory) UpdatePassword(id, password string) error {
	secret, err := d.hasher.Hash(password)
	if err != nil {
		return oops.Code("PASSWORD_UPDATE_FAILED").
			With("operation", "hash password").
			With("account_id", id).
			Wrap(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	acct, ok := d.byID[id]
	if !ok {
		return failure(KindAccountNotFound).
			With("account_id", id).
			Errorf("account not found")
	}
	acct.PasswordSecret = secret
	acct.UpdatedAt = d.clock.Now()
	return nil
}

// Delete removes an account. When Delete returns, lookups by the identifier
// or the former email miss, deletion hooks have run and AccountDeleted has
// been published.
func (d *Directory) Delete(id string) (Account, error) {
	d.mu.Lock()
	acct, ok := d.byID[id]
	if !ok {
		d.mu.Unlock()
		return Account{}, failure(KindAccountNotFound).
			With("account_id", id).
			Errorf("account not found")
	}
	delete(d.byID, id)
	delete(d.byEmail, acct.Email)
	removed := *acct
	d.metrics.setAccounts(len(d.byID))
	d.mu.Unlock()

	d.hookMu.RLock()
	hooks := slices.Clone(d.onDeleted)
	d.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(removed)
	}

	d.logger.Debug("account deleted", "account_id", removed.ID)
	d.lifecycle.publish(EventAccountDeleted, removed.ID)

	return removed, nil
}

// Count returns the number of accounts.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

// List returns a snapshot of every account ordered by identifier, which is
// creation order.
func (d *Directory) List() []Account {
	d.mu.RLock()
	out := make([]Account, 0, len(d.byID))
	for _, acct := range d.byID {
		out = append(out, *acct)
	}
	d.mu.RUnlock()

	slices.SortFunc(out, func(a, b Account) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
