// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenBytes = 32        // 32 bytes = 64 hex chars
	DefaultResetTTL = time.Hour // reference time-to-live
)

// PasswordResetToken is a single-use credential for setting a new password.
type PasswordResetToken struct {
	Value     string
	Email     string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// GenerateResetToken creates a random token value and its hash.
// The plaintext goes to the user; only the hash is kept in the ledger.
func GenerateResetToken() (token, hash string, err error) {
	tokenBytes := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, hashResetToken(token), nil
}

func hashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// resetRecord is a ledger entry. The plaintext value is not retained.
type resetRecord struct {
	email     string
	accountID string
	expiresAt time.Time
	createdAt time.Time
}

// resetLedger holds living reset tokens keyed by token hash.
type resetLedger struct {
	mu      sync.Mutex
	records map[string]resetRecord
}

func newResetLedger() *resetLedger {
	return &resetLedger{records: make(map[string]resetRecord)}
}

func (l *resetLedger) put(hash string, rec resetRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[hash] = rec
}

// take removes and returns the record for hash.
func (l *resetLedger) take(hash string) (resetRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[hash]
	if ok {
		delete(l.records, hash)
	}
	return rec, ok
}

func (l *resetLedger) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for hash, rec := range l.records {
		if now.After(rec.expiresAt) {
			delete(l.records, hash)
			n++
		}
	}
	return n
}

func (l *resetLedger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
