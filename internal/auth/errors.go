// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"github.com/samber/oops"

	"github.com/fauxid/fauxid/pkg/errutil"
)

// Kind names a typed failure. Typed failures are oops errors whose code is
// one of the Kind values below; callers branch on KindOf.
type Kind string

// Typed failure kinds.
const (
	KindInvalidEmail        Kind = "invalid-email"
	KindUserNotFound        Kind = "user-not-found"
	KindWrongPassword       Kind = "wrong-password"
	KindEmailNotAvailable   Kind = "email-not-available"
	KindRateLimitExceeded   Kind = "rate-limit-exceeded"
	KindEmailNotInDatabase  Kind = "email-not-in-database"
	KindTokenExpired        Kind = "token-expired"
	KindTokenNotFound       Kind = "token-not-found"
	KindAccountNotFound     Kind = "account-not-found"
	KindInvalidRefreshToken Kind = "invalid-refresh-token"
	KindInvalidAccessToken  Kind = "invalid-access-token"
	KindInvalidPattern      Kind = "invalid-pattern"
)

var knownKinds = map[Kind]struct{}{
	KindInvalidEmail:        {},
	KindUserNotFound:        {},
	KindWrongPassword:       {},
	KindEmailNotAvailable:   {},
	KindRateLimitExceeded:   {},
	KindEmailNotInDatabase:  {},
	KindTokenExpired:        {},
	KindTokenNotFound:       {},
	KindAccountNotFound:     {},
	KindInvalidRefreshToken: {},
	KindInvalidAccessToken:  {},
	KindInvalidPattern:      {},
}

// Fatal error codes. These are raised outside the typed failure contract by
// the session facade, for compatibility with callers that treat them as
// unrecoverable. New call sites should prefer typed failures.
const (
	CodeNoActiveSession   = "NO_ACTIVE_SESSION"
	CodeEmailAlreadyInUse = "EMAIL_ALREADY_IN_USE"
	CodeInvalidEmail      = "INVALID_EMAIL"
	CodeSessionRevoked    = "SESSION_REVOKED"
)

// failure starts a typed failure builder.
func failure(kind Kind) oops.OopsErrorBuilder {
	return oops.Code(string(kind)).In("auth")
}

const fatalTag = "fatal"

// fatal starts a fatal error builder.
func fatal(code string) oops.OopsErrorBuilder {
	return oops.Code(code).In("auth").Tags(fatalTag)
}

// KindOf reports the typed failure kind carried by err.
func KindOf(err error) (Kind, bool) {
	kind := Kind(errutil.Code(err))
	if _, known := knownKinds[kind]; !known {
		return "", false
	}
	return kind, true
}

// IsKind reports whether err is a typed failure of the given kind.
func IsKind(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}

// IsFatal reports whether err was raised on the fatal path rather than as a
// typed failure.
func IsFatal(err error) bool {
	return errutil.HasTag(err, fatalTag)
}
