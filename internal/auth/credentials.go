// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/samber/oops"
)

// ValidateEmail checks email syntax only; it never consults the directory.
func ValidateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return failure(KindInvalidEmail).
			With("email", email).
			Wrapf(err, "invalid email")
	}
	return nil
}

// CredentialVerifier checks an email/password pair against the directory.
//
// Checks run in a fixed order: email format, then account existence, then the
// secret. The split between user-not-found and wrong-password is observable,
// including through timing.
type CredentialVerifier struct {
	directory *Directory
	hasher    PasswordHasher
}

// NewCredentialVerifier creates a verifier over directory.
func NewCredentialVerifier(directory *Directory, hasher PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{directory: directory, hasher: hasher}
}

// Validate returns the account owning email if password matches.
func (v *CredentialVerifier) Validate(email, password string) (Account, error) {
	if err := ValidateEmail(email); err != nil {
		return Account{}, err
	}

	acct, ok := v.directory.FindByEmail(email)
	if !ok {
		return Account{}, failure(KindUserNotFound).
			With("email", email).
			Errorf("no account for email")
	}

	match, err := v.hasher.Verify(password, acct.PasswordSecret)
	if err != nil {
		return Account{}, oops.Code("CREDENTIAL_VERIFY_FAILED").
			With("operation", "verify password").
			With("account_id", acct.ID).
			Wrap(err)
	}
	if !match {
		return Account{}, failure(KindWrongPassword).
			With("account_id", acct.ID).
			Errorf("wrong password")
	}

	return acct, nil
}
