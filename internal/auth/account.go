// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import "time"

// Account is a registered identity. Values handed out by the engine are
// copies; mutating them has no effect on the directory.
type Account struct {
	ID             string
	Email          string
	PasswordSecret string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
