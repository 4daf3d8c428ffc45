// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

// Package auth is an in-memory identity engine.
//
// # Core
//
// A Core owns the shared identity state: the account Directory, the
// TokenIssuer, the PasswordResetFlow and the LifecycleNotifier. Build one per
// process with NewCore and hand it to every caller:
//   - Core.Session returns a SessionFacade, a stateful interactive session
//   - Core.Admin returns the AdminFacade, a stateless administrative surface
//
// Both facades operate on the same Core, so an account created through one is
// immediately visible to the other.
//
// # Failures
//
// Operations report typed failures as oops errors whose code is a Kind; use
// KindOf or IsKind to branch on them. A few session operations fail on a
// separate fatal path, recognized with IsFatal.
//
// # Time
//
// Cooldowns, expiries and timestamps read the clock given to WithClock, so
// tests drive time with clock.Manual instead of sleeping.
package auth
