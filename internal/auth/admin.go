// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"context"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
)

const facadeAdmin = "admin"

// AdminFacade is the stateless administrative surface of a Core. Every
// operation names its account explicitly and reports typed failures only.
// Tokens it issues are detached: they never supersede, and are never
// superseded by, session tokens.
type AdminFacade struct {
	core *Core
}

// SignUp creates an account and returns its identifier.
func (a *AdminFacade) SignUp(ctx context.Context, email, password string) (id string, err error) {
	ctx, span := startSpan(ctx, "auth.admin.sign_up")
	defer func() {
		a.core.metrics.signUp(facadeAdmin, err)
		endSpan(span, err)
	}()

	if err := ValidateEmail(email); err != nil {
		return "", err
	}
	acct, err := a.core.directory.Create(email, password)
	if err != nil {
		return "", err
	}
	a.core.logger.DebugContext(ctx, "account created by admin", "account_id", acct.ID)
	return acct.ID, nil
}

// SignIn verifies credentials and returns a detached token pair.
func (a *AdminFacade) SignIn(ctx context.Context, email, password string) (pair TokenPair, err error) {
	ctx, span := startSpan(ctx, "auth.admin.sign_in")
	defer func() {
		a.core.metrics.signIn(facadeAdmin, err)
		endSpan(span, err)
	}()

	acct, err := a.core.verifier.Validate(email, password)
	if err != nil {
		return TokenPair{}, err
	}
	return a.core.issuer.IssueDetached(ctx, acct.ID)
}

// Refresh exchanges a refresh token for a new access token.
func (a *AdminFacade) Refresh(ctx context.Context, refreshToken string) (token AccessToken, err error) {
	ctx, span := startSpan(ctx, "auth.admin.refresh")
	defer func() { endSpan(span, err) }()
	return a.core.issuer.Refresh(ctx, refreshToken)
}

// ResolveToken returns the account identifier an access token belongs to.
func (a *AdminFacade) ResolveToken(ctx context.Context, accessToken string) (id string, err error) {
	_, span := startSpan(ctx, "auth.admin.resolve_token")
	defer func() { endSpan(span, err) }()
	return a.core.issuer.Resolve(accessToken)
}

// ChangeEmail moves account id to newEmail.
func (a *AdminFacade) ChangeEmail(ctx context.Context, id, newEmail string) (err error) {
	ctx, span := startSpan(ctx, "auth.admin.change_email", attribute.String("auth.account_id", id))
	defer func() { endSpan(span, err) }()

	if err := ValidateEmail(newEmail); err != nil {
		return err
	}
	if _, err := a.core.directory.UpdateEmail(id, newEmail); err != nil {
		return err
	}
	a.core.logger.InfoContext(ctx, "email changed by admin", "account_id", id)
	return nil
}

// ChangePassword replaces the password of account id.
func (a *AdminFacade) ChangePassword(ctx context.Context, id, newPassword string) (err error) {
	ctx, span := startSpan(ctx, "auth.admin.change_password", attribute.String("auth.account_id", id))
	defer func() { endSpan(span, err) }()

	if err := a.core.directory.UpdatePassword(id, newPassword); err != nil {
		return err
	}
	a.core.logger.InfoContext(ctx, "password changed by admin", "account_id", id)
	return nil
}

// DeleteUser deletes account id and revokes all of its tokens.
func (a *AdminFacade) DeleteUser(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "auth.admin.delete_user", attribute.String("auth.account_id", id))
	defer func() { endSpan(span, err) }()

	_, err = a.core.DeleteAccount(ctx, id)
	return err
}

// FindByEmail returns the identifier of the account owning email.
func (a *AdminFacade) FindByEmail(ctx context.Context, email string) (id string, err error) {
	_, span := startSpan(ctx, "auth.admin.find_by_email")
	defer func() { endSpan(span, err) }()

	acct, ok := a.core.directory.FindByEmail(email)
	if !ok {
		return "", failure(KindEmailNotInDatabase).
			With("email", email).
			Errorf("no account for email")
	}
	return acct.ID, nil
}

// TriggerReset delegates to the reset flow.
func (a *AdminFacade) TriggerReset(ctx context.Context, email string) (token PasswordResetToken, err error) {
	ctx, span := startSpan(ctx, "auth.admin.trigger_reset")
	defer func() { endSpan(span, err) }()
	return a.core.resets.Trigger(ctx, email)
}

// CompleteReset delegates to the reset flow.
func (a *AdminFacade) CompleteReset(ctx context.Context, token, newPassword string) (err error) {
	ctx, span := startSpan(ctx, "auth.admin.complete_reset")
	defer func() { endSpan(span, err) }()
	return a.core.resets.Consume(ctx, token, newPassword)
}

// ListUsers returns accounts whose email matches the glob pattern, ordered
// by identifier. An empty pattern matches every account.
func (a *AdminFacade) ListUsers(ctx context.Context, pattern string) (accounts []Account, err error) {
	_, span := startSpan(ctx, "auth.admin.list_users", attribute.String("auth.pattern", pattern))
	defer func() { endSpan(span, err) }()

	all := a.core.directory.List()
	if pattern == "" {
		return all, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, failure(KindInvalidPattern).
			With("pattern", pattern).
			Wrapf(err, "invalid email pattern")
	}

	accounts = make([]Account, 0, len(all))
	for _, acct := range all {
		if g.Match(acct.Email) {
			accounts = append(accounts, acct)
		}
	}
	return accounts, nil
}
