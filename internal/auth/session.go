// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fauxid/fauxid/internal/broadcast"
)

const facadeSession = "session"

// SessionStatus is the coarse state of a SessionFacade.
type SessionStatus int

// Session statuses. StatusUnknown is only ever the initial state.
const (
	StatusUnknown SessionStatus = iota
	StatusSignedOut
	StatusSignedIn
)

func (s SessionStatus) String() string {
	switch s {
	case StatusSignedOut:
		return "signed_out"
	case StatusSignedIn:
		return "signed_in"
	default:
		return "unknown"
	}
}

// SessionState is a snapshot of a SessionFacade. AccountID is set only when
// signed in. Persistent reports the remember-me flag of the last sign-in.
type SessionState struct {
	Status     SessionStatus
	AccountID  string
	Persistent bool
}

// SignedIn reports whether the state holds an account.
func (s SessionState) SignedIn() bool {
	return s.Status == StatusSignedIn
}

// SessionFacade is a single interactive session over a Core. Its state moves
// Unknown -> SignedOut <-> SignedIn, and every transition is published on the
// identity stream. Operations on one facade are serialized.
//
// A few operations fail on a fatal path (see IsFatal) rather than with a
// typed failure: CurrentToken, ChangeEmail and DeleteAccount without a
// session, and SignUp with an unusable email.
type SessionFacade struct {
	core *Core

	mu      sync.Mutex
	state   SessionState
	access  string
	refresh string
	// remembered keeps the refresh token of a persistent session across
	// sign-out, for Resume.
	remembered string

	identity *broadcast.Latest[SessionState]
}

func newSessionFacade(core *Core) *SessionFacade {
	return &SessionFacade{
		core: core,
		identity: broadcast.NewLatest[SessionState](
			broadcast.WithName("identity"),
			broadcast.WithLogger(core.logger),
		),
	}
}

// State returns the current session state.
func (s *SessionFacade) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the identity stream. New subscribers first receive the
// latest SignedIn/SignedOut state, if any has been published.
func (s *SessionFacade) Identity() *broadcast.Latest[SessionState] {
	return s.identity
}

// Close closes the identity stream.
func (s *SessionFacade) Close() {
	s.identity.Close()
}

// setState must be called with mu held.
func (s *SessionFacade) setState(next SessionState) {
	prev := s.state
	s.state = next
	s.identity.Publish(next)
	if prev.Status != next.Status || prev.AccountID != next.AccountID {
		s.core.logger.Info("session state changed",
			"from", prev.Status.String(),
			"to", next.Status.String(),
			"account_id", next.AccountID,
		)
	}
}

// signOutLocked must be called with mu held.
func (s *SessionFacade) signOutLocked() {
	if s.state.Persistent && s.refresh != "" {
		s.remembered = s.refresh
	}
	s.access = ""
	s.refresh = ""
	s.setState(SessionState{Status: StatusSignedOut, Persistent: s.state.Persistent})
}

// SignUp creates an account and returns its identifier without signing in.
// An invalid or already used email fails on the fatal path.
func (s *SessionFacade) SignUp(ctx context.Context, email, password string) (id string, err error) {
	ctx, span := startSpan(ctx, "auth.session.sign_up")
	defer func() {
		s.core.metrics.signUp(facadeSession, err)
		endSpan(span, err)
	}()

	if verr := ValidateEmail(email); verr != nil {
		return "", fatal(CodeInvalidEmail).
			With("email", email).
			Errorf("invalid email: %s", verr.Error())
	}

	acct, err := s.core.directory.Create(email, password)
	switch {
	case IsKind(err, KindEmailNotAvailable):
		return "", fatal(CodeEmailAlreadyInUse).
			With("email", email).
			Errorf("email already in use")
	case err != nil:
		return "", err
	}

	s.core.logger.DebugContext(ctx, "account signed up", "account_id", acct.ID)
	return acct.ID, nil
}

// SignIn verifies credentials and, on success, starts a session. Failures
// are typed (KindInvalidEmail, KindUserNotFound, KindWrongPassword) and
// leave the state unchanged.
func (s *SessionFacade) SignIn(ctx context.Context, email, password string, persistent bool) (err error) {
	ctx, span := startSpan(ctx, "auth.session.sign_in", attribute.Bool("auth.persistent", persistent))
	defer func() {
		s.core.metrics.signIn(facadeSession, err)
		endSpan(span, err)
	}()

	acct, err := s.core.verifier.Validate(email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pair, err := s.core.issuer.IssueSession(ctx, acct.ID)
	if err != nil {
		return err
	}
	if s.state.SignedIn() && s.state.AccountID != acct.ID {
		s.core.issuer.RevokeAccessToken(s.state.AccountID)
	}
	s.access = pair.Access.Value
	s.refresh = pair.Refresh.Value
	s.remembered = ""
	s.setState(SessionState{Status: StatusSignedIn, AccountID: acct.ID, Persistent: persistent})

	span.SetAttributes(attribute.String("auth.account_id", acct.ID))
	return nil
}

// Resume signs back in with the refresh token kept from a persistent
// session. It fails on the fatal path if there is nothing to resume, and
// with KindInvalidRefreshToken if the account has since been deleted.
func (s *SessionFacade) Resume(ctx context.Context) (err error) {
	ctx, span := startSpan(ctx, "auth.session.resume")
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.SignedIn() {
		return nil
	}
	if s.remembered == "" {
		return fatal(CodeNoActiveSession).Errorf("no persistent session to resume")
	}

	at, err := s.core.issuer.Refresh(ctx, s.remembered)
	if err != nil {
		s.remembered = ""
		return err
	}
	s.access = at.Value
	s.refresh = s.remembered
	s.remembered = ""
	s.setState(SessionState{Status: StatusSignedIn, AccountID: at.AccountID, Persistent: true})
	return nil
}

// CurrentToken returns the session's access token. An expired or superseded
// token is replaced through the refresh token. Without a session it fails
// with NO_ACTIVE_SESSION; if the session's tokens were revoked it signs out
// and fails with SESSION_REVOKED.
func (s *SessionFacade) CurrentToken(ctx context.Context) (token string, err error) {
	ctx, span := startSpan(ctx, "auth.session.current_token")
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.SignedIn() {
		return "", fatal(CodeNoActiveSession).Errorf("no active session")
	}

	if owner, rerr := s.core.issuer.Resolve(s.access); rerr == nil && owner == s.state.AccountID {
		return s.access, nil
	}

	at, rerr := s.core.issuer.Refresh(ctx, s.refresh)
	if rerr != nil {
		accountID := s.state.AccountID
		s.remembered = ""
		s.refresh = ""
		s.signOutLocked()
		return "", fatal(CodeSessionRevoked).
			With("account_id", accountID).
			Errorf("session revoked")
	}
	s.access = at.Value
	s.core.logger.DebugContext(ctx, "access token refreshed", "account_id", at.AccountID)
	return s.access, nil
}

// SignOut revokes the access token and moves to SignedOut. The refresh token
// stays valid. Signing out when not signed in still publishes SignedOut.
func (s *SessionFacade) SignOut(ctx context.Context) error {
	_, span := startSpan(ctx, "auth.session.sign_out")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.SignedIn() {
		s.core.issuer.RevokeAccessToken(s.state.AccountID)
	}
	s.signOutLocked()
	return nil
}

// ChangeEmail moves the signed-in account to newEmail. The account keeps its
// identifier and tokens.
func (s *SessionFacade) ChangeEmail(ctx context.Context, newEmail string) (err error) {
	ctx, span := startSpan(ctx, "auth.session.change_email")
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.SignedIn() {
		return fatal(CodeNoActiveSession).Errorf("no active session")
	}
	if err := ValidateEmail(newEmail); err != nil {
		return err
	}
	if _, err := s.core.directory.UpdateEmail(s.state.AccountID, newEmail); err != nil {
		return err
	}

	s.core.logger.InfoContext(ctx, "email changed", "account_id", s.state.AccountID)
	return nil
}

// IsEmailAvailable reports whether no account owns email.
func (s *SessionFacade) IsEmailAvailable(_ context.Context, email string) bool {
	return s.core.directory.IsEmailAvailable(email)
}

// TriggerReset delegates to the reset flow.
func (s *SessionFacade) TriggerReset(ctx context.Context, email string) (token PasswordResetToken, err error) {
	ctx, span := startSpan(ctx, "auth.session.trigger_reset")
	defer func() { endSpan(span, err) }()
	return s.core.resets.Trigger(ctx, email)
}

// CompleteReset delegates to the reset flow.
func (s *SessionFacade) CompleteReset(ctx context.Context, token, newPassword string) (err error) {
	ctx, span := startSpan(ctx, "auth.session.complete_reset")
	defer func() { endSpan(span, err) }()
	return s.core.resets.Consume(ctx, token, newPassword)
}

// DeleteAccount deletes the signed-in account, revoking all of its tokens,
// and moves to SignedOut. If the account was already deleted elsewhere the
// session still ends and KindAccountNotFound is returned.
func (s *SessionFacade) DeleteAccount(ctx context.Context) (err error) {
	ctx, span := startSpan(ctx, "auth.session.delete_account")
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.SignedIn() {
		return fatal(CodeNoActiveSession).Errorf("no active session")
	}

	_, err = s.core.DeleteAccount(ctx, s.state.AccountID)
	s.remembered = ""
	s.refresh = ""
	s.state.Persistent = false
	s.signOutLocked()
	return err
}
