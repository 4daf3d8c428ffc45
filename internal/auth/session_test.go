// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fauxid/fauxid/internal/auth"
	"github.com/fauxid/fauxid/internal/broadcast"
)

func newTestSession(t *testing.T, opts ...auth.CoreOption) (*auth.Core, *auth.SessionFacade) {
	t.Helper()
	core, _ := newTestCore(t, opts...)
	session := core.Session()
	t.Cleanup(session.Close)
	return core, session
}

func nextState(t *testing.T, sub *broadcast.Subscription[auth.SessionState]) auth.SessionState {
	t.Helper()
	select {
	case st, ok := <-sub.C():
		require.True(t, ok, "identity stream closed")
		return st
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for identity state")
		return auth.SessionState{}
	}
}

func TestSessionStartsUnknown(t *testing.T) {
	_, session := newTestSession(t)

	assert.Equal(t, auth.StatusUnknown, session.State().Status)
	_, published := session.Identity().Value()
	assert.False(t, published)
}

func TestSessionSignUp(t *testing.T) {
	ctx := context.Background()
	core, session := newTestSession(t)

	id, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, auth.StatusUnknown, session.State().Status, "sign up does not sign in")
	assert.False(t, session.IsEmailAvailable(ctx, "a@x.com"))

	t.Run("duplicate email is fatal", func(t *testing.T) {
		_, err := session.SignUp(ctx, "a@x.com", "pw")
		assertFatal(t, err, auth.CodeEmailAlreadyInUse)
		assert.Equal(t, 1, core.Directory().Count())
	})

	t.Run("invalid email is fatal", func(t *testing.T) {
		_, err := session.SignUp(ctx, "nope", "pw")
		assertFatal(t, err, auth.CodeInvalidEmail)
	})
}

func TestSessionSignIn(t *testing.T) {
	ctx := context.Background()
	_, session := newTestSession(t)
	id, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	failures := []struct {
		email, password string
		kind            auth.Kind
	}{
		{"bad", "pw", auth.KindInvalidEmail},
		{"b@x.com", "pw", auth.KindUserNotFound},
		{"a@x.com", "nope", auth.KindWrongPassword},
	}
	for _, f := range failures {
		err := session.SignIn(ctx, f.email, f.password, false)
		assertKind(t, err, f.kind)
		assert.Equal(t, auth.StatusUnknown, session.State().Status, "failed sign in leaves state")
	}

	require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", true))
	state := session.State()
	assert.Equal(t, auth.StatusSignedIn, state.Status)
	assert.Equal(t, id, state.AccountID)
	assert.True(t, state.Persistent)

	token, err := session.CurrentToken(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestSessionIdentityStreamReplaysLatest(t *testing.T) {
	ctx := context.Background()
	_, session := newTestSession(t)
	id, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	early := session.Identity().Subscribe()
	defer early.Unsubscribe()

	require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", false))
	got := nextState(t, early)
	assert.Equal(t, auth.StatusSignedIn, got.Status)
	assert.Equal(t, id, got.AccountID)

	late := session.Identity().Subscribe()
	defer late.Unsubscribe()
	assert.Equal(t, auth.StatusSignedIn, nextState(t, late).Status, "late subscriber sees current state")

	require.NoError(t, session.SignOut(ctx))
	assert.Equal(t, auth.StatusSignedOut, nextState(t, early).Status)
	assert.Equal(t, auth.StatusSignedOut, nextState(t, late).Status)
}

func TestSessionIdentityStreamKeepsEveryTransition(t *testing.T) {
	ctx := context.Background()
	_, session := newTestSession(t)
	_, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	sub := session.Identity().Subscribe()
	defer sub.Unsubscribe()

	require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", false))
	require.NoError(t, session.SignOut(ctx))

	assert.Equal(t, auth.StatusSignedIn, nextState(t, sub).Status)
	assert.Equal(t, auth.StatusSignedOut, nextState(t, sub).Status)
}

func TestSessionSignOut(t *testing.T) {
	ctx := context.Background()
	core, session := newTestSession(t)
	_, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	t.Run("idempotent before sign in", func(t *testing.T) {
		require.NoError(t, session.SignOut(ctx))
		require.NoError(t, session.SignOut(ctx))
		assert.Equal(t, auth.StatusSignedOut, session.State().Status)
	})

	require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", false))
	token, err := session.CurrentToken(ctx)
	require.NoError(t, err)

	require.NoError(t, session.SignOut(ctx))
	assert.Equal(t, auth.StatusSignedOut, session.State().Status)
	assert.Empty(t, session.State().AccountID)

	_, err = core.Issuer().Resolve(token)
	assertKind(t, err, auth.KindInvalidAccessToken)

	_, err = session.CurrentToken(ctx)
	assertFatal(t, err, auth.CodeNoActiveSession)
}

func TestSessionCurrentTokenRefreshesExpiredAccess(t *testing.T) {
	ctx := context.Background()
	core, clk := newTestCore(t, auth.WithAccessTokenTTL(time.Minute))
	session := core.Session()
	defer session.Close()

	_, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", false))

	first, err := session.CurrentToken(ctx)
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	second, err := session.CurrentToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	owner, err := core.Issuer().Resolve(second)
	require.NoError(t, err)
	assert.Equal(t, session.State().AccountID, owner)
}

func TestSessionRevokedByAdminDeletion(t *testing.T) {
	ctx := context.Background()
	core, session := newTestSession(t)
	id, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", true))

	require.NoError(t, core.Admin().DeleteUser(ctx, id))

	_, err = session.CurrentToken(ctx)
	assertFatal(t, err, auth.CodeSessionRevoked)
	assert.Equal(t, auth.StatusSignedOut, session.State().Status)

	err = session.Resume(ctx)
	assertFatal(t, err, auth.CodeNoActiveSession)
}

func TestSessionChangeEmail(t *testing.T) {
	ctx := context.Background()
	core, session := newTestSession(t)

	err := session.ChangeEmail(ctx, "b@x.com")
	assertFatal(t, err, auth.CodeNoActiveSession)

	id, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	_, err = session.SignUp(ctx, "taken@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", false))

	assertKind(t, session.ChangeEmail(ctx, "bad"), auth.KindInvalidEmail)
	assertKind(t, session.ChangeEmail(ctx, "taken@x.com"), auth.KindEmailNotAvailable)

	require.NoError(t, session.ChangeEmail(ctx, "b@x.com"))
	acct, ok := core.Directory().FindByEmail("b@x.com")
	require.True(t, ok)
	assert.Equal(t, id, acct.ID)
	assert.Equal(t, id, session.State().AccountID)
}

func TestSessionDeleteAccount(t *testing.T) {
	ctx := context.Background()
	core, session := newTestSession(t)

	assertFatal(t, session.DeleteAccount(ctx), auth.CodeNoActiveSession)

	id, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", true))
	token, err := session.CurrentToken(ctx)
	require.NoError(t, err)

	events := core.Lifecycle().Subscribe()
	defer events.Unsubscribe()

	require.NoError(t, session.DeleteAccount(ctx))
	assert.Equal(t, auth.StatusSignedOut, session.State().Status)

	ev := nextEvent(t, events)
	assert.Equal(t, auth.EventAccountDeleted, ev.Kind)
	assert.Equal(t, id, ev.AccountID)
	assertNoEvent(t, events)

	_, err = core.Issuer().Resolve(token)
	assertKind(t, err, auth.KindInvalidAccessToken)
	assertKind(t, session.SignIn(ctx, "a@x.com", "pw", false), auth.KindUserNotFound)
	assertFatal(t, session.Resume(ctx), auth.CodeNoActiveSession)
}

func TestSessionResume(t *testing.T) {
	ctx := context.Background()
	_, session := newTestSession(t)
	id, err := session.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	t.Run("non persistent sessions cannot resume", func(t *testing.T) {
		require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", false))
		require.NoError(t, session.SignOut(ctx))
		assertFatal(t, session.Resume(ctx), auth.CodeNoActiveSession)
	})

	t.Run("persistent session resumes after sign out", func(t *testing.T) {
		require.NoError(t, session.SignIn(ctx, "a@x.com", "pw", true))
		require.NoError(t, session.SignOut(ctx))

		require.NoError(t, session.Resume(ctx))
		state := session.State()
		assert.Equal(t, auth.StatusSignedIn, state.Status)
		assert.Equal(t, id, state.AccountID)

		token, err := session.CurrentToken(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})
}

func TestSessionResetDelegation(t *testing.T) {
	ctx := context.Background()
	_, session := newTestSession(t)
	_, err := session.SignUp(ctx, "a@x.com", "old")
	require.NoError(t, err)

	token, err := session.TriggerReset(ctx, "a@x.com")
	require.NoError(t, err)
	require.NoError(t, session.CompleteReset(ctx, token.Value, "new"))

	assertKind(t, session.SignIn(ctx, "a@x.com", "old", false), auth.KindWrongPassword)
	require.NoError(t, session.SignIn(ctx, "a@x.com", "new", false))
}

func TestSessionsShareCore(t *testing.T) {
	ctx := context.Background()
	core, first := newTestSession(t)
	second := core.Session()
	defer second.Close()

	id, err := first.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, second.SignIn(ctx, "a@x.com", "pw", false))
	assert.Equal(t, id, second.State().AccountID)
	assert.Equal(t, auth.StatusUnknown, first.State().Status)
}
