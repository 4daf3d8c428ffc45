// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/fauxid/fauxid/internal/auth"
	"github.com/fauxid/fauxid/internal/broadcast"
	"github.com/fauxid/fauxid/internal/clock"
)

func haveKind(kind auth.Kind) func(error) bool {
	return func(err error) bool { return auth.IsKind(err, kind) }
}

var _ = Describe("Identity engine", func() {
	var (
		ctx     context.Context
		clk     *clock.Manual
		core    *auth.Core
		session *auth.SessionFacade
		admin   *auth.AdminFacade
	)

	BeforeEach(func() {
		ctx = context.Background()
		clk = clock.NewManual(epoch)
		core = auth.NewCore(
			auth.WithClock(clk),
			auth.WithLogger(discardLogger()),
			auth.WithResetDelivery(auth.ResetDeliveryFunc(nopDelivery)),
		)
		session = core.Session()
		admin = core.Admin()
		DeferCleanup(func() {
			session.Close()
			core.Close()
		})
	})

	Describe("email uniqueness", func() {
		It("keeps an email unavailable until the account leaves it", func() {
			for i := range 5 {
				email := fmt.Sprintf("user%d@x.com", i)
				id, err := admin.SignUp(ctx, email, "pw")
				Expect(err).NotTo(HaveOccurred())
				Expect(session.IsEmailAvailable(ctx, email)).To(BeFalse())

				if i%2 == 0 {
					Expect(admin.ChangeEmail(ctx, id, "moved"+email)).To(Succeed())
				} else {
					Expect(admin.DeleteUser(ctx, id)).To(Succeed())
				}
				Expect(session.IsEmailAvailable(ctx, email)).To(BeTrue())
			}
		})
	})

	Describe("sign in", func() {
		It("signs in as the account created by sign up", func() {
			for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
				id, err := session.SignUp(ctx, email, "secret-"+email)
				Expect(err).NotTo(HaveOccurred())

				Expect(session.SignIn(ctx, email, "secret-"+email, false)).To(Succeed())
				Expect(session.State()).To(Equal(auth.SessionState{
					Status:    auth.StatusSignedIn,
					AccountID: id,
				}))
			}
		})

		It("round trips through sign out", func() {
			_, err := session.SignUp(ctx, "a@x.com", "pw")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.SignIn(ctx, "a@x.com", "pw", false)).To(Succeed())

			token, err := session.CurrentToken(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())

			Expect(session.SignOut(ctx)).To(Succeed())
			_, err = session.CurrentToken(ctx)
			Expect(err).To(HaveOccurred())
			Expect(auth.IsFatal(err)).To(BeTrue())
		})
	})

	Describe("password reset", func() {
		BeforeEach(func() {
			_, err := admin.SignUp(ctx, "a@x.com", "pw")
			Expect(err).NotTo(HaveOccurred())
		})

		It("rate limits within the cooldown and recovers after it", func() {
			_, err := session.TriggerReset(ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())

			clk.Advance(auth.DefaultResetCooldown - time.Second)
			_, err = session.TriggerReset(ctx, "a@x.com")
			Expect(err).To(Satisfy(haveKind(auth.KindRateLimitExceeded)))

			clk.Advance(time.Second)
			_, err = session.TriggerReset(ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())
		})

		It("consumes a token only once", func() {
			token, err := session.TriggerReset(ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())

			Expect(session.CompleteReset(ctx, token.Value, "pw2")).To(Succeed())
			Expect(session.CompleteReset(ctx, token.Value, "pw3")).To(Satisfy(haveKind(auth.KindTokenNotFound)))
		})

		It("reports expiry once, then not found", func() {
			token, err := session.TriggerReset(ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())

			clk.Set(token.ExpiresAt.Add(time.Nanosecond))
			Expect(session.CompleteReset(ctx, token.Value, "pw2")).To(Satisfy(haveKind(auth.KindTokenExpired)))
			Expect(session.CompleteReset(ctx, token.Value, "pw2")).To(Satisfy(haveKind(auth.KindTokenNotFound)))
		})
	})

	Describe("account deletion", func() {
		var events *broadcast.Subscription[auth.LifecycleEvent]

		BeforeEach(func() {
			events = core.Lifecycle().Subscribe()
			DeferCleanup(events.Unsubscribe)
		})

		It("forgets the account and announces it once", func() {
			id, err := session.SignUp(ctx, "a@x.com", "pw")
			Expect(err).NotTo(HaveOccurred())
			Eventually(events.C()).Should(Receive(HaveField("Kind", auth.EventAccountCreated)))

			Expect(session.SignIn(ctx, "a@x.com", "pw", false)).To(Succeed())
			Expect(session.DeleteAccount(ctx)).To(Succeed())

			var ev auth.LifecycleEvent
			Eventually(events.C()).Should(Receive(&ev))
			Expect(ev.Kind).To(Equal(auth.EventAccountDeleted))
			Expect(ev.AccountID).To(Equal(id))
			Consistently(events.C(), 50*time.Millisecond).ShouldNot(Receive())

			err = session.SignIn(ctx, "a@x.com", "pw", false)
			Expect(err).To(Satisfy(haveKind(auth.KindUserNotFound)))
		})
	})

	Describe("concrete scenario", func() {
		It("follows the account through an email change", func() {
			_, err := session.SignUp(ctx, "a@x.com", "pw1")
			Expect(err).NotTo(HaveOccurred())

			Expect(session.SignIn(ctx, "a@x.com", "pw1", false)).To(Succeed())
			Expect(session.ChangeEmail(ctx, "b@x.com")).To(Succeed())
			Expect(session.SignOut(ctx)).To(Succeed())

			Expect(session.SignIn(ctx, "b@x.com", "pw1", false)).To(Succeed())
			Expect(session.SignIn(ctx, "a@x.com", "pw1", false)).To(Satisfy(haveKind(auth.KindUserNotFound)))
		})
	})
})
