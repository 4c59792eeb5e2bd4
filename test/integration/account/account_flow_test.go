// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

//go:build integration

package account_test

import (
	"net/http"
	"net/url"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/wepieces/wepieces/internal/auth"
	"github.com/wepieces/wepieces/internal/store"
)

func credentials(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

var _ = Describe("Account flows", func() {
	var b *browser

	BeforeEach(func() {
		resetDatabase()
		b = newBrowser()
	})

	Describe("registration and login", func() {
		It("signs in a registered user with a token for that user", func() {
			email := gofakeit.Email()
			password := gofakeit.Password(true, true, true, false, false, 12)

			res := b.post("/register", credentials(email, password))
			Expect(res.status).To(Equal(http.StatusSeeOther))
			Expect(res.location).To(Equal("/"))

			user, err := env.users.FindByEmail(env.ctx, email)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Role).To(Equal(auth.RoleUser))

			other := newBrowser()
			res = other.post("/login", credentials(email, password))
			Expect(res.status).To(Equal(http.StatusSeeOther))

			claims, ok := env.codec.Verify(other.sessionToken())
			Expect(ok).To(BeTrue())
			Expect(claims.UserID).To(Equal(user.ID))

			me := other.get("/api/me")
			Expect(me.status).To(Equal(http.StatusOK))
			Expect(me.body["email"]).To(Equal(email))
			Expect(me.body).NotTo(HaveKey("passwordHash"))
		})

		It("rejects a second registration of the same email", func() {
			Expect(b.post("/register", credentials("a@x.com", "password1")).status).To(Equal(http.StatusSeeOther))

			res := newBrowser().post("/register", credentials("a@x.com", "password2"))
			Expect(res.status).To(Equal(http.StatusUnprocessableEntity))
			Expect(res.body["error"]).To(Equal(auth.MsgCreateUserFailed))
		})

		It("reports invalid credentials without revealing which factor failed", func() {
			Expect(b.post("/register", credentials("a@x.com", "password1")).status).To(Equal(http.StatusSeeOther))

			anon := newBrowser()
			wrong := anon.post("/login", credentials("a@x.com", "wrongpass"))
			unknown := anon.post("/login", credentials("nobody@x.com", "password1"))
			Expect(wrong.status).To(Equal(http.StatusUnprocessableEntity))
			Expect(wrong.body["error"]).To(Equal(auth.MsgInvalidCredentials))
			Expect(unknown.body).To(Equal(wrong.body))
			Expect(anon.sessionToken()).To(BeEmpty())
		})

		It("reports the first validation error", func() {
			res := b.post("/register", credentials("a@x.com", "short"))
			Expect(res.status).To(Equal(http.StatusUnprocessableEntity))
			Expect(res.body["error"]).To(Equal("String must contain at least 8 character(s)"))
		})
	})

	Describe("authenticated actions", func() {
		BeforeEach(func() {
			Expect(b.post("/register", credentials("a@x.com", "password1")).status).To(Equal(http.StatusSeeOther))
		})

		It("requires a session", func() {
			res := newBrowser().post("/account", url.Values{"name": {"Ada"}, "email": {"ada@x.com"}})
			Expect(res.status).To(Equal(http.StatusUnauthorized))
			Expect(res.body["error"]).To(Equal(auth.MsgNotAuthenticated))
		})

		It("changes the password only with the current one", func() {
			change := func(current, next, confirm string) response {
				return b.post("/account/password", url.Values{
					"currentPassword": {current},
					"newPassword":     {next},
					"confirmPassword": {confirm},
				})
			}

			Expect(change("password9", "password2", "password2").body["error"]).To(Equal(auth.MsgCurrentPasswordIncorrect))
			Expect(change("password1", "password2", "password3").body["error"]).To(Equal("Passwords don't match"))
			Expect(change("password1", "password1", "password1").body["error"]).To(Equal(auth.MsgPasswordUnchanged))

			res := change("password1", "password2", "password2")
			Expect(res.status).To(Equal(http.StatusOK))
			Expect(res.body["success"]).To(Equal(auth.MsgPasswordUpdated))

			anon := newBrowser()
			Expect(anon.post("/login", credentials("a@x.com", "password1")).status).To(Equal(http.StatusUnprocessableEntity))
			Expect(anon.post("/login", credentials("a@x.com", "password2")).status).To(Equal(http.StatusSeeOther))
		})

		It("updates the profile", func() {
			res := b.post("/account", url.Values{"name": {"Ada"}, "email": {"ada@x.com"}})
			Expect(res.status).To(Equal(http.StatusOK))
			Expect(res.body).To(HaveKeyWithValue("success", auth.MsgAccountUpdated))
			Expect(res.body).To(HaveKeyWithValue("name", "Ada"))

			me := b.get("/api/me")
			Expect(me.body["email"]).To(Equal("ada@x.com"))
			Expect(me.body["name"]).To(Equal("Ada"))
		})

		It("refreshes the session", func() {
			user, err := env.users.FindByEmail(env.ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())

			res := b.post("/session/refresh", url.Values{})
			Expect(res.status).To(Equal(http.StatusOK))
			Expect(res.body["success"]).To(Equal(auth.MsgSessionRefreshed))

			claims, ok := env.codec.Verify(b.sessionToken())
			Expect(ok).To(BeTrue())
			Expect(claims.UserID).To(Equal(user.ID))
			Expect(claims.Expires).To(BeTemporally(">", time.Now().Add(50*time.Minute)))
		})

		It("logs out", func() {
			res := b.post("/logout", url.Values{})
			Expect(res.status).To(Equal(http.StatusSeeOther))
			Expect(b.sessionToken()).To(BeEmpty())
			Expect(b.get("/api/me").status).To(Equal(http.StatusUnauthorized))
		})

		It("soft-deletes the account and frees the email", func() {
			user, err := env.users.FindByEmail(env.ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())
			token := b.sessionToken()

			Expect(b.post("/account/delete", url.Values{"password": {"wrongpass"}}).body["error"]).
				To(Equal(auth.MsgDeleteWrongPassword))

			res := b.post("/account/delete", url.Values{"password": {"password1"}})
			Expect(res.status).To(Equal(http.StatusSeeOther))
			Expect(res.location).To(Equal("/login"))
			Expect(b.sessionToken()).To(BeEmpty())

			_, err = env.users.FindActiveByID(env.ctx, user.ID)
			Expect(err).To(MatchError(auth.ErrNotFound))

			tomb, err := env.users.FindByEmail(env.ctx, auth.TombstoneEmail("a@x.com", user.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(tomb.IsDeleted()).To(BeTrue())

			replay := newBrowser()
			replay.client.Jar.SetCookies(mustURL(env.server.URL), []*http.Cookie{{Name: "session", Value: token}})
			Expect(replay.get("/api/me").status).To(Equal(http.StatusUnauthorized))

			Expect(newBrowser().post("/register", credentials("a@x.com", "password2")).status).
				To(Equal(http.StatusSeeOther))
		})
	})

	Describe("home", func() {
		It("lists notes by title with the current user", func() {
			notes := store.NewNoteRepository(env.pool)
			for _, title := range []string{"beta", "alpha"} {
				_, err := notes.Insert(env.ctx, title)
				Expect(err).NotTo(HaveOccurred())
			}

			home := b.home()
			Expect(home["user"]).To(BeNil())
			list, ok := home["notes"].([]any)
			Expect(ok).To(BeTrue())
			Expect(list).To(HaveLen(2))
			Expect(list[0]).To(HaveKeyWithValue("title", "alpha"))

			Expect(b.post("/register", credentials("a@x.com", "password1")).status).To(Equal(http.StatusSeeOther))
			Expect(b.home()["user"]).To(HaveKeyWithValue("email", "a@x.com"))
		})
	})
})

func mustURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	Expect(err).NotTo(HaveOccurred())
	return u
}
