// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package web

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wepieces/wepieces/internal/auth"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// SessionCookie binds session tokens to the client. It is the only code that
// reads or writes the session cookie header.
type SessionCookie struct {
	// Secure marks the cookie HTTPS-only. Set in production.
	Secure bool
}

// Write stores the session token; the cookie expires with the token.
func (b SessionCookie) Write(c echo.Context, session auth.Session) {
	c.SetCookie(b.cookie(session.Token, session.Expires))
}

// Clear deletes the cookie regardless of whether the current token is valid.
func (b SessionCookie) Clear(c echo.Context) {
	ck := b.cookie("", time.Unix(0, 0))
	ck.MaxAge = -1
	c.SetCookie(ck)
}

// Token returns the presented session token, or "" when there is none.
func (b SessionCookie) Token(c echo.Context) string {
	ck, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (b SessionCookie) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   b.Secure,
	}
}
