// Package session carries the admin session token between the browser and
// the server: the http-only cookie that holds it and the optional
// revocation list consulted when it is presented.
package session

import (
	"net/http"
	"time"
)

// CookieName is the name of the admin session cookie.
const CookieName = "admin_session"

// Cookie describes how the session cookie is written.
type Cookie struct {
	Name   string
	Domain string
	Secure bool // set in production so the cookie only travels over HTTPS
	TTL    time.Duration
}

// NewCookie returns a Cookie with the default name.
func NewCookie(ttl time.Duration, secure bool) Cookie {
	return Cookie{Name: CookieName, Secure: secure, TTL: ttl}
}

func (c Cookie) name() string {
	if c.Name == "" {
		return CookieName
	}
	return c.Name
}

// Set writes the signed token as an http-only, SameSite=Lax cookie scoped
// to the whole site.
func (c Cookie) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(c.TTL.Seconds()),
		Expires:  time.Now().Add(c.TTL),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie in the browser.
func (c Cookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1, // serialized as Max-Age=0
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the raw token from the request, if present and non-empty.
func (c Cookie) Read(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.name())
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
