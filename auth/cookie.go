package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const sessionCookieName = "session"

const devSecret = "devsessionsecret"

// Cookies signs and reads the session cookie. The cookie carries the session
// token followed by an HMAC-SHA256 signature of it.
type Cookies struct {
	Secret []byte
	Secure bool
}

// NewCookies returns a cookie codec. An empty secret falls back to the dev value.
func NewCookies(secret string, secure bool) Cookies {
	if secret == "" {
		secret = devSecret
	}
	return Cookies{Secret: []byte(secret), Secure: secure}
}

func (c Cookies) sign(token string) string {
	mac := hmac.New(sha256.New, c.Secret)
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Set writes the signed session cookie.
func (c Cookies) Set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token + "." + c.sign(token),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

// Clear deletes the session cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, Secure: c.Secure, SameSite: http.SameSiteLaxMode})
}

// Parse validates the cookie and returns the session token.
func (c Cookies) Parse(r *http.Request) (string, bool) {
	ck, err := r.Cookie(sessionCookieName)
	if err != nil || ck.Value == "" {
		return "", false
	}
	token, sig, ok := strings.Cut(ck.Value, ".")
	if !ok || token == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(token))) {
		return "", false
	}
	return token, true
}
