package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/go-school/auth"
)

func TestCookies_RoundTrip(t *testing.T) {
	c := auth.NewCookies("secret", false)
	rec := httptest.NewRecorder()
	c.Set(rec, "tok123", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
	tok, ok := c.Parse(req)
	if !ok || tok != "tok123" {
		t.Fatalf("Parse = %q, %v", tok, ok)
	}
}

func TestCookies_RejectsTamperedValue(t *testing.T) {
	signer := auth.NewCookies("secret", false)
	rec := httptest.NewRecorder()
	signer.Set(rec, "tok123", time.Now().Add(time.Hour))
	ck := rec.Result().Cookies()[0]

	tests := map[string]string{
		"other secret":  ck.Value,
		"no signature":  "tok123",
		"swapped token": "tok999." + ck.Value[len("tok123."):],
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			c := signer
			if name == "other secret" {
				c = auth.NewCookies("another", false)
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: value})
			if _, ok := c.Parse(req); ok {
				t.Error("expected tampered cookie to be rejected")
			}
		})
	}
}

func TestCookies_Clear(t *testing.T) {
	rec := httptest.NewRecorder()
	auth.NewCookies("", false).Clear(rec)
	cks := rec.Result().Cookies()
	if len(cks) != 1 || cks[0].Value != "" || cks[0].MaxAge >= 0 {
		t.Fatalf("unexpected clear cookie: %+v", cks)
	}
}

func TestHashToken(t *testing.T) {
	if auth.HashToken("a") == auth.HashToken("b") {
		t.Error("distinct tokens should hash differently")
	}
	if auth.HashToken("a") != auth.HashToken("a") {
		t.Error("hash should be stable")
	}
	tok, err := auth.NewToken()
	if err != nil || len(tok) != 32 {
		t.Fatalf("NewToken = %q, %v", tok, err)
	}
}
