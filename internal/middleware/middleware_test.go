package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrefs(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		cookies   []*http.Cookie
		accept    string
		wantLang  string
		wantTheme string
		setCookie bool
	}{
		{"defaults", "/", nil, "", "fr", "system", false},
		{"header", "/", nil, "en-GB,en;q=0.9", "en", "system", false},
		{"cookie beats header", "/", []*http.Cookie{{Name: "lang", Value: "fr"}}, "en", "fr", "system", false},
		{"query persists", "/?lang=en&theme=dark", nil, "", "en", "dark", true},
		{"invalid values ignored", "/?lang=xx&theme=neon", []*http.Cookie{{Name: "theme", Value: "pink"}}, "", "fr", "system", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lang, theme string
			h := Prefs(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				lang, theme = LangFrom(r), ThemeFrom(r)
			}))
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			for _, c := range tt.cookies {
				req.AddCookie(c)
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if lang != tt.wantLang || theme != tt.wantTheme {
				t.Errorf("got lang=%q theme=%q, want %q %q", lang, theme, tt.wantLang, tt.wantTheme)
			}
			if got := len(rec.Result().Cookies()) > 0; got != tt.setCookie {
				t.Errorf("cookies set = %v, want %v", got, tt.setCookie)
			}
		})
	}
}

func TestFlash(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	Flash(rec, req, "approvals.done")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	out := httptest.NewRecorder()
	if msg := TakeFlash(out, next); msg != "Décision enregistrée" {
		t.Errorf("flash = %q", msg)
	}
	if cks := out.Result().Cookies(); len(cks) != 1 || cks[0].MaxAge >= 0 {
		t.Errorf("flash should be cleared, got %+v", cks)
	}
}

func TestLogging_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	var seen string
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if seen == "" || rec.Header().Get(requestIDHeader) != seen {
		t.Fatalf("request id %q not propagated (header %q)", seen, rec.Header().Get(requestIDHeader))
	}
	if !strings.Contains(buf.String(), "status=418") || !strings.Contains(buf.String(), "path=/x") {
		t.Errorf("log line = %q", buf.String())
	}
}

func TestRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/students", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "internal_error") {
		t.Errorf("api panic: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("html panic: %d", rec.Code)
	}
}
