package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-school/gate"
)

type ctxKey string

const (
	sourceCtxKey = ctxKey("source")
	tokenCtxKey  = ctxKey("token")
)

// WithSource stores the session source in context.
func WithSource(ctx context.Context, src gate.Source) context.Context {
	return context.WithValue(ctx, sourceCtxKey, src)
}

// SourceFromContext returns the request's session source, or nil for
// anonymous requests. A nil source reads as unauthenticated in gate.Take.
func SourceFromContext(ctx context.Context) gate.Source {
	src, _ := ctx.Value(sourceCtxKey).(gate.Source)
	return src
}

// WithToken stores the raw session token in context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey, token)
}

// TokenFromContext extracts the raw session token.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenCtxKey).(string)
	return tok, ok && tok != ""
}

// UserIDFromContext extracts the signed-in user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	src := SourceFromContext(ctx)
	if src == nil {
		return 0, false
	}
	sess, ok := src.Session()
	return sess.UserID, ok
}

// ProfileFromContext returns the settled profile of the signed-in user.
func ProfileFromContext(ctx context.Context) (*gate.Profile, bool) {
	snap := gate.Take(SourceFromContext(ctx))
	if !snap.Authenticated() || snap.Profile == nil {
		return nil, false
	}
	return snap.Profile, true
}

// Middleware attaches the session source to the request context when the
// cookie names a live session. Stale cookies are cleared.
func Middleware(p *Provider, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := cookies.Parse(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			src, err := p.Lookup(r.Context(), token)
			switch {
			case errors.Is(err, ErrNoSession):
				cookies.Clear(w)
			case err != nil:
				slog.Warn("session lookup failed", "path", r.URL.Path, "err", err)
			default:
				ctx := WithToken(WithSource(r.Context(), src), token)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}
