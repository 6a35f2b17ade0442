// Package handlers serves the portal pages and the table API.
package handlers

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/middleware"
	"github.com/diewo77/go-school/view"
)

// Authorizer answers permission questions for the signed-in profile.
// policy.Guard implements it.
type Authorizer interface {
	Can(ctx context.Context, action gate.Action, resource string, row any) bool
	OwnerFilter(ctx context.Context, resource string) uint
}

func render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	renderStatus(w, r, http.StatusOK, name, data)
}

func renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = middleware.TakeFlash(w, r)
	}
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		slog.Error("render page", "page", name, "err", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// clientMeta describes the client for the session record. The first
// X-Forwarded-For hop wins over the socket address.
func clientMeta(r *http.Request) auth.Meta {
	ip := ""
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}
	return auth.Meta{UserAgent: r.UserAgent(), IP: ip}
}

// currentProfile returns the settled profile of the request. Routes behind
// an Access gate always have one.
func currentProfile(r *http.Request) (gate.Profile, bool) {
	p, ok := auth.ProfileFromContext(r.Context())
	if !ok {
		return gate.Profile{}, false
	}
	return *p, true
}
