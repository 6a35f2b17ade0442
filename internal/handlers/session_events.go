package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/httpx"
)

const sessionKeepaliveInterval = 15 * time.Second

// sessionState is the payload of a "session" event.
type sessionState struct {
	Loading       bool   `json:"loading"`
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	Approved      bool   `json:"approved"`
}

func stateOf(snap gate.Snapshot) sessionState {
	s := sessionState{Loading: snap.Loading, Authenticated: snap.Authenticated()}
	if p := snap.Profile; p != nil {
		s.Role = string(p.Role)
		s.Approved = p.Approved
	}
	return s
}

// SessionEvents streams the session state as server-sent events: once on
// connect, then after every change of the session's profile.
func SessionEvents(w http.ResponseWriter, r *http.Request) {
	src := auth.SourceFromContext(r.Context())
	if src == nil {
		httpx.JSONError(w, http.StatusUnauthorized, string(gate.ReasonUnauthenticated), nil)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	changed := make(chan struct{}, 1)
	cancel := src.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeSessionEvent(w, src); err != nil {
		return
	}
	flusher.Flush()

	ctx := r.Context()
	keepalive := time.NewTicker(sessionKeepaliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			if err := writeSessionEvent(w, src); err != nil {
				slog.Debug("session events closed", "err", err)
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSessionEvent(w http.ResponseWriter, src gate.Source) error {
	payload, err := json.Marshal(stateOf(gate.Take(src)))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event:session\ndata:%s\n\n", payload)
	return err
}
