package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/store"
)

// PendingHandler serves the page unapproved users wait on.
type PendingHandler struct {
	profiles *store.Profiles
}

func NewPendingHandler(profiles *store.Profiles) *PendingHandler {
	return &PendingHandler{profiles: profiles}
}

// Show forwards profiles that no longer need approval to their dashboard.
func (h *PendingHandler) Show(w http.ResponseWriter, r *http.Request) {
	prof, ok := currentProfile(r)
	if ok && (prof.Approved || prof.Role.IsStaff()) {
		http.Redirect(w, r, gate.DashboardPath(prof.Role), http.StatusSeeOther)
		return
	}
	data := map[string]any{"Title": "pending.title"}
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		row, err := h.profiles.ByUser(r.Context(), uid)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			slog.Error("load pending profile", "user_id", uid, "err", err)
		default:
			data["Profile"] = row
			data["Rejected"] = row.RejectedAt != nil
		}
	}
	render(w, r, "pending.html", data)
}
