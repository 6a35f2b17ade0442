package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/httpx"
	"github.com/diewo77/go-school/internal/middleware"
	"github.com/diewo77/go-school/internal/models"
	"github.com/diewo77/go-school/internal/store"
	"github.com/diewo77/go-school/view"
)

const approvalsPath = "/admin/approvals"

// Refresher re-reads a user's profile after it changed. auth.Provider
// implements it.
type Refresher interface {
	Refresh(userID uint)
}

// ApprovalHandler runs the approval queue of new accounts.
type ApprovalHandler struct {
	profiles *store.Profiles
	sessions Refresher
}

func NewApprovalHandler(profiles *store.Profiles, sessions Refresher) *ApprovalHandler {
	return &ApprovalHandler{profiles: profiles, sessions: sessions}
}

// mayDecide reports whether decider may approve or reject target. Only
// super admins decide on staff profiles.
func mayDecide(decider gate.Profile, target *models.Profile) bool {
	if gate.ParseRole(target.Role).IsStaff() {
		return decider.Role == gate.RoleSuperAdmin
	}
	return decider.Role.IsStaff()
}

func (h *ApprovalHandler) List(w http.ResponseWriter, r *http.Request) {
	pending, err := h.profiles.Pending(r.Context())
	if err != nil {
		slog.Error("list pending profiles", "err", err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
			return
		}
		view.Error(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": pending})
		return
	}
	render(w, r, "admin/approvals.html", map[string]any{
		"Title":   "approvals.title",
		"Pending": pending,
	})
}

func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *ApprovalHandler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	decider, _ := currentProfile(r)
	id, ok := pathID(r)
	if !ok {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return
	}
	target, err := h.profiles.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		slog.Error("load profile", "id", id, "err", err)
		h.fail(w, r, http.StatusInternalServerError, "internal")
		return
	}
	if !mayDecide(decider, target) {
		slog.Info("approval refused", "by", decider.UserID, "profile", id, "role", target.Role)
		h.fail(w, r, http.StatusForbidden, "forbidden")
		return
	}

	if approve {
		target, err = h.profiles.Approve(r.Context(), id, decider.UserID)
	} else {
		target, err = h.profiles.Reject(r.Context(), id)
	}
	if err != nil {
		slog.Error("decide profile", "id", id, "approve", approve, "err", err)
		h.fail(w, r, http.StatusInternalServerError, "internal")
		return
	}
	h.sessions.Refresh(target.UserID)
	slog.Info("profile decided", "by", decider.UserID, "profile", id, "approved", approve)

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, target)
		return
	}
	middleware.Flash(w, r, "approvals.done")
	http.Redirect(w, r, approvalsPath, http.StatusSeeOther)
}

func (h *ApprovalHandler) fail(w http.ResponseWriter, r *http.Request, status int, code string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, code, nil)
		return
	}
	view.Error(w, r, status, "error."+code)
}
