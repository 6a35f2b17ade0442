package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/httpx"
	"github.com/diewo77/go-school/i18n"
	"github.com/diewo77/go-school/internal/middleware"
	"github.com/diewo77/go-school/internal/store"
	"github.com/diewo77/go-school/validation"
)

// AuthHandler serves login, signup and logout.
type AuthHandler struct {
	users    *store.Users
	sessions *auth.Provider
	cookies  auth.Cookies
	validate *validation.Validator
}

func NewAuthHandler(users *store.Users, sessions *auth.Provider, cookies auth.Cookies, v *validation.Validator) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, cookies: cookies, validate: v}
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type signupForm struct {
	FullName string `form:"full_name" validate:"required,max=255"`
	Email    string `form:"email" validate:"required,email,max=255"`
	Password string `form:"password" validate:"required,password"`
	Role     string `form:"role" validate:"required,oneof=teacher student parent"`
}

// signupRoles are the roles a visitor may ask for. Staff accounts are
// created by operators.
var signupRoles = []gate.Role{gate.RoleTeacher, gate.RoleStudent, gate.RoleParent}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, "login.html", map[string]any{
		"Title": "login.title",
		"Next":  httpx.SafeNext(r.URL.Query().Get(gate.NextParam), ""),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	next := httpx.SafeNext(r.PostFormValue(gate.NextParam), "")
	lang := middleware.LangFrom(r)

	data := map[string]any{"Title": "login.title", "Email": form.Email, "Next": next}
	if v := h.validate.Struct(lang, form); v != nil {
		data["Errors"] = v
		renderStatus(w, r, http.StatusUnprocessableEntity, "login.html", data)
		return
	}

	user, err := h.users.Authenticate(r.Context(), form.Email, form.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		data["Error"] = i18n.T(lang, "login.failed")
		renderStatus(w, r, http.StatusUnauthorized, "login.html", data)
		return
	}
	if err != nil {
		slog.Error("authenticate", "err", err)
		data["Error"] = i18n.T(lang, "error.internal")
		renderStatus(w, r, http.StatusInternalServerError, "login.html", data)
		return
	}

	if !h.signIn(w, r, user.ID) {
		return
	}
	dest := gate.DefaultDashboard
	if user.Profile != nil {
		dest = gate.DashboardPath(gate.ParseRole(user.Profile.Role))
	}
	http.Redirect(w, r, httpx.SafeNext(next, dest), http.StatusSeeOther)
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, "signup.html", map[string]any{
		"Title": "signup.title",
		"Roles": signupRoles,
	})
}

// Signup creates an unapproved account and signs it in. The new user waits
// on the pending page until staff approve the profile.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := signupForm{
		FullName: strings.TrimSpace(r.PostFormValue("full_name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Role:     r.PostFormValue("role"),
	}
	lang := middleware.LangFrom(r)
	data := map[string]any{
		"Title":    "signup.title",
		"Roles":    signupRoles,
		"FullName": form.FullName,
		"Email":    form.Email,
		"Role":     form.Role,
	}
	if v := h.validate.Struct(lang, form); v != nil {
		data["Errors"] = v
		renderStatus(w, r, http.StatusUnprocessableEntity, "signup.html", data)
		return
	}

	user, err := h.users.Create(r.Context(), store.NewAccount{
		Email:    form.Email,
		Password: form.Password,
		FullName: form.FullName,
		Role:     gate.ParseRole(form.Role),
	})
	if errors.Is(err, store.ErrConflict) {
		data["Errors"] = validation.Violations{"email": i18n.T(lang, "signup.taken")}
		renderStatus(w, r, http.StatusConflict, "signup.html", data)
		return
	}
	if err != nil {
		slog.Error("create account", "err", err)
		data["Error"] = i18n.T(lang, "error.internal")
		renderStatus(w, r, http.StatusInternalServerError, "signup.html", data)
		return
	}
	slog.Info("account created", "user_id", user.ID, "role", form.Role)

	if !h.signIn(w, r, user.ID) {
		return
	}
	middleware.Flash(w, r, "signup.pending")
	http.Redirect(w, r, gate.PendingApprovalPath, http.StatusSeeOther)
}

// Logout ends the current session, or every session of the user when the
// form carries everywhere=1.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	uid, signedIn := auth.UserIDFromContext(r.Context())
	if signedIn && r.PostFormValue("everywhere") == "1" {
		if err := h.sessions.SignOutUser(r.Context(), uid); err != nil {
			slog.Warn("sign out everywhere", "user_id", uid, "err", err)
		}
	} else if token, ok := auth.TokenFromContext(r.Context()); ok {
		if err := h.sessions.SignOut(r.Context(), token); err != nil {
			slog.Warn("sign out", "err", err)
		}
	}
	h.cookies.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, userID uint) bool {
	token, expires, err := h.sessions.SignIn(r.Context(), userID, clientMeta(r))
	if err != nil {
		slog.Error("sign in", "user_id", userID, "err", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return false
	}
	h.cookies.Set(w, token, expires)
	return true
}
