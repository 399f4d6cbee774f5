package handlers

import (
	"encoding/json"
	"net/http"

	"stylens-server/internal/middleware"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

// AdminLogin exchanges the shared admin password for the gate cookie.
func (a *App) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if !middleware.AdminPasswordMatches(a.Config.AdminPassword, req.Password) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid password")
		return
	}
	middleware.SetAdminCookie(w, a.Config.AppEnv == "production")
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}

// AdminSession reports whether the request is admin-gated, letting the
// frontend decide which surface to render without a failed mutation first.
func (a *App) AdminSession(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]bool{"admin": middleware.HasAdminCookie(r)})
}
