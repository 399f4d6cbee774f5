package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"
)

// AdminCookieName gates the curated-feed management surface. A single shared
// password, not per-user auth.
const AdminCookieName = "stylens_admin_access"

const adminCookieTTL = 7 * 24 * time.Hour

// AdminPasswordMatches compares the submitted password in constant time.
func AdminPasswordMatches(configured, submitted string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(submitted)) == 1
}

// SetAdminCookie marks the browser session as admin-gated.
func SetAdminCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminCookieName,
		Value:    "true",
		Path:     "/",
		MaxAge:   int(adminCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// HasAdminCookie reports whether the request carries the admin gate cookie.
func HasAdminCookie(r *http.Request) bool {
	c, err := r.Cookie(AdminCookieName)
	return err == nil && c.Value == "true"
}

// AdminGate rejects requests without the admin cookie.
func AdminGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !HasAdminCookie(r) {
			http.Error(w, "admin access required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
