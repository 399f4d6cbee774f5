package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"stylens-server/internal/domain"
	"stylens-server/internal/sqlinline"
	"stylens-server/internal/storage"
)

type profileResponse struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Username           string `json:"username"`
	Credits            int    `json:"credits"`
	AvatarURL          string `json:"avatarUrl"`
	StripeCustomerID   string `json:"stripeCustomerId"`
	SubscriptionStatus string `json:"subscriptionStatus"`
	CreatedAt          string `json:"createdAt"`
}

// Me returns the caller's profile.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var p domain.Profile
	var status string
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectProfileByID, userID)
	if err := row.Scan(&p.ID, &p.Email, &p.Username, &p.Credits, &p.AvatarURL,
		&p.StripeCustomerID, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			a.error(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("profile load failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load profile")
		return
	}

	a.json(w, http.StatusOK, profileResponse{
		ID:                 p.ID,
		Email:              p.Email,
		Username:           p.Username,
		Credits:            p.Credits,
		AvatarURL:          p.AvatarURL,
		StripeCustomerID:   p.StripeCustomerID,
		SubscriptionStatus: status,
		CreatedAt:          p.CreatedAt.UTC().Format(time.RFC3339),
	})
}

type profileSyncRequest struct {
	Username string `json:"username"`
}

// SyncProfile upserts the profile row for the authenticated identity. Called
// by the frontend after sign-in so first-time users get a row before any
// credit operation needs one.
func (a *App) SyncProfile(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	email := a.currentUserEmail(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req profileSyncRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if _, err := a.SQL.Exec(r.Context(), sqlinline.QUpsertProfile, userID, req.Username, email); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("profile upsert failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sync profile")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteAccount removes the profile row and every stored object belonging to
// the caller. Generations rows go with the profile via the cascading FK.
func (a *App) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	email := a.currentUserEmail(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	for _, prefix := range []string{storage.AvatarPrefix(email), storage.GenerationPrefix(email)} {
		if _, err := a.Store.DeletePrefix(r.Context(), prefix); err != nil {
			a.Logger.Error().Err(err).Str("user_id", userID).Str("prefix", prefix).
				Msg("account storage purge failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to delete stored images")
			return
		}
	}

	if _, err := a.SQL.Exec(r.Context(), sqlinline.QDeleteProfile, userID); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("profile delete failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete profile")
		return
	}

	a.Logger.Info().Str("user_id", userID).Msg("account deleted")
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}
