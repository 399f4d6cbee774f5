package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"stylens-server/internal/domain"
	"stylens-server/internal/generation"
	"stylens-server/internal/sqlinline"
	"stylens-server/internal/storage"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
	Title  string `json:"title"`
}

type generateResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

// Generate runs the full portrait workflow: debit credits, resolve the
// caller's reference photos from storage, call the model, persist the result.
// Every failure after the debit refunds it before responding.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	email := a.currentUserEmail(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt required")
		return
	}
	if req.Title == "" {
		req.Title = "Portrait"
	}

	cost := a.Config.CreditCost
	if _, err := a.Ledger.TryDebit(r.Context(), userID, cost); err != nil {
		switch {
		case errors.Is(err, domain.ErrProfileNotFound):
			a.error(w, http.StatusNotFound, "not_found", "profile not found")
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.error(w, http.StatusForbidden, "insufficient_credits", "not enough credits")
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("credit debit failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to debit credits")
		}
		return
	}

	// Reference photos live under the caller's avatar folder; whatever is
	// there right now is what the model sees.
	keys, err := a.Store.List(r.Context(), storage.AvatarPrefix(email))
	if err != nil {
		a.Ledger.Refund(r.Context(), userID, cost)
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("reference listing failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load reference images")
		return
	}
	if len(keys) == 0 {
		a.Ledger.Refund(r.Context(), userID, cost)
		a.error(w, http.StatusBadRequest, "no_reference_images", "upload reference photos first")
		return
	}
	imageURLs := make([]string, 0, len(keys))
	for _, key := range keys {
		imageURLs = append(imageURLs, a.Store.PublicURL(key))
	}

	prompt := generation.BuildPrompt(req.Prompt)
	data, err := a.Generator.Generate(r.Context(), prompt, imageURLs)
	if err != nil {
		a.Ledger.Refund(r.Context(), userID, cost)
		if errors.Is(err, domain.ErrNoImageGenerated) {
			a.error(w, http.StatusInternalServerError, "no_image", "model returned no image")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("generation failed")
		a.error(w, http.StatusInternalServerError, "generation_failed", "image generation failed")
		return
	}

	key := storage.GenerationKey(email, req.Title, time.Now())
	if err := a.Store.Put(r.Context(), key, data, "image/png"); err != nil {
		a.Ledger.Refund(r.Context(), userID, cost)
		a.Logger.Error().Err(err).Str("user_id", userID).Str("key", key).Msg("generation upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store image")
		return
	}

	imageURL := a.Store.PublicURL(key)

	// Metadata row is best-effort: the image is already stored and paid for,
	// and the archive sync endpoint reconciles missing rows later.
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertGeneration,
		userID, imageURL, req.Prompt, req.Title, a.Generator.Model()); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Str("image_url", imageURL).
			Msg("generation row insert failed")
	}

	// Keep the stored email in step with the token; tokens issued after an
	// email change would otherwise orphan the storage folders.
	if email != "" {
		if _, err := a.SQL.Exec(r.Context(), sqlinline.QSyncProfileEmail, userID, email); err != nil {
			a.Logger.Warn().Err(err).Str("user_id", userID).Msg("profile email sync failed")
		}
	}

	a.json(w, http.StatusOK, generateResponse{Success: true, ImageURL: imageURL})
}
