package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5"

	"stylens-server/internal/billing"
	"stylens-server/internal/sqlinline"
)

const maxWebhookBodyBytes = 1 << 20

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

// CreateCheckout opens a Stripe checkout session for one of the subscription
// plans and returns the hosted payment URL.
func (a *App) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PriceID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "priceId required")
		return
	}

	var customerID, email string
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectStripeCustomer, userID)
	if err := row.Scan(&customerID, &email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			a.error(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("customer lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load profile")
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = a.Config.SiteURL
	}

	url, err := a.Checkout.CreateCheckoutSession(r.Context(), billing.CheckoutParams{
		UserID:     userID,
		Email:      email,
		CustomerID: customerID,
		PriceID:    req.PriceID,
		Origin:     origin,
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Str("price_id", req.PriceID).
			Msg("checkout session creation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create checkout session")
		return
	}

	a.json(w, http.StatusOK, map[string]string{"url": url})
}

// StripeWebhook verifies and applies billing events. Signature failures are
// rejected with 400 so Stripe retries nothing it shouldn't; handler errors
// return 500 so legitimate events are retried.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read payload")
		return
	}

	event, err := a.Verifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		a.Logger.Warn().Err(err).Msg("webhook signature verification failed")
		a.error(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		return
	}

	if err := a.Webhooks.HandleEvent(r.Context(), event); err != nil {
		a.Logger.Error().Err(err).Str("type", string(event.Type)).Msg("webhook handling failed")
		a.error(w, http.StatusInternalServerError, "internal", "event handling failed")
		return
	}

	a.json(w, http.StatusOK, map[string]bool{"received": true})
}
