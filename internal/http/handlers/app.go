package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v79"

	"stylens-server/internal/billing"
	"stylens-server/internal/credits"
	"stylens-server/internal/generation"
	"stylens-server/internal/infra"
	"stylens-server/internal/middleware"
	"stylens-server/internal/storage"
)

// EventVerifier checks Stripe webhook signatures before any event is acted
// on. Satisfied by *billing.Client.
type EventVerifier interface {
	VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

// App holds every dependency the HTTP handlers use. All fields are injected
// at startup; handlers never reach for globals.
type App struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	SQL       infra.SQLExecutor
	Store     storage.ObjectStore
	Generator generation.Generator
	Ledger    *credits.Ledger
	Checkout  billing.CheckoutCreator
	Verifier  EventVerifier
	Webhooks  *billing.Processor
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) currentUserEmail(r *http.Request) string {
	return middleware.UserEmailFromContext(r.Context())
}
