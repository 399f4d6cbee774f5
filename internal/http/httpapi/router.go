package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"stylens-server/internal/http/handlers"
	"stylens-server/internal/infra"
	"stylens-server/internal/infra/geoip"
	"stylens-server/internal/middleware"
)

// NewRouter wires every route. Auth middleware only attaches identity; each
// handler enforces its own requirement so public routes stay cheap.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger, countries geoip.CountryResolver) http.Handler {
	r := chi.NewRouter()

	var lookup middleware.CountryLookup
	if countries != nil {
		lookup = countries.CountryCode
	}

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(logger, lookup),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		middleware.Auth(cfg.SupabaseJWTSecret),
	)

	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/me", app.Me)
		r.Post("/profile/sync", app.SyncProfile)
		r.Delete("/account", app.DeleteAccount)

		r.Post("/generate", app.Generate)
		r.Post("/avatars", app.UploadAvatars)

		r.Get("/generations", app.ListGenerations)
		r.Post("/archive/sync", app.SyncArchive)

		r.Get("/styles", app.ListStyles)
		r.Get("/download", app.Download)

		r.Post("/stripe/checkout", app.CreateCheckout)
		r.Post("/webhooks/stripe", app.StripeWebhook)

		r.Post("/admin/login", app.AdminLogin)
		r.Get("/admin/session", app.AdminSession)
		r.Route("/admin/styles", func(r chi.Router) {
			r.Use(middleware.AdminGate)
			r.Post("/", app.CreateStyle)
			r.Put("/{id}", app.UpdateStyle)
			r.Delete("/{id}", app.DeleteStyle)
			r.Post("/upload", app.UploadStyleImage)
		})
	})

	return r
}
