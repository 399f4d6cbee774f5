package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	DatabaseURL       string
	AllowedOrigins    []string
	GeoIPDBPath       string
	SupabaseJWTSecret string

	// Cloudflare R2 (S3 API)
	R2AccountID    string
	R2AccessKeyID  string
	R2SecretKey    string
	R2Bucket       string
	R2PublicDomain string

	// OpenRouter generation
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	GenerationModel   string
	SiteURL           string
	SiteName          string
	CreditCost        int

	// Stripe billing
	StripeSecretKey     string
	StripeWebhookSecret string

	// Admin gate
	AdminPassword string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AllowedOrigins:    splitEnv(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),

		R2AccountID:    os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:  os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretKey:    os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Bucket:       getEnv("R2_BUCKET_NAME", "stylensimg"),
		R2PublicDomain: strings.TrimRight(os.Getenv("R2_PUBLIC_DOMAIN"), "/"),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		GenerationModel:   getEnv("GENERATION_MODEL", "google/gemini-3-pro-image-preview"),
		SiteURL:           getEnv("SITE_URL", "https://faceai.app"),
		SiteName:          getEnv("SITE_NAME", "FaceAI"),
		CreditCost:        getEnvInt("CREDIT_COST", 100),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		// Generation calls are awaited synchronously, so the write timeout has
		// to cover the slowest model response.
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.SupabaseJWTSecret == "" {
		return nil, fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}

	if cfg.CreditCost <= 0 {
		return nil, fmt.Errorf("CREDIT_COST must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitEnv(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
