package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by Supabase-issued access tokens. The server never mints
// tokens itself; it only verifies what the auth platform signed.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	userEmailKey contextKey = "user_email"
)

// The auth platform also sets its access token as a cookie on same-site
// requests.
const accessTokenCookie = "sb-access-token"

var errInvalidToken = errors.New("invalid token")

// VerifySessionToken validates an HS256 session token against the shared
// Supabase JWT secret and returns its claims.
func VerifySessionToken(secret, token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Auth populates the request context with the authenticated user's ID and
// email. Requests without a valid token pass through unauthenticated;
// handlers decide whether to reject.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(accessTokenCookie); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := VerifySessionToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, userEmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// UserIDFromContext returns the authenticated user ID, or "" when anonymous.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// UserEmailFromContext returns the authenticated user's email, or "".
func UserEmailFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userEmailKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithUser injects user identity for tests.
func ContextWithUser(ctx context.Context, userID, email string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userEmailKey, email)
}
