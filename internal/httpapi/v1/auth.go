package v1

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const ctxKeyPrincipal ctxKey = "principal"

// jwtClaims carries the verified caller identity. The owner id comes from the
// user_id claim, falling back to the standard subject.
type jwtClaims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *jwtClaims) principal() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// principalFrom returns the authenticated owner id, or "" when auth is off.
func principalFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyPrincipal).(string); ok {
		return v
	}
	return ""
}

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[len("Bearer "):]), true
}

// authJWTFromEnv returns a middleware that enforces Authorization: Bearer JWT
// (HS256) when JWT_HS256_SECRET is set, and puts the verified owner identity
// into the request context. Optional checks: JWT_ISSUER, JWT_AUDIENCE.
func authJWTFromEnv() func(http.Handler) http.Handler {
	secret := strings.TrimSpace(os.Getenv("JWT_HS256_SECRET"))
	if secret == "" {
		return nil
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if iss := strings.TrimSpace(os.Getenv("JWT_ISSUER")); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(os.Getenv("JWT_AUDIENCE")); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// allow unauthenticated for health and metrics
			switch r.URL.Path {
			case "/healthz", "/readyz", "/metrics":
				next.ServeHTTP(w, r)
				return
			}
			tok, ok := parseBearerToken(r)
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			claims := &jwtClaims{}
			parsed, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
				return key, nil
			}, opts...)
			if err != nil || !parsed.Valid {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPrincipal, claims.principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
