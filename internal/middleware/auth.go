package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hongminglow/finanzas-be/internal/auth"
	"github.com/hongminglow/finanzas-be/internal/http/respond"
	"github.com/hongminglow/finanzas-be/internal/models"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

// TokenVerifier keeps the dependency small so tests can fake it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token claims on the request context.
func RequireAuth(tokens TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respond.Error(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if raw == "" {
			respond.Error(w, http.StatusUnauthorized, "missing access token")
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "invalid or expired access token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequirePermission is RequireAuth plus a role check against perm.
func RequirePermission(tokens TokenVerifier, perm models.Permission, next http.Handler) http.Handler {
	return RequireAuth(tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || !models.HasPermission(claims.Role, perm) {
			respond.Error(w, http.StatusForbidden, "permission "+string(perm)+" required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// WithClaims stores verified claims on ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, claims)
}

// ClaimsFrom returns the claims stored by RequireAuth.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ctxClaims).(*auth.Claims)
	return claims, ok && claims != nil
}
