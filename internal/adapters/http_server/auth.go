package httpserver

import (
	"net/http"
	"strings"

	"hotel_pms/internal/domain"
)

// TokenParser turns a bearer token into the calling principal.
type TokenParser interface {
	Parse(token string) (domain.Principal, error)
}

// Authenticate rejects requests without a valid bearer token with 401.
func Authenticate(p TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeFail(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}
			pr, err := p.Parse(strings.TrimSpace(token))
			if err != nil {
				writeFail(w, http.StatusUnauthorized, "invalid or expired token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), pr)))
		})
	}
}

// RequireRole answers 403 unless the principal has one of roles. Admins pass every check.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pr, ok := domain.PrincipalFrom(r.Context())
			if !ok {
				writeFail(w, http.StatusUnauthorized, "not authenticated", nil)
				return
			}
			if pr.Role == domain.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if pr.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeFail(w, http.StatusForbidden, "role "+string(pr.Role)+" may not access this resource", nil)
		})
	}
}
