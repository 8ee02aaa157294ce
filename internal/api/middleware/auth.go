package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tempoair/airservice/internal/api/models"
	"github.com/tempoair/airservice/internal/auth"
)

type claimsKey struct{}

// TokenValidator validates bearer tokens. *auth.JWTService implements it.
type TokenValidator interface {
	ValidateServiceToken(token string) (*auth.Claims, error)
}

// Auth requires a valid bearer token carrying every scope in scopes.
func Auth(validator TokenValidator, scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w, r, "missing or malformed bearer token")
				return
			}

			claims, err := validator.ValidateServiceToken(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					writeUnauthorized(w, r, "service token has expired")
				default:
					writeUnauthorized(w, r, "invalid service token")
				}
				return
			}

			for _, scope := range scopes {
				if !claims.HasScope(scope) {
					writeUnauthorized(w, r, "service token lacks scope "+scope)
					return
				}
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// writeUnauthorized writes the problem directly; the response package imports middleware.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="airservice"`)
	models.NewUnauthorized(GetRequestID(r.Context()), detail).
		WithInstance(r.URL.Path).
		Write(w)
}

// GetSubject returns the authenticated token subject, or "".
func GetSubject(ctx context.Context) string {
	if c, ok := ctx.Value(claimsKey{}).(*auth.Claims); ok {
		return c.Subject
	}
	return ""
}
