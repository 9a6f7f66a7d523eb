package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/AnshRaj112/multilink-backend/internal/auth"
	"github.com/AnshRaj112/multilink-backend/internal/services"
)

// AccessVerifier checks access tokens. services.TokenIssuer implements it.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// Authenticate requires "Authorization: Bearer <access token>" and stores the
// caller's auth.Identity in the request context.
func Authenticate(tokens AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			userID, err := tokens.VerifyAccess(raw)
			if err != nil {
				if errors.Is(err, services.ErrTokenExpired) {
					writeError(w, http.StatusUnauthorized, "Token expired")
					return
				}
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
