package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/curaflow/appointment-platform/internal/accounts"
)

type contextKey string

const userClaimsKey contextKey = "userClaims"

// UserClaims is the token payload issued at login. Subject carries the
// account id; Role distinguishes admin, doctor, and patient callers.
type UserClaims struct {
	Role accounts.Role `json:"role"`
	jwt.RegisteredClaims
}

// RequireUser enforces an HMAC-signed JWT on authenticated endpoints and
// places the verified claims on the request context.
func RequireUser(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := UserClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || !claims.Role.Valid() {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequesterFromContext returns the authenticated account id and role.
func RequesterFromContext(ctx context.Context) (uuid.UUID, accounts.Role, bool) {
	claims, ok := ctx.Value(userClaimsKey).(UserClaims)
	if !ok {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, claims.Role, true
}
