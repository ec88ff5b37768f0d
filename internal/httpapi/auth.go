package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stafflane/hr-copilot/internal/domain"
)

type identityKey struct{}

// WithIdentity stores the authenticated identity in the context.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// AuthMiddleware verifies an HS256 JWT Bearer token and attaches the
// caller's identity to the request context. The token must carry sub,
// role and employee_id claims; anything else is a 401.
func AuthMiddleware(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w)
				return
			}
			tokenStr := strings.TrimPrefix(auth, "Bearer ")

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				return jwtSecret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				unauthorized(w)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(w)
				return
			}
			sub, _ := claims["sub"].(string)
			roleStr, _ := claims["role"].(string)
			employeeID, _ := claims["employee_id"].(string)
			if sub == "" || employeeID == "" {
				unauthorized(w)
				return
			}
			role, err := domain.ParseRole(roleStr)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := WithIdentity(r.Context(), domain.Identity{
				UserID:     sub,
				EmployeeID: employeeID,
				Role:       role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"code":    http.StatusUnauthorized,
		"message": "unauthorized: provide a valid JWT Bearer token",
	})
}
