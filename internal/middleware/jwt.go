package myMiddleware

import (
	"context"
	"net/http"
	"strings"

	"campus-portal/internal/apperr"
	"campus-portal/internal/web"
)

type contextKey string

const identityKey contextKey = "identity"

// Roles carried in the token.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Identity is the authenticated caller. Subject is the student's email for
// students and the admin account email for admins.
type Identity struct {
	Subject string
	Name    string
	Role    string
}

// TokenValidator keeps the middleware decoupled from the user package.
type TokenValidator interface {
	ValidateToken(tokenString string) (subject, name, role string, err error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = parts[1]
			}
		}

		// Browsers cannot set headers on a websocket handshake.
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			web.JSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authentication token"})
			return
		}

		subject, name, role, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			web.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := WithIdentity(r.Context(), Identity{Subject: subject, Name: name, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose token carries a different role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				web.Error(w, apperr.ErrUnauthorized)
				return
			}
			if id.Role != role {
				web.Error(w, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
