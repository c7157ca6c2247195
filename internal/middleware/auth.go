package middleware

import (
	"context"
	"net/http"
	"strings"

	"conf-backend/internal/auth"
	"conf-backend/internal/repositories"
)

type contextKey string

const (
	userIDKey contextKey = "staff_user_id"
	roleKey   contextKey = "staff_role"
)

// AuthMiddleware resolves the Bearer session token into a staff identity.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	staffRepo  *repositories.StaffUserRepository
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, staffRepo *repositories.StaffUserRepository) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, staffRepo: staffRepo}
}

// RequireAuth rejects requests without a valid session token and puts the
// staff user id and role on the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// The user must still exist; deleted staff lose access immediately
		user, err := m.staffRepo.Get(r.Context(), claims.UserID)
		if err != nil || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithStaffUser(r.Context(), user.ID, user.Role)))
	})
}

// WithStaffUser returns a context carrying the staff identity, as set by
// RequireAuth.
func WithStaffUser(ctx context.Context, userID int, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// RequireRole allows only the listed roles through. Must run inside
// RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRoleFromContext(r.Context())
			if !ok || !allowed[role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext returns the authenticated staff user id.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok
}

// GetRoleFromContext returns the authenticated staff role.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}
