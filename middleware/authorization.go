package middleware

import (
	"context"
	"log"
	"net/http"

	"gorm.io/gorm"

	"p9e.in/fcrm/models"
	"p9e.in/fcrm/utils"
)

// LoadUser resolves the token's user with role and permissions and stores it in
// the request context. Deactivated or deleted users are rejected with 401.
func LoadUser(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r)
			if claims == nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			var user models.User
			if err := db.WithContext(r.Context()).
				Preload("RoleModel.Permissions").
				First(&user, "id = ?", claims.UserID).Error; err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "user not found")
				return
			}
			if !user.IsActive {
				utils.WriteError(w, http.StatusUnauthorized, "account is deactivated")
				return
			}

			ctx := context.WithValue(r.Context(), currentUserKey, &user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the user loaded by LoadUser, or nil.
func CurrentUser(r *http.Request) *models.User {
	if u, ok := r.Context().Value(currentUserKey).(*models.User); ok {
		return u
	}
	return nil
}

// WithUser attaches a user to ctx, for callers that authenticate differently.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// RequirePermission middleware checks if the authenticated user has the required permission
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission checks if user has any of the provided permissions
func RequireAnyPermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !user.HasAnyPermission(permissions...) {
				log.Printf("🚫 %s denied %s %s (needs %v)", user.Email, r.Method, r.URL.Path, permissions)
				utils.WriteError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
