package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/capitalpay/capitalpay-api/models"
	"github.com/capitalpay/capitalpay-api/utils"
)

// ContextPrincipalKey is the key used to store the authenticated user in Gin context.
const ContextPrincipalKey = "principal"

// AuthRequired ensures the request carries a valid JWT for an active user.
// The resolved principal is attached to the context.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := resolvePrincipal(ctx, db)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, "Not authorized to access this route")
			ctx.Abort()
			return
		}
		ctx.Set(ContextPrincipalKey, user)
		ctx.Next()
	}
}

// OptionalAuth attaches a principal when a valid credential is present and
// proceeds unauthenticated otherwise.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user, ok := resolvePrincipal(ctx, db); ok {
			ctx.Set(ContextPrincipalKey, user)
		}
		ctx.Next()
	}
}

// RequireRoles rejects with 403 unless the principal's role is in the
// allowed set. Must run after AuthRequired.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, "Not authorized to access this route")
			ctx.Abort()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				ctx.Next()
				return
			}
		}
		utils.Error(ctx, http.StatusForbidden, "User role '"+user.Role+"' is not authorized to access this route")
		ctx.Abort()
	}
}

// CurrentUser returns the principal attached by AuthRequired/OptionalAuth.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	value, exists := ctx.Get(ContextPrincipalKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func resolvePrincipal(ctx *gin.Context, db *gorm.DB) (*models.User, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return nil, false
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return nil, false
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return nil, false
	}
	if !user.IsActive {
		return nil, false
	}
	return &user, true
}
