package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"service-booking-server/models"
	"service-booking-server/services"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
)

// Authenticator resolves bearer tokens and revokes sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
	TerminateSessions(ctx context.Context, userID uint) error
}

// AuthMiddleware validates the bearer token and stores the user in the
// gin context under "user" and "user_id".
func AuthMiddleware(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header required",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Token must be in format: Bearer <token>",
			})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug("authentication failed", zap.Error(err), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Token is invalid or expired",
			})
			return
		}

		c.Set(userKey, user)
		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// AdminOnly rejects every authenticated user whose role is not admin.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// ProviderAdmission applies the provider admission gate to a route group.
// A denied provider has its sessions terminated and is sent back to "/".
func ProviderAdmission(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authentication required",
			})
			return
		}
		if err := services.CheckProviderAdmission(user); err != nil {
			AbortSessionTerminated(c, auth, log, user)
			return
		}
		c.Next()
	}
}

// AbortSessionTerminated ends every session of user and answers 403 with a
// redirect hint for the client.
func AbortSessionTerminated(c *gin.Context, auth Authenticator, log *zap.Logger, user *models.User) {
	if err := auth.TerminateSessions(c.Request.Context(), user.ID); err != nil {
		log.Error("terminate sessions", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	log.Info("provider denied by admission gate",
		zap.Uint("user_id", user.ID),
		zap.Bool("is_active", user.IsActive),
		zap.String("provider_status", string(user.ProviderStatus)))
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":              "provider_not_admitted",
		"message":            services.ErrProviderNotAdmitted.Error(),
		"session_terminated": true,
		"redirect":           "/",
	})
}
