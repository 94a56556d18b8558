package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/utils"
)

// TokenParser verifies bearer tokens
type TokenParser interface {
	ParseToken(tokenString string) (*utils.Claims, error)
}

// ProfileLookup loads the stored profile behind a token
type ProfileLookup interface {
	FindProfile(ctx context.Context, id string) (*models.UserProfile, error)
}

// AuthMiddleware verifies the bearer token and stores the caller in the context.
// EventSource clients cannot set headers, so the live feed may pass ?token=.
// A token whose profile was deleted is signed out; role and name come from
// the stored profile, not the token.
func AuthMiddleware(tokens TokenParser, profiles ProfileLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		token := ""
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		} else if authHeader == "" {
			token = c.Query("token")
		}

		if token == "" {
			utils.Logger.Debug().Str("path", c.Request.URL.Path).Msg("missing bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthorized",
				"code":    "MISSING_TOKEN",
			})
			return
		}

		claims, err := tokens.ParseToken(token)
		if err != nil {
			utils.Logger.Warn().Err(err).Str("authorization", utils.ShortSecret(authHeader)).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid token",
				"code":    "INVALID_TOKEN",
			})
			return
		}

		profile, err := profiles.FindProfile(c.Request.Context(), claims.ID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInvalidID) {
				utils.Logger.Info().Str("userId", claims.ID).Str("email", claims.Email).Msg("token of a removed user")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "user no longer exists",
					"code":    "USER_NOT_FOUND",
				})
				return
			}
			utils.Logger.Error().Err(err).Str("userId", claims.ID).Msg("profile lookup failed")
			utils.HandleError(c, err)
			return
		}

		claims.Email = profile.Email
		claims.Name = profile.Name
		claims.Role = profile.Role
		c.Set(utils.ContextUserKey, claims)
		c.Next()
	}
}

// PermissionMiddleware consults the capability table for the authenticated role
func PermissionMiddleware(resource string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := utils.GetUser(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthenticated",
				"code":    "UNAUTHENTICATED",
			})
			return
		}

		if !utils.HasPermission(user.Role, resource, action) {
			utils.Logger.Info().
				Str("email", user.Email).
				Str("role", string(user.Role)).
				Str("resource", resource).
				Str("action", action).
				Msg("permission denied")

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "insufficient permission",
				"code":    "INSUFFICIENT_PERMISSION",
			})
			return
		}

		c.Next()
	}
}
