package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/iqac-backend/internal/auth"
	"github.com/lk2023060901/iqac-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	ctxEmailKey   = "auth_email"
	ctxIsAdminKey = "auth_is_admin"
)

// OptionalJWTAuth attaches verified claims to the context when a valid
// token is presented and passes everyone else through anonymously. The
// retrieval endpoints use the resulting flag to unlock pending records.
func OptionalJWTAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		token, err := auth.ExtractTokenFromHeader(authHeader)
		if err != nil {
			c.Next()
			return
		}

		claims, err := jwtManager.VerifyToken(token)
		if err != nil {
			c.Next()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// RequireAdmin gates moderation endpoints: 401 without a valid token,
// 403 with a valid token that lacks the admin role.
func RequireAdmin(jwtManager *auth.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// OptionalJWTAuth may already have verified the token upstream.
		if !hasClaims(c) {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing authorization"})
				return
			}

			token, err := auth.ExtractTokenFromHeader(authHeader)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization header format"})
				return
			}

			claims, err := jwtManager.VerifyToken(token)
			if err != nil {
				log.Warn("invalid access token",
					zap.Error(err),
					zap.String("ip", c.ClientIP()))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
				return
			}

			setClaims(c, claims)
		}

		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}

		c.Next()
	}
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ctxEmailKey, claims.Email)
	c.Set(ctxIsAdminKey, claims.IsAdmin())
}

func hasClaims(c *gin.Context) bool {
	_, exists := c.Get(ctxEmailKey)
	return exists
}

// IsAdmin reports whether the request carries a verified admin claim.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxIsAdminKey)
}

// Email returns the verified caller identity, if any.
func Email(c *gin.Context) (string, bool) {
	email, exists := c.Get(ctxEmailKey)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// CORS allows the portal frontend, served from another origin, to reach
// the API.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Disposition, Content-Type")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
