package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/jwt"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// RevocationChecker reports revoked token IDs. *redis.Client satisfies it.
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// APIKeyVerifier checks the shared user API key.
type APIKeyVerifier interface {
	VerifyUserAPIKey(key string) error
}

// JWTAuth validates the session token from the cookie or an
// Authorization: Bearer header. A nil revoked skips the blacklist check.
func JWTAuth(jwtMgr *jwt.Manager, cookieName string, revoked RevocationChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookieName)
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			response.Unauthorized(c, 10002, "not logged in")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "session is invalid or has expired")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "invalid token type")
			c.Abort()
			return
		}

		if revoked != nil {
			blacklisted, err := revoked.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				// Redis down: accept the signature alone.
				logger.Warn("token blacklist check failed", zap.Error(err))
			} else if blacklisted {
				response.Unauthorized(c, 10002, "session has been logged out")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("email", claims.Email)
		c.Set("is_admin", claims.IsAdmin)
		c.Set("role", claims.Role())
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth lets through callers holding one of allowedRoles.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "not logged in")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "you do not have access to this resource")
		c.Abort()
	}
}

// UserAPIKey guards the machine API. The raw key is the whole Authorization
// header value.
func UserAPIKey(verifier APIKeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Authorization")
		if key == "" {
			response.Unauthorized(c, 10002, "missing API key")
			c.Abort()
			return
		}
		if err := verifier.VerifyUserAPIKey(key); err != nil {
			response.Unauthorized(c, 10002, "invalid API key")
			c.Abort()
			return
		}
		c.Next()
	}
}
