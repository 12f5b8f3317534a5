package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"offshoreCV/internal/auth"
)

// 上下文键：认证通过后写入档案 ID 与改密标记。
const (
	ProfileIDKey          = "profileID"
	MustChangePasswordKey = "mustChangePassword"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// TokenValidator 校验访问令牌。
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.TokenClaims, error)
}

// AuthMiddleware 校验访问令牌并将 profileID 注入上下文。
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		rawToken := parts[1]
		if strings.TrimSpace(rawToken) == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := validator.ValidateToken(rawToken)
		if err != nil || claims.TokenType != auth.TokenTypeAccess || claims.ProfileID == "" {
			abortUnauthorized(c)
			return
		}

		c.Set(ProfileIDKey, claims.ProfileID)
		c.Set(MustChangePasswordKey, claims.MustChangePassword)
		c.Next()
	}
}
