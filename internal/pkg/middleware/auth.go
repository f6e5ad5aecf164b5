package middleware

import (
	"net/http"
	"strings"

	"vidtube/pkg/response"
	"vidtube/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUserID gin context 中当前用户 ID 的键
	ContextUserID = "userID"
	// ContextUsername gin context 中当前用户名的键
	ContextUsername = "username"
	// AccessTokenCookie access token 的 cookie 名
	AccessTokenCookie = "accessToken"
)

// AuthMiddleware JWT认证中间件，支持 Authorization 头或 accessToken cookie
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Unauthorized request")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		// 将 userID 存入上下文
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)

		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	// 检查格式 "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// CurrentUserID 获取当前登录用户 ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
