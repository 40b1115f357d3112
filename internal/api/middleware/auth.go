package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/tubedigest/pkg/response"
)

// UserIDKey gin 上下文中保存当前用户 ID 的键
const UserIDKey = "user_id"

// Claims 访问令牌载荷
type Claims struct {
	jwt.RegisteredClaims
}

// Auth 校验 HS256 Bearer 令牌，把 sub 写入上下文
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid || claims.Subject == "" {
			response.Unauthorized(c, "invalid token")
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

// UserID 读取 Auth 写入的用户 ID
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// IssueToken 签发测试与内部工具使用的令牌
func IssueToken(secret, userID string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = userID
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: claims}).SignedString([]byte(secret))
}
