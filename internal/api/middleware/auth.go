package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/feed-service/pkg/response"
)

const tokenKey = "auth_token"

// Auth 提取 Bearer token 供下游透传给内容服务。
// 配置了 secret 时做 HS256 校验；token 缺失不视为错误（feed 读取可匿名）。
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			raw := strings.TrimPrefix(header, "Bearer ")
			if secret != "" {
				_, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
					return []byte(secret), nil
				}, jwt.WithValidMethods([]string{"HS256"}))
				if err != nil {
					response.Unauthorized(c, "invalid token")
					c.Abort()
					return
				}
			}
			c.Set(tokenKey, raw)
		}
		c.Next()
	}
}

// Token 取出当前请求携带的 token，未携带返回空串
func Token(c *gin.Context) string {
	if v, ok := c.Get(tokenKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
