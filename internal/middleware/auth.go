package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/resp"
	"github.com/MorseWayne/shoe_catalog/internal/service"
)

// gin 上下文中保存管理端声明的键
const ginKeyAdminClaims = "admin_claims"

const bearerPrefix = "Bearer "

// AdminAuth 管理端认证中间件。
// 校验 Authorization: Bearer <token>，通过后把声明写入 gin 上下文。
func AdminAuth(jwtService service.JWTService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		reqID := RequestIDFromContext(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("missing authorization header", zap.String("request_id", reqID))
			abortUnauthorized(c, "authorization header required", reqID)
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			logger.Warn("invalid authorization header format", zap.String("request_id", reqID))
			abortUnauthorized(c, "invalid authorization header format", reqID)
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			abortUnauthorized(c, "token required", reqID)
			return
		}

		claims, err := jwtService.ValidateAdminToken(tokenString)
		if err != nil {
			logger.Warn("admin token rejected", zap.String("request_id", reqID), zap.Error(err))
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				abortUnauthorized(c, "token expired", reqID)
			case errors.Is(err, service.ErrTokenNotReady):
				abortUnauthorized(c, "token not ready", reqID)
			case errors.Is(err, service.ErrMissingSecret):
				resp.Error(c.Writer, http.StatusServiceUnavailable, resp.CodeInternalError, "admin api disabled", reqID, "")
				c.Abort()
			default:
				abortUnauthorized(c, "invalid token", reqID)
			}
			return
		}

		c.Set(ginKeyAdminClaims, claims)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg, reqID string) {
	resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, msg, reqID, "")
	c.Abort()
}

// AdminClaims 读取 AdminAuth 写入的声明（未认证时为 nil）
func AdminClaims(c *gin.Context) *service.Claims {
	if v, ok := c.Get(ginKeyAdminClaims); ok {
		if claims, ok := v.(*service.Claims); ok {
			return claims
		}
	}
	return nil
}

// AdminSubject 当前管理端令牌的主体
func AdminSubject(c *gin.Context) string {
	if claims := AdminClaims(c); claims != nil {
		return claims.Subject
	}
	return ""
}
