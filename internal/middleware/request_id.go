// Package middleware 提供 HTTP 中间件：请求 ID、恢复、超时、访问日志与管理端认证。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// 请求 ID 相关的请求头
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	maxRequestIDLength = 128
)

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext 读取请求 ID，未设置时返回空串
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// incomingRequestID 取上游传入的 ID，过长或为空时返回空串
func incomingRequestID(r *http.Request) string {
	for _, h := range []string{HeaderRequestID, HeaderCorrelationID} {
		id := strings.TrimSpace(r.Header.Get(h))
		if id != "" && len(id) <= maxRequestIDLength {
			return id
		}
	}
	return ""
}

// RequestID 为每个请求确定请求 ID（沿用上游 X-Request-ID / X-Correlation-ID，否则生成 UUID），
// 写入响应头与请求上下文。
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := incomingRequestID(r)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, rid)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), rid)))
	})
}
