package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MorseWayne/shoe_catalog/internal/resp"
)

// timeoutBody 超时响应体，与 resp 包的信封格式一致
var timeoutBody = func() string {
	b, _ := json.Marshal(resp.Response{Code: resp.CodeTimeout, Message: "request timeout"})
	return string(b)
}()

// Timeout 在 d 之后取消请求上下文并返回 503 超时响应。
// d <= 0 时不做限制。
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.TimeoutHandler(next, d, timeoutBody)
	}
}
