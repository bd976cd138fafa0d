package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout 为请求上下文设置截止时间
// 下游的数据库与缓存调用感知到 context.DeadlineExceeded 后由处理器统一返回 504
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
