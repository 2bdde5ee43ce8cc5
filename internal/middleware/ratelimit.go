// 包 middleware：入口级 HTTP 中间件
package middleware

import (
	"net/http"

	"psgc-api/internal/config"
	"psgc-api/internal/logger"

	"golang.org/x/time/rate"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：在流量峰值时对入口进行限速，避免缓存与数据库被过载；按配置开关与速率
// 约束：不做队列排队，仅丢弃并返回 429；桶容量等于每秒速率
func Wrap(next http.Handler, o config.RateLimitOptions) http.Handler {
	if !o.Enabled {
		return next
	}
	qps := o.QPS
	if qps <= 0 {
		qps = 200
	}
	lim := rate.NewLimiter(rate.Limit(qps), qps)
	logger.L().Info("ratelimit_enabled", "qps", qps)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			w.Header().Set("retry-after", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
