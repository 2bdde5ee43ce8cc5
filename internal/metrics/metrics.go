package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_api_requests_total",
		Help: "Total number of read API requests by route and status",
	}, []string{"route", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "psgc_api_request_duration_ms",
		Help:    "Read API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "psgc_api_redis_hits_total",
		Help: "Total redis cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "psgc_api_redis_misses_total",
		Help: "Total redis cache misses",
	})
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_imports_total",
		Help: "Total import runs by outcome",
	}, []string{"outcome"})
	ImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_import_rows_total",
		Help: "Data rows seen by imports, by disposition (parsed, skipped, rejected)",
	}, []string{"disposition"})
	ImportCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_import_created_total",
		Help: "Rows created by imports, by level",
	}, []string{"level"})
	ImportDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "psgc_import_duration_seconds",
		Help:    "Import run duration in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
	SyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_sync_total",
		Help: "Sync pipeline runs by outcome (success, validation, download, import, busy)",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(ImportsTotal)
	prometheus.MustRegister(ImportRowsTotal)
	prometheus.MustRegister(ImportCreatedTotal)
	prometheus.MustRegister(ImportDurationSeconds)
	prometheus.MustRegister(SyncTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
