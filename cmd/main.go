// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"psgc-api/internal/api"
	"psgc-api/internal/config"
	"psgc-api/internal/ingest"
	"psgc-api/internal/logger"
	"psgc-api/internal/metrics"
	"psgc-api/internal/middleware"
	"psgc-api/internal/store"
	"psgc-api/internal/utils"
)

func main() {
	cfg, err := config.Load(config.DefaultEnvFiles...)
	if err != nil {
		logger.L().Error("config_error", "err", err)
		os.Exit(1)
	}
	// 日志初始化
	l := logger.Setup(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	l.Debug("log_init_ok")
	apiBase := strings.TrimSuffix(cfg.HTTP.APIBase, "/")
	l.Debug("config_api_base", "base", apiBase)

	st, err := store.Open(cfg.DB)
	if err != nil {
		l.Error("db_open_error", "driver", cfg.DB.Driver, "err", err)
		os.Exit(1)
	}
	defer st.Close()
	l.Info("db_open_ok", "driver", cfg.DB.Driver)
	if err := st.Ping(context.Background()); err != nil {
		l.Error("db_ping_error", "err", err)
	} else {
		l.Info("db_ping_ok")
	}

	rc := utils.OpenRedis(cfg.Redis)
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := cfg.PSGC
	syncer := ingest.NewSyncer(
		ingest.NewImporter(st, o.Sheet),
		ingest.NewCrawler(o.PSAURL),
		ingest.NewDownloader(o.StoragePath, o.AllowedDomain),
		o.Sheet,
	)
	// 背景：上游按季度发布，进程内每周检查一次；关闭时随 ctx 退出
	if o.SyncEnabled {
		ingest.StartWeekly(ctx, syncer, o.SyncHour)
	} else {
		l.Info("sync_schedule_disabled")
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(st, rc, api.Options{CacheTTL: cfg.Redis.CacheTTL})
	mux.Handle(apiBase+"/psgc/", http.StripPrefix(apiBase+"/psgc", apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())
	mux.Handle("POST "+apiBase+"/admin/sync", api.SyncHandler(syncer, cfg.HTTP.AdminToken))

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler, cfg.RateLimit)
	s := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		l.Info("shutdown_start")
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil {
			l.Error("shutdown_error", "err", err)
		}
	}()

	// 背景：TLS 由前置代理终止，此处只监听明文
	l.Info("listening", "addr", cfg.HTTP.Addr, "api_base", apiBase)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
}
