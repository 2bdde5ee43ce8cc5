package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"psgc-api/internal/ingest"
	"psgc-api/internal/logger"

	"github.com/pkg/errors"
)

// SyncStarter：后台同步入口，ingest.Syncer 实现
type SyncStarter interface {
	Start(ctx context.Context, opts ingest.SyncOptions, done func(ingest.Result, error)) error
}

// 文档注释：管理接口，触发一次后台同步
// 背景：与定时任务、命令行共用同一个 Syncer，因此同一时刻最多一个同步；已在执行时返回 409
// 约束：需携带 x-admin-token 且与配置一致；未配置令牌时接口始终 403；同步在请求结束后继续执行
func SyncHandler(s SyncStarter, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := r.Header.Get("x-admin-token")
		if token == "" || subtle.ConstantTimeCompare([]byte(t), []byte(token)) != 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		opts := ingest.SyncOptions{
			URL:   r.URL.Query().Get("url"),
			Force: r.URL.Query().Get("force") == "true",
		}
		rid := w.Header().Get(logger.RequestIDHeader)
		err := s.Start(context.WithoutCancel(r.Context()), opts, func(res ingest.Result, err error) {
			if err != nil {
				logger.L().Error("admin_sync_failed", "request_id", rid, "exit_code", ingest.ExitCode(err), "err", err)
				return
			}
			logger.L().Info("admin_sync_done", "request_id", rid, "snapshot_id", res.SnapshotID)
		})
		if errors.Is(err, ingest.ErrSyncInProgress) {
			writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, envelope{Data: syncAccepted{Status: "started"}})
	}
}
