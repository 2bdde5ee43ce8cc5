package ingest

import (
	"context"
	"time"

	"psgc-api/internal/logger"
)

// SyncZone：发布方所在时区
const SyncZone = "Asia/Manila"

// nextMondayAt：计算下一次周一指定小时的时间点（不含当前已过时的当周）
// 约束：基于传入时区 loc 与整点 hour；仅前推至未来时间
func nextMondayAt(now time.Time, loc *time.Location, hour int) time.Time {
	now = now.In(loc)
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if d.Weekday() == time.Monday {
			t := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
			if t.After(now) {
				return t
			}
		}
	}
	d := now.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
}

// StartWeekly：在马尼拉时间每周一 hour 点执行一次同步
// 背景：上游按季度发布，每周检查一次即可；错误由日志记录，任务继续调度
// 约束：ctx 取消后退出；hour 越界时回退到 3 点；与其他入口的同步冲突时本轮跳过
func StartWeekly(ctx context.Context, s *Syncer, hour int) {
	l := logger.L()
	loc, err := time.LoadLocation(SyncZone)
	if err != nil {
		loc = time.FixedZone("PHT", 8*60*60)
	}
	if hour < 0 || hour > 23 {
		hour = 3
	}
	next := nextMondayAt(time.Now(), loc, hour)
	l.Info("sync_scheduled", "next", next)
	go func() {
		for {
			t := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			l.Info("sync_scheduled_start", "at", next)
			if _, err := s.Sync(ctx, SyncOptions{}); err != nil {
				l.Error("sync_scheduled_error", "err", err)
			}
			next = nextMondayAt(time.Now(), loc, hour)
		}
	}()
}
