// 包 logger：统一初始化与获取日志器，避免各模块重复配置；级别与输出格式来自配置
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Options：Level 取 debug/info/warn/error，Format 取 text/json
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup：初始化默认日志器
// 背景：集中化日志配置，便于按环境统一调整级别与格式
// 约束：未指定输出时写标准错误；不在此处管理文件句柄或外部聚合通道
func Setup(o Options) *slog.Logger {
	out := o.Output
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: parseLevel(o.Level)}
	var h slog.Handler
	if strings.ToLower(o.Format) == "json" {
		h = slog.NewJSONHandler(out, ho)
	} else {
		h = slog.NewTextHandler(out, ho)
	}
	l := slog.New(h)
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return l
}

// L：获取默认日志器；未初始化时按环境变量 LOG_LEVEL/LOG_FORMAT 回退初始化
func L() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}
	return Setup(Options{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")})
}
