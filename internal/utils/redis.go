// 包 utils：Redis 连接工具，统一配置读取与可选 DB 选择
package utils

import (
	"psgc-api/internal/config"
	"psgc-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：未配置地址时返回 nil，调用方据此关闭缓存
func OpenRedis(o config.RedisOptions) *redis.Client {
	addr := o.Addr()
	if addr == "" {
		return nil
	}
	db := o.DB
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: o.Password, DB: db})
}
