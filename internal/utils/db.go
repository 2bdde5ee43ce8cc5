package utils

import (
	"os"
	"path/filepath"
	"strings"

	"psgc-api/internal/config"
	"psgc-api/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// SQLiteDSN：开启外键约束与忙等待，":memory:" 原样使用
func SQLiteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?cache=shared&_foreign_keys=1"
	}
	return "file:" + path + "?_foreign_keys=1&_busy_timeout=5000"
}

// OpenDB：按驱动打开连接池
// 约束：sqlite3 只允许单连接，写事务期间其他语句排队，避免 database is locked
func OpenDB(o config.DBOptions) (*sqlx.DB, error) {
	switch strings.ToLower(o.Driver) {
	case "", DriverPostgres:
		db, err := sqlx.Open(DriverPostgres, o.PostgresDSN())
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		db.SetMaxOpenConns(o.MaxOpenConns)
		db.SetMaxIdleConns(o.MaxIdleConns)
		logger.L().Debug("db_env", "driver", DriverPostgres, "host", o.Host, "db", o.Name)
		return db, nil
	case DriverSQLite:
		if o.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(o.SQLitePath), 0o755); err != nil {
				return nil, errors.Wrap(err, "create sqlite dir")
			}
		}
		db, err := sqlx.Open(DriverSQLite, SQLiteDSN(o.SQLitePath))
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite")
		}
		db.SetMaxOpenConns(1)
		logger.L().Debug("db_env", "driver", DriverSQLite, "path", o.SQLitePath)
		return db, nil
	}
	return nil, errors.Errorf("unsupported DB_DRIVER %q", o.Driver)
}
