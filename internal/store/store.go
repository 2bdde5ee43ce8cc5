// 包 store：版本化 PSGC 数据的持久化层，包含快照写入、版本管理与只读查询
package store

import (
	"context"
	"database/sql"

	"psgc-api/internal/config"
	"psgc-api/internal/migrate"
	"psgc-api/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound：按 id 查询的记录或版本不存在
	ErrNotFound = errors.New("not found")
	// ErrSnapshotCurrent：当前版本不允许删除
	ErrSnapshotCurrent = errors.New("snapshot is current")
)

// Store：数据库访问入口，持有连接池；语句统一使用 ? 占位符并按驱动 Rebind
type Store struct {
	db *sqlx.DB

	// beforeLevel：写入每个层级之前调用，仅测试注入失败使用
	beforeLevel func(table string) error
}

func Attach(db *sqlx.DB) *Store { return &Store{db: db} }

// Open：打开连接并确保表结构存在
func Open(o config.DBOptions) (*Store, error) {
	db, err := utils.OpenDB(o)
	if err != nil {
		return nil, err
	}
	if err := migrate.EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sqlx.DB { return s.db }

// Ping：健康检查
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// notFound：把 sql.ErrNoRows 统一转换为 ErrNotFound
func notFound(err error, what string) error {
	if isNoRows(err) {
		return errors.Wrap(ErrNotFound, what)
	}
	return errors.Wrap(err, what)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
