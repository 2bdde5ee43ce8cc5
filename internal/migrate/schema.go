// 包 migrate：首次运行自动创建版本表与四个层级表
package migrate

import (
	"strings"

	"psgc-api/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// 方言占位符：{{pk}} 自增主键，{{ts}} 时间列类型，{{now}} 当前时间默认值
var dialects = map[string]*strings.Replacer{
	"postgres": strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ts}}", "TIMESTAMPTZ",
		"{{now}}", "now()",
	),
	"sqlite3": strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TIMESTAMP",
		"{{now}}", "CURRENT_TIMESTAMP",
	),
}

var statements = []string{
	`CREATE TABLE IF NOT EXISTS psgc_versions (
		id {{pk}},
		quarter VARCHAR(2),
		year VARCHAR(4),
		publication_date {{ts}},
		download_url TEXT,
		filename TEXT,
		is_current BOOLEAN NOT NULL DEFAULT FALSE,
		regions_count INTEGER NOT NULL DEFAULT 0,
		provinces_count INTEGER NOT NULL DEFAULT 0,
		cities_municipalities_count INTEGER NOT NULL DEFAULT 0,
		barangays_count INTEGER NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL DEFAULT {{now}},
		updated_at {{ts}} NOT NULL DEFAULT {{now}}
	)`,
	// 任意时刻至多一个当前版本
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_psgc_versions_current ON psgc_versions(is_current) WHERE is_current`,
	`CREATE TABLE IF NOT EXISTS regions (
		id {{pk}},
		code VARCHAR(10) NOT NULL,
		name VARCHAR(255) NOT NULL,
		old_name VARCHAR(255),
		correspondence_code VARCHAR(10),
		geographic_level VARCHAR(32) NOT NULL,
		psgc_version_id BIGINT NOT NULL REFERENCES psgc_versions(id) ON DELETE CASCADE,
		created_at {{ts}} NOT NULL DEFAULT {{now}},
		updated_at {{ts}} NOT NULL DEFAULT {{now}}
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_regions_code_version ON regions(code, psgc_version_id)`,
	`CREATE TABLE IF NOT EXISTS provinces (
		id {{pk}},
		code VARCHAR(10) NOT NULL,
		name VARCHAR(255) NOT NULL,
		old_name VARCHAR(255),
		correspondence_code VARCHAR(10),
		geographic_level VARCHAR(32) NOT NULL,
		region_code VARCHAR(10),
		region_id BIGINT REFERENCES regions(id) ON DELETE CASCADE,
		is_capital BOOLEAN NOT NULL DEFAULT FALSE,
		is_virtual BOOLEAN NOT NULL DEFAULT FALSE,
		is_elevated_city BOOLEAN NOT NULL DEFAULT FALSE,
		psgc_version_id BIGINT NOT NULL REFERENCES psgc_versions(id) ON DELETE CASCADE,
		created_at {{ts}} NOT NULL DEFAULT {{now}},
		updated_at {{ts}} NOT NULL DEFAULT {{now}}
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_provinces_code_version ON provinces(code, psgc_version_id)`,
	`CREATE INDEX IF NOT EXISTS idx_provinces_region ON provinces(region_id)`,
	`CREATE TABLE IF NOT EXISTS cities_municipalities (
		id {{pk}},
		code VARCHAR(10) NOT NULL,
		name VARCHAR(255) NOT NULL,
		old_name VARCHAR(255),
		correspondence_code VARCHAR(10),
		geographic_level VARCHAR(32) NOT NULL,
		city_class VARCHAR(32),
		region_code VARCHAR(10),
		province_code VARCHAR(10),
		region_id BIGINT REFERENCES regions(id) ON DELETE CASCADE,
		province_id BIGINT REFERENCES provinces(id) ON DELETE CASCADE,
		psgc_version_id BIGINT NOT NULL REFERENCES psgc_versions(id) ON DELETE CASCADE,
		created_at {{ts}} NOT NULL DEFAULT {{now}},
		updated_at {{ts}} NOT NULL DEFAULT {{now}}
	)`,
	// 省级外键可能为 NULL，按 0 参与唯一性比较
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_cities_code_version_province ON cities_municipalities(code, psgc_version_id, COALESCE(province_id, 0))`,
	`CREATE INDEX IF NOT EXISTS idx_cities_region ON cities_municipalities(region_id)`,
	`CREATE INDEX IF NOT EXISTS idx_cities_province ON cities_municipalities(province_id)`,
	`CREATE TABLE IF NOT EXISTS barangays (
		id {{pk}},
		code VARCHAR(10) NOT NULL,
		name VARCHAR(255) NOT NULL,
		old_name VARCHAR(255),
		correspondence_code VARCHAR(10),
		geographic_level VARCHAR(32) NOT NULL,
		region_code VARCHAR(10),
		province_code VARCHAR(10),
		city_municipality_code VARCHAR(10),
		region_id BIGINT REFERENCES regions(id) ON DELETE CASCADE,
		province_id BIGINT REFERENCES provinces(id) ON DELETE CASCADE,
		city_municipality_id BIGINT REFERENCES cities_municipalities(id) ON DELETE CASCADE,
		psgc_version_id BIGINT NOT NULL REFERENCES psgc_versions(id) ON DELETE CASCADE,
		created_at {{ts}} NOT NULL DEFAULT {{now}},
		updated_at {{ts}} NOT NULL DEFAULT {{now}}
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_barangays_code_version ON barangays(code, psgc_version_id)`,
	`CREATE INDEX IF NOT EXISTS idx_barangays_city ON barangays(city_municipality_id)`,
	`CREATE INDEX IF NOT EXISTS idx_barangays_province ON barangays(province_id)`,
}

// EnsureSchema：按连接的驱动选择方言并执行建表语句
// 约束：使用 IF NOT EXISTS，可重复执行
func EnsureSchema(db *sqlx.DB) error {
	r, ok := dialects[db.DriverName()]
	if !ok {
		return errors.Errorf("no schema for driver %q", db.DriverName())
	}
	for i, s := range statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(r.Replace(s)); err != nil {
			return errors.Wrapf(err, "schema statement %d", i)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
