// 包 config：集中读取运行配置；先加载 .env 文件，再按结构体标签解析环境变量
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// DefaultEnvFiles：与部署目录约定一致，后加载的文件不覆盖已存在的变量
var DefaultEnvFiles = []string{".env", filepath.Join("data", "env", ".env")}

type HTTPOptions struct {
	Addr       string `env:"ADDR" envDefault:":8080"`
	APIBase    string `env:"API_BASE" envDefault:"/api"`
	AdminToken string `env:"ADMIN_TOKEN"`
}

// DBOptions：Driver 取 postgres 或 sqlite3；sqlite3 仅用于本地与测试
type DBOptions struct {
	Driver       string `env:"DB_DRIVER" envDefault:"postgres"`
	Host         string `env:"PG_HOST" envDefault:"localhost"`
	Port         string `env:"PG_PORT" envDefault:"5432"`
	User         string `env:"PG_USER" envDefault:"postgres"`
	Password     string `env:"PG_PASSWORD"`
	Name         string `env:"PG_DB" envDefault:"psgc"`
	SSLMode      string `env:"PG_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"PG_MAX_OPEN_CONNS" envDefault:"50"`
	MaxIdleConns int    `env:"PG_MAX_IDLE_CONNS" envDefault:"25"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"data/psgc.db"`
}

// RedisOptions：Host 为空时关闭响应缓存
type RedisOptions struct {
	Host     string        `env:"REDIS_HOST"`
	Port     string        `env:"REDIS_PORT" envDefault:"6379"`
	Password string        `env:"REDIS_PASS"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"24h"`
}

type PSGCOptions struct {
	PSAURL        string `env:"PSGC_PSA_URL" envDefault:"https://psa.gov.ph/classification/psgc"`
	StoragePath   string `env:"PSGC_STORAGE_PATH" envDefault:"data/psgc"`
	AllowedDomain string `env:"PSGC_ALLOWED_DOMAIN" envDefault:"psa.gov.ph"`
	Sheet         string `env:"PSGC_SHEET" envDefault:"PSGC"`
	SyncEnabled   bool   `env:"PSGC_SYNC_ENABLED" envDefault:"false"`
	SyncHour      int    `env:"PSGC_SYNC_HOUR" envDefault:"3"`
}

type LogOptions struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type RateLimitOptions struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	QPS     int  `env:"RATE_LIMIT_QPS" envDefault:"200"`
}

type Config struct {
	HTTP      HTTPOptions
	DB        DBOptions
	Redis     RedisOptions
	PSGC      PSGCOptions
	Log       LogOptions
	RateLimit RateLimitOptions
}

// LoadEnvFiles：只加载存在的文件；全部缺失不是错误
func LoadEnvFiles(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(existing...), "load env files")
}

// Load：读取 .env 后解析环境变量
// 约束：格式错误（例如 PG_MAX_OPEN_CONNS=abc）直接返回错误，不静默回退默认值
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	if err := LoadEnvFiles(files...); err != nil {
		return nil, err
	}
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	return c, nil
}

// PostgresDSN：URL 形式的连接串
func (d DBOptions) PostgresDSN() string {
	dsn := "postgres://" + d.User
	if d.Password != "" {
		dsn += ":" + d.Password
	}
	return dsn + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

// Addr：未配置主机时返回空串
func (r RedisOptions) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}
