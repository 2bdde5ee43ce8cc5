package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "/api", c.HTTP.APIBase)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "PSGC", c.PSGC.Sheet)
	assert.Equal(t, "psa.gov.ph", c.PSGC.AllowedDomain)
	assert.Equal(t, 24*time.Hour, c.Redis.CacheTTL)
	assert.Empty(t, c.Redis.Addr())
}

func TestLoadFromEnvFile(t *testing.T) {
	for _, k := range []string{"PG_HOST", "PG_PASSWORD", "PSGC_SYNC_HOUR", "REDIS_HOST"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	f := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(f, []byte("PG_HOST=db\nPG_PASSWORD=secret\nPSGC_SYNC_HOUR=5\nREDIS_HOST=cache\n"), 0o644))
	t.Cleanup(func() {
		for _, k := range []string{"PG_HOST", "PG_PASSWORD", "PSGC_SYNC_HOUR", "REDIS_HOST"} {
			_ = os.Unsetenv(k)
		}
	})

	c, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, "postgres://postgres:secret@db:5432/psgc?sslmode=disable", c.DB.PostgresDSN())
	assert.Equal(t, 5, c.PSGC.SyncHour)
	assert.Equal(t, "cache:6379", c.Redis.Addr())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("PG_MAX_OPEN_CONNS", "many")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
