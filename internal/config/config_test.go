package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := load(viper.New())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 0.3, cfg.App.SafetyFactor, 1e-12)
	assert.Equal(t, DefaultActiveColors, cfg.App.ActiveColors)
	assert.Equal(t, BOMSourceFile, cfg.App.BOMSource)
	assert.Equal(t, "商品名称", cfg.App.LabelColumn)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_SAFETY_FACTOR", "0.5")
	t.Setenv("APP_ACTIVE_COLORS", " 米白四季款, ,松烟灰四季款 ")
	t.Setenv("APP_BOM_SOURCE", "Postgres")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("STORAGE_BUCKET", "bedding")

	cfg := load(viper.New())

	assert.InDelta(t, 0.5, cfg.App.SafetyFactor, 1e-12)
	assert.Equal(t, []string{"米白四季款", "松烟灰四季款"}, cfg.App.ActiveColors)
	assert.Equal(t, BOMSourcePostgres, cfg.App.BOMSource)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "bedding", cfg.Storage.Bucket)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList("a,,b,"))
}
