package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalYAML = `
app:
  name: QuantDataHub
  env: dev
database:
  mysql:
    host: 127.0.0.1
    port: 3306
    user: root
    password: secret
    dbname: quant_data
`

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, minimalYAML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "QuantDataHub", cfg.App.Name)
	// 未配置项应填充默认值
	assert.Equal(t, "沪深A股", cfg.Sync.BenchmarkSector)
	assert.Equal(t, 4, cfg.Sync.MaxWorkers)
	assert.Equal(t, 3, cfg.Sync.LookbackYears)
	assert.Equal(t, "utf8mb4", cfg.Database.MySQL.Charset)
	assert.Equal(t, "stock_data", cfg.Export.DataDir)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "8080", cfg.API.Port)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, minimalYAML)

	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("QMT_BASE_URL", "http://qmt.internal:7800")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.MySQL.Host)
	assert.Equal(t, 3307, cfg.Database.MySQL.Port)
	assert.Equal(t, "http://qmt.internal:7800", cfg.DataSources.QMT.BaseURL)
}

func TestDSN(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t,
		"root:secret@tcp(127.0.0.1:3306)/quant_data?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.DSN())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/不存在/app.yaml")
	assert.Error(t, err)
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("APP_ENV", "")
	assert.Equal(t, "configs/dev/app.yaml", GetDefaultConfigPath())

	t.Setenv("APP_ENV", "prod")
	assert.Equal(t, "configs/prod/app.yaml", GetDefaultConfigPath())
}
