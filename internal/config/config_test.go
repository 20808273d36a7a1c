package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadFromEnv reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "PORT", "CATALOG_NAME", "STORAGE_BACKEND", "SNAPSHOT_FILE", "SQLITE_PATH",
		"POSTGRES_DSN", "SNAPSHOT_INTERVAL", "SEED_SAMPLE_DATA", "SEED_FILE", "TELEGRAM_BOT_TOKEN",
		"ALLOWED_USER_IDS", "WEBHOOK_MODE", "WEBHOOK_URL", "ALLOWED_ORIGINS", "RATE_LIMIT_RPS",
		"RATE_LIMIT_BURST", "CLICKHOUSE_HOST", "CLICKHOUSE_PORT", "CLICKHOUSE_DATABASE",
		"CLICKHOUSE_USER", "CLICKHOUSE_PASSWORD", "CLICKHOUSE_USE_TLS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "My Personal Library", cfg.CatalogName)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "library.json", cfg.SnapshotFile)
	assert.Zero(t, cfg.SnapshotInterval)
	assert.False(t, cfg.BotEnabled())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadFromEnv_Bot(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ALLOWED_USER_IDS", "1, 22 ,333")
	t.Setenv("WEBHOOK_MODE", "true")
	t.Setenv("WEBHOOK_URL", "https://example.com")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, []int64{1, 22, 333}, cfg.AllowedUserIDs)
	assert.True(t, cfg.WebhookMode)
	assert.Equal(t, "https://example.com", cfg.WebhookURL)
}

func TestLoadFromEnv_ClickHouse(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "ClickHouse")
	t.Setenv("CLICKHOUSE_HOST", "ch.local")
	t.Setenv("CLICKHOUSE_USE_TLS", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, BackendClickHouse, cfg.StorageBackend)
	assert.Equal(t, "ch.local", cfg.ClickHouseHost)
	assert.Equal(t, 9000, cfg.ClickHousePort)
	assert.Equal(t, "default", cfg.ClickHouseDatabase)
	assert.Equal(t, "default", cfg.ClickHouseUser)
	assert.True(t, cfg.ClickHouseUseTLS)
}

func TestLoadFromEnv_Parsing(t *testing.T) {
	clearEnv(t)
	t.Setenv("SNAPSHOT_INTERVAL", "30s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SEED_SAMPLE_DATA", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.SnapshotInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.True(t, cfg.SeedSampleData)
}

func TestLoadFromEnv_Errors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "mongo"}},
		{"clickhouse without host", map[string]string{"STORAGE_BACKEND": "clickhouse"}},
		{"postgres without dsn", map[string]string{"STORAGE_BACKEND": "postgres"}},
		{"token without users", map[string]string{"TELEGRAM_BOT_TOKEN": "t"}},
		{"bad user id", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "ALLOWED_USER_IDS": "abc"}},
		{"webhook without url", map[string]string{"TELEGRAM_BOT_TOKEN": "t", "ALLOWED_USER_IDS": "1", "WEBHOOK_MODE": "true"}},
		{"bad interval", map[string]string{"SNAPSHOT_INTERVAL": "soon"}},
		{"negative interval", map[string]string{"SNAPSHOT_INTERVAL": "-1s"}},
		{"bad burst", map[string]string{"RATE_LIMIT_BURST": "many"}},
		{"bad clickhouse port", map[string]string{"STORAGE_BACKEND": "clickhouse", "CLICKHOUSE_HOST": "h", "CLICKHOUSE_PORT": "x"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}
