package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.MaxUploadMB)
	assert.EqualValues(t, 10<<20, cfg.MaxUploadBytes())
	assert.Equal(t, "gemini", cfg.Vision.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Vision.Model)
	assert.Equal(t, 3, cfg.Vision.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Vision.Backoff)
	assert.Equal(t, "none", cfg.Database.Backend)
	assert.Equal(t, risk.RoundHalfUp, cfg.Rounding())
	assert.Equal(t, 7*24*time.Hour, cfg.Minio.URLExpiry)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  maxUploadMB: 5
  writeTimeout: 90s
vision:
  provider: OpenAI
  maxRetries: 2
database:
  backend: postgres
  user: app
  password: "p@ss word"
  host: db
  name: safety
minio:
  enabled: true
  endpoint: minio:9000
  accessKey: ak
  secretKey: sk
  urlExpiry: 1h
risk:
  rounding: half_even
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "openai", cfg.Vision.Provider)
	assert.Equal(t, "gpt-4o", cfg.Vision.Model)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/safety?sslmode=disable", cfg.PostgresDSN())
	assert.Equal(t, time.Hour, cfg.Minio.URLExpiry)
	assert.Equal(t, risk.RoundHalfEven, cfg.Rounding())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("CONSTRITE_DB_PASSWORD", "from-env")
	t.Setenv("MINIO_ACCESS_KEY", "env-ak")
	t.Setenv("CONSTRITE_API_KEYS", "ops:k1, audit:k2, broken, :nokey")

	path := writeFile(t, "config.yaml", "database:\n  backend: mysql\n  user: root\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "g-key", cfg.Vision.APIKey)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "env-ak", cfg.Minio.AccessKey)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, map[string]string{"ops": "k1", "audit": "k2"}, cfg.Auth.APIKeys)
	assert.Equal(t, "root:from-env@tcp(localhost:3306)/constrite?parseTime=true&charset=utf8mb4&loc=UTC&multiStatements=true", cfg.MySQLDSN())

	path = writeFile(t, "openai.yaml", "vision:\n  provider: openai\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "o-key", cfg.Vision.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"provider", "vision:\n  provider: claude\n", "vision.provider"},
		{"backend", "database:\n  backend: oracle\n", "database.backend"},
		{"rounding", "risk:\n  rounding: bankers\n", "rounding"},
		{"upload", "server:\n  maxUploadMB: 500\n", "maxUploadMB"},
		{"retries", "vision:\n  maxRetries: 50\n", "maxRetries"},
		{"auth without keys", "auth:\n  enabled: true\n", "apiKeys"},
		{"minio without creds", "minio:\n  enabled: true\n", "minio.enabled"},
		{"analytics without db", "analytics:\n  enabled: true\n", "analytics.enabled"},
		{"url expiry", "minio:\n  urlExpiry: 200h\n", "urlExpiry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "server: [1, 2"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "CONSTRITE_TEST_DOTENV=loaded\n")
	t.Setenv("CONSTRITE_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("CONSTRITE_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "loaded", os.Getenv("CONSTRITE_TEST_DOTENV"))
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv("CONFIG_PATH", "/etc/constrite.yaml")
	assert.Equal(t, "/etc/constrite.yaml", Path())
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Backend)
	assert.True(t, cfg.Database.Migrate)
	assert.True(t, cfg.Analytics.Enabled)
	assert.Equal(t, 3*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, 168*time.Hour, cfg.Minio.URLExpiry)
	assert.Equal(t, risk.RoundHalfUp, cfg.Rounding())
}
