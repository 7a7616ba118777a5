package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "config-test-secret-0123456789"

var envKeys = []string{
	"CONFIG_FILE", "PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "JWT_SECRET",
	"TOKEN_TTL", "BCRYPT_COST", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS", "PLAYGROUND",
}

// clearEnv blanks every variable Load reads; empty counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.True(t, cfg.Playground)
	assert.Empty(t, cfg.JWTSecret, "secret must never have a default")
	assert.Zero(t, cfg.TokenTTL)
}

func TestLoad_RequiresSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "4000")
	t.Setenv("DB_PATH", "/tmp/hn.db")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PLAYGROUND", "false")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, testSecret, cfg.JWTSecret)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "/tmp/hn.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.Playground)
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "eighty"},
		{"BCRYPT_COST", "high"},
		{"TOKEN_TTL", "forever"},
		{"PLAYGROUND", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", testSecret)
			t.Setenv(tt.key, tt.value)

			_, err := Load(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port: 5000
db_path: from-file.db
jwt_secret: file-secret-0123456789
token_ttl: 2h
log_level: debug
cors_origins:
  - https://file.example
`)
	t.Setenv("DB_PATH", "from-env.db")

	cfg, err := Load([]string{"--config", path, "--port", "6000"})
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Port, "flag beats file")
	assert.Equal(t, "from-env.db", cfg.DBPath, "env beats file")
	assert.Equal(t, "file-secret-0123456789", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://file.example"}, cfg.CORSOrigins)
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "jwt_secret: env-file-secret-0123456789\nplayground: false\n"))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "env-file-secret-0123456789", cfg.JWTSecret)
	assert.False(t, cfg.Playground)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "7000")

	cfg, err := Load([]string{"--log-level", "warn"})
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Flags(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{
		"--jwt-secret", testSecret,
		"--db-driver", "postgres",
		"--database-url", "postgres://localhost/hn",
		"--token-ttl", "30m",
		"--bcrypt-cost", "5",
		"--cors-origins", "https://x.example,https://y.example",
		"--playground=false",
	})
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/hn", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.BcryptCost)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.Playground)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
		require.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load([]string{"--config", writeFile(t, "port: [nope")})
		require.Error(t, err)
	})

	t.Run("unknown flag", func(t *testing.T) {
		clearEnv(t)
		_, err := Load([]string{"--frobnicate"})
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.JWTSecret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults plus secret", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "jwt secret"},
		{"port zero", func(c *Config) { c.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Port = 70000 }, "port"},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "db_driver"},
		{"sqlite without path", func(c *Config) { c.DBPath = "" }, "db_path"},
		{"postgres without url", func(c *Config) { c.DBDriver = DriverPostgres }, "database_url"},
		{"postgres with url", func(c *Config) {
			c.DBDriver = DriverPostgres
			c.DatabaseURL = "postgres://localhost/hn"
		}, ""},
		{"negative ttl", func(c *Config) { c.TokenTTL = -time.Second }, "token_ttl"},
		{"bcrypt too low", func(c *Config) { c.BcryptCost = bcrypt.MinCost - 1 }, "bcrypt_cost"},
		{"bcrypt too high", func(c *Config) { c.BcryptCost = bcrypt.MaxCost + 1 }, "bcrypt_cost"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Port = -1
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "log_format")
	assert.Contains(t, err.Error(), "jwt secret")
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}

func TestLogValue_OmitsSecrets(t *testing.T) {
	cfg := Default()
	cfg.JWTSecret = testSecret
	cfg.DatabaseURL = "postgres://user:hunter2@db/hn"

	var buf bytes.Buffer
	cfg.Logger(&buf).Info("configuration loaded", "config", cfg)

	out := buf.String()
	assert.Contains(t, out, "config.port=3000")
	assert.NotContains(t, out, testSecret)
	assert.NotContains(t, out, "hunter2")
}
