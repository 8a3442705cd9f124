package Config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "database.db", cfg.DB.DSN)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Hour, cfg.Orphan.MinAge)
	assert.False(t, cfg.Orphan.AutoRepair)
	assert.True(t, cfg.SeedData)
	assert.False(t, cfg.SlackEnabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "JWT_SECRET=" + testSecret + "\nDB_DRIVER=Postgres\nDB_DSN=host=db user=audit\nTOKEN_TTL=90\nORPHAN_AUTO_REPAIR=yes\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0644))

	// godotenv never overrides variables that are already set.
	for _, k := range []string{"JWT_SECRET", "DB_DRIVER", "DB_DSN", "TOKEN_TTL", "ORPHAN_AUTO_REPAIR"} {
		if v, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { os.Setenv(k, v) })
		} else {
			t.Cleanup(func() { os.Unsetenv(k) })
		}
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "host=db user=audit", cfg.DB.DSN)
	assert.Equal(t, 90*time.Second, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Orphan.AutoRepair)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:     "3001",
			DB:       DBConfig{Driver: "sqlite", DSN: "x.db"},
			Auth:     AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
			Drafts:   DraftConfig{TTL: time.Hour},
			Orphan:   OrphanConfig{MinAge: time.Hour},
			LogLevel: "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.DB.Driver = "oracle" }, wantErr: "DB_DRIVER"},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: "JWT_SECRET"},
		{name: "slack token without channel", mutate: func(c *Config) { c.Slack.BotToken = "xoxb" }, wantErr: "SLACK"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "LOG_LEVEL"},
		{name: "empty dsn", mutate: func(c *Config) { c.DB.DSN = "" }, wantErr: "DB_DSN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
