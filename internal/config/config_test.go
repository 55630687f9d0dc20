package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	cfg, err := FromEnv([]string{
		"CONCIERGE_ADDR=:9000",
		"CONCIERGE_LOG_FORMAT=json",
		"CONCIERGE_REDIS_ADDR=localhost:6379",
		"CONCIERGE_REDIS_DB=2",
		"CONCIERGE_SESSION_TTL=1h",
		"CONCIERGE_SESSION_DIR=/var/lib/concierge",
		"CONCIERGE_TASK_TIMEOUT=250ms",
		"CONCIERGE_PII_PATTERNS=email, phone",
		"CONCIERGE_MAX_INPUT_SIZE=1024",
		"HOME=/root",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.True(t, cfg.JSONLogs())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "/var/lib/concierge", cfg.SessionDir)
	assert.Equal(t, 250*time.Millisecond, cfg.TaskTimeout)
	assert.Equal(t, []string{"email", "phone"}, cfg.PIIPatterns)
	assert.Equal(t, 1024, cfg.MaxInputSize)

	// Untouched values keep their defaults.
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.JSONLogs())

	key, err := cfg.Key()
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want string
	}{
		{"bad duration", "CONCIERGE_TASK_TIMEOUT=soon", "task_timeout"},
		{"bad format", "CONCIERGE_LOG_FORMAT=xml", "log format"},
		{"zero lock timeout", "CONCIERGE_LOCK_TIMEOUT=0s", "lock timeout"},
		{"non hex key", "CONCIERGE_ENCRYPTION_KEY=zz", "hex"},
		{"short key", "CONCIERGE_ENCRYPTION_KEY=abcd", "32 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv([]string{tt.env})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Key(t *testing.T) {
	cfg := Default()
	cfg.EncryptionKey = strings.Repeat("ab", 32)
	key, err := cfg.Key()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CONCIERGE_WORKFLOWS=./flows\nCONCIERGE_AUDIT_DSN=:memory:\n"), 0o600))
	t.Setenv("CONCIERGE_AUDIT_DSN", "file:audit.db")
	t.Cleanup(func() { os.Unsetenv("CONCIERGE_WORKFLOWS") })

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "./flows", cfg.WorkflowsPath)
	// The process environment wins over the file.
	assert.Equal(t, "file:audit.db", cfg.AuditDSN)
}
