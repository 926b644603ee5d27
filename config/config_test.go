package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().BonsaiURL, cfg.BonsaiURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 2, cfg.Retries)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := []byte("bonsai_url: https://bonsai.example.com\ntimeout: 10s\nretries: 4\n")
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://bonsai.example.com", cfg.BonsaiURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 4, cfg.Retries)
	// Unset values keep their defaults.
	assert.Equal(t, Default().AuditLogURL, cfg.AuditLogURL)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bonsai_url: https://file.example.com\n"), 0o600))

	t.Setenv("BONSAI_API_URL", "https://env.example.com")
	t.Setenv("BONSAI_TOKEN", "tok_env")
	t.Setenv("BONSAI_TIMEOUT", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BonsaiURL)
	assert.Equal(t, "tok_env", cfg.Token)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Token = "tok_123"
	cfg.AuditLogURL = "https://audit.example.com"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tok_123", back.Token)
	assert.Equal(t, "https://audit.example.com", back.AuditLogURL)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BONSAI_TEST_STR", "value")
	t.Setenv("BONSAI_TEST_INT", "42")
	t.Setenv("BONSAI_TEST_BOOL", "true")
	t.Setenv("BONSAI_TEST_DUR", "1m")
	t.Setenv("BONSAI_TEST_BAD_INT", "not-a-number")

	assert.Equal(t, "value", GetString("BONSAI_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", GetString("BONSAI_TEST_UNSET", "fallback"))
	assert.Equal(t, 42, GetInt("BONSAI_TEST_INT", 0))
	assert.Equal(t, 7, GetInt("BONSAI_TEST_BAD_INT", 7))
	assert.True(t, GetBool("BONSAI_TEST_BOOL", false))
	assert.Equal(t, time.Minute, GetDuration("BONSAI_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, GetDuration("BONSAI_TEST_UNSET", time.Second))
}

func TestMaxRetries(t *testing.T) {
	cfg := &Config{Retries: 3}
	assert.Equal(t, uint64(3), cfg.MaxRetries())
	cfg.Retries = -1
	assert.Equal(t, uint64(0), cfg.MaxRetries())
}
