package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `default_profile: production
profiles:
  production:
    key_id: ABC123DEFG
    issuer_id: TEAM7654321
    key_file: /etc/providertoken/AuthKey_ABC123DEFG.p8
    validity: 1h
  sandbox:
    key_id: SANDBOX001
    issuer_id: TEAM7654321
    key_file: ~/keys/sandbox.p8
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.DefaultProfile)
	assert.Equal(t, []string{"production", "sandbox"}, cfg.Names())

	p, err := cfg.Profile("production")
	require.NoError(t, err)
	assert.Equal(t, Profile{
		KeyID:    "ABC123DEFG",
		IssuerID: "TEAM7654321",
		KeyFile:  "/etc/providertoken/AuthKey_ABC123DEFG.p8",
		Validity: time.Hour,
	}, p)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "profiles: [unterminated"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config")
	})

	t.Run("invalid validity", func(t *testing.T) {
		_, err := Load(writeConfig(t, "profiles:\n  a:\n    validity: forever\n"))
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Empty(t, cfg.Names())
	})
}

func TestConfig_Profile(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	t.Run("default profile", func(t *testing.T) {
		p, err := cfg.Profile("")
		require.NoError(t, err)
		assert.Equal(t, "ABC123DEFG", p.KeyID)
	})

	t.Run("expands home directory", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}

		p, err := cfg.Profile("sandbox")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "keys", "sandbox.p8"), p.KeyFile)
		assert.Zero(t, p.Validity)
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := cfg.Profile("staging")
		require.ErrorIs(t, err, ErrProfileNotFound)
		assert.Contains(t, err.Error(), "staging")
	})

	t.Run("no default", func(t *testing.T) {
		cfg := &Config{Profiles: map[string]Profile{}}
		_, err := cfg.Profile("")
		require.ErrorIs(t, err, ErrNoDefaultProfile)
	})
}
