package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoader_Load_FileNotExists(t *testing.T) {
	cfg, err := NewConfigLoader().Load("/nonexistent/config.yaml")

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "auto", cfg.Runtime)
}

func TestConfigLoader_Load_ValidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yaml := `
data_root: /srv/dblab
engines_dir: /etc/dblab/engines
runtime: podman
env_files:
  - /etc/dblab/common.env
list_concurrency: 4

redaction:
  patterns:
    - "password\\s*=\\s*\\S+"
  paths:
    - "db.password"
    - "db.root_password"
  hash_mode:
    enabled: true
    salt: "test-salt"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o600))

	cfg, err := NewConfigLoader().Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/srv/dblab", cfg.DataRoot)
	assert.Equal(t, "/etc/dblab/engines", cfg.EnginesDir)
	assert.Equal(t, "podman", cfg.Runtime)
	assert.Equal(t, []string{"/etc/dblab/common.env"}, cfg.EnvFiles)
	assert.Equal(t, 4, cfg.ListConcurrency)

	assert.Len(t, cfg.Redaction.Patterns, 1)
	assert.Equal(t, []string{"db.password", "db.root_password"}, cfg.Redaction.Paths)
	assert.True(t, cfg.Redaction.HashMode.Enabled)
	assert.Equal(t, "test-salt", cfg.Redaction.HashMode.Salt)
}

func TestConfigLoader_Load_KeepsDefaultsForMissingKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("data_root: /tmp/x\n"), 0o600))

	cfg, err := NewConfigLoader().Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Runtime)
}

func TestConfigLoader_Load_Invalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("runtime: [unterminated\n"), 0o600))

	_, err := NewConfigLoader().Load(configPath)
	assert.ErrorContains(t, err, "failed to parse system config")
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "dblab", "config.yaml"), DefaultPath())
}
