package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
db:
  host: db.internal
  port: 5433
  user: sync
  password: secret
  name: workflows
universal_loader:
  base_url: https://api.example.com/
  company_id: company
  user_id: user
  user_secret: file-secret
sync:
  interval_seconds: 60
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 5433, cfg.DB.Port)
	assert.Equal(t, "https://api.example.com", cfg.UniversalLoader.BaseURL)
	assert.Equal(t, time.Minute, cfg.SyncInterval())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("WORKFLOW_SYNC_UNIVERSAL_LOADER_USER_SECRET", "env-secret")
	t.Setenv("WORKFLOW_SYNC_SYNC_INTERVAL_SECONDS", "5")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.UniversalLoader.UserSecret)
	assert.Equal(t, 5*time.Second, cfg.SyncInterval())
}

func TestLoadConfig_RejectsMissingCredentials(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
universal_loader:
  base_url: https://api.example.com
sync:
  interval_seconds: 60
`))
	assert.Error(t, err)
}

func TestLoadConfig_RejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("WORKFLOW_SYNC_SYNC_INTERVAL_SECONDS", "0")

	_, err := LoadConfig(writeConfig(t, sampleConfig))
	assert.Error(t, err)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "plain", password: "secret"},
		{name: "empty", password: ""},
		{name: "with space", password: "my secret"},
		{name: "reserved characters", password: "p@ss:w/rd?#%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, sampleConfig))
			require.NoError(t, err)
			cfg.DB.Password = tt.password

			parsed, err := pgconn.ParseConfig(cfg.DSN())
			require.NoError(t, err)

			assert.Equal(t, "db.internal", parsed.Host)
			assert.EqualValues(t, 5433, parsed.Port)
			assert.Equal(t, "sync", parsed.User)
			assert.Equal(t, tt.password, parsed.Password)
			assert.Equal(t, "workflows", parsed.Database)
			assert.Nil(t, parsed.TLSConfig)
		})
	}
}

func TestLoadConfig_TLSRequiresCertPaths(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, sampleConfig+`
server:
  tls:
    enabled: true
`))
	assert.Error(t, err)

	cfg, err := LoadConfig(writeConfig(t, sampleConfig+`
server:
  tls:
    enabled: true
    cert_file: cert.pem
    key_file: key.pem
    hostnames: [localhost, 127.0.0.1]
`))
	require.NoError(t, err)
	assert.True(t, cfg.Server.TLS.Enabled)
	assert.Equal(t, []string{"localhost", "127.0.0.1"}, cfg.Server.TLS.Hostnames)
}
