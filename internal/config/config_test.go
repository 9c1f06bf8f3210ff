package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowbaker/crmbridge/pkg/configstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crmbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.HTTP.Address)
	assert.Equal(t, 30*time.Second, config.HTTP.ClientTimeout)
	assert.Equal(t, string(configstore.BackendMemory), config.Store.Backend)
	assert.Equal(t, 3, config.Sync.MaxAttempts)
	assert.Equal(t, 2*time.Second, config.Sync.BaseDelay)
	assert.Equal(t, "SH", config.Defaults.ProjectKey)
	assert.Equal(t, "console", config.Log.Format)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfigFile(t, `
http:
  address: ":9090"
store:
  backend: file
  file_path: /var/lib/crmbridge/settings.json
  encryption_key: from-file
jira:
  email: bot@acme.test
sync:
  base_delay: 500ms
defaults:
  issue_tracker_base_url: https://acme.atlassian.net
`)

	t.Setenv("CRMBRIDGE_STORE_ENCRYPTION_KEY", "from-env")
	t.Setenv("CRMBRIDGE_JIRA_API_TOKEN", "jira-token")
	t.Setenv("CRMBRIDGE_SYNC_MAX_ATTEMPTS", "5")

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", config.HTTP.Address)
	assert.Equal(t, "from-env", config.Store.EncryptionKey)
	assert.Equal(t, "bot@acme.test", config.Jira.Email)
	assert.Equal(t, "jira-token", config.Jira.APIToken)

	retry := config.RetryPolicy()
	assert.Equal(t, 5, retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, retry.BaseDelay)

	opts := config.StoreOptions()
	assert.Equal(t, configstore.BackendFile, opts.Backend)
	assert.Equal(t, "/var/lib/crmbridge/settings.json", opts.FilePath)

	defaults := config.ConfigurationDefaults()
	assert.Equal(t, "SH", defaults.ProjectKey)
	assert.Equal(t, "https://acme.atlassian.net", defaults.IssueTrackerBaseURL)
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfigFile(t, "http: [unterminated"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoad_InvalidSettings(t *testing.T) {
	_, err := Load(writeConfigFile(t, "store:\n  backend: redis\n"))
	assert.ErrorContains(t, err, "store.redis_url")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store: StoreConfig{Backend: "memory"},
			Sync:  SyncConfig{MaxAttempts: 3},
			Log:   LogConfig{Format: "console"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "memory backend",
			mutate: func(c *Config) {},
		},
		{
			name: "redis backend without url",
			mutate: func(c *Config) {
				c.Store.Backend = "redis"
				c.Store.EncryptionKey = "k"
			},
			wantErr: "store.redis_url",
		},
		{
			name: "postgres backend without encryption key",
			mutate: func(c *Config) {
				c.Store.Backend = "postgres"
				c.Store.PostgresURL = "postgres://localhost/crmbridge"
			},
			wantErr: "store.encryption_key",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "etcd" },
			wantErr: "store.backend",
		},
		{
			name:    "no attempts",
			mutate:  func(c *Config) { c.Sync.MaxAttempts = 0 },
			wantErr: "sync.max_attempts",
		},
		{
			name:    "log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
