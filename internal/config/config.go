package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/flowbaker/crmbridge/pkg/configstore"
	"github.com/flowbaker/crmbridge/pkg/domain"
	"github.com/flowbaker/crmbridge/pkg/sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "CRMBRIDGE"
	ConfigFileName = "crmbridge"
)

// Config holds the process level settings. The Salesforce connection itself lives in the
// settings store and is managed through /config.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Store    StoreConfig    `mapstructure:"store"`
	Jira     JiraConfig     `mapstructure:"jira"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Address        string        `mapstructure:"address"`
	ClientTimeout  time.Duration `mapstructure:"client_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type StoreConfig struct {
	Backend       string `mapstructure:"backend"`
	FilePath      string `mapstructure:"file_path"`
	RedisURL      string `mapstructure:"redis_url"`
	PostgresURL   string `mapstructure:"postgres_url"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

type JiraConfig struct {
	Email         string `mapstructure:"email"`
	APIToken      string `mapstructure:"api_token"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type AdminConfig struct {
	PublicKey string `mapstructure:"public_key"`
}

type SyncConfig struct {
	MaxAttempts         int           `mapstructure:"max_attempts"`
	BaseDelay           time.Duration `mapstructure:"base_delay"`
	FailureWriteTimeout time.Duration `mapstructure:"failure_write_timeout"`
}

type DefaultsConfig struct {
	ProjectKey          string `mapstructure:"project_key"`
	IssueTrackerBaseURL string `mapstructure:"issue_tracker_base_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// keys lists every setting so that each one can be overridden from the environment,
// e.g. store.redis_url is read from CRMBRIDGE_STORE_REDIS_URL.
var keys = []string{
	"http.address",
	"http.client_timeout",
	"http.request_timeout",
	"store.backend",
	"store.file_path",
	"store.redis_url",
	"store.postgres_url",
	"store.encryption_key",
	"jira.email",
	"jira.api_token",
	"jira.webhook_secret",
	"admin.public_key",
	"sync.max_attempts",
	"sync.base_delay",
	"sync.failure_write_timeout",
	"defaults.project_key",
	"defaults.issue_tracker_base_url",
	"log.level",
	"log.format",
	"log.file",
}

func setDefaults(v *viper.Viper) {
	retry := sync.DefaultRetryPolicy()

	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.client_timeout", 30*time.Second)
	v.SetDefault("http.request_timeout", 60*time.Second)

	v.SetDefault("store.backend", string(configstore.BackendMemory))
	v.SetDefault("store.file_path", "crmbridge-settings.json")

	v.SetDefault("sync.max_attempts", retry.MaxAttempts)
	v.SetDefault("sync.base_delay", retry.BaseDelay)
	v.SetDefault("sync.failure_write_timeout", retry.FailureWriteTimeout)

	v.SetDefault("defaults.project_key", "SH")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads defaults, then the config file, then CRMBRIDGE_* environment variables.
// An empty configFile searches ., ./config and $HOME/.crmbridge for crmbridge.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable for %s", key)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.crmbridge")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Debug().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var problems []string

	switch configstore.Backend(c.Store.Backend) {
	case configstore.BackendMemory:
	case configstore.BackendFile:
		if c.Store.FilePath == "" {
			problems = append(problems, "store.file_path is required for the file backend")
		}
	case configstore.BackendRedis:
		if c.Store.RedisURL == "" {
			problems = append(problems, "store.redis_url is required for the redis backend")
		}
	case configstore.BackendPostgres:
		if c.Store.PostgresURL == "" {
			problems = append(problems, "store.postgres_url is required for the postgres backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q is not one of memory, file, redis, postgres", c.Store.Backend))
	}

	if c.Store.Backend != string(configstore.BackendMemory) && c.Store.EncryptionKey == "" {
		problems = append(problems, "store.encryption_key is required for persistent backends")
	}

	if c.Sync.MaxAttempts < 1 {
		problems = append(problems, "sync.max_attempts must be at least 1")
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format %q is not one of console, json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}

	return nil
}

func (c *Config) StoreOptions() configstore.Options {
	return configstore.Options{
		Backend:          configstore.Backend(c.Store.Backend),
		FilePath:         c.Store.FilePath,
		RedisURL:         c.Store.RedisURL,
		PostgresURL:      c.Store.PostgresURL,
		EncryptionSecret: c.Store.EncryptionKey,
	}
}

func (c *Config) RetryPolicy() sync.RetryPolicy {
	return sync.RetryPolicy{
		MaxAttempts:         c.Sync.MaxAttempts,
		BaseDelay:           c.Sync.BaseDelay,
		FailureWriteTimeout: c.Sync.FailureWriteTimeout,
	}
}

func (c *Config) ConfigurationDefaults() domain.ConfigurationDefaults {
	return domain.ConfigurationDefaults{
		ProjectKey:          c.Defaults.ProjectKey,
		IssueTrackerBaseURL: c.Defaults.IssueTrackerBaseURL,
	}
}
