package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvAPIURL overrides api.base_url when set
const EnvAPIURL = "DUALLIST_API_URL"

// Config represents the application configuration
type Config struct {
	Version int            `toml:"version"`
	LogFile string         `toml:"log_file"`
	API     APISettings    `toml:"api"`
	Paging  PagingSettings `toml:"paging"`
	Delays  DelaySettings  `toml:"delays"`
	UI      UISettings     `toml:"ui"`
}

// APISettings configures the remote item service client
type APISettings struct {
	BaseURL    string   `toml:"base_url"`
	Timeout    Duration `toml:"timeout"`
	Retries    int      `toml:"retries"`     // extra attempts for idempotent reads
	RetryDelay Duration `toml:"retry_delay"` // pause between read attempts
}

// PagingSettings configures incremental loading
type PagingSettings struct {
	Limit int `toml:"limit"`
}

// DelaySettings are the fixed waits before consumers are told to refresh.
// They mirror how long the store takes to apply a mutation.
type DelaySettings struct {
	SelectBroadcast Duration `toml:"select_broadcast"`
	IntakeBroadcast Duration `toml:"intake_broadcast"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	NotifyReorderApplied bool     `toml:"notify_reorder_applied"`
	NoticeTTL            Duration `toml:"notice_ttl"`
}

// Duration is a time.Duration written as "1.5s" in the config file
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service using the per-user config file
func NewConfigService() ConfigService {
	return NewConfigServiceAt(DefaultPath())
}

// NewConfigServiceAt creates a config service bound to path
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/duallist/config.toml or the platform equivalent
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "duallist", "config.toml")
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file. A missing file yields the
// defaults, which are written back so the user has something to edit.
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := cs.Save(cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Keys missing
// from the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides values from the environment. lookup is os.LookupEnv
// in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && strings.TrimSpace(v) != "" {
		c.API.BaseURL = strings.TrimSpace(v)
	}
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url is empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.Paging.Limit <= 0 {
		return fmt.Errorf("config: paging.limit must be positive, got %d", c.Paging.Limit)
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("config: api.retries must not be negative, got %d", c.API.Retries)
	}
	if c.Delays.SelectBroadcast < 0 || c.Delays.IntakeBroadcast < 0 {
		return errors.New("config: broadcast delays must not be negative")
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		LogFile: "duallist.log",
		API: APISettings{
			BaseURL:    "http://localhost:8080",
			Timeout:    Duration(10 * time.Second),
			Retries:    2,
			RetryDelay: Duration(300 * time.Millisecond),
		},
		Paging: PagingSettings{Limit: 20},
		Delays: DelaySettings{
			SelectBroadcast: Duration(1100 * time.Millisecond),
			IntakeBroadcast: Duration(10500 * time.Millisecond),
		},
		UI: UISettings{
			NotifyReorderApplied: false,
			NoticeTTL:            Duration(4 * time.Second),
		},
	}
}
