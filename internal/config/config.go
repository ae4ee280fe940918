package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
	"github.com/lehigh-university-libraries/fakebook/internal/priority"
)

// Config is the fakebook runtime configuration
type Config struct {
	Database   string               `mapstructure:"database" yaml:"database"`
	MusicDir   string               `mapstructure:"music_dir" yaml:"music_dir"`
	Sources    []models.IndexSource `mapstructure:"sources" yaml:"sources"`
	Canonicals []models.Canonical   `mapstructure:"canonicals" yaml:"canonicals"`
	Search     SearchConfig         `mapstructure:"search" yaml:"search"`
	Server     ServerConfig         `mapstructure:"server" yaml:"server"`
}

// SearchConfig holds search defaults
type SearchConfig struct {
	Dedup string `mapstructure:"dedup" yaml:"dedup"`
	Limit int    `mapstructure:"limit" yaml:"limit"` // 0 means unlimited
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Database:   "fakebook.db",
		MusicDir:   ".",
		Sources:    []models.IndexSource{},
		Canonicals: []models.Canonical{},
		Search: SearchConfig{
			Dedup: "titles",
			Limit: 0,
		},
		Server: ServerConfig{
			Port: 8888,
		},
	}
}

// PriorityTable builds the validated priority table for the configured
// sources and canonicals
func (c *Config) PriorityTable() (*priority.Table, error) {
	return priority.NewTable(c.Sources, c.Canonicals)
}

// DatabasePath returns the database path with ${ENV_VAR} references expanded
func (c *Config) DatabasePath() string {
	return ResolveEnvVars(c.Database)
}

// MusicPath returns the music directory with ${ENV_VAR} references expanded
func (c *Config) MusicPath() string {
	return ResolveEnvVars(c.MusicDir)
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// An explicit cfgFile must exist; otherwise a missing file means defaults.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	cm.v.SetDefault("database", defaults.Database)
	cm.v.SetDefault("music_dir", defaults.MusicDir)
	cm.v.SetDefault("sources", defaults.Sources)
	cm.v.SetDefault("canonicals", defaults.Canonicals)
	cm.v.SetDefault("search.dedup", defaults.Search.Dedup)
	cm.v.SetDefault("search.limit", defaults.Search.Limit)
	cm.v.SetDefault("server.port", defaults.Server.Port)

	// FAKEBOOK_DATABASE, FAKEBOOK_SERVER_PORT, ...
	cm.v.SetEnvPrefix("FAKEBOOK")
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("fakebook")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath("$HOME/.fakebook")
	}

	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.PriorityTable(); err != nil {
		return nil, fmt.Errorf("invalid priorities: %w", err)
	}
	return &cfg, nil
}

// ConfigFile returns the path of the loaded config file, or "" when running on defaults
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. A reload that fails to
// parse or validate is reported to onError and the previous config is kept.
func (cm *Manager) WatchConfig(onError func(error)) {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Fakebook configuration
# Lower priority wins when several sources index the same title.
#
# sources:
#   - {code: Skr, name: Skrivarna, priority: 1}
# canonicals:
#   - {name: Real Book Vol 1, priority: 1, file: realbook1.pdf}

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
