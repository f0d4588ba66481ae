// Package config handles the configuration directory, the optional
// config.yaml file and TODO_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// ConfigFile is the optional settings file inside the config directory.
	ConfigFile = "config.yaml"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// EnvPrefix prefixes environment overrides, e.g. TODO_BACKEND.
	EnvPrefix = "TODO"
)

// Backend names.
const (
	BackendFile        = "file"
	BackendSQLite      = "sqlite"
	BackendMySQL       = "mysql"
	BackendGoogleTasks = "googletasks"
)

const (
	defaultKey       = "todos"
	defaultRecent    = 5
	defaultListTitle = "todo-store"
	defaultDBFile    = "todo.db"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Backend selects the persistent store.
	Backend string `mapstructure:"backend"`

	// Key is the storage key the task collection is kept under.
	Key string `mapstructure:"key"`

	// DataDir holds the file backend's snapshots and the default SQLite file.
	DataDir string `mapstructure:"data_dir"`

	// Recent is how many tasks `todo recent` shows by default.
	Recent int `mapstructure:"recent"`

	SQLite      SQLiteConfig      `mapstructure:"sqlite"`
	MySQL       MySQLConfig       `mapstructure:"mysql"`
	GoogleTasks GoogleTasksConfig `mapstructure:"googletasks"`
	Log         LogConfig         `mapstructure:"log"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path defaults to <data_dir>/todo.db.
	Path string `mapstructure:"path"`
}

// MySQLConfig configures the MySQL backend.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// GoogleTasksConfig configures the Google Tasks backend.
type GoogleTasksConfig struct {
	// ListTitle is the task list the snapshot is stored in.
	ListTitle string `mapstructure:"list_title"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:     dir,
		Backend: BackendFile,
		Key:     defaultKey,
		Recent:  defaultRecent,
		GoogleTasks: GoogleTasksConfig{
			ListTitle: defaultListTitle,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}, nil
}

// Load is New plus config.yaml from the config directory and TODO_*
// environment variables. A missing config.yaml is not an error.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(cfg.Dir, ConfigFile))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("key", cfg.Key)
	v.SetDefault("data_dir", "")
	v.SetDefault("recent", cfg.Recent)
	v.SetDefault("sqlite.path", "")
	v.SetDefault("mysql.dsn", "")
	v.SetDefault("googletasks.list_title", cfg.GoogleTasks.ListTitle)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// Validate checks settings that would otherwise fail later with a less
// useful message.
func (c *Config) Validate() error {
	switch c.BackendName() {
	case BackendFile, BackendSQLite, BackendGoogleTasks:
	case BackendMySQL:
		if strings.TrimSpace(c.MySQL.DSN) == "" {
			return errors.New("mysql backend requires mysql.dsn")
		}
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	if c.Recent < 0 {
		return fmt.Errorf("invalid recent count: %d", c.Recent)
	}
	if key := c.StorageKey(); key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid key: %s", key)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// BackendName returns the configured backend, defaulting to the file backend.
func (c *Config) BackendName() string {
	if c.Backend == "" {
		return BackendFile
	}
	return c.Backend
}

// StorageKey returns the key the task collection is stored under.
func (c *Config) StorageKey() string {
	if c.Key == "" {
		return defaultKey
	}
	return c.Key
}

// RecentCount returns the default number of recent tasks to show.
func (c *Config) RecentCount() int {
	if c.Recent <= 0 {
		return defaultRecent
	}
	return c.Recent
}

// DataPath returns the data directory, defaulting to the config directory.
func (c *Config) DataPath() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return c.Dir
}

// SQLitePath returns the SQLite database file.
func (c *Config) SQLitePath() string {
	if c.SQLite.Path != "" {
		return c.SQLite.Path
	}
	return filepath.Join(c.DataPath(), defaultDBFile)
}

// TaskListTitle returns the Google Tasks list that holds the snapshot.
func (c *Config) TaskListTitle() string {
	if c.GoogleTasks.ListTitle == "" {
		return defaultListTitle
	}
	return c.GoogleTasks.ListTitle
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
