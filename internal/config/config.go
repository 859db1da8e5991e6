// Package config handles greylit configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	// AppDir is the directory name under XDG_CONFIG_HOME.
	AppDir = "greylit"
	// ConfigFile is the config file name inside AppDir.
	ConfigFile = "config.yml"
	// LocalConfigFile is looked up in the working directory first.
	LocalConfigFile = "greylit.yml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GREYLIT_"
)

// Database drivers.
const (
	DriverOracle = "oracle"
	DriverSQLite = "sqlite"
)

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{DriverOracle, DriverSQLite}

// ErrConfigNotFound is returned when an explicitly named config file is missing.
var ErrConfigNotFound = errors.New("config file not found")

// Config is the full greylit configuration.
type Config struct {
	API      APIConfig      `yaml:"api" json:"api"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Source   SourceConfig   `yaml:"source" json:"source"`
	Series   SeriesConfig   `yaml:"series" json:"series"`
	Authors  AuthorsConfig  `yaml:"authors" json:"authors"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// APIConfig says where the OASIS feed comes from.
type APIConfig struct {
	URL        string        `yaml:"url,omitempty" json:"url,omitempty"`
	APIKey     string        `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	UseLocal   bool          `yaml:"use_local" json:"use_local"`
	LocalPath  string        `yaml:"local_path,omitempty" json:"local_path,omitempty"`
	RateLimit  float64       `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"` // requests per second, 0 = unlimited
	MaxRetries int           `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// DatabaseConfig holds connection settings. Oracle uses the host fields,
// SQLite uses Path.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" json:"driver"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	Host     string `yaml:"host,omitempty" json:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty"`
	SID      string `yaml:"sid,omitempty" json:"sid,omitempty"`
	Service  string `yaml:"service,omitempty" json:"service,omitempty"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
}

// SourceConfig describes the SOURCE row every issue is attached to.
type SourceConfig struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Link        string `yaml:"link" json:"link"`
}

// SeriesConfig describes the SERIES row every issue is attached to.
type SeriesConfig struct {
	Name            string `yaml:"name" json:"name"`
	PublicationType string `yaml:"publication_type" json:"publication_type"`
}

// AuthorsConfig controls author-list parsing.
type AuthorsConfig struct {
	Mode string `yaml:"mode" json:"mode"` // lenient or strict
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // text or json
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		API: APIConfig{
			LocalPath:  "welsh_trusts_sample.json",
			RateLimit:  2,
			MaxRetries: 3,
			Timeout:    60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: DriverOracle,
			Port:   1521,
		},
		Source: SourceConfig{
			Name: "Welsh Archaeological Trusts - Archwilio",
			Description: "Archwilio is a Wales-wide database of archaeological and historical information.\n" +
				"Clwyd-Powys Archaeological Trust\n" +
				"Dyfed Archaeological Trust\n" +
				"Glamorgan-Gwent Archaeological Trust\n" +
				"Gwynedd Archaeological Trust",
			Link: "https://archwilio.org.uk/wp/",
		},
		Series: SeriesConfig{
			Name:            "Welsh Archaeological Trusts reports",
			PublicationType: "GreyLit",
		},
		Authors: AuthorsConfig{Mode: "lenient"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// GlobalConfigPath returns the per-user config path.
func GlobalConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppDir, ConfigFile)
}

// Locate picks the config file to read. An explicit path always wins;
// otherwise ./greylit.yml, then the per-user file. Returns "" if none exists.
func Locate(explicit string) string {
	if explicit != "" {
		return ExpandPath(explicit)
	}
	for _, p := range []string{LocalConfigFile, GlobalConfigPath()} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the config file at path on top of Default. An empty path
// yields the defaults. Relative local_path and database path values are
// resolved against the config file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	dir := filepath.Dir(path)
	cfg.API.LocalPath = resolvePath(dir, cfg.API.LocalPath)
	if cfg.Database.Path != ":memory:" {
		cfg.Database.Path = resolvePath(dir, cfg.Database.Path)
	}

	return cfg, nil
}

// ApplyEnv overrides values from GREYLIT_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	str("API_URL", &c.API.URL)
	str("API_KEY", &c.API.APIKey)
	str("API_LOCAL_PATH", &c.API.LocalPath)
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_USERNAME", &c.Database.Username)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_HOST", &c.Database.Host)
	str("DB_SID", &c.Database.SID)
	str("DB_SERVICE", &c.Database.Service)
	str("DB_PATH", &c.Database.Path)
	str("AUTHORS_MODE", &c.Authors.Mode)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v := getenv(EnvPrefix + "API_USE_LOCAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sAPI_USE_LOCAL: %w", EnvPrefix, err)
		}
		c.API.UseLocal = b
	}
	if v := getenv(EnvPrefix + "DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sDB_PORT: %w", EnvPrefix, err)
		}
		c.Database.Port = port
	}
	return nil
}

// Redacted returns a copy of c with secrets masked, for display.
func (c Config) Redacted() Config {
	if c.Database.Password != "" {
		c.Database.Password = "XXXXX"
	}
	if c.API.APIKey != "" {
		c.API.APIKey = "XXXXX"
	}
	return c
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

func resolvePath(dir, p string) string {
	if p == "" {
		return p
	}
	p = ExpandPath(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
