package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultAPIURL    = "http://localhost:4000"
	DefaultSocketURL = "ws://localhost:4000/api/v1/notifications"
	DefaultPageSize  = 10
	DefaultTimeout   = 15 * time.Second
	DefaultView      = "default"
)

type Config struct {
	APIURL      string   `toml:"api_url"`
	SocketURL   string   `toml:"socket_url"`
	Token       string   `toml:"token,omitempty"`
	PageSize    int      `toml:"page_size"`
	Timeout     Duration `toml:"timeout"`
	RateLimit   float64  `toml:"rate_limit"`
	RateBurst   int      `toml:"rate_burst"`
	StateDir    string   `toml:"state_dir"`
	LogLevel    string   `toml:"log_level"`
	DefaultView string   `toml:"default_view"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	stateDir, err := GetDefaultStateDir()
	if err != nil {
		return nil, fmt.Errorf("getting default state directory: %w", err)
	}
	cfg := &Config{StateDir: stateDir}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadConfig reads the TOML file at configPath, fills in defaults and then
// applies GIGS_* environment overrides (a .env file in the working directory
// is honored). A missing file yields the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.StateDir == "" {
		stateDir, err := GetDefaultStateDir()
		if err != nil {
			return nil, fmt.Errorf("getting default state directory: %w", err)
		}
		cfg.StateDir = stateDir
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.SocketURL == "" {
		c.SocketURL = DefaultSocketURL
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Timeout.Duration <= 0 {
		c.Timeout = Duration{DefaultTimeout}
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 3
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DefaultView == "" {
		c.DefaultView = DefaultView
	}
}

// applyEnv loads .env (if present) and overrides fields from GIGS_* variables.
func (c *Config) applyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if v := os.Getenv("GIGS_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("GIGS_SOCKET_URL"); v != "" {
		c.SocketURL = v
	}
	if v := os.Getenv("GIGS_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("GIGS_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("GIGS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GIGS_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing GIGS_PAGE_SIZE: %w", err)
		}
		c.PageSize = n
	}
	return nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	stateDir := c.StateDir
	if stateDir == "" {
		var err error
		stateDir, err = GetDefaultStateDir()
		if err != nil {
			return fmt.Errorf("getting default state directory: %w", err)
		}
	}

	template := strings.Replace(configTemplate, "/home/user/.local/share/gigs", stateDir, 1)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// SessionDBPath returns the sqlite file holding browse sessions.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.StateDir, "sessions.db")
}

// GetDefaultStateDir returns the default directory for browse sessions
func GetDefaultStateDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "gigs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating state directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetConfigDir returns the configuration directory for gigs
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "gigs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
