// Package config handles the configuration directory, environment and settings file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "todocli"

	// OAuthClientFile is the OAuth client credentials filename (Google provider).
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// SettingsFile is the optional YAML settings filename.
	SettingsFile = "config.yaml"

	// EnvFile is the dotenv filename looked up in the working and config directories.
	EnvFile = ".env"
)

// Provider names.
const (
	ProviderMicrosoft = "mstodo"
	ProviderGoogle    = "gtasks"
)

// Defaults.
const (
	DefaultTenant       = "consumers"
	DefaultPort         = 5000
	DefaultLoginTimeout = 5 * time.Minute
)

// Environment variable names.
const (
	EnvClientID     = "CLIENT_ID"
	EnvClientSecret = "CLIENT_SECRET"
	EnvProvider     = "TODOCLI_PROVIDER"
	EnvTenant       = "TODOCLI_TENANT"
	EnvPort         = "TODOCLI_PORT"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Provider selects the task backend ("mstodo" or "gtasks").
	Provider string

	// Tenant is the Microsoft identity tenant used in the authority URL.
	Tenant string

	// Port is the local port of the OAuth redirect listener. 0 picks a free port.
	Port int

	// LoginTimeout bounds how long login waits for the browser redirect.
	LoginTimeout time.Duration

	// GraphBaseURL overrides the Microsoft Graph base URL.
	GraphBaseURL string

	// ClientID and ClientSecret are the OAuth client credentials.
	ClientID     string
	ClientSecret string

	// Logger receives diagnostics. Nil means discard.
	Logger *slog.Logger

	tokenFile string
}

// Settings is the on-disk shape of config.yaml. Zero values keep defaults.
type Settings struct {
	Provider     string `yaml:"provider"`
	Tenant       string `yaml:"tenant"`
	Port         *int   `yaml:"port"`
	TokenFile    string `yaml:"token_file"`
	GraphBaseURL string `yaml:"graph_base_url"`
	LoginTimeout string `yaml:"login_timeout"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todocli or $HOME/.config/todocli.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:          dir,
		Provider:     ProviderMicrosoft,
		Tenant:       DefaultTenant,
		Port:         DefaultPort,
		LoginTimeout: DefaultLoginTimeout,
	}, nil
}

// Load creates a Config and applies config.yaml, .env files and the process
// environment on top of the defaults.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.applySettingsFile(); err != nil {
		return nil, err
	}
	if err := loadEnvFiles(EnvFile, filepath.Join(cfg.Dir, EnvFile)); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
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

// loadEnvFiles loads dotenv files that exist. Variables already set in the
// process environment are not overridden.
func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applySettingsFile() error {
	data, err := os.ReadFile(c.SettingsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	return c.Apply(s)
}

// Apply merges non-zero settings into the config.
func (c *Config) Apply(s Settings) error {
	if s.Provider != "" {
		c.Provider = s.Provider
	}
	if s.Tenant != "" {
		c.Tenant = s.Tenant
	}
	if s.Port != nil {
		if *s.Port < 0 || *s.Port > 65535 {
			return fmt.Errorf("invalid port: %d", *s.Port)
		}
		c.Port = *s.Port
	}
	if s.TokenFile != "" {
		c.tokenFile = s.TokenFile
	}
	if s.GraphBaseURL != "" {
		c.GraphBaseURL = strings.TrimRight(s.GraphBaseURL, "/")
	}
	if s.LoginTimeout != "" {
		d, err := time.ParseDuration(s.LoginTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid login_timeout: %s", s.LoginTimeout)
		}
		c.LoginTimeout = d
	}
	return c.validateProvider()
}

func (c *Config) applyEnv() error {
	c.ClientID = strings.TrimSpace(os.Getenv(EnvClientID))
	c.ClientSecret = strings.TrimSpace(os.Getenv(EnvClientSecret))
	if v := strings.TrimSpace(os.Getenv(EnvProvider)); v != "" {
		c.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTenant)); v != "" {
		c.Tenant = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid %s: %s", EnvPort, v)
		}
		c.Port = port
	}
	return c.validateProvider()
}

func (c *Config) validateProvider() error {
	switch c.Provider {
	case ProviderMicrosoft, ProviderGoogle:
		return nil
	default:
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}
}

// Log returns the configured logger or a discarding one.
func (c *Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
// A relative token_file setting is resolved against the config directory.
func (c *Config) TokenPath() string {
	if c.tokenFile == "" {
		return filepath.Join(c.Dir, TokenFile)
	}
	if filepath.IsAbs(c.tokenFile) {
		return c.tokenFile
	}
	return filepath.Join(c.Dir, c.tokenFile)
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
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
