package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the backend the client talks to when nothing else is configured.
// Override at build time with: go build -ldflags "-X github.com/Batdan007/MaiAI-Birth/internal/config.DefaultAPIURL=https://api.example.com"
var DefaultAPIURL = "http://localhost:8000"

// EnvPrefix is the prefix of every environment override (MAIAI_API_URL, ...)
const EnvPrefix = "MAIAI"

// Config represents the client configuration
type Config struct {
	APIURL      string        `yaml:"api_url" mapstructure:"api_url"`
	StateDir    string        `yaml:"state_dir" mapstructure:"state_dir"`
	LogLevel    string        `yaml:"log_level" mapstructure:"log_level"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty" mapstructure:"metrics_addr"`
	PresetsTTL  time.Duration `yaml:"presets_ttl" mapstructure:"presets_ttl"`
}

// LogFile returns the path interactive commands log to
func (c *Config) LogFile() string {
	return filepath.Join(c.StateDir, "logs", "maiai.log")
}

// Validate checks the fields every command relies on
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("api_url must not be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must start with http:// or https://, got %q", c.APIURL)
	}
	if c.StateDir == "" {
		return errors.New("state_dir must not be empty")
	}
	if c.PresetsTTL < 0 {
		return errors.New("presets_ttl must not be negative")
	}
	return nil
}

// DefaultDir returns ~/.maiai, resolving the invoking user's home under sudo.
func DefaultDir() (string, error) {
	var home string
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			home = u.HomeDir
		}
	}
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
	}
	return filepath.Join(home, ".maiai"), nil
}

// DefaultPath returns the default config file location
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from (in increasing precedence) defaults, the
// YAML file at path, .env files in the working directory, and MAIAI_*
// environment variables. A missing config file is not an error.
func Load(path string) (*Config, error) {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	defaultDir, err := DefaultDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("state_dir", defaultDir)
	v.SetDefault("log_level", "info")
	v.SetDefault("environment", "development")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("presets_ttl", 15*time.Minute)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to path with secure permissions
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
