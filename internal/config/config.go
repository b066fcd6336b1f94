// Package config loads the CLI configuration from file, environment
// and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved CLI configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Token   TokenConfig   `mapstructure:"token"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TokenConfig controls where the access token is persisted between
// invocations.
type TokenConfig struct {
	Path string `mapstructure:"path"`
}

// SyncConfig controls polling of the shared token slot.
type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and environment variables. A
// missing config file is fine; defaults apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".unicorn")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/unicorn")
	}

	v.SetEnvPrefix("UNICORN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url must not be empty")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("token.path", defaultTokenPath())
	v.SetDefault("sync.interval", 2*time.Second)
	v.SetDefault("output.colors", true)
	v.SetDefault("logging.level", "warn")
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".unicorn-token"
	}
	return filepath.Join(home, ".config", "unicorn", "token")
}
