package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all collector configuration
type Config struct {
	// SSH connection
	DefaultUsername string        `mapstructure:"default_username"`
	SSHPort         int           `mapstructure:"ssh_port"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`

	// Retry policy
	ConnectRetries     int           `mapstructure:"connect_retries"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
	MaxCredentialTries int           `mapstructure:"max_credential_tries"`
	InterHostDelay     time.Duration `mapstructure:"inter_host_delay"`

	// Oracle home discovery
	OratabPaths  []string `mapstructure:"oratab_paths"`
	SearchRoots  []string `mapstructure:"search_roots"`
	DBHomeNames  []string `mapstructure:"dbhome_names"`
	FallbackHome string   `mapstructure:"fallback_home"`

	// Output
	OutputDir string `mapstructure:"output_dir"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DefaultUsername:    "oracle",
		SSHPort:            22,
		ConnectTimeout:     10 * time.Second,
		ConnectRetries:     1,
		RetryDelay:         2 * time.Second,
		MaxCredentialTries: 3,
		InterHostDelay:     time.Second,
		OratabPaths:        []string{"/etc/oratab", "/var/opt/oracle/oratab"},
		SearchRoots:        []string{"/u01", "/opt", "/oracle"},
		DBHomeNames:        []string{"dbhome_1", "dbhome_2", "dbhome_3"},
		FallbackHome:       "/u01/app/oracle/product/19.3.0.0/dbhome_1",
		OutputDir:          ".",
		LogLevel:           "info",
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Set config file locations
	viper.SetConfigName("patchscan")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/patchscan")
	viper.AddConfigPath(".")

	// Environment variable support
	viper.SetEnvPrefix("PATCHSCAN")
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	// Unmarshal into struct
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}
