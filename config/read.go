package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrMissingBackendURL     = errors.New("backend.base_url is required")
	ErrMissingAlertRecipient = errors.New("alert.to is required when alerting is enabled")
)

const (
	configName   = "config"
	configFormat = "yaml"
)

// ReadConfig loads configuration from configPath, which may name either the
// config file itself or a directory holding config.yaml.
func ReadConfig(configPath string) (*Config, error) {
	if isFile(configPath) {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType(configFormat)
		viper.AddConfigPath(configPath)
	}

	// Allow env vars to override config values.
	// e.g. DISPENSE_BACKEND_BASE_URL overrides backend.base_url
	viper.SetEnvPrefix("DISPENSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional in container environments as long as the
		// backend endpoint arrives through the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func setDefaults() {
	viper.SetDefault("server.port", 8091)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("server.environment", "development")
	// Registered empty so env-only deployments reach Unmarshal.
	viper.SetDefault("station.machine_id", "")
	viper.SetDefault("backend.base_url", "")
	viper.SetDefault("push.url", "")
	viper.SetDefault("backend.timeout_seconds", 10)
	viper.SetDefault("push.reconnect_attempts", 5)
	viper.SetDefault("push.reconnect_delay_ms", 1000)
	viper.SetDefault("push.pong_timeout_seconds", 30)
	viper.SetDefault("push.handshake_timeout_seconds", 10)
	viper.SetDefault("scanner.max_code_length", 512)
	viper.SetDefault("dispense.debounce_window_ms", 700)
	viper.SetDefault("catalog.ttl_seconds", 3600)
	viper.SetDefault("alert.failure_threshold", 3)
	viper.SetDefault("observability.service_name", "dispense-station")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.output.stdout", true)
}
