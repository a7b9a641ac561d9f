package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Register defaults key by key so a file-provided section replaces the
	// default wholesale. Unmarshalling into a prefilled struct would merge
	// file rules into the default rules entry by entry instead.
	setDefaults()

	// Configure viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/logscrub/")
	viper.AddConfigPath("$HOME/.logscrub/")

	// Environment variable overrides
	viper.SetEnvPrefix("LOGSCRUB")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Use specific config file if provided
	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers the default configuration with viper.
func setDefaults() {
	defaults := GetDefaults()

	viper.SetDefault("rules", defaults.Rules)

	viper.SetDefault("scrub.report_path", defaults.Scrub.ReportPath)
	viper.SetDefault("scrub.lines_per_second", defaults.Scrub.LinesPerSecond)
	viper.SetDefault("scrub.finalize", defaults.Scrub.Finalize)

	viper.SetDefault("spool.dir", defaults.Spool.Dir)
	viper.SetDefault("spool.settle_delay", defaults.Spool.SettleDelay)
	viper.SetDefault("spool.drain_on_start", defaults.Spool.DrainOnStart)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.file.enabled", defaults.Logging.File.Enabled)
	viper.SetDefault("logging.file.path", defaults.Logging.File.Path)
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if len(config.Rules) == 0 {
		return fmt.Errorf("no redaction rules configured")
	}

	seen := make(map[string]bool, len(config.Rules))
	for i, rule := range config.Rules {
		if rule.Key == "" {
			return fmt.Errorf("rule %d has no key", i)
		}
		if seen[rule.Key] {
			return fmt.Errorf("duplicate rule key: %s", rule.Key)
		}
		seen[rule.Key] = true
		if strings.TrimSpace(rule.DetectPattern) == "" {
			return fmt.Errorf("rule %s has an empty detect pattern", rule.Key)
		}
	}

	if config.Scrub.LinesPerSecond < 0 {
		return fmt.Errorf("invalid lines_per_second: %d", config.Scrub.LinesPerSecond)
	}

	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	return nil
}

// Watch starts watching the configuration file for changes
func Watch(config *Config, callback func(*Config)) error {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := &Config{}
		if err := viper.Unmarshal(newConfig); err != nil {
			// Log error but don't crash
			return
		}

		if err := validateConfig(newConfig); err != nil {
			// Log error but don't crash
			return
		}

		callback(newConfig)
	})

	return nil
}
