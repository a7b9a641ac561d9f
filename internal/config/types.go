package config

import (
	"time"

	"github.com/raaihank/logscrub/internal/scrub"
)

// Config represents the main configuration structure
type Config struct {
	Rules   []scrub.Rule  `yaml:"rules" mapstructure:"rules"`
	Scrub   ScrubConfig   `yaml:"scrub" mapstructure:"scrub"`
	Spool   SpoolConfig   `yaml:"spool" mapstructure:"spool"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ScrubConfig contains pipeline configuration
type ScrubConfig struct {
	ReportPath     string `yaml:"report_path" mapstructure:"report_path"`
	LinesPerSecond int    `yaml:"lines_per_second" mapstructure:"lines_per_second"`
	Finalize       bool   `yaml:"finalize" mapstructure:"finalize"`
}

// SpoolConfig contains daemon-mode spool directory configuration
type SpoolConfig struct {
	Dir          string        `yaml:"dir" mapstructure:"dir"`
	SettleDelay  time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	DrainOnStart bool          `yaml:"drain_on_start" mapstructure:"drain_on_start"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults. The default
// rule set covers the common shapes a username takes in identity-server logs:
// domain-qualified, tenant-qualified, and bare.
func GetDefaults() *Config {
	return &Config{
		Rules: []scrub.Rule{
			{
				Key:            "tenant-qualified-username",
				DetectPattern:  `${username}@${tenant-domain}`,
				ReplacePattern: `${username}@${tenant-domain}`,
			},
			{
				Key:            "domain-qualified-username",
				DetectPattern:  `${userstore-domain}/${username}`,
				ReplacePattern: `${userstore-domain}/${username}`,
			},
			{
				Key:            "bare-username",
				DetectPattern:  `${username}`,
				ReplacePattern: `${username}`,
			},
			{
				Key:            "tenant-id-marker",
				DetectPattern:  `tenantId[=:]\s*${tenant-id}`,
				ReplacePattern: ``,
			},
		},
		Scrub: ScrubConfig{
			ReportPath:     "logscrub-report.txt",
			LinesPerSecond: 0,
			Finalize:       false,
		},
		Spool: SpoolConfig{
			Dir:          "spool",
			SettleDelay:  500 * time.Millisecond,
			DrainOnStart: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
