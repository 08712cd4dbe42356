// Package config loads typegraph settings from .typegraph.yaml, TYPEGRAPH_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"cxx-typegraph-neo4j/internal/scan"
)

// FileName is the config file looked up in the working directory.
const FileName = ".typegraph.yaml"

// Config holds every typegraph setting.
type Config struct {
	Workers    int      `mapstructure:"workers"`
	QueueSize  int      `mapstructure:"queue_size"`
	Extensions []string `mapstructure:"extensions"`
	Exclude    []string `mapstructure:"exclude"`

	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
	SQLite  SQLiteConfig  `mapstructure:"sqlite"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// OutputConfig configures the JSON-lines files.
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	Compress bool   `mapstructure:"compress"`
}

// LoggingConfig configures diagnostics on stderr.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SQLiteConfig enables the SQLite sink when Path is set.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// Neo4jConfig enables the Neo4j sink when URI and Password are set.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Clean    bool   `mapstructure:"clean"`
}

// Enabled reports whether a Neo4j load was requested.
func (c Neo4jConfig) Enabled() bool {
	return c.URI != "" && c.Password != ""
}

// MetricsConfig enables the Prometheus textfile when Textfile is set.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	DebounceMs int `mapstructure:"debounce_ms"`
}

var defaults = map[string]any{
	"workers":           scan.DefaultWorkers,
	"queue_size":        scan.DefaultQueueSize,
	"extensions":        scan.DefaultExtensions,
	"exclude":           scan.DefaultExclude,
	"output.dir":        "typegraph-out",
	"output.compress":   false,
	"logging.level":     "warn",
	"logging.format":    "text",
	"sqlite.path":       "",
	"neo4j.uri":         "",
	"neo4j.user":        "neo4j",
	"neo4j.password":    "",
	"neo4j.clean":       false,
	"metrics.textfile":  "",
	"watch.debounce_ms": 500,
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"workers":          "workers",
	"queue-size":       "queue_size",
	"ext":              "extensions",
	"exclude":          "exclude",
	"out":              "output.dir",
	"compress":         "output.compress",
	"log-format":       "logging.format",
	"sqlite":           "sqlite.path",
	"neo4j-uri":        "neo4j.uri",
	"neo4j-user":       "neo4j.user",
	"neo4j-pass":       "neo4j.password",
	"clean":            "neo4j.clean",
	"metrics-textfile": "metrics.textfile",
	"debounce":         "watch.debounce_ms",
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Workers:    scan.DefaultWorkers,
		QueueSize:  scan.DefaultQueueSize,
		Extensions: slices.Clone(scan.DefaultExtensions),
		Exclude:    slices.Clone(scan.DefaultExclude),
		Output:     OutputConfig{Dir: "typegraph-out"},
		Logging:    LoggingConfig{Level: "warn", Format: "text"},
		Neo4j:      Neo4jConfig{User: "neo4j"},
		Watch:      WatchConfig{DebounceMs: 500},
	}
}

// Load reads the config file at path, or .typegraph.yaml in the working
// directory when path is empty, applies TYPEGRAPH_* environment variables and
// then the flags in fs that were set explicitly. A missing default config
// file is not an error; fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("TYPEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return &ConfigError{Field: "workers", Message: "must be positive"}
	}
	if c.QueueSize <= 0 {
		return &ConfigError{Field: "queue_size", Message: "must be positive"}
	}
	if len(c.Extensions) == 0 {
		return &ConfigError{Field: "extensions", Message: "at least one extension is required"}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Watch.DebounceMs < 0 {
		return &ConfigError{Field: "watch.debounce_ms", Message: "must not be negative"}
	}
	return nil
}

// ConfigError names the setting that failed validation.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
