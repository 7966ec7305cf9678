// Package config provides configuration management for the sunnysite tool
// using Viper for flexible configuration loading from files, environment
// variables, and command-line flags.
//
// The tool configuration is separate from the site configuration in
// internal/site: it says where content lives, where output goes and how the
// development server behaves. It is read from .sunny.yml, overridden by
// SUNNY_* environment variables (optionally loaded from .env files) and by
// flags bound in cmd.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	siteerrors "github.com/apache/sunny-website/internal/errors"
)

// EnvPrefix is the prefix of every environment override, e.g. SUNNY_SERVER_PORT.
const EnvPrefix = "SUNNY"

// DefaultConfigName is the configuration file looked up in the working
// directory when no --config flag is given.
const DefaultConfigName = ".sunny"

type Config struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Build       BuildConfig       `mapstructure:"build" yaml:"build"`
	Site        SiteFileConfig    `mapstructure:"site" yaml:"site"`
	Development DevelopmentConfig `mapstructure:"development" yaml:"development"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`
	Open        bool   `mapstructure:"open" yaml:"open"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// Addr is the listen address of the development server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type BuildConfig struct {
	OutputDir    string   `mapstructure:"output_dir" yaml:"output_dir"`
	StaticDir    string   `mapstructure:"static_dir" yaml:"static_dir"`
	DocsDir      string   `mapstructure:"docs_dir" yaml:"docs_dir"`
	BlogDir      string   `mapstructure:"blog_dir" yaml:"blog_dir"`
	Clean        bool     `mapstructure:"clean" yaml:"clean"`
	Sitemap      bool     `mapstructure:"sitemap" yaml:"sitemap"`
	Robots       bool     `mapstructure:"robots" yaml:"robots"`
	ConfigFormat string   `mapstructure:"config_format" yaml:"config_format"`
	ExtraRoutes  []string `mapstructure:"extra_routes" yaml:"extra_routes"`
	Audit        bool     `mapstructure:"audit" yaml:"audit"`
}

// SiteFileConfig points at the YAML overlay of the site configuration.
type SiteFileConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

type DevelopmentConfig struct {
	LiveReload bool          `mapstructure:"live_reload" yaml:"live_reload"`
	Debounce   time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// File, when set, also receives every record at debug level as JSON.
	File string `mapstructure:"file" yaml:"file,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// SetDefaults registers the default of every key on v. Values already set on
// v, by file, environment or flag, take precedence.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.open", false)
	v.SetDefault("server.environment", "development")

	v.SetDefault("build.output_dir", "build")
	v.SetDefault("build.static_dir", "static")
	v.SetDefault("build.docs_dir", "docs")
	v.SetDefault("build.blog_dir", "blog")
	v.SetDefault("build.clean", true)
	v.SetDefault("build.sitemap", true)
	v.SetDefault("build.robots", true)
	v.SetDefault("build.config_format", "json")
	v.SetDefault("build.extra_routes", []string{})
	v.SetDefault("build.audit", false)

	v.SetDefault("site.file", "site.yml")

	v.SetDefault("development.live_reload", true)
	v.SetDefault("development.debounce", 300*time.Millisecond)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// ConfigureEnv makes v read SUNNY_* overrides, with dots and dashes in keys
// mapped to underscores.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// LoadFrom applies the defaults to v, decodes it and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Slices set from the environment arrive as a single string.
	if v.IsSet("build.extra_routes") && len(config.Build.ExtraRoutes) == 0 {
		config.Build.ExtraRoutes = v.GetStringSlice("build.extra_routes")
	}

	normalize(&config)

	if err := validateConfig(&config); err != nil {
		return nil, siteerrors.WrapConfig(err, siteerrors.ErrCodeConfigInvalid, "invalid configuration")
	}

	return &config, nil
}

// LoadFile reads the configuration file at path into a fresh viper instance
// with environment overrides enabled.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	ConfigureEnv(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return LoadFrom(v)
}

func normalize(config *Config) {
	config.Build.ConfigFormat = strings.ToLower(strings.TrimSpace(config.Build.ConfigFormat))
	config.Logging.Level = strings.ToLower(strings.TrimSpace(config.Logging.Level))
	config.Logging.Format = strings.ToLower(strings.TrimSpace(config.Logging.Format))

	routes := config.Build.ExtraRoutes[:0:0]
	for _, r := range config.Build.ExtraRoutes {
		if r = strings.TrimSpace(r); r != "" {
			routes = append(routes, r)
		}
	}
	config.Build.ExtraRoutes = routes
}

// validateConfig rejects configurations with errors. Warnings are left to
// ValidateConfigWithDetails.
func validateConfig(config *Config) error {
	return ValidateConfigWithDetails(config).Err()
}
