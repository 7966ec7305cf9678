package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/apache/sunny-website/internal/logging"
	"github.com/apache/sunny-website/internal/validation"
)

// Routes served by the development server itself. The metrics path must not
// shadow them.
var reservedRoutes = []string{"/__livereload", "/health"}

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *validation.ValidationResult {
	result := validation.NewResult()

	validateServerConfigDetails(&config.Server, result)
	validateBuildConfigDetails(&config.Build, result)
	validateSiteFileDetails(&config.Site, result)
	validateDevelopmentConfigDetails(&config.Development, result)
	validateLoggingConfigDetails(&config.Logging, result)
	validateMetricsConfigDetails(&config.Metrics, result)

	return result
}

func validateServerConfigDetails(config *ServerConfig, result *validation.ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.AddError("server.port", config.Port,
			fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			"Use a port between 1024-65535 for non-privileged access",
			"Common development ports: 3000, 8080, 8000",
			"Port 0 allows system to assign an available port",
		)
	} else if config.Port > 0 && config.Port < 1024 {
		result.AddWarning("server.port", config.Port,
			"port below 1024 requires elevated privileges",
			"Consider using a port above 1024 for development",
		)
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.AddError("server.host", config.Host, err.Error(),
				"Use 'localhost' for local development",
				"Use '0.0.0.0' to bind to all interfaces",
			)
		}
	}

	validEnvs := []string{"development", "production", "testing"}
	if config.Environment != "" && !contains(validEnvs, config.Environment) {
		result.AddWarning("server.environment", config.Environment,
			"unknown environment type",
			"Available environments: "+strings.Join(validEnvs, ", "),
		)
	}
}

func validateBuildConfigDetails(config *BuildConfig, result *validation.ValidationResult) {
	if err := validation.ValidatePath(config.OutputDir); err != nil {
		result.AddError("build.output_dir", config.OutputDir, err.Error(),
			"Use a directory inside the project, e.g. 'build'",
		)
	} else if config.Clean {
		if filepath.IsAbs(filepath.Clean(config.OutputDir)) {
			result.AddError("build.output_dir", config.OutputDir,
				"absolute output directory with clean enabled",
				"Use a directory inside the project, e.g. 'build'",
				"Or set build.clean to false",
			)
		} else if err := validation.ValidateCleanTarget(config.OutputDir,
			".", config.StaticDir, config.DocsDir, config.BlogDir); err != nil {
			result.AddError("build.output_dir", config.OutputDir, err.Error(),
				"Use a dedicated directory such as 'build'",
				"Or set build.clean to false",
			)
		}
	}

	dirs := []struct {
		field string
		value string
	}{
		{"build.static_dir", config.StaticDir},
		{"build.docs_dir", config.DocsDir},
		{"build.blog_dir", config.BlogDir},
	}
	for _, dir := range dirs {
		if dir.value == "" {
			continue
		}
		if err := validation.ValidateRelativePath(dir.value); err != nil {
			result.AddError(dir.field, dir.value, err.Error(),
				"Use a path relative to the project root",
			)
			continue
		}
		if !pathExists(dir.value) {
			result.AddWarning(dir.field, dir.value,
				fmt.Sprintf("directory '%s' does not exist", dir.value),
				"It will be skipped during the build",
			)
		}
	}

	switch config.ConfigFormat {
	case "json", "yaml", "yml":
	default:
		result.AddError("build.config_format", config.ConfigFormat,
			fmt.Sprintf("unsupported config format '%s'", config.ConfigFormat),
			"Use 'json' or 'yaml'",
		)
	}

	for i, route := range config.ExtraRoutes {
		if err := validation.ValidateInternalPath(route); err != nil {
			result.AddError(fmt.Sprintf("build.extra_routes[%d]", i), route, err.Error(),
				"Extra routes are site paths such as '/blog/2024/01/01/welcome'",
			)
		}
	}
}

func validateSiteFileDetails(config *SiteFileConfig, result *validation.ValidationResult) {
	if config.File == "" {
		return
	}
	if err := validation.ValidatePath(config.File); err != nil {
		result.AddError("site.file", config.File, err.Error())
		return
	}
	if !pathExists(config.File) {
		result.AddWarning("site.file", config.File,
			fmt.Sprintf("site file '%s' not found; the built-in site configuration is used", config.File),
			"Run 'sunnysite config export -f yaml' to see the keys you can override",
		)
	}
}

func validateDevelopmentConfigDetails(config *DevelopmentConfig, result *validation.ValidationResult) {
	if config.Debounce < 0 {
		result.AddError("development.debounce", config.Debounce, "debounce cannot be negative",
			"Use a duration such as '300ms'",
		)
	} else if config.Debounce > 5*time.Second {
		result.AddWarning("development.debounce", config.Debounce,
			"debounce above 5s makes live reload feel unresponsive",
		)
	}
}

func validateLoggingConfigDetails(config *LoggingConfig, result *validation.ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.AddError("logging.level", config.Level, err.Error(),
			"Available levels: debug, info, warn, error",
		)
	}
	if config.Format != "" && config.Format != "text" && config.Format != "json" {
		result.AddError("logging.format", config.Format,
			fmt.Sprintf("unknown log format '%s'", config.Format),
			"Use 'text' or 'json'",
		)
	}
}

func validateMetricsConfigDetails(config *MetricsConfig, result *validation.ValidationResult) {
	if !config.Enabled {
		return
	}
	if err := validation.ValidateInternalPath(config.Path); err != nil {
		result.AddError("metrics.path", config.Path, err.Error(),
			"Use '/metrics'",
		)
		return
	}
	for _, reserved := range reservedRoutes {
		if config.Path == reserved {
			result.AddError("metrics.path", config.Path,
				fmt.Sprintf("'%s' is reserved by the development server", reserved),
				"Use '/metrics'",
			)
		}
	}
}

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
