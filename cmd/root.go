// Package cmd is the sunnysite command line.
//
// Configuration is read, from highest to lowest precedence, from flags,
// SUNNY_* environment variables (also loaded from .env files), the file
// named by --config or SUNNY_CONFIG_FILE, .sunny.yml in the working
// directory, and the built-in defaults.
//
//	sunnysite build                 # generate the site into build/
//	sunnysite serve --open          # dev server with live reload
//	sunnysite config validate       # check .sunny.yml and site.yml
//	sunnysite list navbar -o json   # inspect the site configuration
//
// The process exits with 2 for configuration errors and 3 when a build
// fails, for example on a broken documentation link.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/apache/sunny-website/internal/config"
	siteerrors "github.com/apache/sunny-website/internal/errors"
	"github.com/apache/sunny-website/internal/logging"
	"github.com/apache/sunny-website/internal/site"
)

// ConfigFileEnv names a configuration file without passing --config.
const ConfigFileEnv = config.EnvPrefix + "_CONFIG_FILE"

// app is the state shared by every command of one invocation.
type app struct {
	v        *viper.Viper
	cfgFile  string
	envFiles []string
	cfg      *config.Config
	logger   logging.Logger
	logFile  *os.File
}

// Exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitConfigError = 2
	ExitBuildFailed = 3
)

// Execute runs the command line with os.Args.
func Execute() error {
	rootCmd, a := newRootCmd()
	return a.run(rootCmd)
}

// run executes rootCmd and closes the log file however the command ends.
// Cobra skips post-run hooks when a command fails.
func (a *app) run(rootCmd *cobra.Command) (err error) {
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case siteerrors.IsConfigError(err):
		return ExitConfigError
	case siteerrors.IsBuildError(err):
		return ExitBuildFailed
	default:
		return ExitError
	}
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "sunnysite",
		Short: "Build and preview the Apache Sunny website",
		Long: `sunnysite generates the Apache Sunny documentation website: the homepage
with its feature grid, the 404 page, sitemap, robots.txt and the exported
generator configuration. Internal links of every generated page are checked
before a build succeeds.

Quick Start:
  sunnysite config init     Write a .sunny.yml with the defaults
  sunnysite build           Generate the site
  sunnysite serve           Start the development server`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .sunny.yml, can also use "+ConfigFileEnv+")")
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "environment files to load before reading the configuration")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("log-file", "", "also write debug logs as JSON to this file")
	flags.String("site-file", "site.yml", "site configuration overlay")
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("logging.file", flags.Lookup("log-file"))
	_ = a.v.BindPFlag("site.file", flags.Lookup("site-file"))

	rootCmd.AddCommand(
		newBuildCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newListCmd(a),
		newVersionCmd(),
	)
	return rootCmd, a
}

// load reads the environment files and the configuration, then sets up the
// logger on stderr and, if configured, the log file.
func (a *app) load(cmd *cobra.Command) error {
	if _, err := config.LoadEnvFiles(a.envFiles...); err != nil {
		return fmt.Errorf("loading environment files: %w", err)
	}

	config.ConfigureEnv(a.v)
	switch {
	case a.cfgFile != "":
		a.v.SetConfigFile(a.cfgFile)
	case os.Getenv(ConfigFileEnv) != "":
		a.v.SetConfigFile(os.Getenv(ConfigFileEnv))
	default:
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(config.DefaultConfigName)
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading configuration: %w", err)
		}
	}

	// Only the running command's flags are bound: build and serve both
	// define out-dir and audit for the same keys.
	BindStandardFlags(cmd, a.v)

	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Logging, cmd.ErrOrStderr())

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.logFile = f
		fileLogger := logging.NewLogger(&logging.LoggerConfig{
			Level:  logging.LevelDebug,
			Format: "json",
			Output: f,
		}).WithComponent("cli")
		a.logger = logging.NewMultiLogger(a.logger, fileLogger)
	}

	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug(cmd.Context(), "Using config file", "file", used)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig, out io.Writer) logging.Logger {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Format,
		Output: out,
	}).WithComponent("cli")
}

func (a *app) close() error {
	if a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	return err
}

// loadSite reads the site configuration named by the tool configuration.
func (a *app) loadSite() (site.SiteConfig, error) {
	return site.Load(a.cfg.Site.File)
}
