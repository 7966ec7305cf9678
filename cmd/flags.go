package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Output formats accepted by -o.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Server flags
	Port         int
	Host         string
	Open         bool
	NoLiveReload bool

	// Build flags
	OutputDir string
	NoClean   bool
	Audit     bool

	// Output flags
	OutputFormat string
}

// AddStandardFlags adds the named flag groups ("server", "build",
// "output") to cmd.
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "server":
			addServerFlags(cmd, flags)
		case "build":
			addBuildFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		}
	}

	return flags
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 3000, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", "localhost", "Host to bind to")
	cmd.Flags().BoolVar(&flags.Open, "open", false, "Open the site in a browser")
	cmd.Flags().BoolVar(&flags.NoLiveReload, "no-live-reload", false, "Disable rebuilds and browser reloads on change")
}

func addBuildFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.OutputDir, "out-dir", "d", "build", "Output directory")
	cmd.Flags().BoolVar(&flags.NoClean, "no-clean", false, "Keep files already in the output directory")
	cmd.Flags().BoolVar(&flags.Audit, "audit", false, "Audit generated pages for accessibility problems")
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", FormatTable, "Output format (table|json|yaml)")
	AddFlagValidation(cmd, "output", func(format string) error {
		return ValidateFormat(format, []string{FormatTable, FormatJSON, FormatYAML})
	})
}

// BindStandardFlags binds the flags cmd defines to their configuration keys
// so that a flag given on the command line overrides file and environment.
// Call it for the command being run only. Negated flags are mapped by hand
// in the commands.
func BindStandardFlags(cmd *cobra.Command, v *viper.Viper) {
	bindings := map[string]string{
		"port":    "server.port",
		"host":    "server.host",
		"open":    "server.open",
		"out-dir": "build.output_dir",
		"audit":   "build.audit",
	}
	for flagName, configKey := range bindings {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			_ = v.BindPFlag(configKey, flag)
		}
	}
}

// ValidateFlags validates flag combinations and values
func (f *StandardFlags) ValidateFlags(cmd *cobra.Command) error {
	if cmd.Flags().Changed("port") && (f.Port < 1 || f.Port > 65535) {
		return fmt.Errorf("port must be between 1 and 65535, got %d", f.Port)
	}
	if cmd.Flags().Changed("host") && strings.TrimSpace(f.Host) == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if cmd.Flags().Changed("out-dir") && strings.TrimSpace(f.OutputDir) == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort checks a port given as text.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	return nil
}

// ValidateFormat accepts one of allowed, case-insensitively.
func ValidateFormat(format string, allowed []string) error {
	for _, a := range allowed {
		if strings.EqualFold(format, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q, must be one of: %s", format, strings.Join(allowed, ", "))
}
