package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/apache/sunny-website/internal/config"
	"github.com/apache/sunny-website/internal/site"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage configuration",
		Long: `Inspect and manage the tool configuration (.sunny.yml) and the site
configuration (site.yml).

Examples:
  sunnysite config show                 # effective tool configuration
  sunnysite config validate             # check both configurations
  sunnysite config export -o yaml       # generator config as YAML
  sunnysite config init --with-site     # write .sunny.yml and site.yml`,
	}

	configCmd.AddCommand(
		newConfigShowCmd(a),
		newConfigValidateCmd(a),
		newConfigExportCmd(a),
		newConfigInitCmd(),
	)
	return configCmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective tool configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the tool and site configuration",
		Long: `Validate the tool configuration and the site configuration. Errors make
the command fail; warnings are printed with suggestions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			toolResult := config.ValidateConfigWithDetails(a.cfg)
			printResult(out, "Tool configuration", toolResult.String(), toolResult.HasErrors())

			siteCfg, err := a.loadSite()
			if err != nil {
				return err
			}
			siteResult := siteCfg.Validate()
			printResult(out, "Site configuration", siteResult.String(), siteResult.HasErrors())

			if err := toolResult.Err(); err != nil {
				return err
			}
			return siteResult.Err()
		},
	}
}

func printResult(w io.Writer, name, details string, failed bool) {
	status := "OK"
	if failed {
		status = "INVALID"
	}
	fmt.Fprintf(w, "%s: %s\n", name, status)
	if details != "" {
		fmt.Fprint(w, details)
	}
}

func newConfigExportCmd(a *app) *cobra.Command {
	var (
		format string
		file   string
	)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the generator configuration",
		Long: `Write the site configuration in the document shape the static generator
consumes, the same document the build writes as site.config.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			siteCfg, err := a.loadSite()
			if err != nil {
				return err
			}
			if result := siteCfg.Validate(); result.HasErrors() {
				return result.Err()
			}

			if file == "" {
				return site.Export(cmd.OutOrStdout(), siteCfg, format)
			}
			f, err := os.Create(file)
			if err != nil {
				return err
			}
			if err := site.Export(f, siteCfg, format); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	exportCmd.Flags().StringVarP(&format, "output", "o", FormatJSON, "Export format (json|yaml)")
	exportCmd.Flags().StringVarP(&file, "file", "f", "", "Write to file instead of stdout")
	AddFlagValidation(exportCmd, "output", func(v string) error {
		return ValidateFormat(v, []string{FormatJSON, FormatYAML})
	})
	return exportCmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force    bool
		withSite bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := config.DefaultConfigName + ".yml"
			defaults := config.Defaults()
			if err := config.WriteFile(name, defaults, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", name)

			if !withSite {
				return nil
			}
			if err := writeSiteFile(defaults.Site.File, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", defaults.Site.File)
			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	initCmd.Flags().BoolVar(&withSite, "with-site", false, "Also write the default site configuration")
	return initCmd
}

// writeSiteFile writes the default site configuration as an editable
// overlay.
func writeSiteFile(name string, force bool) error {
	if _, err := os.Stat(name); err == nil && !force {
		return fmt.Errorf("site configuration %s already exists", name)
	}
	data, err := yaml.Marshal(site.Default())
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}
