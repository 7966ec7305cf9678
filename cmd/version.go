package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/apache/sunny-website/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		format   string
		short    bool
		detailed bool
	)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the sunnysite version, git commit, build time, Go version and
platform.

Examples:
  sunnysite version              # one line
  sunnysite version --detailed   # every field
  sunnysite version -f json      # machine readable`,
		Args: cobra.NoArgs,
		// Version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			info := version.GetBuildInfo()

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "yaml":
				return yaml.NewEncoder(out).Encode(info)
			case "text":
			default:
				return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
			}

			switch {
			case short:
				fmt.Fprintln(out, version.GetShortVersion())
			case detailed:
				fmt.Fprintln(out, version.GetDetailedVersion())
			default:
				line := "sunnysite " + info.Version
				if version.IsRelease() && len(info.GitCommit) >= 7 && info.GitCommit != "unknown" {
					line += " (" + info.GitCommit[:7] + ")"
				}
				if info.Dirty {
					line += " (dirty)"
				}
				fmt.Fprintln(out, line+" "+info.Platform)
			}
			return nil
		},
	}

	versionCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&short, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&detailed, "detailed", false, "Show detailed version information")
	return versionCmd
}
