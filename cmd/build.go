package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/apache/sunny-website/internal/build"
	siteerrors "github.com/apache/sunny-website/internal/errors"
)

func newBuildCmd(a *app) *cobra.Command {
	var flags *StandardFlags

	buildCmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"b"},
		Short:   "Generate the static site",
		Long: `Generate the site into the output directory: index.html, 404.html,
sitemap.xml, robots.txt, the exported generator configuration, static files
and build-manifest.json.

The build fails when a page links to a missing documentation page and
on_broken_links is "throw".

Examples:
  sunnysite build                 # build into ./build
  sunnysite build -d public       # build into ./public
  sunnysite build --no-clean      # keep existing files in the output dir
  sunnysite build --audit         # also report accessibility findings`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(cmd); err != nil {
				return err
			}
			if flags.NoClean {
				a.cfg.Build.Clean = false
			}
			return a.runBuild(cmd)
		},
	}

	flags = AddStandardFlags(buildCmd, "build")
	return buildCmd
}

func (a *app) runBuild(cmd *cobra.Command) error {
	siteCfg, err := a.loadSite()
	if err != nil {
		return siteerrors.WrapConfig(err, siteerrors.ErrCodeSiteInvalid, "loading site configuration")
	}

	g := build.NewGenerator(siteCfg, build.OptionsFrom(a.cfg), a.logger, nil)
	result, err := g.Build(cmd.Context())
	if result != nil {
		minimum := siteerrors.ErrorSeverityWarning
		if a.cfg.Build.Audit {
			minimum = siteerrors.ErrorSeverityInfo
		}
		printIssues(cmd.ErrOrStderr(), result.Issues, minimum)
	}
	if err != nil {
		return err
	}

	m := result.Manifest
	fmt.Fprintf(cmd.OutOrStdout(), "Built %d page(s), %d route(s), %d asset(s) into %s in %s\n",
		len(m.Pages), len(m.Routes), m.Assets, g.OutputDir(),
		(time.Duration(m.DurationMS) * time.Millisecond).String())
	return nil
}

// printIssues lists the issues at or above minimum, one per line.
func printIssues(w io.Writer, issues *siteerrors.Collector, minimum siteerrors.ErrorSeverity) {
	if issues == nil {
		return
	}
	for _, issue := range issues.IssuesAtLeast(minimum) {
		fmt.Fprintln(w, issue.Error())
	}
}
