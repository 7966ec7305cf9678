package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/apache/sunny-website/internal/content"
	"github.com/apache/sunny-website/internal/features"
	"github.com/apache/sunny-website/internal/site"
)

type navRow struct {
	Position string `json:"position" yaml:"position"`
	Kind     string `json:"kind" yaml:"kind"`
	Label    string `json:"label" yaml:"label"`
	Target   string `json:"target" yaml:"target"`
}

type footerRow struct {
	Group  string `json:"group" yaml:"group"`
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"`
}

type featureRow struct {
	Index       int    `json:"index" yaml:"index"`
	Title       string `json:"title" yaml:"title"`
	Icon        string `json:"icon" yaml:"icon"`
	Description string `json:"description" yaml:"description"`
}

type docRow struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Route  string `json:"route" yaml:"route"`
	Source string `json:"source" yaml:"source"`
}

func newListCmd(a *app) *cobra.Command {
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "List parts of the site",
		Long: `List the navbar, footer, homepage features or discovered docs.

Examples:
  sunnysite list navbar              # navbar in render order
  sunnysite list footer -o yaml      # footer groups as YAML
  sunnysite list features -o json    # homepage features as JSON
  sunnysite list docs                # docs found in docs_dir`,
	}

	listCmd.AddCommand(
		newListSubCmd(a, "navbar", "List navbar items in render order", func(cfg site.SiteConfig) (interface{}, error) {
			return navbarRows(cfg), nil
		}),
		newListSubCmd(a, "footer", "List footer links by group", func(cfg site.SiteConfig) (interface{}, error) {
			return footerRows(cfg), nil
		}),
		newListSubCmd(a, "features", "List the homepage features", func(site.SiteConfig) (interface{}, error) {
			return featureRows(features.Default()), nil
		}),
		newListSubCmd(a, "docs", "List documentation pages", func(cfg site.SiteConfig) (interface{}, error) {
			docs, err := content.Discover(a.cfg.Build.DocsDir)
			if err != nil {
				return nil, err
			}
			return docRows(cfg, docs), nil
		}),
	)
	return listCmd
}

func newListSubCmd(a *app, use, short string, rows func(site.SiteConfig) (interface{}, error)) *cobra.Command {
	var flags *StandardFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			siteCfg, err := a.loadSite()
			if err != nil {
				return err
			}
			data, err := rows(siteCfg)
			if err != nil {
				return err
			}
			return writeRows(cmd.OutOrStdout(), flags.OutputFormat, data)
		},
	}
	flags = AddStandardFlags(cmd, "output")
	return cmd
}

func navbarRows(cfg site.SiteConfig) []navRow {
	items := cfg.OrderedNavbar()
	rows := make([]navRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, navRow{
			Position: string(item.EffectivePosition()),
			Kind:     string(item.EffectiveKind()),
			Label:    item.Label,
			Target:   item.Target(cfg.BasePath),
		})
	}
	return rows
}

func footerRows(cfg site.SiteConfig) []footerRow {
	var rows []footerRow
	for _, group := range cfg.FooterGroups() {
		for _, item := range group.Items {
			rows = append(rows, footerRow{
				Group:  group.Title,
				Label:  item.Label,
				Target: item.Target(cfg.BasePath),
			})
		}
	}
	return rows
}

func featureRows(entries []features.FeatureEntry) []featureRow {
	units := features.Render(entries)
	rows := make([]featureRow, 0, len(units))
	for _, unit := range units {
		rows = append(rows, featureRow{
			Index:       unit.Key,
			Title:       unit.Entry.Title,
			Icon:        unit.Entry.IconRef,
			Description: unit.Entry.Description,
		})
	}
	return rows
}

func docRows(cfg site.SiteConfig, docs []content.Doc) []docRow {
	rows := make([]docRow, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, docRow{
			ID:     doc.ID,
			Title:  doc.Title,
			Route:  site.JoinBase(cfg.BasePath, doc.Route),
			Source: doc.SourcePath,
		})
	}
	return rows
}

// writeRows renders rows, a slice of one of the row types, in format.
func writeRows(w io.Writer, format string, rows interface{}) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(rows)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch rows := rows.(type) {
	case []navRow:
		fmt.Fprintln(tw, "POSITION\tKIND\tLABEL\tTARGET")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Position, r.Kind, r.Label, r.Target)
		}
	case []footerRow:
		fmt.Fprintln(tw, "GROUP\tLABEL\tTARGET")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Group, r.Label, r.Target)
		}
	case []featureRow:
		fmt.Fprintln(tw, "#\tTITLE\tICON\tDESCRIPTION")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strconv.Itoa(r.Index), r.Title, r.Icon, truncate(r.Description, 60))
		}
	case []docRow:
		fmt.Fprintln(tw, "ID\tTITLE\tROUTE")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Title, r.Route)
		}
	default:
		return fmt.Errorf("cannot render %T as a table", rows)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
