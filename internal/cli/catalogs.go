package cli

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/dta-labs/create-dta/internal/catalog"
	"github.com/dta-labs/create-dta/internal/config"
	"github.com/dta-labs/create-dta/internal/feature"
	"github.com/dta-labs/create-dta/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(featuresCmd)
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Show the pinned dependency versions",
	Long: `Show the versions written into generated manifests. Entries come from the
built-in catalog, overlaid by the file named in the versions_file setting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.LoadWithOverlay(config.VersionsFile())
		if err != nil {
			return fmt.Errorf("loading catalogs: %w", err)
		}

		rep := report.New(cmd.OutOrStdout())
		rep.Title("📦 Current Versions")
		for i, group := range catalog.Groups {
			if i > 0 {
				rep.Blank()
			}
			rep.Step("%s:", groupTitle(group))
			var rows [][2]string
			for _, name := range cat.Versions.Names(group) {
				ver := cat.Versions.Lookup(group, name)
				if !catalog.IsExact(ver) {
					ver += "  (range)"
				}
				rows = append(rows, [2]string{name, ver})
			}
			rep.Table(rows)
		}
		rep.Blank()
		return nil
	},
}

func groupTitle(g catalog.Group) string {
	switch g {
	case catalog.GroupDependencies:
		return "Dependencies"
	case catalog.GroupDevDependencies:
		return "Dev Dependencies"
	}
	return string(g)
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the base templates accepted by --base",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load()
		if err != nil {
			return fmt.Errorf("loading catalogs: %w", err)
		}

		rep := report.New(cmd.OutOrStdout())
		def := config.BaseTemplate()
		for _, d := range cat.Templates.All() {
			name := d.Key
			if d.Key == def {
				name += " (default)"
			}
			rep.Step("%s", rep.Strong(name))
			rep.Detail("  %s: %s", d.DisplayName, d.Description)
			if d.IsCustom() {
				rep.Detail("  pass owner/repo[/path][#ref] to --base")
			} else {
				rep.Detail("  %s", d.FetchLocator)
			}
		}
		return nil
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the DTA features accepted by --template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load()
		if err != nil {
			return fmt.Errorf("loading catalogs: %w", err)
		}

		src, srcName := feature.Builtin(), feature.BuiltinName
		if dir := config.FeaturesDir(); dir != "" {
			src, srcName = os.DirFS(dir), dir
		}
		rep := report.New(cmd.OutOrStdout())
		rep.Detail("# sources: %s", srcName)
		for _, f := range cat.Features.All() {
			rep.Step("%s  %s", rep.Strong(f.ID), f.Description)
			if info, err := fs.Stat(src, f.ID); err != nil || !info.IsDir() {
				rep.Warn("%s source missing, it will be skipped (%s)", f.ID, feature.SkippedMissing)
			}
		}
		return nil
	},
}
