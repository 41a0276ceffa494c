package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dta-labs/create-dta/internal/branding"
	"github.com/dta-labs/create-dta/internal/config"
	"github.com/dta-labs/create-dta/internal/updater"
	"github.com/spf13/cobra"
)

var (
	versionShort bool
	versionJSON  bool
	versionCheck bool
)

// updaterOptions are appended to every Checker the CLI builds; tests point
// it at a local server.
var updaterOptions []updater.Option

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		switch {
		case versionShort:
			fmt.Fprintln(out, buildVersion)
		case versionJSON:
			info := map[string]string{
				"version": buildVersion,
				"commit":  buildCommit,
				"date":    buildDate,
			}
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version info: %w", err)
			}
			fmt.Fprintln(out, string(data))
		default:
			fmt.Fprintf(out, "%s version %s (commit: %s, built: %s)\n", branding.CLIName(), buildVersion, buildCommit, buildDate)
		}

		if !versionCheck {
			return nil
		}
		opts := append([]updater.Option{updater.WithToken(config.GitHubToken())}, updaterOptions...)
		st, err := updater.New(buildVersion, opts...).Check(cmd.Context())
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}
		if st.Available {
			updater.PrintBanner(out, st.Current, st.Latest, st.URL)
		} else {
			fmt.Fprintf(out, "Latest release is %s\n", st.Latest)
		}
		return nil
	},
}
