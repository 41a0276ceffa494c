package cli

import (
	"github.com/dta-labs/create-dta/internal/branding"
	"github.com/dta-labs/create-dta/internal/config"
	"github.com/dta-labs/create-dta/internal/updater"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var noUpdateCheck bool

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " [project-name]",
	Short: branding.Description(),
	Long: branding.DisplayName() + ` scaffolds a Turborepo monorepo from a base template, pins its
dependency versions and layers optional DTA feature packages on top.

  create-dta my-app
  create-dta my-app -t rbac+feature-flags -b basic -m bun
  create-dta my-app -b owner/repo/path#v2 --skip-install`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}

		// Commands that print machine-readable or config output stay quiet.
		switch cmd.Name() {
		case "version", "get", "set", "list", "inspect":
			return nil
		}
		if noUpdateCheck || config.Get(config.KeyNoUpdateCheck) == "true" {
			return nil
		}
		u := updater.New(buildVersion, updater.WithToken(config.GitHubToken()))
		u.Banner(cmd.ErrOrStderr(), config.Dir())
		return nil
	},
	RunE: runCreate,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noUpdateCheck, "no-update-check", false, "Skip the new-release banner")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = version
	return rootCmd.Execute()
}
