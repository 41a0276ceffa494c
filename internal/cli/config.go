package cli

import (
	"fmt"
	"sort"

	"github.com/dta-labs/create-dta/internal/config"
	"github.com/dta-labs/create-dta/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored at ~/.create-dta/config.yaml.

Keys:
  features_dir      directory holding feature package sources
  manifest_paths    manifests to pin (comma-separated when set here)
  versions_file     YAML file overlaying the built-in version catalog
  github_token      token for GitHub downloads (defaults to $GITHUB_TOKEN)
  package_manager   default for --package-manager
  base_template     default for --base
  no_update_check   "true" disables the new-release banner`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.Lookup(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every configuration value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all := config.All()
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rows := make([][2]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, [2]string{k, all[k]})
		}
		rep := report.New(cmd.OutOrStdout())
		rep.Detail("# %s", config.FilePath())
		rep.Table(rows)
		return nil
	},
}
