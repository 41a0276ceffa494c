package cli

import (
	"fmt"
	"strings"

	"github.com/dta-labs/create-dta/internal/branding"
	"github.com/dta-labs/create-dta/internal/metadata"
	"github.com/dta-labs/create-dta/internal/readme"
	"github.com/dta-labs/create-dta/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [dir]",
	Short: "Show and validate a generated project's metadata",
	Long: `Read the ` + branding.MetadataFile() + ` record of a generated project (default: the
current directory), validate it against the metadata schema and print it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		rec, result, err := metadata.Read(dir)
		rep := report.New(cmd.OutOrStdout())
		if result != nil && !result.Valid {
			for _, issue := range result.Issues {
				rep.Warn("%s: %s", issue.Path, issue.Message)
			}
			return fmt.Errorf("%s does not match the metadata schema", metadata.Path(dir))
		}
		if err != nil {
			return err
		}

		features := readme.BaseOnlyMarker
		if len(rec.Features) > 0 {
			features = strings.Join(rec.Features, ", ")
		}
		rep.Table([][2]string{
			{"Base:", rec.BaseTemplate},
			{"Features:", features},
			{"Created:", rec.CreatedAt},
			{"CLI version:", rec.CLIVersion},
		})
		rep.Success("%s is valid", branding.MetadataFile())
		return nil
	},
}
