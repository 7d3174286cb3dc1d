package main

import (
	"fmt"

	"github.com/matrixops/homeport/internal/export"
	"github.com/matrixops/homeport/internal/validate"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [source-path]",
	Short: "Export a full JSON report for a source tree",
	Long: `Export runs the whole pipeline (discovery, parsing, settings
resolution, validation, environment classification) and emits one
machine-readable report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourcePath := sourceArg(args)
		ctx := cmd.Context()

		deployments, _, err := loadDeployments(ctx, sourcePath)
		if err != nil {
			return err
		}

		reports, err := validate.New().ValidateAll(ctx, deployments)
		if err != nil {
			return err
		}

		environment, err := scanEnvironment(ctx, sourcePath)
		if err != nil {
			return err
		}

		report := &export.Report{
			Root:        sourcePath,
			Deployments: deployments,
			Validation:  reports,
			Environment: environment,
		}

		output, err := export.NewJSONExporter().Export(report)
		if err != nil {
			return fmt.Errorf("JSON export failed: %w", err)
		}
		fmt.Println(string(output))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
