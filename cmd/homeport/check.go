package main

import (
	"encoding/json"
	"fmt"

	"github.com/matrixops/homeport/internal/validate"
	"github.com/spf13/cobra"
)

var strict bool

var checkCmd = &cobra.Command{
	Use:   "check [source-path]",
	Short: "Validate the homeserver deployment descriptors in a source tree",
	Long: `Check discovers every deployment descriptor under the source path,
resolves the effective homeserver settings (native config file, env_file
overrides, service environment) and validates schema sanity and referential
consistency: volume references, port mappings, restart policies, and the
settings themselves.

The exit code is nonzero when any error-grade finding exists; --strict
promotes warnings to the same treatment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourcePath := sourceArg(args)

		deployments, _, err := loadDeployments(cmd.Context(), sourcePath)
		if err != nil {
			return err
		}
		if len(deployments) == 0 {
			fmt.Println("No deployment descriptors found")
			return nil
		}

		validator := validate.New()
		reports, err := validator.ValidateAll(cmd.Context(), deployments)
		if err != nil {
			return err
		}

		if format == "json" {
			output, err := json.MarshalIndent(reports, "", "  ")
			if err != nil {
				return fmt.Errorf("JSON export failed: %w", err)
			}
			fmt.Println(string(output))
		} else {
			printReports(reports)
		}

		errors, warnings := 0, 0
		for _, report := range reports {
			errors += report.Count(validate.SeverityError)
			warnings += report.Count(validate.SeverityWarning)
		}
		if errors > 0 || (strict && warnings > 0) {
			return fmt.Errorf("validation failed: %d error(s), %d warning(s)", errors, warnings)
		}
		return nil
	},
}

func printReports(reports []validate.Report) {
	for _, report := range reports {
		fmt.Printf("=== %s ===\n", report.Source)
		if len(report.Findings) == 0 {
			fmt.Println("  OK")
			continue
		}
		for _, finding := range report.Findings {
			location := finding.Service
			if finding.Field != "" {
				location += "/" + finding.Field
			}
			fmt.Printf("  [%s] %s (%s): %s\n", finding.Severity, finding.Rule, location, finding.Message)
		}
		fmt.Printf("  %d error(s), %d warning(s)\n",
			report.Count(validate.SeverityError), report.Count(validate.SeverityWarning))
	}
}

func init() {
	checkCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	rootCmd.AddCommand(checkCmd)
}
