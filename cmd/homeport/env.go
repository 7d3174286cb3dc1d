package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matrixops/homeport/internal/discovery"
	"github.com/matrixops/homeport/internal/envscan"
	"github.com/matrixops/homeport/internal/filesystems"
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env [source-path]",
	Short: "Extract and classify environment variables from deployment files",
	Long: `Env scans the descriptor files, env files, and Dockerfiles under the
source path and reports every environment variable they set, classified by
type with sensitive values flagged. When the same variable appears in
several files, the highest-confidence source wins.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourcePath := sourceArg(args)

		results, err := scanEnvironment(cmd.Context(), sourcePath)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No environment variables found")
			return nil
		}

		if format == "json" {
			output, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return fmt.Errorf("JSON export failed: %w", err)
			}
			fmt.Println(string(output))
			return nil
		}

		for _, result := range results {
			marker := ""
			if result.Sensitive {
				marker = " [SENSITIVE]"
			}
			fmt.Printf("%s = %s\n", result.VarName, result.Value)
			fmt.Printf("  %s, from %s%s\n", result.TypeName, result.Source, marker)
		}
		return nil
	},
}

// scanEnvironment feeds the scanner's detections (descriptors, dotenv
// files, Dockerfiles) into the extractors and dedupes by variable name.
func scanEnvironment(ctx context.Context, sourcePath string) ([]envscan.Result, error) {
	filesystem, err := filesystems.NewFileSystem(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem: %w", err)
	}

	scanner := discovery.NewScanner(filesystem)
	configs, err := scanner.Scan(ctx, filesystems.BasePath(sourcePath))
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	results, err := envscan.Collect(ctx, filesystem, configs)
	if err != nil {
		return nil, fmt.Errorf("environment scan failed: %w", err)
	}
	return results, nil
}

func init() {
	rootCmd.AddCommand(envCmd)
}
