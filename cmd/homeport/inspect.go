package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [source-path]",
	Short: "Show the deployment descriptors found in a source tree",
	Long: `Inspect discovers and parses the deployment descriptors under the
source path and prints what they declare: services, images, port mappings,
volume mounts, and the effective homeserver settings after layering the
native config and environment overrides.`,
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

		if format == "json" {
			output, err := json.MarshalIndent(deployments, "", "  ")
			if err != nil {
				return fmt.Errorf("JSON export failed: %w", err)
			}
			fmt.Println(string(output))
			return nil
		}

		for _, deployment := range deployments {
			if deployment.Descriptor == nil {
				fmt.Printf("=== settings only (%s) ===\n", deployment.Sources[0].Path)
			} else {
				d := deployment.Descriptor
				fmt.Printf("=== %s (%s) ===\n", d.Name, d.Source)
				for _, service := range d.Services {
					fmt.Printf("  - %s\n", service.Name)
					if service.Image != "" {
						fmt.Printf("    Image: %s\n", service.Image)
					}
					if service.BuildContext != "" {
						fmt.Printf("    Build: %s\n", service.BuildContext)
					}
					if service.Restart != "" {
						fmt.Printf("    Restart: %s\n", service.Restart)
					}
					for _, port := range service.Ports {
						fmt.Printf("    Port: %d -> %d\n", port.Published, port.Target)
					}
					for _, mount := range service.Mounts {
						kind := "bind"
						if mount.Named {
							kind = "volume"
						}
						fmt.Printf("    Mount: %s -> %s (%s)\n", mount.Source, mount.Target, kind)
					}
				}
			}

			s := deployment.Settings
			fmt.Println("  Settings:")
			fmt.Printf("    server name:      %s\n", orUnset(s.ServerName))
			fmt.Printf("    listener port:    %d\n", s.Port)
			fmt.Printf("    database path:    %s\n", s.DatabasePath)
			fmt.Printf("    max request size: %d\n", s.MaxRequestSize)
			fmt.Printf("    registration:     %s\n", toggle(s.AllowRegistration))
			fmt.Printf("    encryption:       %s\n", toggle(s.AllowEncryption))
			fmt.Printf("    federation:       %s\n", toggle(s.AllowFederation))
			fmt.Println()
		}
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func toggle(b *bool) string {
	if b == nil {
		return "(default)"
	}
	if *b {
		return "enabled"
	}
	return "disabled"
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
