package main

import (
	"fmt"
	"os"

	"github.com/matrixops/homeport/internal/descriptor"
	"github.com/matrixops/homeport/internal/render"
	"github.com/spf13/cobra"
)

var initFlags struct {
	serverName     string
	image          string
	serviceName    string
	volumeName     string
	publishedPort  int
	listenerPort   int
	maxRequestSize string
	registration   bool
	encryption     bool
	federation     bool
	outFormat      string
	outFile        string
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a fresh homeserver deployment descriptor",
	Long: `Init renders a deployment descriptor for a new homeserver: a single
service with a pinned image, a restart policy, a host port mapping, a named
volume covering the database path, and the settings expressed as environment
overrides. With --out-format toml it renders the server's native config file
instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := descriptor.ParseSize(initFlags.maxRequestSize)
		if err != nil {
			return fmt.Errorf("invalid --max-request-size: %w", err)
		}

		settings := descriptor.Settings{
			ServerName:        initFlags.serverName,
			Port:              initFlags.listenerPort,
			MaxRequestSize:    size,
			AllowRegistration: &initFlags.registration,
			AllowEncryption:   &initFlags.encryption,
			AllowFederation:   &initFlags.federation,
		}

		var output []byte
		switch initFlags.outFormat {
		case "compose":
			output, err = render.Compose(render.Options{
				ServiceName:   initFlags.serviceName,
				Image:         initFlags.image,
				VolumeName:    initFlags.volumeName,
				PublishedPort: initFlags.publishedPort,
				Settings:      settings,
			})
		case "toml":
			output, err = render.ServerConfig(settings)
		default:
			return fmt.Errorf("unknown --out-format %q (compose or toml)", initFlags.outFormat)
		}
		if err != nil {
			return err
		}

		if initFlags.outFile == "" || initFlags.outFile == "-" {
			fmt.Print(string(output))
			return nil
		}
		if err := os.WriteFile(initFlags.outFile, output, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", initFlags.outFile, err)
		}
		fmt.Printf("Wrote %s\n", initFlags.outFile)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initFlags.serverName, "server-name", "", "federation server name (required)")
	initCmd.Flags().StringVar(&initFlags.image, "image", "", "container image reference")
	initCmd.Flags().StringVar(&initFlags.serviceName, "service", "homeserver", "service name in the descriptor")
	initCmd.Flags().StringVar(&initFlags.volumeName, "volume", "db", "named volume for the database")
	initCmd.Flags().IntVar(&initFlags.publishedPort, "port", 8448, "published host port")
	initCmd.Flags().IntVar(&initFlags.listenerPort, "listener-port", descriptor.DefaultPort, "container listener port")
	initCmd.Flags().StringVar(&initFlags.maxRequestSize, "max-request-size", "20m", "max request size (bytes or human-readable)")
	initCmd.Flags().BoolVar(&initFlags.registration, "registration", false, "allow open registration")
	initCmd.Flags().BoolVar(&initFlags.encryption, "encryption", true, "allow end-to-end encryption")
	initCmd.Flags().BoolVar(&initFlags.federation, "federation", true, "allow federation")
	initCmd.Flags().StringVar(&initFlags.outFormat, "out-format", "compose", "output kind (compose or toml)")
	initCmd.Flags().StringVarP(&initFlags.outFile, "output", "o", "", "write to file instead of stdout")
	_ = initCmd.MarkFlagRequired("server-name")
	rootCmd.AddCommand(initCmd)
}
