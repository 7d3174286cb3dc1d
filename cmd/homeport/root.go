package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matrixops/homeport/internal/discovery"
	"github.com/matrixops/homeport/internal/filesystems"
	"github.com/matrixops/homeport/internal/logging"
	"github.com/matrixops/homeport/internal/parser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
	format  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "homeport",
	Short: "Validate and generate Matrix homeserver deployment descriptors",
	Long: `Homeport works with the container deployment descriptors of a Matrix
homeserver: the compose service block (image, restart policy, port mapping,
volume mount, environment overrides) and the server's native TOML config.

It can discover descriptors in a source tree, check them for schema and
referential consistency problems, extract and classify their environment
variables, and generate fresh descriptors from a few settings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return err
		}
		return nil
	},
}

// Execute runs the CLI. The logger is flushed here rather than in a
// PersistentPostRun hook: cobra skips post-run hooks when RunE errors, and
// a failed check must still flush before the process exits nonzero.
func Execute() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.homeport.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "output format (text or json)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".homeport")
	}

	viper.SetEnvPrefix("HOMEPORT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// sourceArg resolves the optional positional path argument. A file path
// resolves to its parent directory.
func sourceArg(args []string) string {
	sourcePath := "."
	if len(args) > 0 {
		sourcePath = args[0]
		if stat, err := os.Stat(sourcePath); err == nil && !stat.IsDir() {
			sourcePath = filepath.Dir(sourcePath)
		}
	}
	return sourcePath
}

// loadDeployments runs discovery and aggregation over a source tree.
func loadDeployments(ctx context.Context, sourcePath string) ([]*parser.Deployment, filesystems.FileSystem, error) {
	filesystem, err := filesystems.NewFileSystem(sourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create filesystem: %w", err)
	}

	basePath := filesystems.BasePath(sourcePath)

	scanner := discovery.NewScanner(filesystem)
	configs, err := scanner.Scan(ctx, basePath)
	if err != nil {
		return nil, nil, fmt.Errorf("discovery failed: %w", err)
	}
	logger.Debug("discovery finished", zap.Int("configs", len(configs)))

	aggregator := parser.NewAggregator(filesystem)
	deployments, err := aggregator.Aggregate(ctx, configs)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregation failed: %w", err)
	}
	logger.Debug("aggregation finished", zap.Int("deployments", len(deployments)))

	return deployments, filesystem, nil
}
