// retirex serves the retirement projection API and computes projections
// from the command line.
//
// Usage:
//
//	retirex serve --config retirex.yaml
//	retirex project --current-age 30 --retirement-age 65 --contribution 40000
//	retirex version
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Martingim-10/retirex/internal/config"
	"github.com/Martingim-10/retirex/internal/logging"
	"github.com/Martingim-10/retirex/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

type globalOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "retirex",
		Short: "Retirement savings projections",
		Long: `retirex projects the capital accumulated by a monthly retirement
contribution under an official and a realistic rate scenario.

It runs as an HTTP service (serve) or as a one-off calculator (project).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file (default "+constants.DefaultConfigFile+" when present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(projectCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// resolveConfigPath falls back to the default file name only when it exists.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(constants.DefaultConfigFile); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return constants.DefaultConfigFile
}

// loadRuntime loads and validates configuration and builds the logger.
func loadRuntime(opts *globalOptions) (*config.Configuration, *zap.Logger, error) {
	configPath := resolveConfigPath(opts.configPath)

	conf, err := config.LoadConfiguration(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration at %q: %w", configPath, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(conf.Logging, opts.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.loadRuntime"),
		)
	}
	return conf, logger, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the retirex version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
