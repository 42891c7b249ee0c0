// Package main provides the sheetdeck command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/sheetdeck/internal/config"
	"github.com/kpauljoseph/sheetdeck/pkg/logger"
	"github.com/kpauljoseph/sheetdeck/pkg/updater"
	"github.com/kpauljoseph/sheetdeck/pkg/version"
)

var (
	configPath string
	verbose    bool
	debug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheetdeck",
		Short: "Cut printed card sheets into a tabletop card package",
		Long: `sheetdeck slices PDF print sheets laid out as a grid of cards into
one image per card face and packages them with a probability.json
deck description.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode with trace logging")

	rootCmd.AddCommand(newExportCmd(), newInspectCmd(), newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *logger.Logger {
	log := logger.New(logger.WithPrefix("[sheetdeck] "))
	log.SetVerbose(verbose || debug)
	if debug {
		log.SetLevel(logger.LevelTrace)
	}
	if verbose {
		log.Debug("Verbose logging enabled")
	}
	return log
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprint(out, version.GetDetailedVersionInfo())
			if !check {
				return nil
			}

			info, err := updater.NewChecker(newLogger()).CheckForUpdates(cmd.Context())
			if err != nil {
				return fmt.Errorf("update check failed: %w", err)
			}
			if info.IsAvailable {
				fmt.Fprintf(out, "Update available: %s (%s)\n", info.LatestVersion, info.DownloadURL)
			} else {
				fmt.Fprintln(out, "Up to date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
