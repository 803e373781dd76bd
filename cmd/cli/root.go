package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/cbng-reviewer/internal/app"
	"github.com/sevigo/cbng-reviewer/internal/wire"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cbng-reviewer",
	Short: "cbng-reviewer curates the ClueBot NG training edit sets.",
	Long: `A CLI for the ClueBot NG review backend: importing edits into review groups,
aggregating training data, updating classifications, resolving deleted edits
and exporting WPEditSet documents.`,
	SilenceUsage: true,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default ./config.yaml or $HOME/.cbng-reviewer/config.yaml)")
}

// initApp wires the application for a command.
func initApp(ctx context.Context) (*app.App, func(), error) {
	a, cleanup, err := wire.InitializeApp(ctx, configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return a, cleanup, nil
}
