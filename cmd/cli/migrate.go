package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/db"
	"github.com/sevigo/cbng-reviewer/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down N|version]",
	Short: "Manage the database schema",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		log := logger.NewLogger(cfg.Logging, os.Stderr)

		conn, cleanup, err := db.Open(cmd.Context(), cfg.Database, log)
		if err != nil {
			return err
		}
		defer cleanup()

		switch args[0] {
		case "up":
			if err := conn.RunMigrations(); err != nil {
				return err
			}
		case "down":
			steps := 1
			if len(args) == 2 {
				if steps, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid step count %q: %w", args[1], err)
				}
			}
			if err := conn.RollbackMigrations(steps); err != nil {
				return err
			}
		case "version":
		default:
			return fmt.Errorf("unknown migrate action %q", args[0])
		}

		version, dirty, err := conn.MigrationVersion()
		if err != nil {
			return err
		}
		if dirty {
			warnColor.Printf("Schema version %d (dirty)\n", version)
			return nil
		}
		successColor.Printf("Schema version %d\n", version)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(migrateCmd)
}
