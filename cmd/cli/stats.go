package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the review progress of every group",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, cleanup, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := a.Store.GroupStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to load group statistics: %w", err)
		}
		a.PushMetrics(ctx)

		out := cmd.OutOrStdout()
		switch statsFormat {
		case "json":
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(stats)
		case "yaml":
			encoder := yaml.NewEncoder(out)
			defer encoder.Close()
			return encoder.Encode(stats)
		case "table":
		default:
			return fmt.Errorf("unknown format %q, want table, json or yaml", statsFormat)
		}

		if len(stats) == 0 {
			warnColor.Fprintln(out, "No edit groups found")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tGROUP\tWEIGHT\tPENDING\tIN PROGRESS\tDONE")
		for _, s := range stats {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\n", s.GroupID, s.Name, s.Weight, s.Pending, s.InProgress, s.Done)
		}
		return w.Flush()
	},
}

var lookupUserCmd = &cobra.Command{
	Use:   "lookup-user [username]",
	Short: "Show the local rights and global identity of a wiki account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		local, err := a.Wikipedia.LocalUser(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to look up local user: %w", err)
		}
		central, err := a.Wikipedia.CentralUser(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to look up central user: %w", err)
		}

		titleColor.Printf("%s\n", local.Username)
		dimColor.Printf("   central id: %d (%s)\n", central.ID, central.Username)
		fmt.Printf("   groups:     %v\n", local.Groups)
		fmt.Printf("   rights:     %v\n", local.Rights)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	statsCmd.Flags().StringVar(&statsFormat, "format", "table", "Output format: table, json or yaml")
	rootCmd.AddCommand(statsCmd, lookupUserCmd)
}
