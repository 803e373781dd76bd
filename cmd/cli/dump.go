package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/editset"
	"github.com/sevigo/cbng-reviewer/internal/storage"
)

var dumpEditCmd = &cobra.Command{
	Use:   "dump-edit [edit-id]",
	Short: "Print the WPEdit of a stored edit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid edit id %q: %w", args[0], err)
		}

		ctx := cmd.Context()
		a, cleanup, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		wpEdit, err := editset.DumpStored(ctx, a.Store, id, editset.Options{})
		if err != nil {
			return fmt.Errorf("failed to dump edit %d: %w", id, err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), wpEdit)
		return err
	},
}

var (
	dumpExpand bool
	dumpOutput string
)

var dumpGroupCmd = &cobra.Command{
	Use:   "dump-group [group-id|name]",
	Short: "Export the reviewed edits of a group as a WPEditSet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		group, err := lookupGroup(ctx, a.Store, args[0])
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if dumpOutput != "" {
			f, err := os.Create(dumpOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", dumpOutput, err)
			}
			defer f.Close()
			buf := bufio.NewWriter(f)
			defer buf.Flush()
			out = buf
		}

		n, err := editset.ExportGroup(ctx, a.Store, out, group, dumpExpand, a.Logger)
		if err != nil {
			return err
		}
		if dumpOutput != "" {
			successColor.Printf("Wrote %d edits from %s to %s\n", n, group.Name, dumpOutput)
		}
		return nil
	},
}

// lookupGroup resolves a group by id, falling back to its name.
func lookupGroup(ctx context.Context, store storage.Store, ref string) (*core.EditGroup, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if group, err := store.GetGroup(ctx, id); err == nil {
			return group, nil
		}
	}
	group, err := store.GetGroupByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to find group %q: %w", ref, err)
	}
	return group, nil
}

func init() { //nolint:gochecknoinits // Cobra command registration
	dumpGroupCmd.Flags().BoolVar(&dumpExpand, "expand", false, "Include the edits of child groups")
	dumpGroupCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "Write to this file instead of stdout")

	rootCmd.AddCommand(dumpEditCmd, dumpGroupCmd)
}
