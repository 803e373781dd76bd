package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/cbng-reviewer/internal/jobs"
)

var seedSampledCmd = &cobra.Command{
	Use:   "seed-sampled",
	Short: "Add a random sample of recent edits to the sampled edits group",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, cleanup, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := a.Importer.SeedSampledEdits(ctx)
		if err != nil {
			return err
		}
		printImport(summary)
		a.PushMetrics(ctx)
		return nil
	},
}

var includeInProgress bool

var importReportedCmd = &cobra.Command{
	Use:   "import-reported",
	Short: "Import the edits reported on the report interface",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, cleanup, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := a.Importer.ImportReportedEdits(ctx, includeInProgress)
		if err != nil {
			return err
		}
		printImport(summary)
		a.PushMetrics(ctx)
		return nil
	},
}

var addDanglingCmd = &cobra.Command{
	Use:   "add-dangling",
	Short: "Put edits that belong to no group into the dangling edits group",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, cleanup, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := a.Importer.AddDanglingEdits(ctx)
		if err != nil {
			return err
		}
		printImport(summary)
		return nil
	},
}

var editSetOpts jobs.EditSetImport

var importEditSetCmd = &cobra.Command{
	Use:   "import-editset [file]",
	Short: "Import a WPEditSet file into a group",
	Long: `Import a WPEditSet file into a group.

Every record marks its edit Done with the verdict it carries when the edit is
new. Complete records have their training data stored.

Examples:
  cbng-reviewer import-editset --group "Original Training Set - D - Train" train.xml
  cbng-reviewer import-editset --group Train --parent "Original Training Set" --dynamic-groups train.xml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open edit set: %w", err)
		}
		defer f.Close()

		a, cleanup, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := a.Importer.ImportEditSet(ctx, bufio.NewReader(f), editSetOpts)
		if summary != nil {
			printEditSet(editSetOpts.Group, summary)
		}
		return err
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	importReportedCmd.Flags().BoolVar(&includeInProgress, "include-in-progress", false, "Also import reports that are already being reviewed")

	importEditSetCmd.Flags().StringVarP(&editSetOpts.Group, "group", "g", "", "Group receiving the edits")
	importEditSetCmd.Flags().StringVar(&editSetOpts.Parent, "parent", "", "Parent of the target group")
	importEditSetCmd.Flags().BoolVar(&editSetOpts.DynamicGroups, "dynamic-groups", false, "Place edits in child groups named after their EditDB source")
	importEditSetCmd.Flags().BoolVar(&editSetOpts.SkipExisting, "skip-existing", false, "Leave training data of edits that already have it")
	importEditSetCmd.Flags().BoolVar(&editSetOpts.ForceStatus, "force-status", false, "Apply the record verdict to existing edits too")
	_ = importEditSetCmd.MarkFlagRequired("group")

	rootCmd.AddCommand(seedSampledCmd, importReportedCmd, addDanglingCmd, importEditSetCmd)
}
