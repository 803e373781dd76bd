package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/cbng-reviewer/internal/app"
	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/jobs"
)

// populationFlags selects the edits an operation runs over.
type populationFlags struct {
	editID  int64
	groupID int64
	workers int
	force   bool
}

func (p *populationFlags) register(cmd *cobra.Command, forceUsage string) {
	cmd.Flags().Int64Var(&p.editID, "edit-id", 0, "Only process this edit")
	cmd.Flags().Int64Var(&p.groupID, "group-id", 0, "Only process edits in this group")
	cmd.Flags().IntVarP(&p.workers, "workers", "w", 0, "Concurrent edits (default from config)")
	if forceUsage != "" {
		cmd.Flags().BoolVarP(&p.force, "force", "f", false, forceUsage)
	}
}

func (p *populationFlags) population(filter core.EditFilter) jobs.Population {
	pop := jobs.Population{Filter: filter}
	if p.editID > 0 {
		pop.EditID = &p.editID
	}
	if p.groupID > 0 {
		pop.GroupID = &p.groupID
	}
	return pop
}

func (p *populationFlags) width(fallback int) int {
	if p.workers > 0 {
		return p.workers
	}
	return fallback
}

// runOperation runs job over the selected edits, prints the summary and
// pushes the run metrics.
func runOperation(cmd *cobra.Command, flags *populationFlags, build func(a *app.App) (core.Job, core.EditFilter, int)) error {
	ctx := cmd.Context()
	a, cleanup, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	job, filter, workers := build(a)
	report, err := a.Orchestrator.RunPopulation(ctx, job, flags.population(filter), flags.width(workers))
	if err != nil {
		return fmt.Errorf("%s failed: %w", job.Name(), err)
	}
	printRun(report)
	a.PushMetrics(ctx)
	return nil
}

var (
	classificationFlags populationFlags
	trainingFlags       populationFlags
	deletionFlags       populationFlags
	trainingFlagFlags   populationFlags
)

var updateClassificationCmd = &cobra.Command{
	Use:   "update-classification",
	Short: "Recompute edit status and classification from the stored votes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOperation(cmd, &classificationFlags, func(a *app.App) (core.Job, core.EditFilter, int) {
			return &jobs.UpdateClassification{Service: a.Reviews, Force: classificationFlags.force},
				core.EditFilter{}, a.Config.Workers.Default
		})
	},
}

var importTrainingDataCmd = &cobra.Command{
	Use:   "import-training-data",
	Short: "Aggregate and store training data for edits that have none",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOperation(cmd, &trainingFlags, func(a *app.App) (core.Job, core.EditFilter, int) {
			var filter core.EditFilter
			if !trainingFlags.force {
				missing := false
				filter.HasTrainingData = &missing
			}
			return &jobs.AggregateFeatures{Importer: a.Trainer, Force: trainingFlags.force},
				filter, a.Config.Workers.Default
		})
	},
}

var resolveDeletionsCmd = &cobra.Command{
	Use:   "resolve-deletions",
	Short: "Apply the retention policy to edits whose revision was deleted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOperation(cmd, &deletionFlags, func(a *app.App) (core.Job, core.EditFilter, int) {
			live := false
			return &jobs.ResolveDeletion{Service: a.Reviews},
				core.EditFilter{IsDeleted: &live}, a.Config.Workers.Deletion
		})
	},
}

var markTrainingFlagsCmd = &cobra.Command{
	Use:   "mark-training-flags",
	Short: "Recompute the has-training-data flag from the stored data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOperation(cmd, &trainingFlagFlags, func(a *app.App) (core.Job, core.EditFilter, int) {
			return &jobs.MarkTrainingFlag{Store: a.Store}, core.EditFilter{}, a.Config.Workers.Default
		})
	},
}

var (
	scoreFlags populationFlags
	scoreType  string
)

var importScoresCmd = &cobra.Command{
	Use:   "import-scores",
	Short: "Import classifier scores for stored edits",
	Long: `Import classifier scores for stored edits.

--type training scores the dump of every edit with training data on the
scoring socket. --type vandalism fetches the score recorded by the report
interface for the live edits of the reporting groups.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, cleanup, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		var (
			job core.Job
			pop jobs.Population
		)
		switch scoreType {
		case "training":
			hasTraining := true
			job = &jobs.ImportTrainingScore{Store: a.Store, Scorer: a.Scorer, Force: scoreFlags.force}
			pop = scoreFlags.population(core.EditFilter{HasTrainingData: &hasTraining})
		case "vandalism":
			reported, ok, err := jobs.ReportedPopulation(ctx, a.Store)
			if err != nil {
				return err
			}
			if !ok {
				warnColor.Println("No reporting groups found")
				return nil
			}
			job = &jobs.ImportVandalismScore{Store: a.Store, Reports: a.Reports, Force: scoreFlags.force}
			pop = scoreFlags.population(reported.Filter)
		default:
			return fmt.Errorf("unknown score type %q, want training or vandalism", scoreType)
		}

		report, err := a.Orchestrator.RunPopulation(ctx, job, pop, scoreFlags.width(a.Config.Workers.Default))
		if err != nil {
			return fmt.Errorf("%s failed: %w", job.Name(), err)
		}
		printRun(report)
		a.PushMetrics(ctx)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	classificationFlags.register(updateClassificationCmd, "Recompute settled and historical edits too")
	trainingFlags.register(importTrainingDataCmd, "Rebuild training data that already exists")
	deletionFlags.register(resolveDeletionsCmd, "")
	trainingFlagFlags.register(markTrainingFlagsCmd, "")
	scoreFlags.register(importScoresCmd, "Replace scores that are already stored")
	importScoresCmd.Flags().StringVar(&scoreType, "type", "training", "Score to import: training or vandalism")

	rootCmd.AddCommand(
		updateClassificationCmd,
		importTrainingDataCmd,
		resolveDeletionsCmd,
		markTrainingFlagsCmd,
		importScoresCmd,
	)
}
