package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/sevigo/cbng-reviewer/internal/jobs"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

func printRun(report *jobs.RunReport) {
	if report == nil {
		return
	}
	titleColor.Printf("%s\n", report.Operation)
	dimColor.Printf("   %d edits in %s\n", report.Total, report.Duration.Round(time.Millisecond))
	successColor.Printf("   ok:      %d\n", report.OK)
	warnColor.Printf("   skipped: %d\n", report.Skipped)
	if report.Failed > 0 {
		errorColor.Printf("   failed:  %d\n", report.Failed)
	} else {
		dimColor.Printf("   failed:  0\n")
	}
}

func printImport(summary *jobs.ImportSummary) {
	titleColor.Printf("%s\n", summary.Group)
	dimColor.Printf("   %d edits seen\n", summary.Seen)
	successColor.Printf("   created: %d\n", summary.Created)
	successColor.Printf("   added:   %d\n", summary.Added)
	if summary.Training != nil {
		fmt.Println()
		printRun(summary.Training)
	}
}

func printEditSet(group string, summary *jobs.EditSetSummary) {
	titleColor.Printf("%s\n", group)
	dimColor.Printf("   %d records\n", summary.Records)
	successColor.Printf("   created:           %d\n", summary.Created)
	successColor.Printf("   added:             %d\n", summary.Added)
	successColor.Printf("   training imported: %d\n", summary.Imported)
	warnColor.Printf("   incomplete:        %d\n", summary.Incomplete)
	warnColor.Printf("   skipped:           %d\n", summary.Skipped)
	if summary.Failed > 0 {
		errorColor.Printf("   failed:            %d\n", summary.Failed)
	}
}
