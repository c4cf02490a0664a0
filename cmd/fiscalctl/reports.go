// cmd/fiscalctl/reports.go
package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fiscal-hub/internal/model"
)

var copyOnly bool

// report prints a report result even when the operation failed
func report(result *model.ReportResult, err error) error {
	if result != nil {
		if printErr := printJSON(result); printErr != nil {
			return printErr
		}
	}
	return err
}

var xReportCmd = &cobra.Command{
	Use:   "x-report",
	Short: "Print the shift report",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, e *env) error {
		return report(e.reports.PrintXReport(ctx))
	}),
}

var zReportCmd = &cobra.Command{
	Use:   "z-report",
	Short: "Close the fiscal day",
	Long:  "Print the end-of-day report and close the fiscal day. With --copy only a copy of the last Z report is printed.",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, e *env) error {
		return report(e.reports.PrintZReport(ctx, copyOnly))
	}),
}

var zByDateCmd = &cobra.Command{
	Use:   "z-by-date START [END]",
	Short: "Reprint the Z reports of a date range (YYYY-MM-DD, END defaults to today)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := model.DateRangeRequest{StartDate: args[0]}
		if len(args) == 2 {
			req.EndDate = args[1]
		}
		return run(func(ctx context.Context, e *env) error {
			return report(e.reports.PrintZByDate(ctx, req))
		})(cmd, args)
	},
}

var zByNumberCmd = &cobra.Command{
	Use:   "z-by-number NUMBER",
	Short: "Reprint one Z report by sequence number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseNumber(args[0])
		if err != nil {
			return err
		}
		return run(func(ctx context.Context, e *env) error {
			return report(e.reports.PrintZByNumber(ctx, number))
		})(cmd, args)
	},
}

var zByRangeCmd = &cobra.Command{
	Use:   "z-by-range START END",
	Short: "Reprint the Z reports of a sequence number range",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseNumber(args[0])
		if err != nil {
			return err
		}
		end, err := parseNumber(args[1])
		if err != nil {
			return err
		}
		req := model.NumberRangeRequest{StartNumber: start, EndNumber: end}
		return run(func(ctx context.Context, e *env) error {
			return report(e.reports.PrintZByNumberRange(ctx, req))
		})(cmd, args)
	},
}

var reprintCmd = &cobra.Command{
	Use:   "reprint NUMBER",
	Short: "Print a copy of a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, e *env) error {
			return report(e.reports.ReprintDocument(ctx, args[0]))
		})(cmd, args)
	},
}

var printCmd = &cobra.Command{
	Use:   "print FILE",
	Short: "Print one TCPOS transaction export",
	Long:  "Parse, transform and print one export file. The file is left in place; the watcher marks files, this command does not.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, e *env) error {
			outcome, err := e.intake.ProcessFile(ctx, args[0])
			if outcome != nil {
				if printErr := printJSON(outcome); printErr != nil {
					return printErr
				}
			}
			return err
		})(cmd, args)
	},
}

func parseNumber(arg string) (int, error) {
	number, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid report number %q", arg)
	}
	return number, nil
}

func init() {
	zReportCmd.Flags().BoolVar(&copyOnly, "copy", false, "print a copy of the last Z report without closing the day")

	rootCmd.AddCommand(xReportCmd, zReportCmd, zByDateCmd, zByNumberCmd, zByRangeCmd, reprintCmd, printCmd)
}
