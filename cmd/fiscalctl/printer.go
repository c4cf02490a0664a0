// cmd/fiscalctl/printer.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	syncClock bool
	setClock  string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the device state",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, e *env) error {
		state, err := e.printers.State(ctx)
		if err != nil {
			return err
		}
		return printJSON(state)
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status register",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, e *env) error {
		status, err := e.printers.Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(status)
	}),
}

var datetimeCmd = &cobra.Command{
	Use:   "datetime",
	Short: "Show or set the device clock",
	Long: `Show the device clock and its drift from the host clock.

With --sync the device clock is set to the host clock; with --set it is set
to the given RFC3339 timestamp.`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, e *env) error {
		switch {
		case syncClock:
			if err := e.printers.SyncClock(ctx); err != nil {
				return err
			}
		case setClock != "":
			t, err := time.Parse(time.RFC3339, setClock)
			if err != nil {
				return fmt.Errorf("--set must be an RFC3339 timestamp: %w", err)
			}
			if err := e.printers.SetDateTime(ctx, t); err != nil {
				return err
			}
		}

		device, err := e.printers.DateTime(ctx)
		if err != nil {
			return err
		}
		host := time.Now()
		return printJSON(map[string]interface{}{
			"datetime":  device,
			"host_time": host,
			"drift":     host.Sub(device).Round(time.Second).String(),
		})
	}),
}

var fiscalInfoCmd = &cobra.Command{
	Use:   "fiscal-info",
	Short: "Show the fiscal configuration stored in the device",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, e *env) error {
		info, err := e.printers.FiscalInfo(ctx)
		if err != nil {
			return err
		}
		return printJSON(info)
	}),
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the serial ports visible to the host",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, e *env) error {
		ports, err := e.printers.Ports()
		if err != nil {
			return err
		}
		return printJSON(ports)
	}),
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Read state, status and fiscal configuration and correct clock drift",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, e *env) error {
		diagnosis, err := e.printers.Diagnose(ctx)
		if err != nil {
			return err
		}
		return printJSON(diagnosis)
	}),
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the document open on the device",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, e *env) error {
		result, err := e.reports.CancelDocument(ctx)
		if printErr := printJSON(result); printErr != nil {
			return printErr
		}
		return err
	}),
}

func init() {
	datetimeCmd.Flags().BoolVar(&syncClock, "sync", false, "set the device clock to the host clock")
	datetimeCmd.Flags().StringVar(&setClock, "set", "", "set the device clock (RFC3339)")
	datetimeCmd.MarkFlagsMutuallyExclusive("sync", "set")

	rootCmd.AddCommand(stateCmd, statusCmd, datetimeCmd, fiscalInfoCmd, portsCmd, diagnoseCmd, cancelCmd)
}
