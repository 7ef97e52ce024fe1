package device

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"nathanbeddoewebdev/devsweep/internal/policy"

	"github.com/spf13/cobra"
)

func ReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export stale devices without changing anything",
		Long: `Query the directory for devices whose approximate last sign-in is older
than the inactivity window and export them to a timestamped CSV file.

This is the read-only variant: no device is disabled or deleted, so there
are no mutation flags.

Examples:
  # Devices inactive for 90 days (the default window)
  devsweep device report --provider entra

  # Only enabled devices inactive for half a year, exported to a share
  devsweep device report --days-back 180 --include-disabled=false --export-folder /mnt/reports

  # JSON preview for scripting
  devsweep device report -o json`,
		Run: runReport,
	}

	addSweepFlags(cmd)
	addExportFlag(cmd)
	cmd.Flags().StringP("output", "o", "table", "Console preview format: table or json")

	return cmd
}

func runReport(cmd *cobra.Command, args []string) {
	cfg, err := sweepConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	svc, err := newCollector(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	devices, threshold, err := svc.Collect(ctx, cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No devices found.")
		return
	}

	path, err := exportTable(deviceTable(devices), cfg.ExportFolder, "device-report")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json":
		printDevicesJSON(cmd, devices)
		// Keep stdout parseable; the summary goes to stderr.
		fmt.Fprintf(cmd.ErrOrStderr(), "%d devices identified in %s\n", len(devices), path)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Last sign-in on or before %s:\n\n", policy.FormatInstant(threshold))
		printDevicesTable(cmd, devices)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d devices identified in %s\n", len(devices), path)
	}
}
