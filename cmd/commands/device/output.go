package device

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/export"
	"nathanbeddoewebdev/devsweep/internal/policy"
	"nathanbeddoewebdev/devsweep/internal/sweep"

	"github.com/spf13/cobra"
)

// printDevicesJSON encodes a slice of devices as indented JSON to stdout.
func printDevicesJSON(cmd *cobra.Command, devices []domain.Device) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(devices)
}

// printDevicesTable prints a tabwriter table of devices.
func printDevicesTable(cmd *cobra.Command, devices []domain.Device) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tOBJECT ID\tOS\tENABLED\tLAST SIGN-IN")
	fmt.Fprintln(w, "----\t---------\t--\t-------\t------------")

	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			d.DisplayName,
			d.ID,
			d.OperatingSystem,
			d.AccountEnabled,
			formatLastSignIn(d),
		)
	}

	w.Flush()
}

// formatLastSignIn renders a device's last sign-in instant, or "never" when
// the directory has no recorded activity.
func formatLastSignIn(d domain.Device) string {
	if !d.HasSignInActivity() {
		return "never"
	}
	return policy.FormatInstant(d.ApproxLastSignIn)
}

// deviceTable renders raw devices for the read-only report export. The
// header names match the device fields; values are written verbatim.
func deviceTable(devices []domain.Device) export.Table {
	table := export.Table{
		Header: []string{
			"display_name", "device_id", "object_id", "operating_system",
			"os_version", "trust_type", "registered_at", "last_sign_in", "account_enabled",
		},
	}
	for _, d := range devices {
		registered := ""
		if !d.RegisteredAt.IsZero() {
			registered = policy.FormatInstant(d.RegisteredAt)
		}
		table.Rows = append(table.Rows, []string{
			d.DisplayName,
			d.DeviceID,
			d.ID,
			d.OperatingSystem,
			d.OperatingSystemVersion,
			d.TrustType,
			registered,
			formatLastSignIn(d),
			fmt.Sprintf("%t", d.AccountEnabled),
		})
	}
	return table
}

// recordTable renders sweep result records for export. Values are the
// pre-rendered strings from the run; nothing is reformatted here.
func recordTable(records []sweep.ResultRecord) export.Table {
	table := export.Table{
		Header: []string{
			"display_name", "device_id", "object_id", "operating_system",
			"last_sign_in", "account_enabled", "note",
		},
	}
	for _, r := range records {
		table.Rows = append(table.Rows, []string{
			r.DisplayName, r.DeviceID, r.ObjectID, r.OperatingSystem,
			r.LastSignIn, r.AccountEnabled, r.Note,
		})
	}
	return table
}

// exportTable writes a table to a timestamped CSV in the configured folder
// and returns the full path.
func exportTable(table export.Table, exportFolder, prefix string) (string, error) {
	folder := exportFolder
	if folder == "" {
		folder = export.DefaultFolder()
	}
	path := filepath.Join(folder, export.Filename(prefix, time.Now()))
	if err := export.WriteFile(path, table); err != nil {
		return "", err
	}
	return path, nil
}
