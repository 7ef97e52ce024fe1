package device

import (
	"nathanbeddoewebdev/devsweep/internal/policy"

	"github.com/spf13/cobra"
)

func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete stale devices",
		Long: `Query the directory for devices whose approximate last sign-in is older
than the inactivity window and delete the enabled ones. Already-disabled
devices in scope are recorded but not touched. Results are exported to a
timestamped CSV file.

Deletion removes the device object from the directory and cannot be undone
by this tool. Runs are a dry run by default: every device is still
validated against the directory, but nothing is changed. Pass
--dry-run=false to commit.

Examples:
  # Rehearse deleting devices inactive for a year
  devsweep device delete --days-back 365

  # Commit after reviewing the candidates interactively
  devsweep device delete --days-back 365 --dry-run=false --review`,
		Run: runDelete,
	}

	addSweepFlags(cmd)
	addExportFlag(cmd)
	addMutationFlags(cmd)

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) {
	runSweep(cmd, policy.ModeDelete)
}
