package cmd

import (
	"os"

	"nathanbeddoewebdev/devsweep/cmd/commands/audit"
	"nathanbeddoewebdev/devsweep/cmd/commands/auth"
	cfgcmd "nathanbeddoewebdev/devsweep/cmd/commands/config"
	"nathanbeddoewebdev/devsweep/cmd/commands/device"
	"nathanbeddoewebdev/devsweep/cmd/commands/protect"
	"nathanbeddoewebdev/devsweep/internal/providers"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "devsweep",
		Short: "A CLI tool for finding and cleaning up stale devices in a directory",
		Long: `devsweep is a command-line tool for auditing device objects in a directory
service, finding the ones that have not signed in for a configurable number
of days, and reporting, disabling, or deleting them. Every sweep exports its
results to a timestamped CSV file, and mutating sweeps dry-run by default.

Supported providers: Microsoft Entra ID (more coming soon).

Quick start:
  devsweep auth login entra                 # Store your directory credentials
  devsweep device report                    # Preview stale devices, export CSV
  devsweep device disable                   # Dry-run a disable sweep
  devsweep device disable --dry-run=false   # Commit it`,
	}

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(device.NewCommand())
	cmd.AddCommand(protect.NewCommand())
	cmd.AddCommand(audit.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	providers.RegisterEntra()

	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
