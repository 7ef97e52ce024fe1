package device

import (
	"fmt"
	"os"

	"nathanbeddoewebdev/devsweep/internal/config"
	"nathanbeddoewebdev/devsweep/internal/policy"
	"nathanbeddoewebdev/devsweep/internal/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
	"nathanbeddoewebdev/devsweep/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func BrowseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse devices interactively",
		Long: `Open an interactive browser over every device in the directory. Devices
past the inactivity window are badged as stale. Selecting a device shows
its full detail.

The browser is read-only; use the disable or delete commands to act on
what you find.`,
		Run: runBrowse,
	}

	cmd.Flags().Int("days-back", policy.DefaultDaysBack, "Inactivity window used for the stale badge")

	return cmd
}

func runBrowse(cmd *cobra.Command, args []string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error: browse requires an interactive terminal (try 'devsweep device list')")
		return
	}

	providerName := cmd.Flag("provider").Value.String()

	provider, err := providers.Get(providerName, auth.DefaultStore())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	daysBack, _ := cmd.Flags().GetInt("days-back")
	if !cmd.Flags().Changed("days-back") {
		if stored, err := config.Load(); err == nil && stored.DaysBack > 0 {
			daysBack = stored.DaysBack
		}
	}

	if err := tui.RunDeviceBrowse(provider, providerName, daysBack); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
}
