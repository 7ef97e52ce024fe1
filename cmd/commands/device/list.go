package device

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all devices",
		Long: `List every device object in the directory, regardless of sign-in
activity or enablement status.

Examples:
  # Table output (default)
  devsweep device list --provider entra

  # JSON output for scripting
  devsweep device list -o json`,
		Run: runList,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) {
	providerName := cmd.Flag("provider").Value.String()

	provider, err := providers.Get(providerName, auth.DefaultStore())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	devices, err := provider.ListDevices(ctx, domain.DeviceQuery{})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error listing devices: %v\n", err)
		return
	}

	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No devices found.")
		return
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json":
		printDevicesJSON(cmd, devices)
	default:
		printDevicesTable(cmd, devices)
	}
}
