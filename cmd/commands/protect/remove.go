package protect

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/devsweep/internal/protect"
	"nathanbeddoewebdev/devsweep/internal/util"

	"github.com/spf13/cobra"
)

func RemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <object-id>",
		Short: "Remove a device from the protection list",
		Long: `Remove a device from the protection list by directory object ID.

The device becomes eligible for disable and delete sweeps again.

Examples:
  devsweep protect remove 8b5a1f46-93e4-4f1f-9d2c-36a1c0f7d210`,
		Args:         cobra.ExactArgs(1),
		RunE:         runRemove,
		SilenceUsage: true,
	}

	return cmd
}

func runRemove(cmd *cobra.Command, args []string) error {
	objectID := strings.TrimSpace(args[0])
	if err := util.ValidateObjectID(objectID); err != nil {
		return err
	}

	providerName := cmd.Flag("provider").Value.String()

	repo, err := protect.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	removed, err := repo.Remove(providerName, objectID)
	if err != nil {
		return err
	}

	if !removed {
		fmt.Fprintf(cmd.OutOrStdout(), "Device %s was not on the protection list.\n", objectID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed device %s from the protection list.\n", objectID)
	return nil
}
