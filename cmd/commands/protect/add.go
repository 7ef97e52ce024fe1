package protect

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/devsweep/internal/protect"
	"nathanbeddoewebdev/devsweep/internal/providers"
	"nathanbeddoewebdev/devsweep/internal/util"

	"github.com/spf13/cobra"
)

func AddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <object-id>",
		Short: "Protect a device from sweeps",
		Long: `Add a device to the protection list by directory object ID.

Protected devices are skipped by disable and delete sweeps and counted in
the sweep summary. Re-adding a device updates its note.

Examples:
  devsweep protect add 8b5a1f46-93e4-4f1f-9d2c-36a1c0f7d210 --note "domain controller"
  devsweep protect add 8b5a1f46-93e4-4f1f-9d2c-36a1c0f7d210 --provider entra`,
		Args:         cobra.ExactArgs(1),
		RunE:         runAdd,
		SilenceUsage: true,
	}

	cmd.Flags().String("note", "", "Why this device must not be touched")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	objectID := strings.TrimSpace(args[0])
	if err := util.ValidateObjectID(objectID); err != nil {
		return err
	}

	providerName := cmd.Flag("provider").Value.String()
	if err := checkProviderRegistered(providerName); err != nil {
		return err
	}

	note, _ := cmd.Flags().GetString("note")

	repo, err := protect.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	rec := &protect.ProtectedDevice{
		Provider: providerName,
		DeviceID: objectID,
		Note:     strings.TrimSpace(note),
	}
	if err := repo.Add(rec); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Protected device %s (provider %s).\n", objectID, providerName)
	return nil
}

// checkProviderRegistered rejects entries for provider names the sweep would
// never match, so a typo cannot create an entry that protects nothing.
func checkProviderRegistered(name string) error {
	for _, p := range providers.List() {
		if p == name {
			return nil
		}
	}
	return fmt.Errorf("unknown provider %q (registered: %s)", name, strings.Join(providers.List(), ", "))
}
