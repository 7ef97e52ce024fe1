package protect

import (
	"fmt"

	"nathanbeddoewebdev/devsweep/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "protect" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protect",
		Short: "Manage the device protection list",
		Long: "Pin directory devices so disable and delete sweeps always skip them,\n" +
			"no matter how stale their sign-in activity is.\n\n" +
			"The protection list is stored locally in ~/.config/devsweep/devsweep.db\n" +
			"and scoped per provider.",
		PersistentPreRunE: resolveProvider,
	}

	cmd.AddCommand(AddCommand())
	cmd.AddCommand(RemoveCommand())
	cmd.AddCommand(ListCommand())

	cmd.PersistentFlags().String("provider", "", "Directory provider the entry applies to (overrides default)")

	return cmd
}

// resolveProvider ensures the --provider flag has a value, falling back to the
// configured default when the flag was not explicitly passed.
func resolveProvider(cmd *cobra.Command, args []string) error {
	if cmd.Flag("provider").Changed {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DefaultProvider != "" {
		cmd.Flag("provider").Value.Set(cfg.DefaultProvider)
		return nil
	}

	return fmt.Errorf("no provider specified: use --provider flag or set a default with 'devsweep config set default-provider <name>'")
}
