package config

import (
	"nathanbeddoewebdev/devsweep/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage devsweep configuration",
		Long: "View and modify persistent devsweep settings.\n\n" +
			"Configuration is stored at ~/.config/devsweep/config.json.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
