package auth

import (
	"errors"
	"fmt"

	platformproviders "nathanbeddoewebdev/devsweep/internal/platform/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
	"nathanbeddoewebdev/devsweep/internal/util"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout <provider>",
		Short: "Remove stored credentials for a provider",
		Long: `Remove every keychain entry stored for a provider, including any
static token.

Example:
  devsweep auth logout entra`,
		Args: cobra.ExactArgs(1),
		RunE: runLogout,

		SilenceUsage: true,
	}

	return cmd
}

func runLogout(cmd *cobra.Command, args []string) error {
	provider := util.NormalizeKey(args[0])
	if provider == "" {
		return fmt.Errorf("provider is required")
	}

	store := auth.DefaultStore()

	keys := []string{provider}
	if spec := platformproviders.Lookup(provider); spec != nil {
		keys = keys[:0]
		for _, key := range spec.Keys {
			keys = append(keys, spec.KeychainKey(key))
		}
		keys = append(keys, spec.Provider+"-token")
	}

	removed := 0
	for _, key := range keys {
		err := store.DeleteToken(key)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, auth.ErrTokenNotFound):
			// nothing stored under this entry
		default:
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}

	if removed == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No stored credentials for provider %s\n", provider)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed stored credentials for provider %s\n", provider)
	return nil
}
