package auth

import (
	"errors"
	"fmt"
	"os"

	platformproviders "nathanbeddoewebdev/devsweep/internal/platform/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
	"nathanbeddoewebdev/devsweep/internal/tui"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which providers have stored credentials",
		Long: `Show, per provider, whether a complete credential set (or a static
token) is stored in the keychain.

Example:
  devsweep auth status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := auth.DefaultStore()

			// Use TUI in interactive terminal.
			if term.IsTerminal(int(os.Stdout.Fd())) {
				if err := tui.RunAuthStatus(store); err != nil {
					return fmt.Errorf("auth status failed: %w", err)
				}
				return nil
			}

			// Non-interactive fallback.
			specs := platformproviders.All()
			if len(specs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers registered.")
				return nil
			}

			for _, spec := range specs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", spec.Provider, describeSpec(store, spec))
			}
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}

// describeSpec summarizes the keychain state for one provider. A static
// token stored via "auth login --token" counts as authenticated even when
// the full credential set is absent.
func describeSpec(store auth.Store, spec platformproviders.CredentialSpec) string {
	present := 0
	for _, key := range spec.Keys {
		_, err := store.GetToken(spec.KeychainKey(key))
		switch {
		case err == nil:
			present++
		case errors.Is(err, auth.ErrTokenNotFound):
			// missing, keep counting
		default:
			return fmt.Sprintf("error (%v)", err)
		}
	}

	if present == len(spec.Keys) {
		return "authenticated"
	}

	tokenEntry := platformproviders.CredentialKey{Key: "token"}
	if _, err := store.GetToken(spec.KeychainKey(tokenEntry)); err == nil {
		return "authenticated (token)"
	}

	if present > 0 {
		return fmt.Sprintf("partial (%d of %d credentials)", present, len(spec.Keys))
	}
	return "not authenticated"
}
