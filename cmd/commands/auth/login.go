package auth

import (
	"fmt"
	"os"
	"strings"

	platformproviders "nathanbeddoewebdev/devsweep/internal/platform/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
	"nathanbeddoewebdev/devsweep/internal/tui"
	"nathanbeddoewebdev/devsweep/internal/util"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Store credentials for a provider",
		Long: `Store a provider's credentials in the local keychain.

On an interactive terminal the command walks through the provider's
credential fields. In scripts, pass the fields as flags instead, or store
a pre-acquired access token with --token.

Examples:
  # Interactive prompt
  devsweep auth login entra

  # Scripted app-registration credentials
  devsweep auth login entra --tenant-id <guid> --client-id <guid> --client-secret <secret>

  # Pre-acquired bearer token
  devsweep auth login entra --token <jwt>`,
		Args: cobra.ExactArgs(1),
		RunE: runLogin,

		SilenceUsage: true,
	}

	cmd.Flags().String("token", "", "Pre-acquired access token (used instead of the credential set)")
	cmd.Flags().String("tenant-id", "", "Directory (tenant) ID")
	cmd.Flags().String("client-id", "", "Application (client) ID")
	cmd.Flags().String("client-secret", "", "Client secret")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	provider := util.NormalizeKey(args[0])
	if provider == "" {
		return fmt.Errorf("provider is required")
	}

	store := auth.DefaultStore()
	spec := platformproviders.Lookup(provider)

	if token, _ := cmd.Flags().GetString("token"); strings.TrimSpace(token) != "" {
		if err := store.SetToken(tokenKey(provider, spec), strings.TrimSpace(token)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved token for provider %s\n", provider)
		return nil
	}

	if spec == nil {
		return loginSingleToken(cmd, store, provider)
	}

	// Any credential passed as a flag means a scripted login: all of the
	// spec's fields must then be present.
	values, missing := credentialFlags(cmd, spec)
	if len(values) > 0 {
		if len(missing) > 0 {
			return fmt.Errorf("missing --%s (pass every credential flag, or run interactively)", strings.Join(missing, ", --"))
		}
		for _, key := range spec.Keys {
			if err := store.SetToken(spec.KeychainKey(key), values[key.Key]); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials for provider %s\n", provider)
		return nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("no credentials provided: pass the credential flags (or --token), or run in an interactive terminal")
	}

	result, err := tui.RunAuthLogin(*spec, store)
	if err != nil {
		return fmt.Errorf("auth login failed: %w", err)
	}
	if result == nil || !result.Saved {
		fmt.Fprintln(cmd.ErrOrStderr(), "Login cancelled.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials for provider %s\n", provider)
	return nil
}

// loginSingleToken handles providers without a registered credential spec:
// one secret stored under the bare provider name.
func loginSingleToken(cmd *cobra.Command, store auth.Store, provider string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("no credentials provided: pass --token, or run in an interactive terminal")
	}

	fmt.Fprint(cmd.OutOrStdout(), "Enter API token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := store.SetToken(provider, token); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved token for provider %s\n", provider)
	return nil
}

// credentialFlags collects the provider's credential fields from
// same-named flags. It returns the values that were set and the names
// still missing.
func credentialFlags(cmd *cobra.Command, spec *platformproviders.CredentialSpec) (map[string]string, []string) {
	values := map[string]string{}
	var missing []string
	for _, key := range spec.Keys {
		flag := cmd.Flags().Lookup(key.Key)
		if flag == nil {
			continue
		}
		value := strings.TrimSpace(flag.Value.String())
		if value == "" {
			missing = append(missing, key.Key)
			continue
		}
		values[key.Key] = value
	}
	return values, missing
}

// tokenKey returns the keychain entry for a pre-acquired token. Providers
// with a multi-credential spec keep the token beside the credential set
// under "<provider>-token"; others use the bare provider name.
func tokenKey(provider string, spec *platformproviders.CredentialSpec) string {
	if spec == nil {
		return provider
	}
	return spec.Provider + "-token"
}
