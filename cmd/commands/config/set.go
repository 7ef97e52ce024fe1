package config

import (
	"fmt"
	"strconv"
	"strings"

	"nathanbeddoewebdev/devsweep/internal/config"
	"nathanbeddoewebdev/devsweep/internal/providers"
	"nathanbeddoewebdev/devsweep/internal/util"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  devsweep config set default-provider entra\n" +
			"  devsweep config set days-back 180",
		Args: cobra.ExactArgs(2),
		Run:  runSet,
	}

	return cmd
}

// validators maps key names to optional pre-save validation functions.
// Keys not present in this map have no extra validation.
var validators = map[string]func(cmd *cobra.Command, value string) error{
	"default-provider": validateProvider,
	"days-back":        validateDaysBack,
}

func runSet(cmd *cobra.Command, args []string) {
	key := util.NormalizeKey(args[0])
	value := args[1]

	spec := config.Lookup(key)
	if spec == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: unknown configuration key %q\n", args[0])
		fmt.Fprintf(cmd.ErrOrStderr(), "Valid keys: %s\n", strings.Join(config.KeyNames(), ", "))
		return
	}

	if validate, ok := validators[spec.Name]; ok {
		if err := validate(cmd, value); err != nil {
			return // validate already printed the error
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	// Path-like keys keep their value as given; the rest are normalized.
	if spec.Normalize {
		value = util.NormalizeKey(value)
	}
	spec.Set(cfg, value)
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", spec.Name, value)
}

// validateProvider checks that the given name is a registered provider.
func validateProvider(cmd *cobra.Command, name string) error {
	normalized := util.NormalizeKey(name)
	known := providers.List()
	for _, p := range known {
		if p == normalized {
			return nil
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: unknown provider %q\n", name)
	fmt.Fprintf(cmd.ErrOrStderr(), "Registered providers: %v\n", known)
	return fmt.Errorf("unknown provider %q", name)
}

// validateDaysBack checks that the stored default window is a positive
// integer. Zero means "not set" in the config file, so it is rejected
// here; a zero-day window is still expressible per run via --days-back.
func validateDaysBack(cmd *cobra.Command, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: days-back must be a positive integer\n")
		return fmt.Errorf("days-back must be a positive integer")
	}
	return nil
}
