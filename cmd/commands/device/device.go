package device

import (
	"fmt"
	"io"

	"nathanbeddoewebdev/devsweep/internal/auditlog"
	"nathanbeddoewebdev/devsweep/internal/config"
	"nathanbeddoewebdev/devsweep/internal/policy"
	"nathanbeddoewebdev/devsweep/internal/protect"
	"nathanbeddoewebdev/devsweep/internal/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
	"nathanbeddoewebdev/devsweep/internal/sweep"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Audit and sweep stale devices in a directory service",
		Long: `Query a directory service for device objects, filter them by inactivity
and enablement status, and report, disable, or delete the matches.

Every sweep exports its results to a timestamped CSV file.`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
		PersistentPreRunE: resolveProvider,
	}

	cmd.AddCommand(ReportCommand())
	cmd.AddCommand(DisableCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(ListCommand())
	cmd.AddCommand(StatsCommand())
	cmd.AddCommand(BrowseCommand())

	cmd.PersistentFlags().String("provider", "", "Directory provider to use (overrides default)")

	return cmd
}

// resolveProvider ensures the --provider flag has a value, falling back to the
// configured default when the flag was not explicitly passed.
func resolveProvider(cmd *cobra.Command, args []string) error {
	if cmd.Flag("provider").Changed {
		return nil // explicitly provided -- nothing to do
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

// addSweepFlags registers the flags shared by every command that selects a
// stale-device set.
func addSweepFlags(cmd *cobra.Command) {
	cmd.Flags().Int("days-back", policy.DefaultDaysBack, "Inactivity window in days")
	cmd.Flags().Bool("include-enabled", true, "Include enabled devices")
	cmd.Flags().Bool("include-disabled", true, "Include already-disabled devices")
}

// addExportFlag registers --export-folder for commands that write a CSV.
func addExportFlag(cmd *cobra.Command) {
	cmd.Flags().String("export-folder", "", "Directory for the CSV export (default: system temp directory)")
}

// sweepConfig builds the run configuration from flags and stored defaults.
// An explicitly passed flag always wins; otherwise the config file value is
// used when set, then the built-in default.
func sweepConfig(cmd *cobra.Command) (policy.Config, error) {
	cfg := policy.Default()

	stored, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("days-back") {
		cfg.DaysBack, _ = cmd.Flags().GetInt("days-back")
	} else if stored.DaysBack > 0 {
		cfg.DaysBack = stored.DaysBack
	}
	if cfg.DaysBack < 0 {
		return cfg, fmt.Errorf("days-back must be zero or a positive number of days")
	}

	cfg.IncludeEnabled, _ = cmd.Flags().GetBool("include-enabled")
	cfg.IncludeDisabled, _ = cmd.Flags().GetBool("include-disabled")

	if cmd.Flags().Changed("export-folder") {
		cfg.ExportFolder, _ = cmd.Flags().GetString("export-folder")
	} else if stored.ExportFolder != "" {
		cfg.ExportFolder = stored.ExportFolder
	}

	// Only the mutating commands register --dry-run; report keeps the default.
	if cmd.Flags().Lookup("dry-run") != nil {
		cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}

	return cfg, nil
}

// newCollector resolves the provider into a sweep service with neither the
// protection list nor the audit log attached. Read-only commands never
// consult either, so they must not fail on a broken local database.
func newCollector(cmd *cobra.Command) (*sweep.Service, error) {
	providerName := cmd.Flag("provider").Value.String()

	provider, err := providers.Get(providerName, auth.DefaultStore())
	if err != nil {
		return nil, err
	}

	return sweep.New(provider, providerName), nil
}

// newSweepService resolves the provider and wires the protection list and
// audit log into a sweep service. The protection list must open: a sweep that
// cannot check it would mutate devices the operator pinned. The audit log is
// best-effort; a run proceeds without one. The returned cleanup closes both.
func newSweepService(cmd *cobra.Command) (*sweep.Service, string, func(), error) {
	providerName := cmd.Flag("provider").Value.String()

	provider, err := providers.Get(providerName, auth.DefaultStore())
	if err != nil {
		return nil, "", nil, err
	}

	guard, err := protect.Open()
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to open protection list: %w", err)
	}

	opts := []sweep.Option{sweep.WithGuard(guard)}
	closers := []io.Closer{guard}

	if audit, err := auditlog.Open(); err == nil {
		opts = append(opts, sweep.WithAudit(audit))
		closers = append(closers, audit)
	}

	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	return sweep.New(provider, providerName, opts...), providerName, cleanup, nil
}
