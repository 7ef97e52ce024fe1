package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"nathanbeddoewebdev/devsweep/internal/auditlog"
	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/policy"
	"nathanbeddoewebdev/devsweep/internal/sweep"
	"nathanbeddoewebdev/devsweep/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func DisableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable stale devices",
		Long: `Query the directory for devices whose approximate last sign-in is older
than the inactivity window and disable the enabled ones. Already-disabled
devices in scope are recorded but not touched. Results are exported to a
timestamped CSV file.

Runs are a dry run by default: every device is still validated against the
directory so that authorization errors surface, but nothing is changed.
Pass --dry-run=false to commit.

Examples:
  # Rehearse the default 90-day sweep
  devsweep device disable --provider entra

  # Commit after reviewing the candidates interactively
  devsweep device disable --dry-run=false --review

  # Commit from a script (no terminal, no confirmation)
  devsweep device disable --dry-run=false --yes`,
		Run: runDisable,
	}

	addSweepFlags(cmd)
	addExportFlag(cmd)
	addMutationFlags(cmd)

	return cmd
}

func runDisable(cmd *cobra.Command, args []string) {
	runSweep(cmd, policy.ModeDisable)
}

// addMutationFlags registers the flags shared by the disable and delete
// commands. Report is the read-only variant and takes none of these.
func addMutationFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", true, "Validate every device but change nothing")
	cmd.Flags().Bool("yes", false, "Skip the commit confirmation")
	cmd.Flags().Bool("review", false, "Interactively review candidates before processing")
}

// runSweep drives a mutating sweep end to end: collect, optionally narrow
// via the review form, gate the commit, process, export, summarize.
func runSweep(cmd *cobra.Command, mode policy.Mode) {
	start := time.Now()

	cfg, err := sweepConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	svc, providerName, cleanup, err := newSweepService(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	defer cleanup()

	yes, _ := cmd.Flags().GetBool("yes")
	review, _ := cmd.Flags().GetBool("review")
	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	if review && !interactive {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error: --review requires an interactive terminal")
		return
	}
	if !cfg.DryRun && !interactive && !yes {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: refusing to %s devices non-interactively without --yes\n", mode)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	devices, threshold, err := collectDevices(ctx, cmd, svc, cfg, interactive)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	if review && len(devices) > 0 {
		kept, err := tui.ReviewDevices(devices, threshold, mode)
		if err != nil {
			if errors.Is(err, tui.ErrReviewAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Sweep cancelled.")
				return
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		devices = kept
	}

	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No devices found.")
		return
	}

	// The review form already confirmed; --yes skips the question.
	if !cfg.DryRun && !yes && !review {
		mutable := countMutable(devices, cfg, mode)
		if mutable > 0 {
			ok, err := confirmCommit(cmd, mode, mutable)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "Sweep cancelled.")
				return
			}
		}
	}

	summary, err := svc.Process(ctx, devices, threshold, cfg, mode)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	recordRunSummary(providerName, mode, summary, start)

	for _, f := range summary.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to %s %s (%s): %v\n", mode, f.DisplayName, f.ObjectID, f.Err)
	}
	if summary.Skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %d protected device(s).\n", summary.Skipped)
	}

	if len(summary.Records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No devices found.")
		return
	}

	path, err := exportTable(recordTable(summary.Records), cfg.ExportFolder, "device-"+string(mode))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d devices identified in %s\n", len(summary.Records), path)
	if cfg.DryRun {
		fmt.Fprintln(cmd.ErrOrStderr(), "Dry run: no changes were made. Re-run with --dry-run=false to commit.")
	}
}

// collectDevices queries the directory, behind a spinner when the session is
// interactive.
func collectDevices(ctx context.Context, cmd *cobra.Command, svc *sweep.Service, cfg policy.Config, interactive bool) ([]domain.Device, time.Time, error) {
	if !interactive {
		return svc.Collect(ctx, cfg)
	}

	accessible := os.Getenv("ACCESSIBLE") != ""
	var (
		devices   []domain.Device
		threshold time.Time
	)
	spinErr := spinner.New().
		Title("Querying stale devices...").
		Accessible(accessible).
		Output(cmd.ErrOrStderr()).
		ActionWithErr(func(ctx context.Context) error {
			var err error
			devices, threshold, err = svc.Collect(ctx, cfg)
			return err
		}).
		Run()
	return devices, threshold, spinErr
}

// countMutable reports how many of the devices the run would actually
// mutate, so the confirmation names a real number rather than the whole
// candidate set.
func countMutable(devices []domain.Device, cfg policy.Config, mode policy.Mode) int {
	n := 0
	for _, d := range devices {
		if policy.Evaluate(d, cfg, mode).Action == policy.ActionMutate {
			n++
		}
	}
	return n
}

// confirmCommit asks the operator to approve a committing run.
func confirmCommit(cmd *cobra.Command, mode policy.Mode, mutable int) (bool, error) {
	title := fmt.Sprintf("Disable %d device(s)?", mutable)
	if mode == policy.ModeDelete {
		title = fmt.Sprintf("Delete %d device(s)? This action cannot be undone.", mutable)
	}

	accessible := os.Getenv("ACCESSIBLE") != ""
	confirmed := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative(fmt.Sprintf("Yes, %s", mode)).
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithAccessible(accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}

// recordRunSummary writes a best-effort run-level audit entry. Errors
// opening the repository or saving the entry are silently discarded.
func recordRunSummary(providerName string, mode policy.Mode, summary *sweep.Summary, start time.Time) {
	repo, openErr := auditlog.Open()
	if openErr != nil {
		return
	}
	defer repo.Close()

	entry := &auditlog.AuditEntry{
		Timestamp:  start,
		Command:    "devsweep device " + string(mode),
		Args:       strings.Join(auditlog.SanitizeArgs(os.Args[1:]), " "),
		Provider:   providerName,
		Outcome:    auditlog.OutcomeSuccess,
		Detail:     fmt.Sprintf("queried %d, mutated %d, skipped %d, failed %d", summary.Queried, summary.Mutated, summary.Skipped, len(summary.Failures)),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if len(summary.Failures) > 0 {
		entry.Outcome = auditlog.OutcomeError
	}
	_ = repo.Save(entry)
}
