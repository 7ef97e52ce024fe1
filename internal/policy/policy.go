// Package policy implements the stale-device decision logic.
//
// The policy core is pure: it computes the inactivity threshold, composes
// the server-side filter expression, and classifies each returned device
// into an action. It performs no I/O, so every rule is testable without a
// directory service. The sweep service owns applying the decisions.
package policy

import (
	"strconv"
	"time"

	"nathanbeddoewebdev/devsweep/internal/domain"
)

// instantLayout renders a UTC instant the way directory filter
// expressions expect it: yyyy-MM-ddTHH:mm:ssZ, no sub-second digits.
const instantLayout = "2006-01-02T15:04:05Z"

// DefaultDaysBack is the inactivity window applied when the user does
// not specify one.
const DefaultDaysBack = 90

// Mode selects which mutation a sweep performs on matching devices.
type Mode string

const (
	// ModeDisable marks matching enabled devices to be disabled.
	ModeDisable Mode = "disable"
	// ModeDelete marks matching enabled devices to be deleted.
	ModeDelete Mode = "delete"
)

// Action classifies what the sweep should do with a single device.
type Action string

const (
	// ActionMutate indicates the device is subject to the active
	// mutation (disable or delete).
	ActionMutate Action = "mutate"
	// ActionAuditOnly indicates the device is recorded but not touched,
	// because it is already disabled.
	ActionAuditOnly Action = "audit-only"
	// ActionExcluded indicates the run configuration excludes the
	// device from both mutation and audit.
	ActionExcluded Action = "excluded"
)

// Decision is the evaluator's verdict for one device.
type Decision struct {
	Action Action
	// Note is the human-readable disposition recorded in the export,
	// e.g. "would be disabled", "deleted", "already disabled".
	Note string
}

// Config holds the knobs for a single sweep run. A Config is immutable
// once the run starts; commands build it from flags and stored defaults
// and pass it down explicitly.
type Config struct {
	// DaysBack is the inactivity window in calendar days. Devices whose
	// approximate last sign-in is on or before now minus DaysBack match.
	DaysBack int

	// IncludeEnabled selects whether enabled stale devices are in scope.
	IncludeEnabled bool

	// IncludeDisabled selects whether already-disabled stale devices are
	// in scope (they are audited, never mutated again).
	IncludeDisabled bool

	// DryRun rehearses the sweep: every device is still validated
	// against the directory, but no state is changed.
	DryRun bool

	// ExportFolder is the destination directory for the results file.
	// Empty means the system temp directory.
	ExportFolder string
}

// Default returns the standard run configuration: a 90-day window, both
// enablement states in scope, dry-run on.
func Default() Config {
	return Config{
		DaysBack:        DefaultDaysBack,
		IncludeEnabled:  true,
		IncludeDisabled: true,
		DryRun:          true,
	}
}

// Vacuous reports whether the configuration excludes every device.
// A vacuous config must produce an empty result without querying the
// directory at all.
func (c Config) Vacuous() bool {
	return !c.IncludeEnabled && !c.IncludeDisabled
}

// Threshold computes the staleness cutoff: now in UTC, minus daysBack
// calendar days, truncated to midnight. Devices last seen on or before
// the threshold are considered stale. Using calendar days (not 24 h
// multiples) keeps the cutoff stable across DST transitions.
func Threshold(now time.Time, daysBack int) time.Time {
	t := now.UTC().AddDate(0, 0, -daysBack)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatInstant renders a threshold for use in filter expressions and
// user-facing summaries.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

// FilterPredicate composes the server-side filter for the run.
//
// The staleness clause is always present. The enablement clause is added
// only when exactly one of the inclusion flags is set; when both are set
// the directory should return devices in either state, so the clause is
// omitted. When neither is set the second return is false and the caller
// must not query at all.
func FilterPredicate(threshold time.Time, includeEnabled, includeDisabled bool) (string, bool) {
	if !includeEnabled && !includeDisabled {
		return "", false
	}

	filter := "approximateLastSignInDateTime le " + FormatInstant(threshold)
	if includeEnabled != includeDisabled {
		filter += " and accountEnabled eq " + strconv.FormatBool(includeEnabled)
	}
	return filter, true
}

// Evaluate classifies a single device under the given configuration and
// mode. The classification never trusts that the server-side filter was
// applied: a device whose enablement state is out of scope is excluded
// here even though the filter should not have returned it.
func Evaluate(d domain.Device, cfg Config, mode Mode) Decision {
	switch {
	case d.AccountEnabled && cfg.IncludeEnabled:
		return Decision{Action: ActionMutate, Note: mutationNote(mode, cfg.DryRun)}
	case !d.AccountEnabled && cfg.IncludeDisabled:
		return Decision{Action: ActionAuditOnly, Note: "already disabled"}
	default:
		return Decision{Action: ActionExcluded, Note: "excluded by configuration"}
	}
}

// mutationNote renders the disposition note for a device subject to
// mutation. Dry-run notes use the conditional form.
func mutationNote(mode Mode, dryRun bool) string {
	switch mode {
	case ModeDelete:
		if dryRun {
			return "would be deleted"
		}
		return "deleted"
	default:
		if dryRun {
			return "would be disabled"
		}
		return "disabled"
	}
}
