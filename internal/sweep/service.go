// Package sweep provides the device sweep service layer.
//
// The Service type wraps a domain.Provider and orchestrates a full sweep:
// querying stale devices, evaluating each against the sweep policy, and
// applying disable or delete mutations. CLI commands construct a Service
// from a resolved provider and call service methods rather than calling
// the provider directly.
//
// Devices are processed strictly in the order the provider returns them.
// A failure on one device records a Failure and moves on; it never aborts
// the run and is never retried. Results accumulate in the returned
// Summary; nothing is emitted incrementally, so an interrupted run
// reports and exports nothing.
package sweep

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"nathanbeddoewebdev/devsweep/internal/auditlog"
	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/policy"
)

// Guard answers whether a device is on the protection list. Guard errors
// abort the run: when protection state is unknown, no device is mutated.
type Guard interface {
	IsProtected(provider, deviceID string) (bool, error)
}

// AuditRecorder persists per-device audit entries for committed runs.
// Audit failures are swallowed; they never interrupt a sweep.
type AuditRecorder interface {
	Save(entry *auditlog.AuditEntry) error
}

// Service is the sweep business logic layer. It sits between CLI commands
// and the provider.
type Service struct {
	provider     domain.Provider
	providerName string
	guard        Guard
	audit        AuditRecorder
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithGuard wires the device protection list into the sweep.
func WithGuard(guard Guard) Option {
	return func(s *Service) {
		s.guard = guard
	}
}

// WithAudit wires the audit log into the sweep.
func WithAudit(audit AuditRecorder) Option {
	return func(s *Service) {
		s.audit = audit
	}
}

// WithClock overrides the time source. Intended for testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New returns a Service backed by the given provider. The providerName is
// the registry name (e.g. "entra"), used to key protection entries and
// audit records.
func New(provider domain.Provider, providerName string, opts ...Option) *Service {
	svc := &Service{
		provider:     provider,
		providerName: providerName,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ResultRecord is one row of a sweep result, with every value already
// rendered for table and CSV output.
type ResultRecord struct {
	DisplayName     string
	DeviceID        string
	ObjectID        string
	OperatingSystem string
	LastSignIn      string
	AccountEnabled  string
	Note            string
}

// Failure records a device whose mutation call failed. The device is not
// included in Records.
type Failure struct {
	DisplayName string
	ObjectID    string
	Err         error
}

// Summary is the outcome of one sweep run.
type Summary struct {
	// Threshold is the sign-in cutoff the run used.
	Threshold time.Time

	// Queried is the number of devices the provider returned.
	Queried int

	// Records holds one row per processed device, in provider order.
	// Devices whose mutation failed are in Failures instead.
	Records []ResultRecord

	// Failures holds devices whose disable or delete call failed.
	Failures []Failure

	// Skipped counts devices excluded by the protection list.
	Skipped int

	// Mutated counts devices whose mutation call succeeded. In a dry run
	// this counts successful validation round-trips.
	Mutated int
}

// Collect queries the provider for devices matching the sweep window
// without evaluating or mutating anything. It backs the report command.
// When both enablement flags are off, no query is made and an empty
// result is returned.
func (s *Service) Collect(ctx context.Context, cfg policy.Config) ([]domain.Device, time.Time, error) {
	threshold := policy.Threshold(s.now(), cfg.DaysBack)

	filter, ok := policy.FilterPredicate(threshold, cfg.IncludeEnabled, cfg.IncludeDisabled)
	if !ok {
		return nil, threshold, nil
	}

	devices, err := s.provider.ListDevices(ctx, domain.DeviceQuery{Filter: filter})
	if err != nil {
		return nil, threshold, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, threshold, nil
}

// Run executes a sweep in the given mode. Every returned ResultRecord
// carries the note explaining what happened (or would happen) to that
// device; the Summary totals are derived from the same pass.
func (s *Service) Run(ctx context.Context, cfg policy.Config, mode policy.Mode) (*Summary, error) {
	devices, threshold, err := s.Collect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, devices, threshold, cfg, mode)
}

// Process applies the sweep to an already collected device set. Review
// flows collect first, let the operator narrow the candidates, and then
// process only the devices that were kept.
func (s *Service) Process(ctx context.Context, devices []domain.Device, threshold time.Time, cfg policy.Config, mode policy.Mode) (*Summary, error) {
	summary := &Summary{
		Threshold: threshold,
		Queried:   len(devices),
	}

	commit := !cfg.DryRun
	for _, d := range devices {
		if s.guard != nil {
			protected, err := s.guard.IsProtected(s.providerName, d.ID)
			if err != nil {
				// Unknown protection state: stop before touching anything else.
				return nil, fmt.Errorf("failed to check protection list: %w", err)
			}
			if protected {
				summary.Skipped++
				continue
			}
		}

		decision := policy.Evaluate(d, cfg, mode)
		if decision.Action == policy.ActionMutate {
			if err := s.mutate(ctx, d.ID, mode, commit); err != nil {
				summary.Failures = append(summary.Failures, Failure{
					DisplayName: d.DisplayName,
					ObjectID:    d.ID,
					Err:         err,
				})
				s.auditDevice(d, mode, commit, auditlog.OutcomeError, err.Error())
				continue
			}
			summary.Mutated++
			s.auditDevice(d, mode, commit, auditlog.OutcomeSuccess, decision.Note)
		}

		summary.Records = append(summary.Records, makeRecord(d, decision.Note))
	}

	return summary, nil
}

// mutate dispatches a single device mutation for the given mode.
func (s *Service) mutate(ctx context.Context, id string, mode policy.Mode, commit bool) error {
	switch mode {
	case policy.ModeDelete:
		return s.provider.DeleteDevice(ctx, id, commit)
	default:
		return s.provider.DisableDevice(ctx, id, commit)
	}
}

// auditDevice writes a per-device audit entry. Dry runs are not audited.
func (s *Service) auditDevice(d domain.Device, mode policy.Mode, commit bool, outcome, detail string) {
	if !commit || s.audit == nil {
		return
	}
	_ = s.audit.Save(&auditlog.AuditEntry{
		Command:      "devsweep device " + string(mode),
		Provider:     s.providerName,
		ResourceType: "device",
		ResourceID:   d.ID,
		ResourceName: d.DisplayName,
		Outcome:      outcome,
		Detail:       detail,
	})
}

// makeRecord renders a device and its sweep note into a ResultRecord.
func makeRecord(d domain.Device, note string) ResultRecord {
	lastSignIn := "never"
	if d.HasSignInActivity() {
		lastSignIn = policy.FormatInstant(d.ApproxLastSignIn)
	}
	return ResultRecord{
		DisplayName:     d.DisplayName,
		DeviceID:        d.DeviceID,
		ObjectID:        d.ID,
		OperatingSystem: d.OperatingSystem,
		LastSignIn:      lastSignIn,
		AccountEnabled:  strconv.FormatBool(d.AccountEnabled),
		Note:            note,
	}
}
