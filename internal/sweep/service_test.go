package sweep

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nathanbeddoewebdev/devsweep/internal/auditlog"
	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/policy"
)

// fixedNow keeps thresholds deterministic: 90 days back from this instant,
// truncated to midnight, is 2024-03-03T00:00:00Z.
var fixedNow = time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)

type mutationCall struct {
	id     string
	commit bool
}

// mockProvider implements domain.Provider with scripted results.
type mockProvider struct {
	devices      []domain.Device
	listErr      error
	listCalls    int
	lastQuery    domain.DeviceQuery
	disableCalls []mutationCall
	deleteCalls  []mutationCall
	failIDs      map[string]error
}

func (m *mockProvider) GetDisplayName() string { return "Mock Directory" }

func (m *mockProvider) ListDevices(ctx context.Context, query domain.DeviceQuery) ([]domain.Device, error) {
	m.listCalls++
	m.lastQuery = query
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.devices, nil
}

func (m *mockProvider) DisableDevice(ctx context.Context, id string, commit bool) error {
	m.disableCalls = append(m.disableCalls, mutationCall{id: id, commit: commit})
	if err, ok := m.failIDs[id]; ok {
		return err
	}
	return nil
}

func (m *mockProvider) DeleteDevice(ctx context.Context, id string, commit bool) error {
	m.deleteCalls = append(m.deleteCalls, mutationCall{id: id, commit: commit})
	if err, ok := m.failIDs[id]; ok {
		return err
	}
	return nil
}

// mockGuard implements Guard with a fixed protection set.
type mockGuard struct {
	protected map[string]bool
	err       error
	calls     int
}

func (g *mockGuard) IsProtected(provider, deviceID string) (bool, error) {
	g.calls++
	if g.err != nil {
		return false, g.err
	}
	return g.protected[deviceID], nil
}

// mockAudit implements AuditRecorder, capturing saved entries.
type mockAudit struct {
	entries []auditlog.AuditEntry
}

func (a *mockAudit) Save(entry *auditlog.AuditEntry) error {
	a.entries = append(a.entries, *entry)
	return nil
}

func testDevice(id, name string, enabled bool) domain.Device {
	return domain.Device{
		ID:               id,
		DeviceID:         "hw-" + id,
		DisplayName:      name,
		AccountEnabled:   enabled,
		OperatingSystem:  "Windows",
		ApproxLastSignIn: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
		Provider:         "entra",
	}
}

func newTestService(provider *mockProvider, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(provider, "entra", opts...)
}

func TestRun_BothFlagsOffSkipsQuery(t *testing.T) {
	provider := &mockProvider{devices: []domain.Device{testDevice("obj-1", "LAPTOP-01", true)}}
	svc := newTestService(provider)

	cfg := policy.Default()
	cfg.IncludeEnabled = false
	cfg.IncludeDisabled = false

	summary, err := svc.Run(context.Background(), cfg, policy.ModeDisable)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if provider.listCalls != 0 {
		t.Errorf("expected no directory query, got %d calls", provider.listCalls)
	}
	if len(summary.Records) != 0 || summary.Queried != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
	wantThreshold := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	if !summary.Threshold.Equal(wantThreshold) {
		t.Errorf("Threshold = %v, want %v", summary.Threshold, wantThreshold)
	}
}

func TestRun_PassesFilterToProvider(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider)

	cfg := policy.Default()
	cfg.IncludeDisabled = false

	if _, err := svc.Run(context.Background(), cfg, policy.ModeDisable); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := "approximateLastSignInDateTime le 2024-03-03T00:00:00Z and accountEnabled eq true"
	if provider.lastQuery.Filter != want {
		t.Errorf("filter = %q, want %q", provider.lastQuery.Filter, want)
	}
}

func TestRun_DryRunDisable(t *testing.T) {
	provider := &mockProvider{devices: []domain.Device{
		testDevice("obj-1", "LAPTOP-01", true),
		testDevice("obj-2", "LAPTOP-02", false),
	}}
	svc := newTestService(provider)

	summary, err := svc.Run(context.Background(), policy.Default(), policy.ModeDisable)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(summary.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(summary.Records))
	}
	if summary.Records[0].Note != "would be disabled" {
		t.Errorf("enabled device note = %q, want %q", summary.Records[0].Note, "would be disabled")
	}
	if summary.Records[1].Note != "already disabled" {
		t.Errorf("disabled device note = %q, want %q", summary.Records[1].Note, "already disabled")
	}

	// The dry run still makes one validation call per candidate, with
	// commit off.
	if len(provider.disableCalls) != 1 {
		t.Fatalf("expected 1 disable call, got %d", len(provider.disableCalls))
	}
	if provider.disableCalls[0].commit {
		t.Error("dry run must pass commit=false")
	}
	if summary.Mutated != 1 {
		t.Errorf("Mutated = %d, want 1", summary.Mutated)
	}
}

func TestRun_CommitDisable(t *testing.T) {
	provider := &mockProvider{devices: []domain.Device{
		testDevice("obj-1", "LAPTOP-01", true),
	}}
	svc := newTestService(provider)

	cfg := policy.Default()
	cfg.DryRun = false

	summary, err := svc.Run(context.Background(), cfg, policy.ModeDisable)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Records[0].Note != "disabled" {
		t.Errorf("note = %q, want %q", summary.Records[0].Note, "disabled")
	}
	if len(provider.disableCalls) != 1 || !provider.disableCalls[0].commit {
		t.Errorf("expected one committed disable call, got %+v", provider.disableCalls)
	}
}

func TestRun_DeleteMode(t *testing.T) {
	provider := &mockProvider{devices: []domain.Device{
		testDevice("obj-1", "LAPTOP-01", true),
		testDevice("obj-2", "LAPTOP-02", false),
	}}
	svc := newTestService(provider)

	cfg := policy.Default()
	cfg.DryRun = false

	summary, err := svc.Run(context.Background(), cfg, policy.ModeDelete)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Records[0].Note != "deleted" {
		t.Errorf("enabled device note = %q, want %q", summary.Records[0].Note, "deleted")
	}
	// Disabled devices are reported, never deleted.
	if summary.Records[1].Note != "already disabled" {
		t.Errorf("disabled device note = %q, want %q", summary.Records[1].Note, "already disabled")
	}
	if len(provider.deleteCalls) != 1 {
		t.Fatalf("expected 1 delete call, got %d", len(provider.deleteCalls))
	}
	if len(provider.disableCalls) != 0 {
		t.Errorf("delete mode must not call disable, got %+v", provider.disableCalls)
	}
}

func TestRun_FailureSkipsDeviceAndContinues(t *testing.T) {
	provider := &mockProvider{
		devices: []domain.Device{
			testDevice("obj-1", "LAPTOP-01", true),
			testDevice("obj-2", "LAPTOP-02", true),
			testDevice("obj-3", "LAPTOP-03", true),
		},
		failIDs: map[string]error{"obj-2": domain.ErrNotFound},
	}
	svc := newTestService(provider)

	cfg := policy.Default()
	cfg.DryRun = false

	summary, err := svc.Run(context.Background(), cfg, policy.ModeDisable)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(summary.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(summary.Failures))
	}
	if summary.Failures[0].ObjectID != "obj-2" {
		t.Errorf("failed device = %q, want obj-2", summary.Failures[0].ObjectID)
	}
	if !errors.Is(summary.Failures[0].Err, domain.ErrNotFound) {
		t.Errorf("failure error = %v, want ErrNotFound", summary.Failures[0].Err)
	}

	// The failed device is absent from records; the rest kept their order.
	if len(summary.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(summary.Records))
	}
	if summary.Records[0].ObjectID != "obj-1" || summary.Records[1].ObjectID != "obj-3" {
		t.Errorf("records out of order: %q, %q", summary.Records[0].ObjectID, summary.Records[1].ObjectID)
	}

	// Exactly one attempt per device; the failure was not retried.
	if len(provider.disableCalls) != 3 {
		t.Errorf("expected 3 disable calls, got %d", len(provider.disableCalls))
	}
}

func TestRun_ListErrorAborts(t *testing.T) {
	provider := &mockProvider{listErr: domain.ErrUnauthorized}
	svc := newTestService(provider)

	_, err := svc.Run(context.Background(), policy.Default(), policy.ModeDisable)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRun_GuardSkipsProtectedDevices(t *testing.T) {
	provider := &mockProvider{devices: []domain.Device{
		testDevice("obj-1", "LAPTOP-01", true),
		testDevice("obj-2", "CEO-LAPTOP", true),
	}}
	guard := &mockGuard{protected: map[string]bool{"obj-2": true}}
	svc := newTestService(provider, WithGuard(guard))

	cfg := policy.Default()
	cfg.DryRun = false

	summary, err := svc.Run(context.Background(), cfg, policy.ModeDisable)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if len(summary.Records) != 1 || summary.Records[0].ObjectID != "obj-1" {
		t.Errorf("unexpected records: %+v", summary.Records)
	}
	for _, call := range provider.disableCalls {
		if call.id == "obj-2" {
			t.Error("protected device must never be mutated")
		}
	}
}

func TestRun_GuardErrorAborts(t *testing.T) {
	provider := &mockProvider{devices: []domain.Device{
		testDevice("obj-1", "LAPTOP-01", true),
	}}
	guard := &mockGuard{err: errors.New("database locked")}
	svc := newTestService(provider, WithGuard(guard))

	cfg := policy.Default()
	cfg.DryRun = false

	_, err := svc.Run(context.Background(), cfg, policy.ModeDisable)
	if err == nil {
		t.Fatal("expected error when protection state is unknown")
	}
	if !strings.Contains(err.Error(), "protection list") {
		t.Errorf("unexpected error: %v", err)
	}
	if len(provider.disableCalls) != 0 {
		t.Error("no device may be mutated when the guard fails")
	}
}

func TestRun_CommittedRunWritesAuditEntries(t *testing.T) {
	provider := &mockProvider{
		devices: []domain.Device{
			testDevice("obj-1", "LAPTOP-01", true),
			testDevice("obj-2", "LAPTOP-02", true),
		},
		failIDs: map[string]error{"obj-2": domain.ErrRateLimited},
	}
	audit := &mockAudit{}
	svc := newTestService(provider, WithAudit(audit))

	cfg := policy.Default()
	cfg.DryRun = false

	if _, err := svc.Run(context.Background(), cfg, policy.ModeDisable); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(audit.entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(audit.entries))
	}

	success := audit.entries[0]
	if success.Command != "devsweep device disable" {
		t.Errorf("Command = %q", success.Command)
	}
	if success.Provider != "entra" || success.ResourceType != "device" {
		t.Errorf("unexpected entry metadata: %+v", success)
	}
	if success.ResourceID != "obj-1" || success.Outcome != auditlog.OutcomeSuccess {
		t.Errorf("unexpected success entry: %+v", success)
	}

	failed := audit.entries[1]
	if failed.ResourceID != "obj-2" || failed.Outcome != auditlog.OutcomeError {
		t.Errorf("unexpected failure entry: %+v", failed)
	}
}

func TestRun_DryRunWritesNoAuditEntries(t *testing.T) {
	provider := &mockProvider{devices: []domain.Device{
		testDevice("obj-1", "LAPTOP-01", true),
	}}
	audit := &mockAudit{}
	svc := newTestService(provider, WithAudit(audit))

	if _, err := svc.Run(context.Background(), policy.Default(), policy.ModeDisable); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(audit.entries) != 0 {
		t.Errorf("dry run must not write audit entries, got %d", len(audit.entries))
	}
}

func TestRun_RendersRecordFields(t *testing.T) {
	never := testDevice("obj-9", "GHOST-01", true)
	never.ApproxLastSignIn = time.Time{}

	provider := &mockProvider{devices: []domain.Device{
		testDevice("obj-1", "LAPTOP-01", true),
		never,
	}}
	svc := newTestService(provider)

	summary, err := svc.Run(context.Background(), policy.Default(), policy.ModeDisable)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	first := summary.Records[0]
	if first.LastSignIn != "2024-01-10T08:00:00Z" {
		t.Errorf("LastSignIn = %q", first.LastSignIn)
	}
	if first.AccountEnabled != "true" {
		t.Errorf("AccountEnabled = %q", first.AccountEnabled)
	}
	if first.DeviceID != "hw-obj-1" {
		t.Errorf("DeviceID = %q", first.DeviceID)
	}

	if summary.Records[1].LastSignIn != "never" {
		t.Errorf("zero sign-in should render as %q, got %q", "never", summary.Records[1].LastSignIn)
	}
}

func TestCollect(t *testing.T) {
	provider := &mockProvider{devices: []domain.Device{
		testDevice("obj-1", "LAPTOP-01", true),
	}}
	svc := newTestService(provider)

	devices, threshold, err := svc.Collect(context.Background(), policy.Default())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if !threshold.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("threshold = %v", threshold)
	}
}

func TestCollect_BothFlagsOffSkipsQuery(t *testing.T) {
	provider := &mockProvider{devices: []domain.Device{
		testDevice("obj-1", "LAPTOP-01", true),
	}}
	svc := newTestService(provider)

	cfg := policy.Default()
	cfg.IncludeEnabled = false
	cfg.IncludeDisabled = false

	devices, _, err := svc.Collect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if devices != nil {
		t.Errorf("expected no devices, got %d", len(devices))
	}
	if provider.listCalls != 0 {
		t.Errorf("expected no directory query, got %d", provider.listCalls)
	}
}

func TestProcess_SubsetSkipsDirectoryQuery(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider)

	cfg := policy.Default()
	cfg.DryRun = false

	threshold := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	kept := []domain.Device{testDevice("obj-2", "LAPTOP-02", true)}

	summary, err := svc.Process(context.Background(), kept, threshold, cfg, policy.ModeDisable)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if provider.listCalls != 0 {
		t.Errorf("expected no directory query, got %d calls", provider.listCalls)
	}
	if summary.Queried != 1 || summary.Mutated != 1 {
		t.Errorf("Queried = %d, Mutated = %d, want 1 and 1", summary.Queried, summary.Mutated)
	}
	if len(provider.disableCalls) != 1 || provider.disableCalls[0].id != "obj-2" {
		t.Errorf("disable calls = %+v, want one call for obj-2", provider.disableCalls)
	}
	if !summary.Threshold.Equal(threshold) {
		t.Errorf("Threshold = %v, want %v", summary.Threshold, threshold)
	}
}
