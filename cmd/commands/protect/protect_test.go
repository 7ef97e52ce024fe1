package protect

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/devsweep/internal/config"
	"nathanbeddoewebdev/devsweep/internal/database"
	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/protect"
	"nathanbeddoewebdev/devsweep/internal/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
)

const (
	testObjectID      = "8b5a1f46-93e4-4f1f-9d2c-36a1c0f7d210"
	otherTestObjectID = "0f3e2d71-4c8a-42b5-8a6e-5d1b9c0e4f22"
)

// setupTestEnv points the config file and local database at temp paths.
func setupTestEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	config.SetPath(filepath.Join(dir, "config.json"))
	database.SetPath(filepath.Join(dir, "devsweep.db"))
	t.Cleanup(config.ResetPath)
	t.Cleanup(database.ResetPath)
}

// registerTestProvider registers a provider name so add's registry check passes.
func registerTestProvider(t *testing.T, name string) {
	t.Helper()
	providers.Reset()
	t.Cleanup(providers.Reset)
	providers.Register(name, func(store auth.Store) (domain.Provider, error) {
		return nil, nil
	})
}

// execProtect runs the protect command with the given args and returns the
// output buffers.
func execProtect(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestAdd_ProtectsDevice(t *testing.T) {
	setupTestEnv(t)
	registerTestProvider(t, "entra")

	stdout, stderr := execProtect(t, "add", testObjectID, "--provider", "entra", "--note", "domain controller")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "Protected device "+testObjectID) {
		t.Errorf("expected confirmation, got: %s", stdout)
	}

	repo, err := protect.Open()
	if err != nil {
		t.Fatalf("failed to open protection list: %v", err)
	}
	defer repo.Close()

	protected, err := repo.IsProtected("entra", testObjectID)
	if err != nil {
		t.Fatalf("IsProtected failed: %v", err)
	}
	if !protected {
		t.Error("expected device to be on the protection list")
	}
}

func TestAdd_RejectsMalformedObjectID(t *testing.T) {
	setupTestEnv(t)
	registerTestProvider(t, "entra")

	_, stderr := execProtect(t, "add", "not-a-guid", "--provider", "entra")

	if !strings.Contains(stderr, "not a valid GUID") {
		t.Errorf("expected GUID validation error, got: %s", stderr)
	}
}

func TestAdd_RejectsUnknownProvider(t *testing.T) {
	setupTestEnv(t)
	registerTestProvider(t, "entra")

	_, stderr := execProtect(t, "add", testObjectID, "--provider", "typo")

	if !strings.Contains(stderr, `unknown provider "typo"`) {
		t.Errorf("expected unknown provider error, got: %s", stderr)
	}
}

func TestAdd_UsesDefaultProviderFromConfig(t *testing.T) {
	setupTestEnv(t)
	registerTestProvider(t, "entra")

	cfg := &config.Config{DefaultProvider: "entra"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	stdout, stderr := execProtect(t, "add", testObjectID)

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "(provider entra)") {
		t.Errorf("expected entry under the default provider, got: %s", stdout)
	}
}

func TestRemove_RoundTrip(t *testing.T) {
	setupTestEnv(t)
	registerTestProvider(t, "entra")

	execProtect(t, "add", testObjectID, "--provider", "entra")
	stdout, stderr := execProtect(t, "remove", testObjectID, "--provider", "entra")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "Removed device "+testObjectID) {
		t.Errorf("expected removal confirmation, got: %s", stdout)
	}

	repo, err := protect.Open()
	if err != nil {
		t.Fatalf("failed to open protection list: %v", err)
	}
	defer repo.Close()

	protected, err := repo.IsProtected("entra", testObjectID)
	if err != nil {
		t.Fatalf("IsProtected failed: %v", err)
	}
	if protected {
		t.Error("expected device to be off the protection list after remove")
	}
}

func TestRemove_ReportsMissingEntry(t *testing.T) {
	setupTestEnv(t)
	registerTestProvider(t, "entra")

	stdout, _ := execProtect(t, "remove", testObjectID, "--provider", "entra")

	if !strings.Contains(stdout, "was not on the protection list") {
		t.Errorf("expected missing-entry notice, got: %s", stdout)
	}
}

func TestList_ScopedByProvider(t *testing.T) {
	setupTestEnv(t)
	providers.Reset()
	t.Cleanup(providers.Reset)
	for _, name := range []string{"entra", "okta"} {
		providers.Register(name, func(store auth.Store) (domain.Provider, error) {
			return nil, nil
		})
	}

	execProtect(t, "add", testObjectID, "--provider", "entra")
	execProtect(t, "add", otherTestObjectID, "--provider", "okta")

	stdout, _ := execProtect(t, "list", "--provider", "entra")
	if !strings.Contains(stdout, testObjectID) {
		t.Errorf("expected entra entry in scoped list, got: %s", stdout)
	}
	if strings.Contains(stdout, otherTestObjectID) {
		t.Errorf("scoped list leaked another provider's entry: %s", stdout)
	}

	stdout, _ = execProtect(t, "list", "--provider", "entra", "--all")
	for _, id := range []string{testObjectID, otherTestObjectID} {
		if !strings.Contains(stdout, id) {
			t.Errorf("expected %s in --all list, got: %s", id, stdout)
		}
	}
}

func TestList_Empty(t *testing.T) {
	setupTestEnv(t)
	registerTestProvider(t, "entra")

	stdout, stderr := execProtect(t, "list", "--provider", "entra")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "No protected devices.") {
		t.Errorf("expected empty notice, got: %s", stdout)
	}
}

func TestList_JSONOutput(t *testing.T) {
	setupTestEnv(t)
	registerTestProvider(t, "entra")

	execProtect(t, "add", testObjectID, "--provider", "entra", "--note", "build server")

	stdout, stderr := execProtect(t, "list", "--provider", "entra", "-o", "json")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}

	var records []protect.ProtectedDevice
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		t.Fatalf("failed to parse JSON output: %v\noutput: %s", err, stdout)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].DeviceID != testObjectID {
		t.Errorf("expected DeviceID %s, got %s", testObjectID, records[0].DeviceID)
	}
	if records[0].Note != "build server" {
		t.Errorf("expected note %q, got %q", "build server", records[0].Note)
	}
}
