package device

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nathanbeddoewebdev/devsweep/internal/domain"
)

func TestDeleteCommand_DryRunByDefault(t *testing.T) {
	setupTestEnv(t)
	mock := &mockProvider{
		displayName: "Mock",
		devices: []domain.Device{
			testDevice("obj-1", "LAPTOP-ALPHA", true, time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)),
		},
	}
	registerMockProvider(t, "mock", mock)

	exportDir := t.TempDir()
	execDevice(t, "delete", "--provider", "mock", "--export-folder", exportDir)

	if len(mock.deleteCalls) != 1 {
		t.Fatalf("expected 1 delete call, got %d", len(mock.deleteCalls))
	}
	if mock.deleteCalls[0].commit {
		t.Errorf("default run must be a dry run, got %+v", mock.deleteCalls[0])
	}
	if len(mock.disableCalls) != 0 {
		t.Errorf("delete must never disable, got %v", mock.disableCalls)
	}

	rows := readExportedCSV(t, exportDir)
	if note := rows[1][6]; note != "would be deleted" {
		t.Errorf("expected dry-run note, got %q", note)
	}
}

func TestDeleteCommand_CommitWithYes(t *testing.T) {
	setupTestEnv(t)
	mock := &mockProvider{
		displayName: "Mock",
		devices: []domain.Device{
			testDevice("obj-1", "LAPTOP-ALPHA", true, time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)),
			testDevice("obj-2", "DESKTOP-BRAVO", false, time.Date(2023, 11, 2, 17, 0, 0, 0, time.UTC)),
		},
	}
	registerMockProvider(t, "mock", mock)

	exportDir := t.TempDir()
	stdout, _ := execDevice(t, "delete", "--provider", "mock", "--export-folder", exportDir,
		"--dry-run=false", "--yes")

	// Only the enabled device is deleted; the disabled one is audit-only.
	if len(mock.deleteCalls) != 1 || mock.deleteCalls[0].id != "obj-1" || !mock.deleteCalls[0].commit {
		t.Fatalf("expected 1 committed delete for obj-1, got %+v", mock.deleteCalls)
	}
	if !strings.Contains(stdout, "2 devices identified in ") {
		t.Errorf("expected identification summary, got:\n%s", stdout)
	}

	rows := readExportedCSV(t, exportDir)
	if note := rows[1][6]; note != "deleted" {
		t.Errorf("expected committed note, got %q", note)
	}
	if note := rows[2][6]; note != "already disabled" {
		t.Errorf("expected audit-only note, got %q", note)
	}
}

func TestDeleteCommand_ExportFilenamePrefix(t *testing.T) {
	setupTestEnv(t)
	mock := &mockProvider{
		displayName: "Mock",
		devices: []domain.Device{
			testDevice("obj-1", "LAPTOP-ALPHA", true, time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)),
		},
	}
	registerMockProvider(t, "mock", mock)

	exportDir := t.TempDir()
	execDevice(t, "delete", "--provider", "mock", "--export-folder", exportDir)

	matches, _ := filepath.Glob(filepath.Join(exportDir, "device-delete-*.csv"))
	if len(matches) != 1 {
		t.Errorf("expected a device-delete-*.csv export, found %v", matches)
	}
}

func TestDeleteCommand_RefusesNonInteractiveCommit(t *testing.T) {
	setupTestEnv(t)
	mock := &mockProvider{displayName: "Mock"}
	registerMockProvider(t, "mock", mock)

	_, stderr := execDevice(t, "delete", "--provider", "mock", "--dry-run=false")

	if !strings.Contains(stderr, "refusing to delete devices non-interactively without --yes") {
		t.Errorf("expected the refusal message, got:\n%s", stderr)
	}
	if mock.listCalls != 0 {
		t.Errorf("a refused run must not query the directory, got %d calls", mock.listCalls)
	}
}
