package util

import (
	"testing"
)

func TestValidateObjectID_Valid(t *testing.T) {
	valid := []string{
		"00000000-0000-0000-0000-000000000000",
		"a1b2c3d4-e5f6-7890-abcd-ef0123456789",
		"A1B2C3D4-E5F6-7890-ABCD-EF0123456789",
		"  f47ac10b-58cc-4372-a567-0e02b2c3d479  ",
	}
	for _, id := range valid {
		t.Run(id, func(t *testing.T) {
			if err := ValidateObjectID(id); err != nil {
				t.Errorf("expected %q to be valid, got error: %v", id, err)
			}
		})
	}
}

func TestValidateObjectID_Invalid(t *testing.T) {
	tests := []struct {
		id      string
		wantMsg string
	}{
		{"", "object ID is required"},
		{"   ", "object ID is required"},
		{"not-a-guid", "not a valid GUID"},
		{"f47ac10b58cc4372a5670e02b2c3d479", "not a valid GUID"},
		{"f47ac10b-58cc-4372-a567", "not a valid GUID"},
		{"f47ac10b-58cc-4372-a567-0e02b2c3d479-extra", "not a valid GUID"},
		{"g47ac10b-58cc-4372-a567-0e02b2c3d479", "not a valid GUID"},
		{"{f47ac10b-58cc-4372-a567-0e02b2c3d479}", "not a valid GUID"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateObjectID(tt.id)
			if err == nil {
				t.Errorf("expected %q to be invalid, got nil", tt.id)
				return
			}
			if got := err.Error(); !contains(got, tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, got)
			}
		})
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && searchString(s, substr)
}

func searchString(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
