package util

import (
	"fmt"
	"regexp"
	"strings"
)

// objectIDPattern matches the canonical GUID form directory services use
// for object identifiers: 8-4-4-4-12 hex digits.
var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}(-[0-9a-fA-F]{4}){3}-[0-9a-fA-F]{12}$`)

// ValidateObjectID checks that an identifier is a well-formed directory
// object ID (GUID). Commands validate IDs locally before issuing
// per-device calls so that typos fail fast instead of surfacing as
// directory 404s.
func ValidateObjectID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("object ID is required")
	}
	if !objectIDPattern.MatchString(trimmed) {
		return fmt.Errorf("object ID %q is not a valid GUID (expected form 00000000-0000-0000-0000-000000000000)", id)
	}
	return nil
}
