package auth

import (
	"errors"

	"nathanbeddoewebdev/devsweep/internal/util"
)

const ServiceName = "devsweep"

var ErrTokenNotFound = errors.New("auth credential not found")

// Store persists credential material in the OS keychain. Keys are either a
// bare provider name or "<provider>-<credential>" for providers that need
// more than one value (e.g. entra-tenant-id, entra-client-secret).
type Store interface {
	SetToken(key string, token string) error
	GetToken(key string) (string, error)
	DeleteToken(key string) error
}

// DefaultStore returns the standard auth store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// NormalizeStoreKey normalizes a keychain entry name for consistent lookup.
func NormalizeStoreKey(key string) string {
	return util.NormalizeKey(key)
}
