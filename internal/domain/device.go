package domain

import "time"

// Trust type values reported by directory services for registered devices.
const (
	TrustTypeAzureAD   = "AzureAd"   // cloud-only joined
	TrustTypeServerAD  = "ServerAd"  // hybrid joined
	TrustTypeWorkplace = "Workplace" // workplace (BYOD) registered
)

// Device represents a device object registered in a directory service.
type Device struct {
	// Core fields (common across all providers)
	ID                     string    `json:"id"`
	DeviceID               string    `json:"device_id"`
	DisplayName            string    `json:"display_name"`
	AccountEnabled         bool      `json:"account_enabled"`
	OperatingSystem        string    `json:"operating_system,omitempty"`
	OperatingSystemVersion string    `json:"operating_system_version,omitempty"`
	TrustType              string    `json:"trust_type,omitempty"`
	ProfileType            string    `json:"profile_type,omitempty"`
	RegisteredAt           time.Time `json:"registered_at,omitempty"`
	Provider               string    `json:"provider"`

	// ApproxLastSignIn is the directory's approximate last sign-in
	// activity timestamp. The zero value means the directory has never
	// reported sign-in activity for this device.
	ApproxLastSignIn time.Time `json:"approx_last_sign_in,omitempty"`

	// Metadata holds provider-specific fields
	// Examples: compliance state, management state, mdm_app_id, etc.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// HasSignInActivity reports whether the directory has ever recorded
// sign-in activity for the device.
func (d Device) HasSignInActivity() bool {
	return !d.ApproxLastSignIn.IsZero()
}

// SignInAge returns how long ago the device last signed in, relative to now.
// Devices with no recorded activity return a zero duration and false.
func (d Device) SignInAge(now time.Time) (time.Duration, bool) {
	if !d.HasSignInActivity() {
		return 0, false
	}
	return now.Sub(d.ApproxLastSignIn), true
}
