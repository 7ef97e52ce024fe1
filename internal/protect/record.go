package protect

import "time"

// ProtectedDevice marks a directory device that sweeps must never mutate.
type ProtectedDevice struct {
	ID        int64     `json:"id"`
	Provider  string    `json:"provider"`
	DeviceID  string    `json:"device_id"` // directory object ID
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
