package domain

import "context"

// DeviceQuery describes a server-side device listing request.
// Filter uses the provider's native filter syntax (OData for Microsoft
// Graph). An empty Filter returns every device. Select limits the
// fields the provider asks the directory to return; providers fall
// back to a sensible default projection when it is empty.
type DeviceQuery struct {
	Filter string
	Select []string
}

// Provider is the boundary to a directory service that manages device
// objects. Implementations paginate internally: ListDevices returns the
// complete result set for the query.
//
// DisableDevice and DeleteDevice take a commit flag. When commit is
// false the provider must not change directory state but must still
// perform a real per-device round-trip so that authorization and
// existence errors surface during a rehearsal run.
type Provider interface {
	GetDisplayName() string
	ListDevices(ctx context.Context, query DeviceQuery) ([]Device, error)
	DisableDevice(ctx context.Context, id string, commit bool) error
	DeleteDevice(ctx context.Context, id string, commit bool) error
}
