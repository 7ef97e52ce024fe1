package msgraph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/retry"
)

// maxPageSize is the largest page Graph allows for device collections.
const maxPageSize = 999

// providerName tags devices returned by this client.
const providerName = "entra"

// listRetryConfig governs retries of collection page fetches. Package
// variable so tests can zero the backoff.
var listRetryConfig = retry.DefaultConfig()

// defaultDeviceSelect is the field projection requested when the query
// does not specify one.
var defaultDeviceSelect = []string{
	"id",
	"deviceId",
	"displayName",
	"accountEnabled",
	"operatingSystem",
	"operatingSystemVersion",
	"trustType",
	"profileType",
	"approximateLastSignInDateTime",
	"registrationDateTime",
	"isManaged",
	"isCompliant",
}

// graphDevice is the Graph wire representation of a device object.
// Nullable Graph properties map to pointers so that absent values are
// distinguishable from zero values.
type graphDevice struct {
	ID                            string     `json:"id"`
	DeviceID                      string     `json:"deviceId"`
	DisplayName                   string     `json:"displayName"`
	AccountEnabled                *bool      `json:"accountEnabled"`
	OperatingSystem               string     `json:"operatingSystem"`
	OperatingSystemVersion        string     `json:"operatingSystemVersion"`
	TrustType                     string     `json:"trustType"`
	ProfileType                   string     `json:"profileType"`
	ApproximateLastSignInDateTime *time.Time `json:"approximateLastSignInDateTime"`
	RegistrationDateTime          *time.Time `json:"registrationDateTime"`
	IsManaged                     *bool      `json:"isManaged"`
	IsCompliant                   *bool      `json:"isCompliant"`
}

// graphDisableBody is the PATCH body that disables a device.
type graphDisableBody struct {
	AccountEnabled bool `json:"accountEnabled"`
}

// ListDevices retrieves all devices matching the query, following
// pagination links until the collection is exhausted. Results come back
// in the directory's listing order.
func (c *Client) ListDevices(ctx context.Context, query domain.DeviceQuery) ([]domain.Device, error) {
	sel := query.Select
	if len(sel) == 0 {
		sel = defaultDeviceSelect
	}

	params := url.Values{}
	params.Set("$select", strings.Join(sel, ","))
	params.Set("$top", strconv.Itoa(maxPageSize))

	var header http.Header
	if query.Filter != "" {
		// Filtering on approximateLastSignInDateTime is an advanced
		// query: Graph requires the eventual-consistency header and a
		// $count alongside the filter, otherwise it rejects the request.
		params.Set("$filter", query.Filter)
		params.Set("$count", "true")
		header = http.Header{"ConsistencyLevel": []string{"eventual"}}
	}

	nextURL := c.baseURL + "/devices?" + params.Encode()

	var all []domain.Device
	for nextURL != "" {
		var page listEnvelope[graphDevice]
		err := retry.Do(ctx, listRetryConfig, isGraphRetryable, func() error {
			page = listEnvelope[graphDevice]{}
			return c.doJSON(ctx, http.MethodGet, nextURL, nil, header, &page)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}

		for _, gd := range page.Value {
			all = append(all, toDomainDevice(gd))
		}

		nextURL = page.NextLink
	}

	return all, nil
}

// isGraphRetryable reports whether a Graph error is worth retrying.
// Throttling (429) and transient server failures (502/503/504) are; the
// rest surface immediately. Only collection reads retry: per-device
// calls report their failure and the sweep moves on.
func isGraphRetryable(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrUnavailable) {
		return true
	}
	return retry.IsRetryable(err)
}

// DisableDevice sets accountEnabled to false for the device. When
// commit is false it performs the validation probe instead, so the
// caller still learns about authorization and existence problems.
func (c *Client) DisableDevice(ctx context.Context, id string, commit bool) error {
	if !commit {
		return c.probeDevice(ctx, id)
	}

	path := c.baseURL + "/devices/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPatch, path, graphDisableBody{AccountEnabled: false}, nil, nil); err != nil {
		return fmt.Errorf("failed to disable device %q: %w", id, err)
	}
	return nil
}

// DeleteDevice removes the device object from the directory. When
// commit is false it performs the validation probe instead.
func (c *Client) DeleteDevice(ctx context.Context, id string, commit bool) error {
	if !commit {
		return c.probeDevice(ctx, id)
	}

	path := c.baseURL + "/devices/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete device %q: %w", id, err)
	}
	return nil
}

// probeDevice performs a read-only round-trip for a single device.
// Graph has no server-side what-if for device mutations, so rehearsal
// runs read the object instead: an expired token, a missing directory
// role, or a deleted device fails here exactly as the mutation would,
// but directory state cannot change.
func (c *Client) probeDevice(ctx context.Context, id string) error {
	path := c.baseURL + "/devices/" + url.PathEscape(id) + "?$select=id,accountEnabled"
	var out graphDevice
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return fmt.Errorf("failed to validate device %q: %w", id, err)
	}
	return nil
}

// toDomainDevice converts a Graph device to a domain.Device.
func toDomainDevice(g graphDevice) domain.Device {
	d := domain.Device{
		ID:                     g.ID,
		DeviceID:               g.DeviceID,
		DisplayName:            g.DisplayName,
		OperatingSystem:        g.OperatingSystem,
		OperatingSystemVersion: g.OperatingSystemVersion,
		TrustType:              g.TrustType,
		ProfileType:            g.ProfileType,
		Provider:               providerName,
	}

	if g.AccountEnabled != nil {
		d.AccountEnabled = *g.AccountEnabled
	}
	if g.ApproximateLastSignInDateTime != nil {
		d.ApproxLastSignIn = g.ApproximateLastSignInDateTime.UTC()
	}
	if g.RegistrationDateTime != nil {
		d.RegisteredAt = g.RegistrationDateTime.UTC()
	}

	if g.IsManaged != nil || g.IsCompliant != nil {
		d.Metadata = map[string]interface{}{}
		if g.IsManaged != nil {
			d.Metadata["is_managed"] = *g.IsManaged
		}
		if g.IsCompliant != nil {
			d.Metadata["is_compliant"] = *g.IsCompliant
		}
	}

	return d
}
