// Package msgraph implements the Microsoft Graph directory client used
// by the Entra provider.
//
// It uses a direct HTTP client rather than the official SDK to keep the
// dependency tree light and the code consistent with other providers.
// Authentication is delegated to an oauth2.TokenSource: either the
// client-credentials grant against the tenant's token endpoint, or a
// pre-acquired bearer token for scripted use.
package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nathanbeddoewebdev/devsweep/internal/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

const (
	graphBaseURL = "https://graph.microsoft.com/v1.0"
	graphTimeout = 30 * time.Second

	// graphScope is the client-credentials scope covering whatever
	// application permissions were granted to the app registration.
	graphScope = "https://graph.microsoft.com/.default"
)

// Compile-time check that Client satisfies domain.Provider.
var _ domain.Provider = (*Client)(nil)

// Client talks to the Microsoft Graph v1.0 REST API. The app
// registration needs Device.Read.All for listing and
// Device.ReadWrite.All for disable/delete.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a Client around the given token source. The returned
// client injects the bearer token on every request and refreshes it as
// needed.
func NewClient(ctx context.Context, src oauth2.TokenSource) *Client {
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = graphTimeout
	return &Client{
		baseURL: graphBaseURL,
		client:  httpClient,
	}
}

// NewClientCredentials builds a Client that authenticates with the
// OAuth2 client-credentials grant against the tenant's token endpoint.
func NewClientCredentials(ctx context.Context, tenantID, clientID, clientSecret string) *Client {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     microsoft.AzureADEndpoint(tenantID).TokenURL,
		Scopes:       []string{graphScope},
	}
	return NewClient(ctx, cfg.TokenSource(ctx))
}

// NewStaticTokenClient builds a Client that sends a pre-acquired bearer
// token on every request. The token is never refreshed.
func NewStaticTokenClient(token string) *Client {
	return NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// GetDisplayName returns the human-readable provider name.
func (c *Client) GetDisplayName() string {
	return "Microsoft Entra ID"
}

// --- API request/response types ---

// listEnvelope is the standard Graph collection response wrapper.
// NextLink carries the absolute URL of the next page, or "" on the
// final page.
type listEnvelope[T any] struct {
	Count    int    `json:"@odata.count,omitempty"`
	NextLink string `json:"@odata.nextLink,omitempty"`
	Value    []T    `json:"value"`
}

// graphErrorBody is the standard Graph error response wrapper.
type graphErrorBody struct {
	Error graphError `json:"error"`
}

// graphError represents a single Graph API error.
type graphError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// throttledError decorates a Graph error with the server-requested wait
// from the Retry-After header, surfaced to retry.Do as a delay hint.
type throttledError struct {
	err   error
	delay time.Duration
}

func (e *throttledError) Error() string            { return e.err.Error() }
func (e *throttledError) Unwrap() error            { return e.err }
func (e *throttledError) DelayHint() time.Duration { return e.delay }

// --- HTTP helpers ---

// statusError maps a Graph error response to a domain sentinel.
// HTTP status codes are authoritative; the OData error code string is a
// fallback for endpoints that report auth problems with other statuses.
func statusError(httpStatus int, e graphError) error {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	if e.Code != "" {
		msg = fmt.Sprintf("[%s] %s", e.Code, msg)
	}

	switch httpStatus {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict, msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", domain.ErrUnavailable, msg)
	}

	switch {
	case e.Code == "InvalidAuthenticationToken" || e.Code == "Authorization_RequestDenied":
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case e.Code == "Request_ResourceNotFound" || strings.Contains(strings.ToLower(e.Message), "does not exist"):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	}

	return fmt.Errorf("msgraph: HTTP %d: %s", httpStatus, msg)
}

// doJSON executes one request against rawURL (already absolute -- either
// baseURL plus a path, or a nextLink from a previous page) and decodes a
// successful response into out. Non-2xx responses are decoded as Graph
// error bodies and mapped onto domain sentinels. out may be nil for
// operations that return 204 No Content.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body any, header http.Header, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("msgraph: failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return fmt.Errorf("msgraph: failed to build request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("msgraph: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody graphErrorBody
		// A failed decode still yields a zero-value error body, which
		// statusError renders as "unknown error" for that status.
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		mapped := statusError(resp.StatusCode, errBody.Error)
		// Graph sends Retry-After as delta seconds on throttled and
		// overloaded responses.
		if seconds, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && seconds > 0 {
			return &throttledError{err: mapped, delay: time.Duration(seconds) * time.Second}
		}
		return mapped
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("msgraph: failed to decode response: %w", err)
	}
	return nil
}
