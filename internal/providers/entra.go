package providers

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/msgraph"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
)

const (
	entraTenantStore = "entra-tenant-id"
	entraClientStore = "entra-client-id"
	entraSecretStore = "entra-client-secret"
	entraTokenStore  = "entra-token"
)

// RegisterEntra registers the Microsoft Entra ID provider factory with the
// global registry. It reads three keychain entries written by auth login:
// entra-tenant-id, entra-client-id and entra-client-secret. A pre-issued
// access token stored under entra-token takes precedence when present.
func RegisterEntra() {
	Register("entra", func(store auth.Store) (domain.Provider, error) {
		if token, err := store.GetToken(entraTokenStore); err == nil {
			return msgraph.NewStaticTokenClient(token), nil
		}

		tenantID, err := store.GetToken(entraTenantStore)
		if err != nil {
			return nil, fmt.Errorf("entra auth: tenant ID not found (run 'devsweep auth login entra'): %w", err)
		}
		clientID, err := store.GetToken(entraClientStore)
		if err != nil {
			return nil, fmt.Errorf("entra auth: client ID not found (run 'devsweep auth login entra'): %w", err)
		}
		clientSecret, err := store.GetToken(entraSecretStore)
		if err != nil {
			return nil, fmt.Errorf("entra auth: client secret not found (run 'devsweep auth login entra'): %w", err)
		}

		return msgraph.NewClientCredentials(context.Background(), tenantID, clientID, clientSecret), nil
	})
}
