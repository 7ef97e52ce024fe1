package providers

import (
	"errors"
	"strings"
	"testing"

	"nathanbeddoewebdev/devsweep/internal/services/auth"
)

func TestRegisterEntra_ClientCredentials(t *testing.T) {
	Reset()
	t.Cleanup(func() { Reset() })

	RegisterEntra()

	store := auth.NewMockStore()
	store.SetToken("entra-tenant-id", "00000000-0000-0000-0000-000000000001")
	store.SetToken("entra-client-id", "00000000-0000-0000-0000-000000000002")
	store.SetToken("entra-client-secret", "s3cret")

	provider, err := Get("entra", store)
	if err != nil {
		t.Fatalf("expected no error from Get, got %v", err)
	}
	if got := provider.GetDisplayName(); got != "Microsoft Entra ID" {
		t.Errorf("display name = %q, want %q", got, "Microsoft Entra ID")
	}
}

func TestRegisterEntra_StaticTokenTakesPrecedence(t *testing.T) {
	Reset()
	t.Cleanup(func() { Reset() })

	RegisterEntra()

	// Only the pre-issued token is stored; the client-credential
	// entries are absent and must not be required.
	store := auth.NewMockStore()
	store.SetToken("entra-token", "eyJ0eXAi.fixed.token")

	provider, err := Get("entra", store)
	if err != nil {
		t.Fatalf("expected no error from Get, got %v", err)
	}
	if provider == nil {
		t.Fatal("expected a provider, got nil")
	}
}

func TestRegisterEntra_MissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		stored  map[string]string
		wantMsg string
	}{
		{
			name:    "nothing stored",
			stored:  map[string]string{},
			wantMsg: "tenant ID not found",
		},
		{
			name: "missing client id",
			stored: map[string]string{
				"entra-tenant-id": "tenant",
			},
			wantMsg: "client ID not found",
		},
		{
			name: "missing client secret",
			stored: map[string]string{
				"entra-tenant-id": "tenant",
				"entra-client-id": "client",
			},
			wantMsg: "client secret not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			t.Cleanup(func() { Reset() })

			RegisterEntra()

			store := auth.NewMockStore()
			for k, v := range tt.stored {
				store.SetToken(k, v)
			}

			_, err := Get("entra", store)
			if err == nil {
				t.Fatal("expected error for missing credentials, got nil")
			}
			if !errors.Is(err, auth.ErrTokenNotFound) {
				t.Errorf("expected ErrTokenNotFound in chain, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantMsg)
			}
			if !strings.Contains(err.Error(), "auth login entra") {
				t.Errorf("error %q should point at the login command", err.Error())
			}
		})
	}
}

func TestGet_UnknownProvider(t *testing.T) {
	Reset()
	t.Cleanup(func() { Reset() })

	store := auth.NewMockStore()
	_, err := Get("nonexistent", store)
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
	if !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGet_NormalizesName(t *testing.T) {
	Reset()
	t.Cleanup(func() { Reset() })

	RegisterEntra()

	store := auth.NewMockStore()
	store.SetToken("entra-token", "fixed")

	if _, err := Get("  Entra  ", store); err != nil {
		t.Errorf("expected case-insensitive lookup to succeed, got %v", err)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Reset()
	t.Cleanup(func() { Reset() })

	RegisterEntra()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	RegisterEntra()
}
