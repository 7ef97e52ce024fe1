package auth

import (
	"strings"
	"testing"

	platformproviders "nathanbeddoewebdev/devsweep/internal/platform/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
)

func entraSpec(t *testing.T) platformproviders.CredentialSpec {
	t.Helper()
	spec := platformproviders.Lookup("entra")
	if spec == nil {
		t.Fatal("entra credential spec not registered")
	}
	return *spec
}

func TestDescribeSpec_NotAuthenticated(t *testing.T) {
	store := auth.NewMockStore()

	got := describeSpec(store, entraSpec(t))
	if got != "not authenticated" {
		t.Errorf("expected 'not authenticated', got %q", got)
	}
}

func TestDescribeSpec_FullCredentialSet(t *testing.T) {
	store := auth.NewMockStore()
	store.SetToken("entra-tenant-id", "tenant")
	store.SetToken("entra-client-id", "client")
	store.SetToken("entra-client-secret", "secret")

	got := describeSpec(store, entraSpec(t))
	if got != "authenticated" {
		t.Errorf("expected 'authenticated', got %q", got)
	}
}

func TestDescribeSpec_PartialCredentialSet(t *testing.T) {
	store := auth.NewMockStore()
	store.SetToken("entra-tenant-id", "tenant")

	got := describeSpec(store, entraSpec(t))
	if !strings.Contains(got, "partial (1 of 3") {
		t.Errorf("expected partial status, got %q", got)
	}
}

func TestDescribeSpec_StaticTokenCounts(t *testing.T) {
	store := auth.NewMockStore()
	store.SetToken("entra-token", "jwt")

	got := describeSpec(store, entraSpec(t))
	if got != "authenticated (token)" {
		t.Errorf("expected token authentication, got %q", got)
	}
}

func TestTokenKey(t *testing.T) {
	spec := entraSpec(t)

	if got := tokenKey("entra", &spec); got != "entra-token" {
		t.Errorf("expected entra-token, got %q", got)
	}
	if got := tokenKey("other", nil); got != "other" {
		t.Errorf("expected bare provider name, got %q", got)
	}
}
