package config

import (
	"fmt"
	"strconv"
	"strings"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "default-provider").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Normalize controls whether values are lowercased and trimmed before
	// storage. Leave false for keys holding filesystem paths.
	Normalize bool

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set applies a value for this key to the given Config (in memory only;
	// the caller is responsible for calling Save). Callers must run the
	// key's validator first; Set assumes the value is well formed.
	Set func(cfg *Config, value string)
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "default-provider",
		Description: "Directory provider used when --provider is not specified",
		Normalize:   true,
		Get:         func(cfg *Config) string { return cfg.DefaultProvider },
		Set:         func(cfg *Config, v string) { cfg.DefaultProvider = v },
	},
	{
		Name:        "days-back",
		Description: "Inactivity window in days used when --days-back is not specified",
		Normalize:   true,
		Get: func(cfg *Config) string {
			if cfg.DaysBack == 0 {
				return ""
			}
			return strconv.Itoa(cfg.DaysBack)
		},
		Set: func(cfg *Config, v string) {
			n, _ := strconv.Atoi(v)
			cfg.DaysBack = n
		},
	},
	{
		Name:        "export-folder",
		Description: "Directory for CSV exports used when --export-folder is not specified",
		Get:         func(cfg *Config) string { return cfg.ExportFolder },
		Set:         func(cfg *Config, v string) { cfg.ExportFolder = v },
	},
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}
