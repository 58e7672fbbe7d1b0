package extension

import "time"

// Config holds the Subledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.subledger" or "subledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration and table restore on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// USDFloor is the minimum provider fee value in whole US dollars
	// (default: 50). Subscriber deposits must be worth twice this floor.
	USDFloor int64 `json:"usd_floor" mapstructure:"usd_floor" yaml:"usd_floor"`

	// MaxProviders caps the provider table size (default: 200).
	MaxProviders uint64 `json:"max_providers" mapstructure:"max_providers" yaml:"max_providers"`

	// PriceFreshness is the maximum oracle round age before price reads
	// are rejected as stale (default: 3h).
	PriceFreshness time.Duration `json:"price_freshness" mapstructure:"price_freshness" yaml:"price_freshness"`

	// Admin is the TypeID string of the account allowed to toggle
	// provider state. Empty disables admin-only operations.
	Admin string `json:"admin" mapstructure:"admin" yaml:"admin"`

	// Account is the TypeID string of the custody account deposits are
	// pulled into. Empty generates a fresh account at engine construction.
	Account string `json:"account" mapstructure:"account" yaml:"account"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		USDFloor:       50,
		MaxProviders:   200,
		PriceFreshness: 3 * time.Hour,
	}
}
