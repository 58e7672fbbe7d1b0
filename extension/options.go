package extension

import (
	"time"

	subledger "github.com/xraph/subledger"
	"github.com/xraph/subledger/hook"
	"github.com/xraph/subledger/oracle"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/token"
)

// Option configures the Subledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTokenService sets the token transfer collaborator.
func WithTokenService(t token.Service) Option {
	return func(e *Extension) {
		e.tokens = t
	}
}

// WithOracleFeed sets the price feed collaborator.
func WithOracleFeed(f oracle.Feed) Option {
	return func(e *Extension) {
		e.feed = f
	}
}

// WithReaderOption passes an oracle.ReaderOption through to the price reader.
func WithReaderOption(opt oracle.ReaderOption) Option {
	return func(e *Extension) {
		e.readerOpts = append(e.readerOpts, opt)
	}
}

// WithEngineOption passes a subledger.Option through to the underlying engine.
func WithEngineOption(opt subledger.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithHook registers a ledger hook.
func WithHook(h hook.Hook) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, subledger.WithHook(h))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration and table restore on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithUSDFloor sets the minimum provider fee value in whole US dollars.
func WithUSDFloor(floor int64) Option {
	return func(e *Extension) { e.config.USDFloor = floor }
}

// WithMaxProviders caps the provider table size.
func WithMaxProviders(limit uint64) Option {
	return func(e *Extension) { e.config.MaxProviders = limit }
}

// WithPriceFreshness sets the maximum oracle round age.
func WithPriceFreshness(d time.Duration) Option {
	return func(e *Extension) { e.config.PriceFreshness = d }
}

// WithAdmin sets the administrator account (TypeID string).
func WithAdmin(account string) Option {
	return func(e *Extension) { e.config.Admin = account }
}

// WithAccount sets the custody account (TypeID string).
func WithAccount(account string) Option {
	return func(e *Extension) { e.config.Account = account }
}
