// Package extension provides the Forge extension adapter for Subledger.
//
// It implements the forge.Extension interface to integrate Subledger
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.subledger" or
// "subledger" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	subledger "github.com/xraph/subledger"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/oracle"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/store/memory"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "subledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Provider/subscriber accounting ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Subledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *subledger.Engine
	store      store.Store
	tokens     token.Service
	feed       oracle.Feed
	engineOpts []subledger.Option
	readerOpts []oracle.ReaderOption
}

// New creates a new Subledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Subledger engine.
// This is nil until Register is called.
func (e *Extension) Engine() *subledger.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Development defaults when collaborators were not provided
	// programmatically: memory store, in-memory bank, 1:1 price feed.
	if e.store == nil {
		e.store = memory.New()
	}
	if e.tokens == nil {
		e.tokens = token.NewBank()
	}
	if e.feed == nil {
		e.feed = oracle.NewDollarFeed()
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	readerOpts := append(
		[]oracle.ReaderOption{oracle.WithFreshness(e.config.PriceFreshness)},
		e.readerOpts...,
	)
	reader := oracle.NewReader(e.feed, readerOpts...)

	eng := subledger.New(e.store, e.tokens, reader, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*subledger.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("subledger: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("subledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs subledger.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]subledger.Option, error) {
	opts := make([]subledger.Option, 0, len(e.engineOpts)+4)

	if e.config.Admin != "" {
		admin, err := id.ParseAccountID(e.config.Admin)
		if err != nil {
			return nil, err
		}
		opts = append(opts, subledger.WithAdmin(admin))
	}
	if e.config.Account != "" {
		account, err := id.ParseAccountID(e.config.Account)
		if err != nil {
			return nil, err
		}
		opts = append(opts, subledger.WithAccount(account))
	}
	if e.config.MaxProviders > 0 {
		opts = append(opts, subledger.WithMaxProviders(e.config.MaxProviders))
	}
	if e.config.USDFloor > 0 {
		opts = append(opts, subledger.WithUSDFloor(types.USD(e.config.USDFloor)))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("subledger: configuration is required but not found in config files; " +
				"ensure 'extensions.subledger' or 'subledger' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("subledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("usd_floor", e.config.USDFloor),
		forge.F("max_providers", e.config.MaxProviders),
		forge.F("price_freshness", e.config.PriceFreshness),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.subledger" first (namespaced pattern).
	if cm.IsSet("extensions.subledger") {
		if err := cm.Bind("extensions.subledger", &cfg); err == nil {
			e.Logger().Debug("subledger: loaded config from file",
				forge.F("key", "extensions.subledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("subledger: failed to bind extensions.subledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "subledger" key.
	if cm.IsSet("subledger") {
		if err := cm.Bind("subledger", &cfg); err == nil {
			e.Logger().Debug("subledger: loaded config from file",
				forge.F("key", "subledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("subledger: failed to bind subledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.USDFloor == 0 {
		cfg.USDFloor = defaults.USDFloor
	}
	if cfg.MaxProviders == 0 {
		cfg.MaxProviders = defaults.MaxProviders
	}
	if cfg.PriceFreshness == 0 {
		cfg.PriceFreshness = defaults.PriceFreshness
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Admin == "" && programmaticConfig.Admin != "" {
		yamlConfig.Admin = programmaticConfig.Admin
	}
	if yamlConfig.Account == "" && programmaticConfig.Account != "" {
		yamlConfig.Account = programmaticConfig.Account
	}

	// Numeric/duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.USDFloor == 0 && programmaticConfig.USDFloor != 0 {
		yamlConfig.USDFloor = programmaticConfig.USDFloor
	}
	if yamlConfig.MaxProviders == 0 && programmaticConfig.MaxProviders != 0 {
		yamlConfig.MaxProviders = programmaticConfig.MaxProviders
	}
	if yamlConfig.PriceFreshness == 0 && programmaticConfig.PriceFreshness != 0 {
		yamlConfig.PriceFreshness = programmaticConfig.PriceFreshness
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
