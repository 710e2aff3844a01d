// Package extension provides the Forge extension adapter for Ledger.
//
// It implements the forge.Extension interface to integrate Ledger
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.ledger" or "ledger" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	ledger "github.com/mintworks/ledger"
	"github.com/mintworks/ledger/store"
	"github.com/mintworks/ledger/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "ledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Fungible token ledger with exchange, staking and lottery engines"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *ledger.Ledger
	store      store.Store
	ledgerOpts []ledger.Option
}

// New creates a new Ledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *ledger.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	cfg, err := e.config.ledgerConfig()
	if err != nil {
		return err
	}

	eng, err := ledger.New(e.store, cfg, e.buildLedgerOpts()...)
	if err != nil {
		return err
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*ledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("ledger: extension not initialized")
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
		return errors.New("ledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs ledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []ledger.Option {
	opts := make([]ledger.Option, 0, len(e.ledgerOpts)+1)

	// Apply config-derived options.
	if e.config.JournalBatchSize > 0 || e.config.JournalFlushInterval > 0 {
		batchSize := e.config.JournalBatchSize
		flushInterval := e.config.JournalFlushInterval
		defaults := DefaultConfig()
		if batchSize == 0 {
			batchSize = defaults.JournalBatchSize
		}
		if flushInterval == 0 {
			flushInterval = defaults.JournalFlushInterval
		}
		opts = append(opts, ledger.WithJournalConfig(batchSize, flushInterval))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("ledger: configuration is required but not found in config files; " +
				"ensure 'extensions.ledger' or 'ledger' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("ledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("name", e.config.Name),
		forge.F("symbol", e.config.Symbol),
		forge.F("journal_batch_size", e.config.JournalBatchSize),
		forge.F("journal_flush_interval", e.config.JournalFlushInterval),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.ledger" first (namespaced pattern).
	if cm.IsSet("extensions.ledger") {
		if err := cm.Bind("extensions.ledger", &cfg); err == nil {
			e.Logger().Debug("ledger: loaded config from file",
				forge.F("key", "extensions.ledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("ledger: failed to bind extensions.ledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "ledger" key.
	if cm.IsSet("ledger") {
		if err := cm.Bind("ledger", &cfg); err == nil {
			e.Logger().Debug("ledger: loaded config from file",
				forge.F("key", "ledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("ledger: failed to bind ledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.JournalBatchSize == 0 {
		cfg.JournalBatchSize = defaults.JournalBatchSize
	}
	if cfg.JournalFlushInterval == 0 {
		cfg.JournalFlushInterval = defaults.JournalFlushInterval
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
	if yamlConfig.Name == "" && programmaticConfig.Name != "" {
		yamlConfig.Name = programmaticConfig.Name
	}
	if yamlConfig.Symbol == "" && programmaticConfig.Symbol != "" {
		yamlConfig.Symbol = programmaticConfig.Symbol
	}
	if yamlConfig.Owner == "" && programmaticConfig.Owner != "" {
		yamlConfig.Owner = programmaticConfig.Owner
	}
	if yamlConfig.Treasury == "" && programmaticConfig.Treasury != "" {
		yamlConfig.Treasury = programmaticConfig.Treasury
	}
	if yamlConfig.MaxSupply == "" && programmaticConfig.MaxSupply != "" {
		yamlConfig.MaxSupply = programmaticConfig.MaxSupply
	}
	if yamlConfig.InitialSupply == "" && programmaticConfig.InitialSupply != "" {
		yamlConfig.InitialSupply = programmaticConfig.InitialSupply
	}
	if yamlConfig.EntryFeePercent == 0 && programmaticConfig.EntryFeePercent != 0 {
		yamlConfig.EntryFeePercent = programmaticConfig.EntryFeePercent
	}
	if yamlConfig.ExitFeePercent == 0 && programmaticConfig.ExitFeePercent != 0 {
		yamlConfig.ExitFeePercent = programmaticConfig.ExitFeePercent
	}
	if len(yamlConfig.DefaultOperators) == 0 && len(programmaticConfig.DefaultOperators) != 0 {
		yamlConfig.DefaultOperators = programmaticConfig.DefaultOperators
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.JournalBatchSize == 0 && programmaticConfig.JournalBatchSize != 0 {
		yamlConfig.JournalBatchSize = programmaticConfig.JournalBatchSize
	}
	if yamlConfig.JournalFlushInterval == 0 && programmaticConfig.JournalFlushInterval != 0 {
		yamlConfig.JournalFlushInterval = programmaticConfig.JournalFlushInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
