package extension

import (
	"time"

	ledger "github.com/mintworks/ledger"
	"github.com/mintworks/ledger/plugin"
	"github.com/mintworks/ledger/store"
)

// Option configures the Ledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a ledger.Option through to the underlying engine.
func WithLedgerOption(opt ledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, ledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithJournalBatchSize sets the number of journal entries to buffer before flushing.
func WithJournalBatchSize(size int) Option {
	return func(e *Extension) { e.config.JournalBatchSize = size }
}

// WithJournalFlushInterval sets how frequently the journal buffer is flushed.
func WithJournalFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.JournalFlushInterval = d }
}
