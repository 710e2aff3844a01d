package extension

import (
	"time"

	ledger "github.com/mintworks/ledger"
	"github.com/mintworks/ledger/types"
)

// Config holds the Ledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.ledger" or "ledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Name and Symbol identify the token.
	Name   string `json:"name" mapstructure:"name" yaml:"name"`
	Symbol string `json:"symbol" mapstructure:"symbol" yaml:"symbol"`

	// Owner may mint; Treasury receives the initial supply and fees.
	Owner    string `json:"owner" mapstructure:"owner" yaml:"owner"`
	Treasury string `json:"treasury" mapstructure:"treasury" yaml:"treasury"`

	// MaxSupply and InitialSupply are whole-token decimal strings,
	// e.g. "150000000". Empty means zero.
	MaxSupply     string `json:"max_supply" mapstructure:"max_supply" yaml:"max_supply"`
	InitialSupply string `json:"initial_supply" mapstructure:"initial_supply" yaml:"initial_supply"`

	// EntryFeePercent and ExitFeePercent are whole-percent exchange fees.
	EntryFeePercent uint64 `json:"entry_fee_percent" mapstructure:"entry_fee_percent" yaml:"entry_fee_percent"`
	ExitFeePercent  uint64 `json:"exit_fee_percent" mapstructure:"exit_fee_percent" yaml:"exit_fee_percent"`

	// DefaultOperators may move any holder's tokens unless revoked per
	// holder.
	DefaultOperators []string `json:"default_operators" mapstructure:"default_operators" yaml:"default_operators"`

	// JournalBatchSize is the number of journal entries to buffer before
	// flushing to the store (default: 100).
	JournalBatchSize int `json:"journal_batch_size" mapstructure:"journal_batch_size" yaml:"journal_batch_size"`

	// JournalFlushInterval is how frequently the journal buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	JournalFlushInterval time.Duration `json:"journal_flush_interval" mapstructure:"journal_flush_interval" yaml:"journal_flush_interval"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		JournalBatchSize:     100,
		JournalFlushInterval: 5 * time.Second,
	}
}

// ledgerConfig converts the extension config into a ledger.Config.
func (c Config) ledgerConfig() (ledger.Config, error) {
	cfg := ledger.Config{
		Name:            c.Name,
		Symbol:          c.Symbol,
		Owner:           types.Address(c.Owner),
		Treasury:        types.Address(c.Treasury),
		EntryFeePercent: c.EntryFeePercent,
		ExitFeePercent:  c.ExitFeePercent,
	}
	if c.MaxSupply != "" {
		max, err := types.Parse(c.MaxSupply)
		if err != nil {
			return ledger.Config{}, err
		}
		cfg.MaxSupply = max
	}
	if c.InitialSupply != "" {
		initial, err := types.Parse(c.InitialSupply)
		if err != nil {
			return ledger.Config{}, err
		}
		cfg.InitialSupply = initial
	}
	for _, op := range c.DefaultOperators {
		cfg.DefaultOperators = append(cfg.DefaultOperators, types.Address(op))
	}
	return cfg, nil
}
