package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mintworks/ledger/exchange"
	"github.com/mintworks/ledger/id"
	"github.com/mintworks/ledger/journal"
	"github.com/mintworks/ledger/plugin"
	"github.com/mintworks/ledger/store"
	"github.com/mintworks/ledger/token"
	"github.com/mintworks/ledger/types"
)

// Ledger is the fungible-token engine. It owns the account ledger and the
// fixed-curve exchange; the staking and lottery engines bind to it and
// move balances through the same store.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	// mu serializes every balance mutation across all bound engines.
	mu sync.RWMutex

	name             string
	symbol           string
	maxSupply        types.Amount
	initialSupply    types.Amount
	defaultOperators types.AddressSet
	owner            types.Address
	treasury         types.Address
	entryFee         exchange.Fee
	exitFee          exchange.Fee

	// Background workers
	journalBuffer chan *journal.Entry
	stopChan      chan struct{}
	wg            sync.WaitGroup

	// Configuration
	journalBatchSize     int
	journalFlushInterval time.Duration
}

// Config declares the token and its exchange curve.
type Config struct {
	Name     string
	Symbol   string
	Owner    types.Address
	Treasury types.Address

	// MaxSupply caps minting. InitialSupply is minted to the treasury the
	// first time Start runs against an empty store.
	MaxSupply     types.Amount
	InitialSupply types.Amount

	// EntryFeePercent and ExitFeePercent are whole-percent exchange fees.
	EntryFeePercent uint64
	ExitFeePercent  uint64

	// DefaultOperators may move any holder's tokens unless the holder
	// revokes them individually.
	DefaultOperators []types.Address
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if c.Symbol == "" {
		return &ValidationError{Field: "symbol", Message: "must not be empty"}
	}
	if c.Owner.IsZero() {
		return &ValidationError{Field: "owner", Message: "must not be empty"}
	}
	if c.Treasury.IsZero() {
		return &ValidationError{Field: "treasury", Message: "must not be empty"}
	}
	if c.MaxSupply.IsNegative() {
		return &ValidationError{Field: "max_supply", Message: "must not be negative"}
	}
	if c.InitialSupply.IsNegative() {
		return &ValidationError{Field: "initial_supply", Message: "must not be negative"}
	}
	if c.MaxSupply.IsPositive() && c.MaxSupply.LessThan(c.InitialSupply) {
		return &ValidationError{Field: "initial_supply", Message: "exceeds max supply"}
	}
	if _, ok := exchange.FeeFromPercent(c.EntryFeePercent); !ok {
		return &ValidationError{Field: "entry_fee_percent", Message: "must be between 0 and 100"}
	}
	if _, ok := exchange.FeeFromPercent(c.ExitFeePercent); !ok {
		return &ValidationError{Field: "exit_fee_percent", Message: "must be between 0 and 100"}
	}
	return nil
}

// New creates a new Ledger instance.
func New(s store.Store, cfg Config, opts ...Option) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	entryFee, _ := exchange.FeeFromPercent(cfg.EntryFeePercent)
	exitFee, _ := exchange.FeeFromPercent(cfg.ExitFeePercent)

	l := &Ledger{
		store:                s,
		plugins:              plugin.NewRegistry(),
		logger:               slog.Default(),
		clock:                time.Now,
		name:                 cfg.Name,
		symbol:               cfg.Symbol,
		maxSupply:            cfg.MaxSupply,
		initialSupply:        cfg.InitialSupply,
		defaultOperators:     types.NewAddressSet(cfg.DefaultOperators...),
		owner:                cfg.Owner,
		treasury:             cfg.Treasury,
		entryFee:             entryFee,
		exitFee:              exitFee,
		journalBuffer:        make(chan *journal.Entry, 10000),
		stopChan:             make(chan struct{}),
		journalBatchSize:     100,
		journalFlushInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithJournalConfig configures journal flushing parameters.
func WithJournalConfig(batchSize int, flushInterval time.Duration) Option {
	return func(l *Ledger) {
		l.journalBatchSize = batchSize
		l.journalFlushInterval = flushInterval
	}
}

// WithClock overrides the time source. Staking maturity and lottery round
// timestamps follow it.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// Start migrates the store, seeds the initial supply on first run, and
// begins background workers.
func (l *Ledger) Start(ctx context.Context) error {
	// Migrate database
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	if err := l.seedInitialSupply(ctx); err != nil {
		return err
	}

	// Initialize plugins
	l.plugins.EmitInit(ctx, l)

	// Start journal flush worker
	l.wg.Add(1)
	go l.journalFlushWorker(ctx)

	l.logger.Info("ledger started",
		"name", l.name,
		"symbol", l.symbol,
		"batch_size", l.journalBatchSize,
		"flush_interval", l.journalFlushInterval,
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	close(l.stopChan)
	l.wg.Wait()

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// seedInitialSupply mints the configured initial supply to the treasury
// when the store holds no tokens yet. Restarting against a populated store
// is a no-op.
func (l *Ledger) seedInitialSupply(ctx context.Context) error {
	if !l.initialSupply.IsPositive() {
		return nil
	}
	supply, err := l.store.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if !supply.IsZero() {
		return nil
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(tx)

	if err := creditTx(tx, l.treasury, l.initialSupply); err != nil {
		return err
	}
	if err := tx.SetTotalSupply(l.initialSupply); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	l.record(&journal.Entry{
		Kind:   journal.KindMint,
		To:     l.treasury,
		Amount: l.initialSupply,
	})
	l.logger.Info("initial supply seeded",
		"treasury", l.treasury,
		"amount", l.initialSupply,
	)
	return nil
}

// ──────────────────────────────────────────────────
// Token metadata
// ──────────────────────────────────────────────────

// Name returns the token name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the token symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// Granularity returns the smallest transferable unit, always one base
// unit.
func (l *Ledger) Granularity() int64 { return 1 }

// MaxSupply returns the supply cap. A zero cap means unlimited.
func (l *Ledger) MaxSupply() types.Amount { return l.maxSupply }

// Owner returns the current ledger owner.
func (l *Ledger) Owner() types.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

// Treasury returns the treasury address.
func (l *Ledger) Treasury() types.Address { return l.treasury }

// DefaultOperators returns the configured default operators.
func (l *Ledger) DefaultOperators() []types.Address {
	ops := make([]types.Address, 0, len(l.defaultOperators))
	for op := range l.defaultOperators {
		ops = append(ops, op)
	}
	return ops
}

// TransferOwnership hands the ledger owner role to newOwner.
func (l *Ledger) TransferOwnership(ctx context.Context, caller, newOwner types.Address) error {
	if newOwner.IsZero() {
		return &ValidationError{Field: "new_owner", Message: "must not be empty"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrNotOwner
	}
	l.owner = newOwner
	l.logger.Info("ledger ownership transferred", "from", caller, "to", newOwner)
	return nil
}

// ──────────────────────────────────────────────────
// Balances and supply
// ──────────────────────────────────────────────────

// BalanceOf returns the balance of addr.
func (l *Ledger) BalanceOf(ctx context.Context, addr types.Address) (types.Amount, error) {
	acct, err := l.store.GetAccount(ctx, addr)
	if err != nil {
		return types.Amount{}, err
	}
	return acct.Balance, nil
}

// TotalSupply returns the circulating supply.
func (l *Ledger) TotalSupply(ctx context.Context) (types.Amount, error) {
	return l.store.TotalSupply(ctx)
}

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

// Transfer moves tokens from the sender's own balance.
func (l *Ledger) Transfer(ctx context.Context, from, to types.Address, amount types.Amount) error {
	return l.send(ctx, from, from, to, amount)
}

// OperatorSend moves tokens on behalf of a holder. The operator must be
// authorized for from, either explicitly or as an unrevoked default.
func (l *Ledger) OperatorSend(ctx context.Context, operator, from, to types.Address, amount types.Amount) error {
	return l.send(ctx, operator, from, to, amount)
}

func (l *Ledger) send(ctx context.Context, operator, from, to types.Address, amount types.Amount) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if from.IsZero() || to.IsZero() {
		return ErrInvalidInput
	}
	// A zero-amount send is a permitted no-op.
	if amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(tx)

	fromAcct, err := tx.Account(from)
	if err != nil {
		return err
	}
	if !fromAcct.OperatorFor(operator, l.defaultOperators) {
		return ErrUnauthorized
	}
	if fromAcct.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	fromAcct.Balance = fromAcct.Balance.Sub(amount)
	if err := tx.PutAccount(fromAcct); err != nil {
		return err
	}
	if err := creditTx(tx, to, amount); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	kind := journal.KindTransfer
	if operator != from {
		kind = journal.KindOperatorSend
	}
	l.record(&journal.Entry{
		Kind:     kind,
		From:     from,
		To:       to,
		Operator: operator,
		Amount:   amount,
	})
	l.plugins.EmitTransferred(ctx, plugin.TransferEvent{
		From:     from,
		To:       to,
		Operator: operator,
		Amount:   amount,
	})
	return nil
}

// ──────────────────────────────────────────────────
// Mint and burn
// ──────────────────────────────────────────────────

// Mint creates new tokens for the treasury. Only the treasury holder may
// mint, and the supply cap is enforced.
func (l *Ledger) Mint(ctx context.Context, caller types.Address, amount types.Amount) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.treasury {
		return ErrNotOwner
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(tx)

	supply, err := tx.TotalSupply()
	if err != nil {
		return err
	}
	newSupply := supply.Add(amount)
	if l.maxSupply.IsPositive() && l.maxSupply.LessThan(newSupply) {
		return ErrSupplyExceeded
	}
	if err := creditTx(tx, l.treasury, amount); err != nil {
		return err
	}
	if err := tx.SetTotalSupply(newSupply); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	l.record(&journal.Entry{
		Kind:   journal.KindMint,
		To:     l.treasury,
		Amount: amount,
	})
	l.plugins.EmitMinted(ctx, plugin.MintEvent{
		To:        l.treasury,
		Amount:    amount,
		NewSupply: newSupply,
	})
	return nil
}

// Burn destroys tokens from the holder's own balance.
func (l *Ledger) Burn(ctx context.Context, from types.Address, amount types.Amount) error {
	return l.burn(ctx, from, from, amount)
}

// OperatorBurn destroys tokens on behalf of a holder.
func (l *Ledger) OperatorBurn(ctx context.Context, operator, from types.Address, amount types.Amount) error {
	return l.burn(ctx, operator, from, amount)
}

func (l *Ledger) burn(ctx context.Context, operator, from types.Address, amount types.Amount) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if from.IsZero() {
		return ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(tx)

	acct, err := tx.Account(from)
	if err != nil {
		return err
	}
	if !acct.OperatorFor(operator, l.defaultOperators) {
		return ErrUnauthorized
	}
	if acct.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	acct.Balance = acct.Balance.Sub(amount)
	if err := tx.PutAccount(acct); err != nil {
		return err
	}
	supply, err := tx.TotalSupply()
	if err != nil {
		return err
	}
	newSupply := supply.Sub(amount)
	if err := tx.SetTotalSupply(newSupply); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	l.record(&journal.Entry{
		Kind:     journal.KindBurn,
		From:     from,
		Operator: operator,
		Amount:   amount,
	})
	l.plugins.EmitBurned(ctx, plugin.BurnEvent{
		From:      from,
		Operator:  operator,
		Amount:    amount,
		NewSupply: newSupply,
	})
	return nil
}

// ──────────────────────────────────────────────────
// Operators
// ──────────────────────────────────────────────────

// AuthorizeOperator lets operator move holder's tokens.
func (l *Ledger) AuthorizeOperator(ctx context.Context, holder, operator types.Address) error {
	if operator.IsZero() {
		return ErrInvalidInput
	}
	if operator == holder {
		return ErrSelfOperation
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(tx)

	acct, err := tx.Account(holder)
	if err != nil {
		return err
	}
	acct.Authorize(operator, l.defaultOperators)
	if err := tx.PutAccount(acct); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	l.plugins.EmitOperatorAuthorized(ctx, plugin.OperatorEvent{Holder: holder, Operator: operator})
	return nil
}

// RevokeOperator withdraws operator's authority over holder's tokens.
func (l *Ledger) RevokeOperator(ctx context.Context, holder, operator types.Address) error {
	if operator.IsZero() {
		return ErrInvalidInput
	}
	if operator == holder {
		return ErrSelfOperation
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(tx)

	acct, err := tx.Account(holder)
	if err != nil {
		return err
	}
	acct.Revoke(operator, l.defaultOperators)
	if err := tx.PutAccount(acct); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	l.plugins.EmitOperatorRevoked(ctx, plugin.OperatorEvent{Holder: holder, Operator: operator})
	return nil
}

// IsOperatorFor reports whether operator may move holder's tokens.
func (l *Ledger) IsOperatorFor(ctx context.Context, operator, holder types.Address) (bool, error) {
	acct, err := l.store.GetAccount(ctx, holder)
	if err != nil {
		return false, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return acct.OperatorFor(operator, l.defaultOperators), nil
}

// ──────────────────────────────────────────────────
// Journal
// ──────────────────────────────────────────────────

// History returns journal entries matching opts in append order.
func (l *Ledger) History(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	return l.store.QueryJournal(ctx, opts)
}

// record buffers a journal entry for asynchronous flushing. Entries are
// dropped with a warning when the buffer is full; the balance change they
// describe has already committed.
func (l *Ledger) record(e *journal.Entry) {
	e.ID = id.NewJournalID()
	if e.At.IsZero() {
		e.At = l.clock()
	}
	select {
	case l.journalBuffer <- e:
	default:
		l.logger.Warn("journal buffer full, entry dropped",
			"kind", e.Kind,
			"error", ErrJournalBufferFull,
		)
	}
}

// journalFlushWorker flushes journal entries to the store.
func (l *Ledger) journalFlushWorker(ctx context.Context) {
	defer l.wg.Done()

	batch := make([]*journal.Entry, 0, l.journalBatchSize)
	ticker := time.NewTicker(l.journalFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			// Drain whatever arrived before shutdown, then final flush.
			for {
				select {
				case e := <-l.journalBuffer:
					batch = append(batch, e)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				l.flushJournalBatch(ctx, batch)
			}
			return

		case e := <-l.journalBuffer:
			batch = append(batch, e)
			if len(batch) >= l.journalBatchSize {
				l.flushJournalBatch(ctx, batch)
				batch = make([]*journal.Entry, 0, l.journalBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flushJournalBatch(ctx, batch)
				batch = make([]*journal.Entry, 0, l.journalBatchSize)
			}
		}
	}
}

func (l *Ledger) flushJournalBatch(ctx context.Context, batch []*journal.Entry) {
	start := time.Now()

	if err := l.store.AppendJournal(ctx, batch); err != nil {
		l.logger.Error("failed to flush journal batch",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	l.plugins.EmitJournalFlushed(ctx, len(batch), elapsed)

	l.logger.Debug("flushed journal batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// creditTx adds amount to addr's balance inside tx.
func creditTx(tx store.Tx, addr types.Address, amount types.Amount) error {
	acct, err := tx.Account(addr)
	if err != nil {
		return err
	}
	acct.Balance = acct.Balance.Add(amount)
	return tx.PutAccount(acct)
}

// debitTx removes amount from addr's balance inside tx, failing when the
// balance cannot cover it.
func debitTx(tx store.Tx, addr types.Address, amount types.Amount) (*token.Account, error) {
	acct, err := tx.Account(addr)
	if err != nil {
		return nil, err
	}
	if acct.Balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}
	acct.Balance = acct.Balance.Sub(amount)
	if err := tx.PutAccount(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// moveTx moves amount between two accounts inside tx.
func moveTx(tx store.Tx, from, to types.Address, amount types.Amount) error {
	if _, err := debitTx(tx, from, amount); err != nil {
		return err
	}
	return creditTx(tx, to, amount)
}

func rollback(tx store.Tx) {
	_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
}

func (l *Ledger) now() time.Time { return l.clock() }
