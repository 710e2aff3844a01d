package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onTransferred        []OnTransferred
	onMinted             []OnMinted
	onBurned             []OnBurned
	onOperatorAuthorized []OnOperatorAuthorized
	onOperatorRevoked    []OnOperatorRevoked
	onTokensPurchased    []OnTokensPurchased
	onTokensSold         []OnTokensSold
	onStakeCreated       []OnStakeCreated
	onStakeWithdrawn     []OnStakeWithdrawn
	onTicketPurchased    []OnTicketPurchased
	onRoundClosed        []OnRoundClosed
	onLotteryPaused      []OnLotteryPaused
	onLotteryUnpaused    []OnLotteryUnpaused
	onJournalFlushed     []OnJournalFlushed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTransferred); ok {
		r.onTransferred = append(r.onTransferred, v)
	}
	if v, ok := p.(OnMinted); ok {
		r.onMinted = append(r.onMinted, v)
	}
	if v, ok := p.(OnBurned); ok {
		r.onBurned = append(r.onBurned, v)
	}
	if v, ok := p.(OnOperatorAuthorized); ok {
		r.onOperatorAuthorized = append(r.onOperatorAuthorized, v)
	}
	if v, ok := p.(OnOperatorRevoked); ok {
		r.onOperatorRevoked = append(r.onOperatorRevoked, v)
	}
	if v, ok := p.(OnTokensPurchased); ok {
		r.onTokensPurchased = append(r.onTokensPurchased, v)
	}
	if v, ok := p.(OnTokensSold); ok {
		r.onTokensSold = append(r.onTokensSold, v)
	}
	if v, ok := p.(OnStakeCreated); ok {
		r.onStakeCreated = append(r.onStakeCreated, v)
	}
	if v, ok := p.(OnStakeWithdrawn); ok {
		r.onStakeWithdrawn = append(r.onStakeWithdrawn, v)
	}
	if v, ok := p.(OnTicketPurchased); ok {
		r.onTicketPurchased = append(r.onTicketPurchased, v)
	}
	if v, ok := p.(OnRoundClosed); ok {
		r.onRoundClosed = append(r.onRoundClosed, v)
	}
	if v, ok := p.(OnLotteryPaused); ok {
		r.onLotteryPaused = append(r.onLotteryPaused, v)
	}
	if v, ok := p.(OnLotteryUnpaused); ok {
		r.onLotteryUnpaused = append(r.onLotteryUnpaused, v)
	}
	if v, ok := p.(OnJournalFlushed); ok {
		r.onJournalFlushed = append(r.onJournalFlushed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnTransferred)(nil)).Elem(), "OnTransferred")
	checkInterface(reflect.TypeOf((*OnMinted)(nil)).Elem(), "OnMinted")
	checkInterface(reflect.TypeOf((*OnBurned)(nil)).Elem(), "OnBurned")
	checkInterface(reflect.TypeOf((*OnTokensPurchased)(nil)).Elem(), "OnTokensPurchased")
	checkInterface(reflect.TypeOf((*OnTokensSold)(nil)).Elem(), "OnTokensSold")
	checkInterface(reflect.TypeOf((*OnStakeCreated)(nil)).Elem(), "OnStakeCreated")
	checkInterface(reflect.TypeOf((*OnStakeWithdrawn)(nil)).Elem(), "OnStakeWithdrawn")
	checkInterface(reflect.TypeOf((*OnTicketPurchased)(nil)).Elem(), "OnTicketPurchased")
	checkInterface(reflect.TypeOf((*OnRoundClosed)(nil)).Elem(), "OnRoundClosed")
	checkInterface(reflect.TypeOf((*OnJournalFlushed)(nil)).Elem(), "OnJournalFlushed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransferred emits a transfer event.
func (r *Registry) EmitTransferred(ctx context.Context, ev TransferEvent) {
	r.mu.RLock()
	plugins := r.onTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferred(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnTransferred failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMinted emits a mint event.
func (r *Registry) EmitMinted(ctx context.Context, ev MintEvent) {
	r.mu.RLock()
	plugins := r.onMinted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMinted(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnMinted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBurned emits a burn event.
func (r *Registry) EmitBurned(ctx context.Context, ev BurnEvent) {
	r.mu.RLock()
	plugins := r.onBurned
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBurned(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnBurned failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOperatorAuthorized emits an operator authorization event.
func (r *Registry) EmitOperatorAuthorized(ctx context.Context, ev OperatorEvent) {
	r.mu.RLock()
	plugins := r.onOperatorAuthorized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOperatorAuthorized(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnOperatorAuthorized failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOperatorRevoked emits an operator revocation event.
func (r *Registry) EmitOperatorRevoked(ctx context.Context, ev OperatorEvent) {
	r.mu.RLock()
	plugins := r.onOperatorRevoked
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOperatorRevoked(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnOperatorRevoked failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokensPurchased emits a purchase event.
func (r *Registry) EmitTokensPurchased(ctx context.Context, ev PurchaseEvent) {
	r.mu.RLock()
	plugins := r.onTokensPurchased
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokensPurchased(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnTokensPurchased failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokensSold emits a sale event.
func (r *Registry) EmitTokensSold(ctx context.Context, ev SaleEvent) {
	r.mu.RLock()
	plugins := r.onTokensSold
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokensSold(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnTokensSold failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStakeCreated emits a stake created event.
func (r *Registry) EmitStakeCreated(ctx context.Context, ev StakeEvent) {
	r.mu.RLock()
	plugins := r.onStakeCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStakeCreated(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnStakeCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStakeWithdrawn emits a stake withdrawal event.
func (r *Registry) EmitStakeWithdrawn(ctx context.Context, ev WithdrawEvent) {
	r.mu.RLock()
	plugins := r.onStakeWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStakeWithdrawn(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnStakeWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTicketPurchased emits a ticket purchase event.
func (r *Registry) EmitTicketPurchased(ctx context.Context, ev TicketEvent) {
	r.mu.RLock()
	plugins := r.onTicketPurchased
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTicketPurchased(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnTicketPurchased failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRoundClosed emits a round closed event.
func (r *Registry) EmitRoundClosed(ctx context.Context, ev RoundEvent) {
	r.mu.RLock()
	plugins := r.onRoundClosed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRoundClosed(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnRoundClosed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLotteryPaused emits a lottery paused event.
func (r *Registry) EmitLotteryPaused(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onLotteryPaused
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLotteryPaused(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnLotteryPaused failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLotteryUnpaused emits a lottery unpaused event.
func (r *Registry) EmitLotteryUnpaused(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onLotteryUnpaused
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLotteryUnpaused(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnLotteryUnpaused failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitJournalFlushed emits a journal flushed event.
func (r *Registry) EmitJournalFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onJournalFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnJournalFlushed(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnJournalFlushed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
