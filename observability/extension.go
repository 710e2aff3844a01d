// Package observability provides a metrics extension for Ledger that records
// lifecycle event counts through a pluggable MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/mintworks/ledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnMinted             = (*MetricsExtension)(nil)
	_ plugin.OnBurned             = (*MetricsExtension)(nil)
	_ plugin.OnTransferred        = (*MetricsExtension)(nil)
	_ plugin.OnOperatorAuthorized = (*MetricsExtension)(nil)
	_ plugin.OnOperatorRevoked    = (*MetricsExtension)(nil)
	_ plugin.OnTokensPurchased    = (*MetricsExtension)(nil)
	_ plugin.OnTokensSold         = (*MetricsExtension)(nil)
	_ plugin.OnStakeCreated       = (*MetricsExtension)(nil)
	_ plugin.OnStakeWithdrawn     = (*MetricsExtension)(nil)
	_ plugin.OnTicketPurchased    = (*MetricsExtension)(nil)
	_ plugin.OnRoundClosed        = (*MetricsExtension)(nil)
	_ plugin.OnJournalFlushed     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Ledger plugin to automatically track ledger metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Token metrics
	Minted         Counter
	Burned         Counter
	Transfers      Counter
	TransferVolume Histogram

	// Operator metrics
	OperatorsAuthorized Counter
	OperatorsRevoked    Counter

	// Exchange metrics
	Purchases    Counter
	Sales        Counter
	PurchaseSize Histogram
	SaleSize     Histogram

	// Staking metrics
	StakesCreated    Counter
	StakesWithdrawn  Counter
	EarlyWithdrawals Counter
	StakePrincipal   Histogram

	// Lottery metrics
	TicketsSold  Counter
	RoundsClosed Counter
	EmptyRounds  Counter
	PotSize      Histogram

	// Journal metrics
	JournalFlushed      Counter
	JournalBatchSize    Histogram
	JournalFlushLatency Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use NewPrometheusFactory for a client_golang backed factory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Token metrics
		Minted:         factory.Counter("ledger.token.minted"),
		Burned:         factory.Counter("ledger.token.burned"),
		Transfers:      factory.Counter("ledger.token.transfers"),
		TransferVolume: factory.Histogram("ledger.token.transfer_volume"),

		// Operator metrics
		OperatorsAuthorized: factory.Counter("ledger.operator.authorized"),
		OperatorsRevoked:    factory.Counter("ledger.operator.revoked"),

		// Exchange metrics
		Purchases:    factory.Counter("ledger.exchange.purchases"),
		Sales:        factory.Counter("ledger.exchange.sales"),
		PurchaseSize: factory.Histogram("ledger.exchange.purchase_base"),
		SaleSize:     factory.Histogram("ledger.exchange.sale_tokens"),

		// Staking metrics
		StakesCreated:    factory.Counter("ledger.stake.created"),
		StakesWithdrawn:  factory.Counter("ledger.stake.withdrawn"),
		EarlyWithdrawals: factory.Counter("ledger.stake.early_withdrawals"),
		StakePrincipal:   factory.Histogram("ledger.stake.principal"),

		// Lottery metrics
		TicketsSold:  factory.Counter("ledger.lottery.tickets_sold"),
		RoundsClosed: factory.Counter("ledger.lottery.rounds_closed"),
		EmptyRounds:  factory.Counter("ledger.lottery.empty_rounds"),
		PotSize:      factory.Histogram("ledger.lottery.pot"),

		// Journal metrics
		JournalFlushed:      factory.Counter("ledger.journal.flushed"),
		JournalBatchSize:    factory.Histogram("ledger.journal.batch.size"),
		JournalFlushLatency: factory.Histogram("ledger.journal.flush.latency_ms"),

		// Error metrics
		StoreErrors:  factory.Counter("ledger.store.errors"),
		PluginErrors: factory.Counter("ledger.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Token hooks
// ──────────────────────────────────────────────────

// OnMinted implements plugin.OnMinted.
func (m *MetricsExtension) OnMinted(_ context.Context, _ plugin.MintEvent) error {
	m.Minted.Inc()
	return nil
}

// OnBurned implements plugin.OnBurned.
func (m *MetricsExtension) OnBurned(_ context.Context, _ plugin.BurnEvent) error {
	m.Burned.Inc()
	return nil
}

// OnTransferred implements plugin.OnTransferred.
func (m *MetricsExtension) OnTransferred(_ context.Context, ev plugin.TransferEvent) error {
	m.Transfers.Inc()
	m.TransferVolume.Observe(ev.Amount.Float64())
	return nil
}

// ──────────────────────────────────────────────────
// Operator hooks
// ──────────────────────────────────────────────────

// OnOperatorAuthorized implements plugin.OnOperatorAuthorized.
func (m *MetricsExtension) OnOperatorAuthorized(_ context.Context, _ plugin.OperatorEvent) error {
	m.OperatorsAuthorized.Inc()
	return nil
}

// OnOperatorRevoked implements plugin.OnOperatorRevoked.
func (m *MetricsExtension) OnOperatorRevoked(_ context.Context, _ plugin.OperatorEvent) error {
	m.OperatorsRevoked.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Exchange hooks
// ──────────────────────────────────────────────────

// OnTokensPurchased implements plugin.OnTokensPurchased.
func (m *MetricsExtension) OnTokensPurchased(_ context.Context, ev plugin.PurchaseEvent) error {
	m.Purchases.Inc()
	m.PurchaseSize.Observe(ev.Base.Float64())
	return nil
}

// OnTokensSold implements plugin.OnTokensSold.
func (m *MetricsExtension) OnTokensSold(_ context.Context, ev plugin.SaleEvent) error {
	m.Sales.Inc()
	m.SaleSize.Observe(ev.Tokens.Float64())
	return nil
}

// ──────────────────────────────────────────────────
// Staking hooks
// ──────────────────────────────────────────────────

// OnStakeCreated implements plugin.OnStakeCreated.
func (m *MetricsExtension) OnStakeCreated(_ context.Context, ev plugin.StakeEvent) error {
	m.StakesCreated.Inc()
	m.StakePrincipal.Observe(ev.Principal.Float64())
	return nil
}

// OnStakeWithdrawn implements plugin.OnStakeWithdrawn.
func (m *MetricsExtension) OnStakeWithdrawn(_ context.Context, ev plugin.WithdrawEvent) error {
	m.StakesWithdrawn.Inc()
	if ev.Penalty.IsPositive() {
		m.EarlyWithdrawals.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Lottery hooks
// ──────────────────────────────────────────────────

// OnTicketPurchased implements plugin.OnTicketPurchased.
func (m *MetricsExtension) OnTicketPurchased(_ context.Context, ev plugin.TicketEvent) error {
	m.TicketsSold.Add(float64(ev.Count))
	return nil
}

// OnRoundClosed implements plugin.OnRoundClosed.
func (m *MetricsExtension) OnRoundClosed(_ context.Context, ev plugin.RoundEvent) error {
	m.RoundsClosed.Inc()
	if ev.Winner.IsZero() {
		m.EmptyRounds.Inc()
	}
	m.PotSize.Observe(ev.Pot.Float64())
	return nil
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (m *MetricsExtension) OnJournalFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalFlushed.Inc()
	m.JournalBatchSize.Observe(float64(count))
	m.JournalFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
