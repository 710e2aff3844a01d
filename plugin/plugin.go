// Package plugin provides an extensible plugin system for Ledger.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"

	"github.com/mintworks/ledger/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Token events
// ──────────────────────────────────────────────────

// TransferEvent describes a completed token movement. Operator equals From
// for a direct transfer.
type TransferEvent struct {
	From     types.Address
	To       types.Address
	Operator types.Address
	Amount   types.Amount
}

// MintEvent describes newly created tokens.
type MintEvent struct {
	To        types.Address
	Amount    types.Amount
	NewSupply types.Amount
}

// BurnEvent describes destroyed tokens.
type BurnEvent struct {
	From      types.Address
	Operator  types.Address
	Amount    types.Amount
	NewSupply types.Amount
}

// OperatorEvent describes an operator grant or revocation.
type OperatorEvent struct {
	Holder   types.Address
	Operator types.Address
}

// OnTransferred is called after a transfer commits.
type OnTransferred interface {
	Plugin
	OnTransferred(ctx context.Context, ev TransferEvent) error
}

// OnMinted is called after a mint commits.
type OnMinted interface {
	Plugin
	OnMinted(ctx context.Context, ev MintEvent) error
}

// OnBurned is called after a burn commits.
type OnBurned interface {
	Plugin
	OnBurned(ctx context.Context, ev BurnEvent) error
}

// OnOperatorAuthorized is called after an operator grant commits.
type OnOperatorAuthorized interface {
	Plugin
	OnOperatorAuthorized(ctx context.Context, ev OperatorEvent) error
}

// OnOperatorRevoked is called after an operator revocation commits.
type OnOperatorRevoked interface {
	Plugin
	OnOperatorRevoked(ctx context.Context, ev OperatorEvent) error
}

// ──────────────────────────────────────────────────
// Exchange events
// ──────────────────────────────────────────────────

// PurchaseEvent describes a completed token purchase.
type PurchaseEvent struct {
	Buyer  types.Address
	Base   types.Amount
	Fee    types.Amount
	Tokens types.Amount
}

// SaleEvent describes a completed token sale.
type SaleEvent struct {
	Seller  types.Address
	Tokens  types.Amount
	Fee     types.Amount
	BaseOut types.Amount
}

// OnTokensPurchased is called after a purchase commits.
type OnTokensPurchased interface {
	Plugin
	OnTokensPurchased(ctx context.Context, ev PurchaseEvent) error
}

// OnTokensSold is called after a sale commits.
type OnTokensSold interface {
	Plugin
	OnTokensSold(ctx context.Context, ev SaleEvent) error
}

// ──────────────────────────────────────────────────
// Staking events
// ──────────────────────────────────────────────────

// StakeEvent describes a newly created stake.
type StakeEvent struct {
	StakeID   uint64
	Owner     types.Address
	Principal types.Amount
}

// WithdrawEvent describes a stake payout. Penalty is zero for a mature
// withdrawal; Interest is zero for an early one.
type WithdrawEvent struct {
	StakeID  uint64
	Owner    types.Address
	Tier     int
	Payout   types.Amount
	Penalty  types.Amount
	Interest types.Amount
}

// OnStakeCreated is called after a stake commits.
type OnStakeCreated interface {
	Plugin
	OnStakeCreated(ctx context.Context, ev StakeEvent) error
}

// OnStakeWithdrawn is called after a stake withdrawal commits.
type OnStakeWithdrawn interface {
	Plugin
	OnStakeWithdrawn(ctx context.Context, ev WithdrawEvent) error
}

// ──────────────────────────────────────────────────
// Lottery events
// ──────────────────────────────────────────────────

// TicketEvent describes a ticket purchase.
type TicketEvent struct {
	RoundID uint64
	Holder  types.Address
	Count   uint64
	Paid    types.Amount
}

// RoundEvent describes a closed lottery round. Winner is empty when the
// round closed without participants.
type RoundEvent struct {
	RoundID     uint64
	Winner      types.Address
	Pot         types.Amount
	Payout      types.Amount
	TreasuryCut types.Amount
}

// OnTicketPurchased is called after a ticket purchase commits.
type OnTicketPurchased interface {
	Plugin
	OnTicketPurchased(ctx context.Context, ev TicketEvent) error
}

// OnRoundClosed is called after a round is drawn and the pot distributed.
type OnRoundClosed interface {
	Plugin
	OnRoundClosed(ctx context.Context, ev RoundEvent) error
}

// OnLotteryPaused is called when ticket sales are paused.
type OnLotteryPaused interface {
	Plugin
	OnLotteryPaused(ctx context.Context) error
}

// OnLotteryUnpaused is called when ticket sales resume.
type OnLotteryUnpaused interface {
	Plugin
	OnLotteryUnpaused(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed is called when buffered journal entries are flushed to
// the store.
type OnJournalFlushed interface {
	Plugin
	OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error
}
