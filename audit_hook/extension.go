// Package audithook bridges Ledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mintworks/ledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnMinted             = (*Extension)(nil)
	_ plugin.OnBurned             = (*Extension)(nil)
	_ plugin.OnTransferred        = (*Extension)(nil)
	_ plugin.OnOperatorAuthorized = (*Extension)(nil)
	_ plugin.OnOperatorRevoked    = (*Extension)(nil)
	_ plugin.OnTokensPurchased    = (*Extension)(nil)
	_ plugin.OnTokensSold         = (*Extension)(nil)
	_ plugin.OnStakeCreated       = (*Extension)(nil)
	_ plugin.OnStakeWithdrawn     = (*Extension)(nil)
	_ plugin.OnTicketPurchased    = (*Extension)(nil)
	_ plugin.OnRoundClosed        = (*Extension)(nil)
	_ plugin.OnLotteryPaused      = (*Extension)(nil)
	_ plugin.OnLotteryUnpaused    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Token hooks
// ──────────────────────────────────────────────────

// OnMinted implements plugin.OnMinted.
func (e *Extension) OnMinted(ctx context.Context, ev plugin.MintEvent) error {
	return e.record(ctx, ActionTokenMinted, SeverityInfo, OutcomeSuccess,
		ResourceToken, string(ev.To), CategorySupply, nil,
		"to", string(ev.To),
		"amount", ev.Amount.String(),
		"new_supply", ev.NewSupply.String(),
	)
}

// OnBurned implements plugin.OnBurned.
func (e *Extension) OnBurned(ctx context.Context, ev plugin.BurnEvent) error {
	return e.record(ctx, ActionTokenBurned, SeverityInfo, OutcomeSuccess,
		ResourceToken, string(ev.From), CategorySupply, nil,
		"from", string(ev.From),
		"operator", string(ev.Operator),
		"amount", ev.Amount.String(),
		"new_supply", ev.NewSupply.String(),
	)
}

// OnTransferred implements plugin.OnTransferred.
func (e *Extension) OnTransferred(ctx context.Context, ev plugin.TransferEvent) error {
	return e.record(ctx, ActionTokenSent, SeverityInfo, OutcomeSuccess,
		ResourceToken, string(ev.From), CategoryTransfer, nil,
		"from", string(ev.From),
		"to", string(ev.To),
		"operator", string(ev.Operator),
		"amount", ev.Amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Operator hooks
// ──────────────────────────────────────────────────

// OnOperatorAuthorized implements plugin.OnOperatorAuthorized.
func (e *Extension) OnOperatorAuthorized(ctx context.Context, ev plugin.OperatorEvent) error {
	return e.record(ctx, ActionOperatorGranted, SeverityInfo, OutcomeSuccess,
		ResourceOperator, string(ev.Operator), CategoryAccess, nil,
		"holder", string(ev.Holder),
		"operator", string(ev.Operator),
	)
}

// OnOperatorRevoked implements plugin.OnOperatorRevoked.
func (e *Extension) OnOperatorRevoked(ctx context.Context, ev plugin.OperatorEvent) error {
	return e.record(ctx, ActionOperatorRevoked, SeverityWarning, OutcomeSuccess,
		ResourceOperator, string(ev.Operator), CategoryAccess, nil,
		"holder", string(ev.Holder),
		"operator", string(ev.Operator),
	)
}

// ──────────────────────────────────────────────────
// Exchange hooks
// ──────────────────────────────────────────────────

// OnTokensPurchased implements plugin.OnTokensPurchased.
func (e *Extension) OnTokensPurchased(ctx context.Context, ev plugin.PurchaseEvent) error {
	return e.record(ctx, ActionTokensPurchased, SeverityInfo, OutcomeSuccess,
		ResourceExchange, string(ev.Buyer), CategoryExchange, nil,
		"buyer", string(ev.Buyer),
		"base", ev.Base.String(),
		"fee", ev.Fee.String(),
		"tokens", ev.Tokens.String(),
	)
}

// OnTokensSold implements plugin.OnTokensSold.
func (e *Extension) OnTokensSold(ctx context.Context, ev plugin.SaleEvent) error {
	return e.record(ctx, ActionTokensSold, SeverityInfo, OutcomeSuccess,
		ResourceExchange, string(ev.Seller), CategoryExchange, nil,
		"seller", string(ev.Seller),
		"tokens", ev.Tokens.String(),
		"fee", ev.Fee.String(),
		"base_out", ev.BaseOut.String(),
	)
}

// ──────────────────────────────────────────────────
// Staking hooks
// ──────────────────────────────────────────────────

// OnStakeCreated implements plugin.OnStakeCreated.
func (e *Extension) OnStakeCreated(ctx context.Context, ev plugin.StakeEvent) error {
	return e.record(ctx, ActionStakeCreated, SeverityInfo, OutcomeSuccess,
		ResourceStake, strconv.FormatUint(ev.StakeID, 10), CategoryStaking, nil,
		"stake_id", ev.StakeID,
		"owner", string(ev.Owner),
		"principal", ev.Principal.String(),
	)
}

// OnStakeWithdrawn implements plugin.OnStakeWithdrawn.
func (e *Extension) OnStakeWithdrawn(ctx context.Context, ev plugin.WithdrawEvent) error {
	severity := SeverityInfo
	if ev.Penalty.IsPositive() {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionStakeWithdrawn, severity, OutcomeSuccess,
		ResourceStake, strconv.FormatUint(ev.StakeID, 10), CategoryStaking, nil,
		"stake_id", ev.StakeID,
		"owner", string(ev.Owner),
		"tier", ev.Tier,
		"payout", ev.Payout.String(),
		"penalty", ev.Penalty.String(),
		"interest", ev.Interest.String(),
	)
}

// ──────────────────────────────────────────────────
// Lottery hooks
// ──────────────────────────────────────────────────

// OnTicketPurchased implements plugin.OnTicketPurchased.
func (e *Extension) OnTicketPurchased(ctx context.Context, ev plugin.TicketEvent) error {
	return e.record(ctx, ActionTicketPurchased, SeverityInfo, OutcomeSuccess,
		ResourceLottery, strconv.FormatUint(ev.RoundID, 10), CategoryLottery, nil,
		"round_id", ev.RoundID,
		"holder", string(ev.Holder),
		"count", ev.Count,
		"paid", ev.Paid.String(),
	)
}

// OnRoundClosed implements plugin.OnRoundClosed.
func (e *Extension) OnRoundClosed(ctx context.Context, ev plugin.RoundEvent) error {
	outcome := OutcomeSuccess
	if ev.Winner.IsZero() {
		// Closed without a draw
		outcome = OutcomePartial
	}
	return e.record(ctx, ActionRoundClosed, SeverityInfo, outcome,
		ResourceLottery, strconv.FormatUint(ev.RoundID, 10), CategoryLottery, nil,
		"round_id", ev.RoundID,
		"winner", string(ev.Winner),
		"pot", ev.Pot.String(),
		"payout", ev.Payout.String(),
		"treasury_cut", ev.TreasuryCut.String(),
	)
}

// OnLotteryPaused implements plugin.OnLotteryPaused.
func (e *Extension) OnLotteryPaused(ctx context.Context) error {
	return e.record(ctx, ActionLotteryPaused, SeverityWarning, OutcomeSuccess,
		ResourceLottery, "", CategoryLottery, nil,
		"event", "lottery_paused",
	)
}

// OnLotteryUnpaused implements plugin.OnLotteryUnpaused.
func (e *Extension) OnLotteryUnpaused(ctx context.Context) error {
	return e.record(ctx, ActionLotteryUnpaused, SeverityInfo, OutcomeSuccess,
		ResourceLottery, "", CategoryLottery, nil,
		"event", "lottery_unpaused",
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
