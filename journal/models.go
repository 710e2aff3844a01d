// Package journal defines the append-only movement log shared by the
// token, exchange, staking, and lottery engines.
package journal

import (
	"time"

	"github.com/mintworks/ledger/id"
	"github.com/mintworks/ledger/types"
)

// Kind identifies what produced a journal entry.
type Kind string

const (
	KindMint               Kind = "mint"
	KindBurn               Kind = "burn"
	KindTransfer           Kind = "transfer"
	KindOperatorSend       Kind = "operator_send"
	KindPurchase           Kind = "purchase"
	KindSale               Kind = "sale"
	KindStakeCreated       Kind = "stake_created"
	KindStakeWithdrawn     Kind = "stake_withdrawn"
	KindStakePenalty       Kind = "stake_penalty"
	KindTicketPurchase     Kind = "ticket_purchase"
	KindLotteryPayout      Kind = "lottery_payout"
	KindLotteryTreasuryCut Kind = "lottery_treasury_cut"
)

// Entry is one recorded movement. From and To are empty for entries with
// no source or destination account, such as mints and burns. StakeID and
// RoundID tie the entry back to the staking or lottery record it belongs
// to, when any.
type Entry struct {
	ID       id.JournalID  `json:"id"`
	Kind     Kind          `json:"kind"`
	From     types.Address `json:"from,omitempty"`
	To       types.Address `json:"to,omitempty"`
	Amount   types.Amount  `json:"amount"`
	Operator types.Address `json:"operator,omitempty"`
	StakeID  uint64        `json:"stake_id,omitempty"`
	RoundID  uint64        `json:"round_id,omitempty"`
	At       time.Time     `json:"at"`
}

// QueryOpts filters journal reads. Zero-value fields match everything.
type QueryOpts struct {
	Kind    Kind
	Account types.Address // matches either side of the movement
	Since   time.Time
	Until   time.Time
	Limit   int
}

// Matches reports whether the entry passes the filter.
func (q QueryOpts) Matches(e *Entry) bool {
	if q.Kind != "" && e.Kind != q.Kind {
		return false
	}
	if q.Account != "" && e.From != q.Account && e.To != q.Account {
		return false
	}
	if !q.Since.IsZero() && e.At.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && e.At.After(q.Until) {
		return false
	}
	return true
}
