// Package lottery defines the round model, the ticket bookkeeping, and the
// winner selection for the periodic lottery engine.
package lottery

import (
	"time"

	"github.com/mintworks/ledger/types"
)

// DefaultTicketPrice is the ticket price used when no price is configured.
func DefaultTicketPrice() types.Amount { return types.Units(5) }

// Round is one lottery round. Pot accumulates ticket payments; Winner and
// ClosedAt are set when the round is drawn. A round that advanced without
// participants closes with an empty winner.
type Round struct {
	ID       uint64        `json:"id"`
	Pot      types.Amount  `json:"pot"`
	Winner   types.Address `json:"winner,omitempty"`
	ClosedAt time.Time     `json:"closed_at,omitzero"`
}

// Closed reports whether the round has been drawn.
func (r *Round) Closed() bool { return !r.ClosedAt.IsZero() }

// Clone returns a copy of the round.
func (r *Round) Clone() *Round {
	c := *r
	return &c
}

// TicketEntry is one holder's ticket count within a round. Entries keep
// purchase order so draws are reproducible for a given draw index.
type TicketEntry struct {
	Holder types.Address `json:"holder"`
	Count  uint64        `json:"count"`
}

// TotalTickets sums the ticket counts across entries.
func TotalTickets(entries []TicketEntry) uint64 {
	var total uint64
	for _, e := range entries {
		total += e.Count
	}
	return total
}

// PickWinner selects the holder owning the drawn ticket. Tickets are laid
// out in entry order, so entry counts act as cumulative weights. Returns
// false when there are no tickets.
func PickWinner(entries []TicketEntry, drawer Drawer) (types.Address, bool) {
	total := TotalTickets(entries)
	if total == 0 {
		return "", false
	}
	idx := drawer.Draw(total)
	for _, e := range entries {
		if idx < e.Count {
			return e.Holder, true
		}
		idx -= e.Count
	}
	// Drawer returned an out of range index; fall back to the last entry.
	return entries[len(entries)-1].Holder, true
}

// SplitPot divides a closed round's pot between the winner and the
// treasury. The treasury takes the floored half; the winner takes the
// rest, so odd base units go to the winner.
func SplitPot(pot types.Amount) (winner, treasury types.Amount) {
	treasury = pot.Div(2)
	return pot.Sub(treasury), treasury
}
