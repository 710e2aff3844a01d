package lottery

import (
	"context"

	"github.com/mintworks/ledger/types"
)

// Store is the read surface the lottery engine needs outside of a
// transaction.
type Store interface {
	// CurrentRound returns the id of the open round.
	CurrentRound(ctx context.Context) (uint64, error)

	// GetRound returns a round by id.
	GetRound(ctx context.Context, id uint64) (*Round, error)

	// TicketCount returns the number of tickets holder owns in round.
	TicketCount(ctx context.Context, round uint64, holder types.Address) (uint64, error)

	// ListTickets returns the ticket entries of a round in purchase
	// order.
	ListTickets(ctx context.Context, round uint64) ([]TicketEntry, error)
}
