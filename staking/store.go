package staking

import (
	"context"

	"github.com/mintworks/ledger/types"
)

// Store is the read surface the staking engine needs outside of a
// transaction.
type Store interface {
	// GetStake returns a stake by id.
	GetStake(ctx context.Context, id uint64) (*Stake, error)

	// ListStakeIDs returns the ids of all stakes ever created by owner,
	// including withdrawn ones, in creation order.
	ListStakeIDs(ctx context.Context, owner types.Address) ([]uint64, error)

	// ActiveStakeTotal returns the sum of principal across all stakes
	// that have not been withdrawn.
	ActiveStakeTotal(ctx context.Context) (types.Amount, error)
}
