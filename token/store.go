package token

import (
	"context"

	"github.com/mintworks/ledger/types"
)

// Store is the narrow persistence interface for token accounts and supply.
// The unified store implements it alongside the other entity stores.
type Store interface {
	GetAccount(ctx context.Context, addr types.Address) (*Account, error)
	TotalSupply(ctx context.Context) (types.Amount, error)
	BaseReserve(ctx context.Context) (types.Amount, error)
}
