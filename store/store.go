package store

import (
	"context"

	"github.com/mintworks/ledger/journal"
	"github.com/mintworks/ledger/lottery"
	"github.com/mintworks/ledger/staking"
	"github.com/mintworks/ledger/token"
	"github.com/mintworks/ledger/types"
)

// Store is the unified storage interface backing all engines. Reads
// outside a transaction see the last committed state; every mutation runs
// inside a Tx so balances, supply, stakes, and rounds move together.
type Store interface {
	// Account methods. GetAccount returns a zero-balance account for
	// addresses that were never written.
	GetAccount(ctx context.Context, addr types.Address) (*token.Account, error)
	TotalSupply(ctx context.Context) (types.Amount, error)
	BaseReserve(ctx context.Context) (types.Amount, error)

	// Staking methods
	GetStake(ctx context.Context, stakeID uint64) (*staking.Stake, error)
	ListStakeIDs(ctx context.Context, owner types.Address) ([]uint64, error)
	ActiveStakeTotal(ctx context.Context) (types.Amount, error)

	// Lottery methods
	CurrentRound(ctx context.Context) (uint64, error)
	GetRound(ctx context.Context, roundID uint64) (*lottery.Round, error)
	TicketCount(ctx context.Context, roundID uint64, holder types.Address) (uint64, error)
	ListTickets(ctx context.Context, roundID uint64) ([]lottery.TicketEntry, error)

	// Journal methods
	AppendJournal(ctx context.Context, entries []*journal.Entry) error
	QueryJournal(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error)

	// Begin opens a read-write transaction. The context is captured for
	// the life of the transaction.
	Begin(ctx context.Context) (Tx, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Tx is a read-write transaction. Writes are invisible to Store readers
// until Commit. Implementations are not safe for concurrent use; callers
// serialize mutations above this layer.
type Tx interface {
	// Account methods
	Account(addr types.Address) (*token.Account, error)
	PutAccount(acct *token.Account) error
	TotalSupply() (types.Amount, error)
	SetTotalSupply(v types.Amount) error
	BaseReserve() (types.Amount, error)
	SetBaseReserve(v types.Amount) error

	// Staking methods. NextStakeID allocates ids starting at 1.
	NextStakeID() (uint64, error)
	Stake(stakeID uint64) (*staking.Stake, error)
	PutStake(s *staking.Stake) error
	StakeIDs(owner types.Address) ([]uint64, error)
	ActiveStakeTotal() (types.Amount, error)
	SetActiveStakeTotal(v types.Amount) error

	// Lottery methods
	CurrentRound() (uint64, error)
	SetCurrentRound(roundID uint64) error
	Round(roundID uint64) (*lottery.Round, error)
	PutRound(r *lottery.Round) error
	AddTickets(roundID uint64, holder types.Address, count uint64) error
	Tickets(roundID uint64, holder types.Address) (uint64, error)
	TicketEntries(roundID uint64) ([]lottery.TicketEntry, error)

	Commit() error
	Rollback() error
}
