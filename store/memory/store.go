// Package memory provides an in-memory Store for tests and embedded use.
// Transactions copy the whole state on Begin and swap it back on Commit,
// so a rolled back or abandoned transaction leaves no trace. The journal
// log is kept outside that snapshot, so entries appended while a
// transaction is open survive its commit.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mintworks/ledger"
	"github.com/mintworks/ledger/journal"
	"github.com/mintworks/ledger/lottery"
	"github.com/mintworks/ledger/staking"
	"github.com/mintworks/ledger/store"
	"github.com/mintworks/ledger/token"
	"github.com/mintworks/ledger/types"
)

type state struct {
	accounts    map[types.Address]*token.Account
	totalSupply types.Amount
	baseReserve types.Amount

	stakes           map[uint64]*staking.Stake
	stakesByOwner    map[types.Address][]uint64
	activeStakeTotal types.Amount
	nextStakeID      uint64

	currentRound uint64
	rounds       map[uint64]*lottery.Round
	tickets      map[uint64][]lottery.TicketEntry
}

func newState() *state {
	return &state{
		accounts:      make(map[types.Address]*token.Account),
		stakes:        make(map[uint64]*staking.Stake),
		stakesByOwner: make(map[types.Address][]uint64),
		nextStakeID:   1,
		rounds:        make(map[uint64]*lottery.Round),
		tickets:       make(map[uint64][]lottery.TicketEntry),
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts:         make(map[types.Address]*token.Account, len(s.accounts)),
		totalSupply:      s.totalSupply,
		baseReserve:      s.baseReserve,
		stakes:           make(map[uint64]*staking.Stake, len(s.stakes)),
		stakesByOwner:    make(map[types.Address][]uint64, len(s.stakesByOwner)),
		activeStakeTotal: s.activeStakeTotal,
		nextStakeID:      s.nextStakeID,
		currentRound:     s.currentRound,
		rounds:           make(map[uint64]*lottery.Round, len(s.rounds)),
		tickets:          make(map[uint64][]lottery.TicketEntry, len(s.tickets)),
	}
	for addr, acct := range s.accounts {
		c.accounts[addr] = acct.Clone()
	}
	for id, st := range s.stakes {
		c.stakes[id] = st.Clone()
	}
	for owner, ids := range s.stakesByOwner {
		c.stakesByOwner[owner] = slices.Clone(ids)
	}
	for id, r := range s.rounds {
		c.rounds[id] = r.Clone()
	}
	for id, entries := range s.tickets {
		c.tickets[id] = slices.Clone(entries)
	}
	return c
}

type Store struct {
	mu     sync.RWMutex
	state  *state
	closed bool

	// The journal is append-only and lives outside the snapshot-swapped
	// state: the flush worker appends concurrently with open transactions,
	// and a later Commit must not discard entries already accepted.
	journal []*journal.Entry
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{state: newState()}
}

// Account Store implementation

func (s *Store) GetAccount(_ context.Context, addr types.Address) (*token.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ledger.ErrStoreClosed
	}
	if acct, ok := s.state.accounts[addr]; ok {
		return acct.Clone(), nil
	}
	return token.NewAccount(addr), nil
}

func (s *Store) TotalSupply(_ context.Context) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.Amount{}, ledger.ErrStoreClosed
	}
	return s.state.totalSupply, nil
}

func (s *Store) BaseReserve(_ context.Context) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.Amount{}, ledger.ErrStoreClosed
	}
	return s.state.baseReserve, nil
}

// Staking Store implementation

func (s *Store) GetStake(_ context.Context, stakeID uint64) (*staking.Stake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ledger.ErrStoreClosed
	}
	if st, ok := s.state.stakes[stakeID]; ok {
		return st.Clone(), nil
	}
	return nil, ledger.ErrStakeNotFound
}

func (s *Store) ListStakeIDs(_ context.Context, owner types.Address) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ledger.ErrStoreClosed
	}
	return slices.Clone(s.state.stakesByOwner[owner]), nil
}

func (s *Store) ActiveStakeTotal(_ context.Context) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.Amount{}, ledger.ErrStoreClosed
	}
	return s.state.activeStakeTotal, nil
}

// Lottery Store implementation

func (s *Store) CurrentRound(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ledger.ErrStoreClosed
	}
	return s.state.currentRound, nil
}

func (s *Store) GetRound(_ context.Context, roundID uint64) (*lottery.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ledger.ErrStoreClosed
	}
	if r, ok := s.state.rounds[roundID]; ok {
		return r.Clone(), nil
	}
	return nil, ledger.ErrNotFound
}

func (s *Store) TicketCount(_ context.Context, roundID uint64, holder types.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ledger.ErrStoreClosed
	}
	for _, e := range s.state.tickets[roundID] {
		if e.Holder == holder {
			return e.Count, nil
		}
	}
	return 0, nil
}

func (s *Store) ListTickets(_ context.Context, roundID uint64) ([]lottery.TicketEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ledger.ErrStoreClosed
	}
	return slices.Clone(s.state.tickets[roundID]), nil
}

// Journal Store implementation

func (s *Store) AppendJournal(_ context.Context, entries []*journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}
	s.journal = append(s.journal, entries...)
	return nil
}

func (s *Store) QueryJournal(_ context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ledger.ErrStoreClosed
	}
	result := make([]*journal.Entry, 0)
	for _, e := range s.journal {
		if opts.Matches(e) {
			result = append(result, e)
			if opts.Limit > 0 && len(result) >= opts.Limit {
				break
			}
		}
	}
	return result, nil
}

// Transaction support

func (s *Store) Begin(_ context.Context) (store.Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ledger.ErrStoreClosed
	}
	return &tx{store: s, state: s.state.clone()}, nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
