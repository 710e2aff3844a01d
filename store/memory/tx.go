package memory

import (
	"slices"

	"github.com/mintworks/ledger"
	"github.com/mintworks/ledger/lottery"
	"github.com/mintworks/ledger/staking"
	"github.com/mintworks/ledger/store"
	"github.com/mintworks/ledger/token"
	"github.com/mintworks/ledger/types"
)

// tx operates on a private copy of the store state and publishes it on
// Commit. Reads inside the transaction see its own writes.
type tx struct {
	store *Store
	state *state
	done  bool
}

var _ store.Tx = (*tx)(nil)

func (t *tx) guard() error {
	if t.done {
		return ledger.ErrTransactionFailed
	}
	return nil
}

// Account methods

func (t *tx) Account(addr types.Address) (*token.Account, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	if acct, ok := t.state.accounts[addr]; ok {
		return acct.Clone(), nil
	}
	return token.NewAccount(addr), nil
}

func (t *tx) PutAccount(acct *token.Account) error {
	if err := t.guard(); err != nil {
		return err
	}
	t.state.accounts[acct.Address] = acct.Clone()
	return nil
}

func (t *tx) TotalSupply() (types.Amount, error) {
	if err := t.guard(); err != nil {
		return types.Amount{}, err
	}
	return t.state.totalSupply, nil
}

func (t *tx) SetTotalSupply(v types.Amount) error {
	if err := t.guard(); err != nil {
		return err
	}
	t.state.totalSupply = v
	return nil
}

func (t *tx) BaseReserve() (types.Amount, error) {
	if err := t.guard(); err != nil {
		return types.Amount{}, err
	}
	return t.state.baseReserve, nil
}

func (t *tx) SetBaseReserve(v types.Amount) error {
	if err := t.guard(); err != nil {
		return err
	}
	t.state.baseReserve = v
	return nil
}

// Staking methods

func (t *tx) NextStakeID() (uint64, error) {
	if err := t.guard(); err != nil {
		return 0, err
	}
	id := t.state.nextStakeID
	t.state.nextStakeID++
	return id, nil
}

func (t *tx) Stake(stakeID uint64) (*staking.Stake, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	if st, ok := t.state.stakes[stakeID]; ok {
		return st.Clone(), nil
	}
	return nil, ledger.ErrStakeNotFound
}

func (t *tx) PutStake(s *staking.Stake) error {
	if err := t.guard(); err != nil {
		return err
	}
	if _, exists := t.state.stakes[s.ID]; !exists {
		t.state.stakesByOwner[s.Owner] = append(t.state.stakesByOwner[s.Owner], s.ID)
	}
	t.state.stakes[s.ID] = s.Clone()
	return nil
}

func (t *tx) StakeIDs(owner types.Address) ([]uint64, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	return slices.Clone(t.state.stakesByOwner[owner]), nil
}

func (t *tx) ActiveStakeTotal() (types.Amount, error) {
	if err := t.guard(); err != nil {
		return types.Amount{}, err
	}
	return t.state.activeStakeTotal, nil
}

func (t *tx) SetActiveStakeTotal(v types.Amount) error {
	if err := t.guard(); err != nil {
		return err
	}
	t.state.activeStakeTotal = v
	return nil
}

// Lottery methods

func (t *tx) CurrentRound() (uint64, error) {
	if err := t.guard(); err != nil {
		return 0, err
	}
	return t.state.currentRound, nil
}

func (t *tx) SetCurrentRound(roundID uint64) error {
	if err := t.guard(); err != nil {
		return err
	}
	t.state.currentRound = roundID
	return nil
}

func (t *tx) Round(roundID uint64) (*lottery.Round, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	if r, ok := t.state.rounds[roundID]; ok {
		return r.Clone(), nil
	}
	return nil, ledger.ErrNotFound
}

func (t *tx) PutRound(r *lottery.Round) error {
	if err := t.guard(); err != nil {
		return err
	}
	t.state.rounds[r.ID] = r.Clone()
	return nil
}

func (t *tx) AddTickets(roundID uint64, holder types.Address, count uint64) error {
	if err := t.guard(); err != nil {
		return err
	}
	entries := t.state.tickets[roundID]
	for i := range entries {
		if entries[i].Holder == holder {
			entries[i].Count += count
			return nil
		}
	}
	t.state.tickets[roundID] = append(entries, lottery.TicketEntry{Holder: holder, Count: count})
	return nil
}

func (t *tx) Tickets(roundID uint64, holder types.Address) (uint64, error) {
	if err := t.guard(); err != nil {
		return 0, err
	}
	for _, e := range t.state.tickets[roundID] {
		if e.Holder == holder {
			return e.Count, nil
		}
	}
	return 0, nil
}

func (t *tx) TicketEntries(roundID uint64) ([]lottery.TicketEntry, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	return slices.Clone(t.state.tickets[roundID]), nil
}

// Commit / Rollback

func (t *tx) Commit() error {
	if err := t.guard(); err != nil {
		return err
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.store.closed {
		return ledger.ErrStoreClosed
	}
	t.store.state = t.state
	return nil
}

func (t *tx) Rollback() error {
	if err := t.guard(); err != nil {
		return err
	}
	t.done = true
	t.state = nil
	return nil
}
