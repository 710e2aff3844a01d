package sqlite

import (
	"context"
	"database/sql"
	"errors"

	ledger "github.com/mintworks/ledger"
	"github.com/mintworks/ledger/lottery"
	"github.com/mintworks/ledger/staking"
	ledgerstore "github.com/mintworks/ledger/store"
	"github.com/mintworks/ledger/token"
	"github.com/mintworks/ledger/types"
)

// tx wraps a sql.Tx together with the context it was opened under.
type tx struct {
	ctx context.Context
	tx  *sql.Tx
}

var _ ledgerstore.Tx = (*tx)(nil)

// Account methods

func (t *tx) Account(addr types.Address) (*token.Account, error) {
	return getAccount(t.ctx, t.tx, addr)
}

func (t *tx) PutAccount(acct *token.Account) error {
	return putAccount(t.ctx, t.tx, acct)
}

func (t *tx) TotalSupply() (types.Amount, error) {
	return getGlobalAmount(t.ctx, t.tx, keyTotalSupply)
}

func (t *tx) SetTotalSupply(v types.Amount) error {
	return setGlobal(t.ctx, t.tx, keyTotalSupply, v)
}

func (t *tx) BaseReserve() (types.Amount, error) {
	return getGlobalAmount(t.ctx, t.tx, keyBaseReserve)
}

func (t *tx) SetBaseReserve(v types.Amount) error {
	return setGlobal(t.ctx, t.tx, keyBaseReserve, v)
}

// Staking methods

func (t *tx) NextStakeID() (uint64, error) {
	next, err := getGlobalUint(t.ctx, t.tx, keyNextStakeID)
	if err != nil {
		return 0, err
	}
	if next == 0 {
		next = 1
	}
	if err := setGlobal(t.ctx, t.tx, keyNextStakeID, next+1); err != nil {
		return 0, err
	}
	return next, nil
}

func (t *tx) Stake(stakeID uint64) (*staking.Stake, error) {
	return getStake(t.ctx, t.tx, stakeID)
}

func (t *tx) PutStake(s *staking.Stake) error {
	return putStake(t.ctx, t.tx, s)
}

func (t *tx) StakeIDs(owner types.Address) ([]uint64, error) {
	return listStakeIDs(t.ctx, t.tx, owner)
}

func (t *tx) ActiveStakeTotal() (types.Amount, error) {
	return getGlobalAmount(t.ctx, t.tx, keyActiveStakeTotal)
}

func (t *tx) SetActiveStakeTotal(v types.Amount) error {
	return setGlobal(t.ctx, t.tx, keyActiveStakeTotal, v)
}

// Lottery methods

func (t *tx) CurrentRound() (uint64, error) {
	return getGlobalUint(t.ctx, t.tx, keyCurrentRound)
}

func (t *tx) SetCurrentRound(roundID uint64) error {
	return setGlobal(t.ctx, t.tx, keyCurrentRound, roundID)
}

func (t *tx) Round(roundID uint64) (*lottery.Round, error) {
	return getRound(t.ctx, t.tx, roundID)
}

func (t *tx) PutRound(r *lottery.Round) error {
	return putRound(t.ctx, t.tx, r)
}

func (t *tx) AddTickets(roundID uint64, holder types.Address, count uint64) error {
	return addTickets(t.ctx, t.tx, roundID, holder, count)
}

func (t *tx) Tickets(roundID uint64, holder types.Address) (uint64, error) {
	return getTickets(t.ctx, t.tx, roundID, holder)
}

func (t *tx) TicketEntries(roundID uint64) ([]lottery.TicketEntry, error) {
	return listTickets(t.ctx, t.tx, roundID)
}

// Commit / Rollback

func (t *tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return errors.Join(ledger.ErrTransactionFailed, err)
	}
	return nil
}

func (t *tx) Rollback() error {
	return t.tx.Rollback()
}
