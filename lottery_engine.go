package ledger

import (
	"context"
	"math/big"

	"github.com/mintworks/ledger/journal"
	"github.com/mintworks/ledger/lottery"
	"github.com/mintworks/ledger/plugin"
	"github.com/mintworks/ledger/store"
	"github.com/mintworks/ledger/types"
)

// Lottery is the periodic lottery engine. Ticket payments pool in the
// engine account; closing a round pays half the pot to the drawn winner
// and half to the treasury, then opens the next round.
type Lottery struct {
	l *Ledger

	name        string
	symbol      string
	address     types.Address
	owner       types.Address
	treasury    types.Address
	ticketPrice types.Amount
	drawer      lottery.Drawer

	// paused gates ticket sales only; rounds advance regardless.
	paused bool
}

// LotteryConfig declares the lottery engine.
type LotteryConfig struct {
	Name   string
	Symbol string

	// Address is the engine account that pools ticket payments.
	Address  types.Address
	Owner    types.Address
	Treasury types.Address

	// TicketPrice is the cost of one ticket. Zero means the default.
	TicketPrice types.Amount

	// Drawer picks winning tickets. Nil means a uniform random draw.
	Drawer lottery.Drawer
}

// Validate checks the configuration.
func (c *LotteryConfig) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if c.Address.IsZero() {
		return &ValidationError{Field: "address", Message: "must not be empty"}
	}
	if c.Owner.IsZero() {
		return &ValidationError{Field: "owner", Message: "must not be empty"}
	}
	if c.Treasury.IsZero() {
		return &ValidationError{Field: "treasury", Message: "must not be empty"}
	}
	if c.TicketPrice.IsNegative() {
		return &ValidationError{Field: "ticket_price", Message: "must not be negative"}
	}
	return nil
}

// NewLottery creates an unbound lottery engine.
func NewLottery(cfg LotteryConfig) (*Lottery, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	price := cfg.TicketPrice
	if price.IsZero() {
		price = lottery.DefaultTicketPrice()
	}
	drawer := cfg.Drawer
	if drawer == nil {
		drawer = lottery.RandomDrawer()
	}
	return &Lottery{
		name:        cfg.Name,
		symbol:      cfg.Symbol,
		address:     cfg.Address,
		owner:       cfg.Owner,
		treasury:    cfg.Treasury,
		ticketPrice: price,
		drawer:      drawer,
	}, nil
}

// Bind attaches the engine to a ledger. An engine binds exactly once.
func (lo *Lottery) Bind(l *Ledger) error {
	if lo.l != nil {
		return ErrAlreadySet
	}
	lo.l = l
	l.logger.Info("lottery engine bound",
		"name", lo.name,
		"address", lo.address,
		"ticket_price", lo.ticketPrice,
	)
	return nil
}

func (lo *Lottery) bound() error {
	if lo.l == nil {
		return ErrNotBound
	}
	return nil
}

// Name returns the engine name.
func (lo *Lottery) Name() string { return lo.name }

// Symbol returns the engine symbol.
func (lo *Lottery) Symbol() string { return lo.symbol }

// Address returns the engine account.
func (lo *Lottery) Address() types.Address { return lo.address }

// TicketPrice returns the cost of one ticket. Sales must be open.
func (lo *Lottery) TicketPrice(ctx context.Context) (types.Amount, error) {
	if err := lo.bound(); err != nil {
		return types.Amount{}, err
	}
	lo.l.mu.RLock()
	defer lo.l.mu.RUnlock()

	if lo.paused {
		return types.Amount{}, ErrPaused
	}
	return lo.ticketPrice, nil
}

// SetTicketPrice changes the cost of one ticket. Only the owner may
// set the price; tickets already sold in the open round keep their
// original weight.
func (lo *Lottery) SetTicketPrice(ctx context.Context, caller types.Address, price types.Amount) error {
	if err := lo.bound(); err != nil {
		return err
	}
	lo.l.mu.Lock()
	defer lo.l.mu.Unlock()

	if caller != lo.owner {
		return ErrNotOwner
	}
	if !price.IsPositive() {
		return ErrInvalidAmount
	}
	lo.ticketPrice = price
	lo.l.logger.Info("lottery ticket price updated", "price", price)
	return nil
}

// Paused reports whether ticket sales are paused.
func (lo *Lottery) Paused() bool {
	if lo.l == nil {
		return lo.paused
	}
	lo.l.mu.RLock()
	defer lo.l.mu.RUnlock()
	return lo.paused
}

// Pause stops ticket sales. Only the owner may pause.
func (lo *Lottery) Pause(ctx context.Context, caller types.Address) error {
	if err := lo.bound(); err != nil {
		return err
	}
	lo.l.mu.Lock()
	defer lo.l.mu.Unlock()

	if caller != lo.owner {
		return ErrNotOwner
	}
	if lo.paused {
		return ErrPaused
	}
	lo.paused = true
	lo.l.plugins.EmitLotteryPaused(ctx)
	lo.l.logger.Info("lottery paused")
	return nil
}

// Unpause resumes ticket sales. Only the owner may unpause.
func (lo *Lottery) Unpause(ctx context.Context, caller types.Address) error {
	if err := lo.bound(); err != nil {
		return err
	}
	lo.l.mu.Lock()
	defer lo.l.mu.Unlock()

	if caller != lo.owner {
		return ErrNotOwner
	}
	if !lo.paused {
		return ErrNotPaused
	}
	lo.paused = false
	lo.l.plugins.EmitLotteryUnpaused(ctx)
	lo.l.logger.Info("lottery unpaused")
	return nil
}

// TransferOwnership hands the engine owner role to newOwner.
func (lo *Lottery) TransferOwnership(ctx context.Context, caller, newOwner types.Address) error {
	if newOwner.IsZero() {
		return &ValidationError{Field: "new_owner", Message: "must not be empty"}
	}
	if err := lo.bound(); err != nil {
		return err
	}
	lo.l.mu.Lock()
	defer lo.l.mu.Unlock()

	if caller != lo.owner {
		return ErrNotOwner
	}
	lo.owner = newOwner
	return nil
}

// BuyTicket exchanges tokens from onBehalfOf's balance for tickets in the
// open round. The caller must be an operator for onBehalfOf and the
// payment must be an exact multiple of the ticket price; it joins the
// round's pot. Returns the number of tickets bought.
func (lo *Lottery) BuyTicket(ctx context.Context, caller, onBehalfOf types.Address, payment types.Amount) (uint64, error) {
	if caller.IsZero() || onBehalfOf.IsZero() {
		return 0, ErrInvalidInput
	}
	if !payment.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if err := lo.bound(); err != nil {
		return 0, err
	}

	l := lo.l
	l.mu.Lock()
	defer l.mu.Unlock()

	if lo.paused {
		return 0, ErrPaused
	}
	count, ok := lo.ticketCountFor(payment)
	if !ok {
		return 0, ErrNotTicketMultiple
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer rollback(tx)

	holder, err := tx.Account(onBehalfOf)
	if err != nil {
		return 0, err
	}
	if !holder.OperatorFor(caller, l.defaultOperators) {
		return 0, ErrUnauthorized
	}
	if err := moveTx(tx, onBehalfOf, lo.address, payment); err != nil {
		return 0, err
	}
	roundID, err := tx.CurrentRound()
	if err != nil {
		return 0, err
	}
	round, err := loadOrOpenRound(tx, roundID)
	if err != nil {
		return 0, err
	}
	round.Pot = round.Pot.Add(payment)
	if err := tx.PutRound(round); err != nil {
		return 0, err
	}
	if err := tx.AddTickets(roundID, onBehalfOf, count); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	l.record(&journal.Entry{
		Kind:     journal.KindTicketPurchase,
		From:     onBehalfOf,
		To:       lo.address,
		Operator: caller,
		Amount:   payment,
		RoundID:  roundID,
	})
	l.plugins.EmitTicketPurchased(ctx, plugin.TicketEvent{
		RoundID: roundID,
		Holder:  onBehalfOf,
		Count:   count,
		Paid:    payment,
	})
	return count, nil
}

// AnnounceWinner draws the open round, pays the winner and the treasury,
// and opens the next round. A round with no tickets sold fails
// ErrRoundStillOpen and stays open; use ForceAdvanceRound to skip it.
// Only the owner may draw.
func (lo *Lottery) AnnounceWinner(ctx context.Context, caller types.Address) (types.Address, error) {
	if err := lo.bound(); err != nil {
		return "", err
	}
	l := lo.l
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != lo.owner {
		return "", ErrNotOwner
	}
	return lo.closeRound(ctx, false)
}

// ForceAdvanceRound closes the open round even when no tickets were sold.
// With participants it draws and pays exactly like AnnounceWinner; an
// empty round closes with no winner and no transfers. Only the owner may
// force an advance.
func (lo *Lottery) ForceAdvanceRound(ctx context.Context, caller types.Address) error {
	if err := lo.bound(); err != nil {
		return err
	}
	l := lo.l
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != lo.owner {
		return ErrNotOwner
	}
	_, err := lo.closeRound(ctx, true)
	return err
}

// closeRound draws the open round if it has tickets, distributes the pot,
// and advances to the next round. Caller holds the ledger lock.
func (lo *Lottery) closeRound(ctx context.Context, force bool) (types.Address, error) {
	l := lo.l

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer rollback(tx)

	roundID, err := tx.CurrentRound()
	if err != nil {
		return "", err
	}
	round, err := loadOrOpenRound(tx, roundID)
	if err != nil {
		return "", err
	}
	entries, err := tx.TicketEntries(roundID)
	if err != nil {
		return "", err
	}

	winner, drawn := lottery.PickWinner(entries, lo.drawer)
	if !drawn && !force {
		return "", ErrRoundStillOpen
	}

	var payout, cut types.Amount
	if drawn {
		payout, cut = lottery.SplitPot(round.Pot)
		if err := moveTx(tx, lo.address, winner, payout); err != nil {
			return "", err
		}
		if cut.IsPositive() {
			if err := moveTx(tx, lo.address, lo.treasury, cut); err != nil {
				return "", err
			}
		}
	}

	round.Winner = winner
	round.ClosedAt = l.now()
	if err := tx.PutRound(round); err != nil {
		return "", err
	}
	if err := tx.SetCurrentRound(roundID + 1); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	if drawn {
		l.record(&journal.Entry{
			Kind:    journal.KindLotteryPayout,
			From:    lo.address,
			To:      winner,
			Amount:  payout,
			RoundID: roundID,
		})
		if cut.IsPositive() {
			l.record(&journal.Entry{
				Kind:    journal.KindLotteryTreasuryCut,
				From:    lo.address,
				To:      lo.treasury,
				Amount:  cut,
				RoundID: roundID,
			})
		}
	}
	l.plugins.EmitRoundClosed(ctx, plugin.RoundEvent{
		RoundID:     roundID,
		Winner:      winner,
		Pot:         round.Pot,
		Payout:      payout,
		TreasuryCut: cut,
	})
	l.logger.Info("lottery round closed",
		"round", roundID,
		"winner", winner,
		"pot", round.Pot,
	)
	return winner, nil
}

// CurrentRound returns the id of the open round.
func (lo *Lottery) CurrentRound(ctx context.Context) (uint64, error) {
	if err := lo.bound(); err != nil {
		return 0, err
	}
	return lo.l.store.CurrentRound(ctx)
}

// Pot returns the open round's pot.
func (lo *Lottery) Pot(ctx context.Context) (types.Amount, error) {
	if err := lo.bound(); err != nil {
		return types.Amount{}, err
	}
	roundID, err := lo.l.store.CurrentRound(ctx)
	if err != nil {
		return types.Amount{}, err
	}
	round, err := lo.l.store.GetRound(ctx, roundID)
	if IsNotFound(err) {
		return types.Amount{}, nil
	}
	if err != nil {
		return types.Amount{}, err
	}
	return round.Pot, nil
}

// TicketCount returns how many tickets holder owns in the open round.
// The caller must be holder or one of holder's operators, and sales
// must be open.
func (lo *Lottery) TicketCount(ctx context.Context, caller, holder types.Address) (uint64, error) {
	if err := lo.bound(); err != nil {
		return 0, err
	}
	lo.l.mu.RLock()
	paused := lo.paused
	lo.l.mu.RUnlock()
	if paused {
		return 0, ErrPaused
	}

	acct, err := lo.l.store.GetAccount(ctx, holder)
	if err != nil {
		return 0, err
	}
	if !acct.OperatorFor(caller, lo.l.defaultOperators) {
		return 0, ErrUnauthorized
	}

	roundID, err := lo.l.store.CurrentRound(ctx)
	if err != nil {
		return 0, err
	}
	return lo.l.store.TicketCount(ctx, roundID, holder)
}

// Winner returns the winner of a closed round.
func (lo *Lottery) Winner(ctx context.Context, roundID uint64) (types.Address, error) {
	if err := lo.bound(); err != nil {
		return "", err
	}
	round, err := lo.l.store.GetRound(ctx, roundID)
	if err != nil {
		return "", err
	}
	if !round.Closed() || round.Winner.IsZero() {
		return "", ErrWinnerNotFound
	}
	return round.Winner, nil
}

// GetRound returns a round by id.
func (lo *Lottery) GetRound(ctx context.Context, roundID uint64) (*lottery.Round, error) {
	if err := lo.bound(); err != nil {
		return nil, err
	}
	return lo.l.store.GetRound(ctx, roundID)
}

// ticketCountFor converts a payment into whole tickets, rejecting
// payments that are not exact multiples of the price.
func (lo *Lottery) ticketCountFor(payment types.Amount) (uint64, bool) {
	q, r := new(big.Int).QuoRem(payment.BigInt(), lo.ticketPrice.BigInt(), new(big.Int))
	if r.Sign() != 0 || !q.IsUint64() {
		return 0, false
	}
	return q.Uint64(), true
}

// loadOrOpenRound returns the round row, creating an open one on first
// touch.
func loadOrOpenRound(tx store.Tx, roundID uint64) (*lottery.Round, error) {
	round, err := tx.Round(roundID)
	if IsNotFound(err) {
		return &lottery.Round{ID: roundID}, nil
	}
	if err != nil {
		return nil, err
	}
	return round, nil
}
