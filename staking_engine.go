package ledger

import (
	"context"

	"github.com/mintworks/ledger/journal"
	"github.com/mintworks/ledger/plugin"
	"github.com/mintworks/ledger/staking"
	"github.com/mintworks/ledger/types"
)

// Staking is the time-locked staking engine. It binds to a Ledger and
// locks principals in its own engine account; payouts, penalties, and
// interest all move through the shared store under the ledger's lock.
type Staking struct {
	l *Ledger

	name     string
	symbol   string
	address  types.Address
	owner    types.Address
	treasury types.Address
	rate     uint64
	ceiling  types.Amount
	sizes    []types.Amount
}

// StakingConfig declares the staking engine.
type StakingConfig struct {
	Name   string
	Symbol string

	// Address is the engine account that holds locked principals and the
	// interest budget.
	Address  types.Address
	Owner    types.Address
	Treasury types.Address

	// Rate is the per-period interest in basis points.
	Rate uint64

	// Ceiling caps the total principal that may be locked at once. Zero
	// means unlimited.
	Ceiling types.Amount

	// Sizes is the allowed stake size menu. Empty means the default menu.
	Sizes []types.Amount
}

// Validate checks the configuration.
func (c *StakingConfig) Validate() error {
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
	if c.Rate > 10_000 {
		return &ValidationError{Field: "rate", Message: "must not exceed 10000 basis points"}
	}
	for _, size := range c.Sizes {
		if !size.IsPositive() {
			return &ValidationError{Field: "sizes", Message: "must be positive"}
		}
	}
	if c.Ceiling.IsNegative() {
		return &ValidationError{Field: "ceiling", Message: "must not be negative"}
	}
	return nil
}

// NewStaking creates an unbound staking engine.
func NewStaking(cfg StakingConfig) (*Staking, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sizes := cfg.Sizes
	if len(sizes) == 0 {
		sizes = staking.DefaultSizes()
	}
	return &Staking{
		name:     cfg.Name,
		symbol:   cfg.Symbol,
		address:  cfg.Address,
		owner:    cfg.Owner,
		treasury: cfg.Treasury,
		rate:     cfg.Rate,
		ceiling:  cfg.Ceiling,
		sizes:    sizes,
	}, nil
}

// Bind attaches the engine to a ledger. An engine binds exactly once.
func (s *Staking) Bind(l *Ledger) error {
	if s.l != nil {
		return ErrAlreadySet
	}
	s.l = l
	l.logger.Info("staking engine bound",
		"name", s.name,
		"address", s.address,
		"rate_bps", s.rate,
	)
	return nil
}

func (s *Staking) bound() error {
	if s.l == nil {
		return ErrNotBound
	}
	return nil
}

// Name returns the engine name.
func (s *Staking) Name() string { return s.name }

// Symbol returns the engine symbol.
func (s *Staking) Symbol() string { return s.symbol }

// Address returns the engine account.
func (s *Staking) Address() types.Address { return s.address }

// Rate returns the per-period interest in basis points.
func (s *Staking) Rate() uint64 {
	if s.l == nil {
		return s.rate
	}
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()
	return s.rate
}

// Ceiling returns the cap on total locked principal. Zero means
// unlimited.
func (s *Staking) Ceiling() types.Amount { return s.ceiling }

// Sizes returns the allowed stake sizes.
func (s *Staking) Sizes() []types.Amount {
	out := make([]types.Amount, len(s.sizes))
	copy(out, s.sizes)
	return out
}

// SetRate changes the per-period interest rate for future withdrawals.
func (s *Staking) SetRate(ctx context.Context, caller types.Address, rateBps uint64) error {
	if rateBps > 10_000 {
		return ErrInvalidFee
	}
	if err := s.bound(); err != nil {
		return err
	}
	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	if caller != s.owner {
		return ErrNotOwner
	}
	s.rate = rateBps
	s.l.logger.Info("staking rate changed", "rate_bps", rateBps)
	return nil
}

// TransferOwnership hands the engine owner role to newOwner.
func (s *Staking) TransferOwnership(ctx context.Context, caller, newOwner types.Address) error {
	if newOwner.IsZero() {
		return &ValidationError{Field: "new_owner", Message: "must not be empty"}
	}
	if err := s.bound(); err != nil {
		return err
	}
	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	if caller != s.owner {
		return ErrNotOwner
	}
	s.owner = newOwner
	return nil
}

// Stake locks one of the allowed sizes from onBehalfOf's balance. The
// caller must be an operator for onBehalfOf; the principal moves into the
// engine account until withdrawal.
func (s *Staking) Stake(ctx context.Context, caller, onBehalfOf types.Address, amount types.Amount) (uint64, error) {
	if caller.IsZero() || onBehalfOf.IsZero() {
		return 0, ErrInvalidInput
	}
	if !s.allowedSize(amount) {
		return 0, ErrInvalidStakeSize
	}
	if err := s.bound(); err != nil {
		return 0, err
	}

	l := s.l
	l.mu.Lock()
	defer l.mu.Unlock()

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
	if holder.Balance.LessThan(amount) {
		return 0, ErrInsufficientBalance
	}
	active, err := tx.ActiveStakeTotal()
	if err != nil {
		return 0, err
	}
	newActive := active.Add(amount)
	if s.ceiling.IsPositive() && s.ceiling.LessThan(newActive) {
		return 0, ErrStakeLimitExceeded
	}
	if err := moveTx(tx, onBehalfOf, s.address, amount); err != nil {
		return 0, err
	}
	stakeID, err := tx.NextStakeID()
	if err != nil {
		return 0, err
	}
	st := &staking.Stake{
		ID:        stakeID,
		Owner:     onBehalfOf,
		Principal: amount,
		CreatedAt: l.now(),
	}
	if err := tx.PutStake(st); err != nil {
		return 0, err
	}
	if err := tx.SetActiveStakeTotal(newActive); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	l.record(&journal.Entry{
		Kind:     journal.KindStakeCreated,
		From:     onBehalfOf,
		To:       s.address,
		Operator: caller,
		Amount:   amount,
		StakeID:  stakeID,
	})
	l.plugins.EmitStakeCreated(ctx, plugin.StakeEvent{
		StakeID:   stakeID,
		Owner:     onBehalfOf,
		Principal: amount,
	})
	return stakeID, nil
}

// WithdrawStake pays out one of onBehalfOf's stakes. Before three full
// tiers of holding the principal is split with the treasury by maturity
// tier; at full maturity the holder receives principal plus compound
// interest from the engine account. The caller must be an operator for
// onBehalfOf.
func (s *Staking) WithdrawStake(ctx context.Context, caller, onBehalfOf types.Address, stakeID uint64) (types.Amount, error) {
	if caller.IsZero() || onBehalfOf.IsZero() {
		return types.Amount{}, ErrInvalidInput
	}
	if err := s.bound(); err != nil {
		return types.Amount{}, err
	}

	l := s.l
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return types.Amount{}, err
	}
	defer rollback(tx)

	holder, err := tx.Account(onBehalfOf)
	if err != nil {
		return types.Amount{}, err
	}
	if !holder.OperatorFor(caller, l.defaultOperators) {
		return types.Amount{}, ErrUnauthorized
	}
	ids, err := tx.StakeIDs(onBehalfOf)
	if err != nil {
		return types.Amount{}, err
	}
	if len(ids) == 0 {
		return types.Amount{}, ErrNoStakes
	}
	st, err := tx.Stake(stakeID)
	if err != nil {
		return types.Amount{}, err
	}
	if st.Owner != onBehalfOf {
		return types.Amount{}, ErrStakeNotFound
	}
	if st.Withdrawn() {
		return types.Amount{}, ErrStakeAlreadyWithdrawn
	}

	now := l.now()
	heldDays := st.HeldDays(now)
	tier := staking.Tier(heldDays)

	var payout, penalty, interest types.Amount
	if tier < staking.MatureTier {
		payout, penalty = staking.PenaltySplit(st.Principal, tier)
	} else {
		_, periods := staking.Periods(heldDays)
		total, err := staking.Compound(st.Principal, s.rate, periods)
		if err != nil {
			return types.Amount{}, err
		}
		payout = total
		interest = total.Sub(st.Principal)
	}

	// The engine account must cover the payout; at maturity the interest
	// comes out of its budget on top of the locked principal.
	engine, err := tx.Account(s.address)
	if err != nil {
		return types.Amount{}, err
	}
	if engine.Balance.LessThan(payout.Add(penalty)) {
		return types.Amount{}, ErrReserveExhausted
	}
	if err := moveTx(tx, s.address, st.Owner, payout); err != nil {
		return types.Amount{}, err
	}
	if penalty.IsPositive() {
		if err := moveTx(tx, s.address, s.treasury, penalty); err != nil {
			return types.Amount{}, err
		}
	}

	st.WithdrawnAt = now
	if err := tx.PutStake(st); err != nil {
		return types.Amount{}, err
	}
	active, err := tx.ActiveStakeTotal()
	if err != nil {
		return types.Amount{}, err
	}
	if err := tx.SetActiveStakeTotal(active.Sub(st.Principal)); err != nil {
		return types.Amount{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Amount{}, err
	}

	l.record(&journal.Entry{
		Kind:     journal.KindStakeWithdrawn,
		From:     s.address,
		To:       st.Owner,
		Operator: caller,
		Amount:   payout,
		StakeID:  stakeID,
	})
	if penalty.IsPositive() {
		l.record(&journal.Entry{
			Kind:    journal.KindStakePenalty,
			From:    s.address,
			To:      s.treasury,
			Amount:  penalty,
			StakeID: stakeID,
		})
	}
	l.plugins.EmitStakeWithdrawn(ctx, plugin.WithdrawEvent{
		StakeID:  stakeID,
		Owner:    st.Owner,
		Tier:     tier,
		Payout:   payout,
		Penalty:  penalty,
		Interest: interest,
	})
	return payout, nil
}

// GetStake returns a stake by id. The caller must be an operator for the
// stake's owner.
func (s *Staking) GetStake(ctx context.Context, caller types.Address, stakeID uint64) (*staking.Stake, error) {
	if err := s.bound(); err != nil {
		return nil, err
	}
	st, err := s.l.store.GetStake(ctx, stakeID)
	if err != nil {
		return nil, err
	}
	if err := s.operatorGate(ctx, caller, st.Owner); err != nil {
		return nil, err
	}
	return st, nil
}

// StakeIDs returns all of holder's stake ids in creation order, including
// withdrawn ones. The caller must be an operator for holder.
func (s *Staking) StakeIDs(ctx context.Context, caller, holder types.Address) ([]uint64, error) {
	if err := s.bound(); err != nil {
		return nil, err
	}
	if err := s.operatorGate(ctx, caller, holder); err != nil {
		return nil, err
	}
	return s.l.store.ListStakeIDs(ctx, holder)
}

// StakedBalance returns the total principal holder currently has locked.
// The caller must be an operator for holder.
func (s *Staking) StakedBalance(ctx context.Context, caller, holder types.Address) (types.Amount, error) {
	if err := s.bound(); err != nil {
		return types.Amount{}, err
	}
	if err := s.operatorGate(ctx, caller, holder); err != nil {
		return types.Amount{}, err
	}
	ids, err := s.l.store.ListStakeIDs(ctx, holder)
	if err != nil {
		return types.Amount{}, err
	}
	var total types.Amount
	for _, stakeID := range ids {
		st, err := s.l.store.GetStake(ctx, stakeID)
		if err != nil {
			return types.Amount{}, err
		}
		if !st.Withdrawn() {
			total = total.Add(st.Principal)
		}
	}
	return total, nil
}

func (s *Staking) operatorGate(ctx context.Context, caller, holder types.Address) error {
	acct, err := s.l.store.GetAccount(ctx, holder)
	if err != nil {
		return err
	}
	if !acct.OperatorFor(caller, s.l.defaultOperators) {
		return ErrUnauthorized
	}
	return nil
}

// ActiveStakeTotal returns the principal locked across all holders.
func (s *Staking) ActiveStakeTotal(ctx context.Context) (types.Amount, error) {
	if err := s.bound(); err != nil {
		return types.Amount{}, err
	}
	return s.l.store.ActiveStakeTotal(ctx)
}

func (s *Staking) allowedSize(amount types.Amount) bool {
	for _, size := range s.sizes {
		if amount.Equal(size) {
			return true
		}
	}
	return false
}
