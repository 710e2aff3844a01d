package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintworks/ledger"
	"github.com/mintworks/ledger/types"
)

const stakingPool = types.Address("staking_pool")

func newTestStaking(t *testing.T, l *ledger.Ledger, rate uint64, ceiling types.Amount) *ledger.Staking {
	t.Helper()

	stk, err := ledger.NewStaking(ledger.StakingConfig{
		Name:     "Points Staking",
		Symbol:   "sPTS",
		Address:  stakingPool,
		Owner:    owner,
		Treasury: treasury,
		Rate:     rate,
		Ceiling:  ceiling,
	})
	require.NoError(t, err)
	require.NoError(t, stk.Bind(l))
	return stk
}

func TestStakingBindOnce(t *testing.T) {
	l := newTestLedger(t, testConfig(), nil)
	stk := newTestStaking(t, l, 500, types.Amount{})
	assert.ErrorIs(t, stk.Bind(l), ledger.ErrAlreadySet)
}

func TestStakingUnbound(t *testing.T) {
	ctx := context.Background()
	stk, err := ledger.NewStaking(ledger.StakingConfig{
		Name:     "Points Staking",
		Symbol:   "sPTS",
		Address:  stakingPool,
		Owner:    owner,
		Treasury: treasury,
		Rate:     500,
	})
	require.NoError(t, err)

	_, err = stk.Stake(ctx, "alice", "alice", ledger.Units(1000))
	assert.ErrorIs(t, err, ledger.ErrNotBound)
	_, err = stk.WithdrawStake(ctx, "alice", "alice", 1)
	assert.ErrorIs(t, err, ledger.ErrNotBound)
	assert.ErrorIs(t, stk.SetRate(ctx, owner, 200), ledger.ErrNotBound)
	assert.Equal(t, uint64(500), stk.Rate())
}

func TestStake(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	stk := newTestStaking(t, l, 500, types.Amount{})

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(5000)))

	stakeID, err := stk.Stake(ctx, "alice", "alice", ledger.Units(1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stakeID)

	balance, _ := l.BalanceOf(ctx, "alice")
	assert.True(t, balance.Equal(ledger.Units(4000)))

	locked, _ := l.BalanceOf(ctx, stakingPool)
	assert.True(t, locked.Equal(ledger.Units(1000)))

	staked, err := stk.StakedBalance(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.True(t, staked.Equal(ledger.Units(1000)))

	t.Run("size not on the menu", func(t *testing.T) {
		_, err := stk.Stake(ctx, "alice", "alice", ledger.Units(42))
		assert.ErrorIs(t, err, ledger.ErrInvalidStakeSize)
	})
	t.Run("insufficient balance", func(t *testing.T) {
		_, err := stk.Stake(ctx, "alice", "alice", ledger.Units(10000))
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	})
	t.Run("ids are sequential", func(t *testing.T) {
		id2, err := stk.Stake(ctx, "alice", "alice", ledger.Units(3000))
		require.NoError(t, err)
		assert.Equal(t, uint64(2), id2)

		ids, err := stk.StakeIDs(ctx, "alice", "alice")
		require.NoError(t, err)
		assert.Equal(t, []uint64{1, 2}, ids)
	})
	t.Run("stranger may not stake on behalf", func(t *testing.T) {
		_, err := stk.Stake(ctx, "mallory", "alice", ledger.Units(1000))
		assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	})
	t.Run("operator stakes on behalf of the holder", func(t *testing.T) {
		require.NoError(t, l.AuthorizeOperator(ctx, "alice", "custodian"))

		id, err := stk.Stake(ctx, "custodian", "alice", ledger.Units(1000))
		require.NoError(t, err)

		st, err := stk.GetStake(ctx, "custodian", id)
		require.NoError(t, err)
		assert.Equal(t, types.Address("alice"), st.Owner)
	})
	t.Run("queries gated for strangers", func(t *testing.T) {
		_, err := stk.StakedBalance(ctx, "mallory", "alice")
		assert.ErrorIs(t, err, ledger.ErrUnauthorized)

		_, err = stk.StakeIDs(ctx, "mallory", "alice")
		assert.ErrorIs(t, err, ledger.ErrUnauthorized)

		_, err = stk.GetStake(ctx, "mallory", 1)
		assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	})
}

func TestStakeCeiling(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	stk := newTestStaking(t, l, 500, ledger.Units(4000))

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(20000)))

	_, err := stk.Stake(ctx, "alice", "alice", ledger.Units(3000))
	require.NoError(t, err)

	_, err = stk.Stake(ctx, "alice", "alice", ledger.Units(3000))
	assert.ErrorIs(t, err, ledger.ErrStakeLimitExceeded)

	// The ceiling tracks active principal, so a withdrawal frees room.
	_, err = stk.Stake(ctx, "alice", "alice", ledger.Units(1000))
	require.NoError(t, err)

	t.Run("balance checked before ceiling", func(t *testing.T) {
		// bob is both short of funds and over the ceiling; the balance
		// failure wins.
		_, err := stk.Stake(ctx, "bob", "bob", ledger.Units(3000))
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	})
}

func TestWithdrawStakeEarly(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), &now)
	stk := newTestStaking(t, l, 500, types.Amount{})

	tests := []struct {
		name         string
		advance      time.Duration
		wantStaker   types.Amount
		wantTreasury types.Amount
	}{
		{"first tier keeps a quarter", 10 * 24 * time.Hour, ledger.Units(250), ledger.Units(750)},
		{"second tier keeps half", 360 * 24 * time.Hour, ledger.Units(500), ledger.Units(500)},
		{"third tier keeps three quarters", 720 * 24 * time.Hour, ledger.Units(750), ledger.Units(250)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(1000)))

			stakeID, err := stk.Stake(ctx, "alice", "alice", ledger.Units(1000))
			require.NoError(t, err)

			aliceBefore, _ := l.BalanceOf(ctx, "alice")
			treasuryBefore, _ := l.BalanceOf(ctx, treasury)

			now = now.Add(tt.advance)
			payout, err := stk.WithdrawStake(ctx, "alice", "alice", stakeID)
			require.NoError(t, err)
			assert.True(t, payout.Equal(tt.wantStaker), "payout = %s", payout)

			aliceAfter, _ := l.BalanceOf(ctx, "alice")
			assert.True(t, aliceAfter.Sub(aliceBefore).Equal(tt.wantStaker))

			treasuryAfter, _ := l.BalanceOf(ctx, treasury)
			assert.True(t, treasuryAfter.Sub(treasuryBefore).Equal(tt.wantTreasury))
		})
	}
}

func TestWithdrawStakeMature(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), &now)
	stk := newTestStaking(t, l, 500, types.Amount{})

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(1000)))
	// Fund the interest budget.
	require.NoError(t, l.Transfer(ctx, treasury, stakingPool, ledger.Units(10000)))

	stakeID, err := stk.Stake(ctx, "alice", "alice", ledger.Units(1000))
	require.NoError(t, err)

	// 1080 days held: 36 periods at 5% per period, fully mature.
	now = now.Add(1080 * 24 * time.Hour)
	payout, err := stk.WithdrawStake(ctx, "alice", "alice", stakeID)
	require.NoError(t, err)
	assert.Equal(t, "5791816135971860477393", payout.BaseString())

	balance, _ := l.BalanceOf(ctx, "alice")
	assert.Equal(t, "5791816135971860477393", balance.BaseString())

	t.Run("already withdrawn", func(t *testing.T) {
		_, err := stk.WithdrawStake(ctx, "alice", "alice", stakeID)
		assert.ErrorIs(t, err, ledger.ErrStakeAlreadyWithdrawn)
	})
	t.Run("unknown stake", func(t *testing.T) {
		_, err := stk.WithdrawStake(ctx, "alice", "alice", 99)
		assert.ErrorIs(t, err, ledger.ErrStakeNotFound)
	})
}

func TestWithdrawStakeEngineShort(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), &now)
	stk := newTestStaking(t, l, 500, types.Amount{})

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(1000)))
	stakeID, err := stk.Stake(ctx, "alice", "alice", ledger.Units(1000))
	require.NoError(t, err)

	// Mature payout needs interest the engine account does not hold.
	now = now.Add(1080 * 24 * time.Hour)
	_, err = stk.WithdrawStake(ctx, "alice", "alice", stakeID)
	assert.ErrorIs(t, err, ledger.ErrReserveExhausted)
	assert.True(t, ledger.IsRetryable(err))

	// Funding the engine makes the same withdrawal succeed.
	require.NoError(t, l.Transfer(ctx, treasury, stakingPool, ledger.Units(10000)))
	payout, err := stk.WithdrawStake(ctx, "alice", "alice", stakeID)
	require.NoError(t, err)
	assert.Equal(t, "5791816135971860477393", payout.BaseString())
}

func TestWithdrawStakeOperator(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), &now)
	stk := newTestStaking(t, l, 500, types.Amount{})

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(1000)))
	stakeID, err := stk.Stake(ctx, "alice", "alice", ledger.Units(1000))
	require.NoError(t, err)

	t.Run("stranger may not withdraw", func(t *testing.T) {
		_, err := stk.WithdrawStake(ctx, "mallory", "alice", stakeID)
		assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	})
	t.Run("operator may withdraw for the owner", func(t *testing.T) {
		require.NoError(t, l.AuthorizeOperator(ctx, "alice", "custodian"))

		payout, err := stk.WithdrawStake(ctx, "custodian", "alice", stakeID)
		require.NoError(t, err)
		// The payout lands with the stake owner, not the operator.
		balance, _ := l.BalanceOf(ctx, "alice")
		assert.True(t, balance.Equal(payout))
	})
}

func TestWithdrawStakeWrongHolder(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	stk := newTestStaking(t, l, 500, types.Amount{})

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(1000)))
	require.NoError(t, l.Transfer(ctx, treasury, "bob", ledger.Units(1000)))

	aliceID, err := stk.Stake(ctx, "alice", "alice", ledger.Units(1000))
	require.NoError(t, err)
	_, err = stk.Stake(ctx, "bob", "bob", ledger.Units(1000))
	require.NoError(t, err)

	t.Run("holder without stakes", func(t *testing.T) {
		_, err := stk.WithdrawStake(ctx, "carol", "carol", aliceID)
		assert.ErrorIs(t, err, ledger.ErrNoStakes)
	})
	t.Run("stake belongs to someone else", func(t *testing.T) {
		_, err := stk.WithdrawStake(ctx, "bob", "bob", aliceID)
		assert.ErrorIs(t, err, ledger.ErrStakeNotFound)
		assert.True(t, ledger.IsNotFound(err))
	})
}

func TestStakingRate(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	stk := newTestStaking(t, l, 500, types.Amount{})

	assert.ErrorIs(t, stk.SetRate(ctx, "mallory", 200), ledger.ErrNotOwner)
	assert.ErrorIs(t, stk.SetRate(ctx, owner, 10_001), ledger.ErrInvalidFee)

	require.NoError(t, stk.SetRate(ctx, owner, 200))
	assert.Equal(t, uint64(200), stk.Rate())
}
