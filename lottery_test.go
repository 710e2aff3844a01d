package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintworks/ledger"
	"github.com/mintworks/ledger/lottery"
	"github.com/mintworks/ledger/types"
)

const lotteryPool = types.Address("lottery_pool")

func newTestLottery(t *testing.T, l *ledger.Ledger, drawer lottery.Drawer) *ledger.Lottery {
	t.Helper()

	lot, err := ledger.NewLottery(ledger.LotteryConfig{
		Name:     "Points Lottery",
		Symbol:   "lPTS",
		Address:  lotteryPool,
		Owner:    owner,
		Treasury: treasury,
		Drawer:   drawer,
	})
	require.NoError(t, err)
	require.NoError(t, lot.Bind(l))
	return lot
}

func TestLotteryBindOnce(t *testing.T) {
	l := newTestLedger(t, testConfig(), nil)
	lot := newTestLottery(t, l, nil)
	assert.ErrorIs(t, lot.Bind(l), ledger.ErrAlreadySet)
}

func TestLotteryUnbound(t *testing.T) {
	ctx := context.Background()
	lot, err := ledger.NewLottery(ledger.LotteryConfig{
		Name:     "Points Lottery",
		Symbol:   "lPTS",
		Address:  lotteryPool,
		Owner:    owner,
		Treasury: treasury,
	})
	require.NoError(t, err)

	_, err = lot.BuyTicket(ctx, "alice", "alice", ledger.Units(5))
	assert.ErrorIs(t, err, ledger.ErrNotBound)
	_, err = lot.AnnounceWinner(ctx, owner)
	assert.ErrorIs(t, err, ledger.ErrNotBound)
	_, err = lot.TicketPrice(ctx)
	assert.ErrorIs(t, err, ledger.ErrNotBound)
	assert.False(t, lot.Paused())
}

func TestBuyTicket(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	lot := newTestLottery(t, l, nil)

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(100)))

	price, err := lot.TicketPrice(ctx)
	require.NoError(t, err)
	assert.True(t, price.Equal(ledger.Units(5)), "default ticket price")

	count, err := lot.BuyTicket(ctx, "alice", "alice", ledger.Units(15))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	held, err := lot.TicketCount(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), held)

	pot, err := lot.Pot(ctx)
	require.NoError(t, err)
	assert.True(t, pot.Equal(ledger.Units(15)))

	pooled, _ := l.BalanceOf(ctx, lotteryPool)
	assert.True(t, pooled.Equal(ledger.Units(15)))

	t.Run("not a price multiple", func(t *testing.T) {
		_, err := lot.BuyTicket(ctx, "alice", "alice", ledger.Units(7))
		assert.ErrorIs(t, err, ledger.ErrNotTicketMultiple)
	})
	t.Run("zero payment", func(t *testing.T) {
		_, err := lot.BuyTicket(ctx, "alice", "alice", types.Amount{})
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})
	t.Run("insufficient balance", func(t *testing.T) {
		_, err := lot.BuyTicket(ctx, "bob", "bob", ledger.Units(5))
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	})
}

func TestBuyTicketOperator(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	lot := newTestLottery(t, l, nil)

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(100)))

	t.Run("stranger rejected", func(t *testing.T) {
		_, err := lot.BuyTicket(ctx, "mallory", "alice", ledger.Units(5))
		assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	})
	t.Run("authorized operator buys on behalf", func(t *testing.T) {
		require.NoError(t, l.AuthorizeOperator(ctx, "alice", "custodian"))

		count, err := lot.BuyTicket(ctx, "custodian", "alice", ledger.Units(10))
		require.NoError(t, err)
		assert.Equal(t, uint64(2), count)

		held, err := lot.TicketCount(ctx, "custodian", "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), held)

		// The tickets and the spend land on the holder, not the operator.
		balance, _ := l.BalanceOf(ctx, "alice")
		assert.True(t, balance.Equal(ledger.Units(90)))
	})
	t.Run("count gated for strangers", func(t *testing.T) {
		_, err := lot.TicketCount(ctx, "mallory", "alice")
		assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	})
}

func TestSetTicketPrice(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	lot := newTestLottery(t, l, nil)

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(100)))

	assert.ErrorIs(t, lot.SetTicketPrice(ctx, "mallory", ledger.Units(2)), ledger.ErrNotOwner)
	assert.ErrorIs(t, lot.SetTicketPrice(ctx, owner, types.Amount{}), ledger.ErrInvalidAmount)

	require.NoError(t, lot.SetTicketPrice(ctx, owner, ledger.Units(2)))

	price, err := lot.TicketPrice(ctx)
	require.NoError(t, err)
	assert.True(t, price.Equal(ledger.Units(2)))

	count, err := lot.BuyTicket(ctx, "alice", "alice", ledger.Units(6))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	_, err = lot.BuyTicket(ctx, "alice", "alice", ledger.Units(5))
	assert.ErrorIs(t, err, ledger.ErrNotTicketMultiple)
}

func TestAnnounceWinner(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	// Index 0 always falls on the first purchaser.
	lot := newTestLottery(t, l, lottery.DrawerFunc(func(total uint64) uint64 { return 0 }))

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(3000)))
	require.NoError(t, l.Transfer(ctx, treasury, "bob", ledger.Units(3000)))
	require.NoError(t, l.Transfer(ctx, treasury, "carol", ledger.Units(3000)))

	for _, buyer := range []types.Address{"alice", "bob", "carol"} {
		_, err := lot.BuyTicket(ctx, buyer, buyer, ledger.Units(5))
		require.NoError(t, err)
	}

	treasuryBefore, _ := l.BalanceOf(ctx, treasury)

	winner, err := lot.AnnounceWinner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, types.Address("alice"), winner)

	// The 15 unit pot splits evenly; the winner takes any odd base unit.
	alice, _ := l.BalanceOf(ctx, "alice")
	assert.Equal(t, "3002.5", alice.String())
	bob, _ := l.BalanceOf(ctx, "bob")
	assert.Equal(t, "2995", bob.String())
	carol, _ := l.BalanceOf(ctx, "carol")
	assert.Equal(t, "2995", carol.String())

	treasuryAfter, _ := l.BalanceOf(ctx, treasury)
	assert.True(t, treasuryAfter.Sub(treasuryBefore).Equal(ledger.MustParse("7.5")))

	pooled, _ := l.BalanceOf(ctx, lotteryPool)
	assert.True(t, pooled.IsZero(), "pot fully distributed")

	t.Run("round advanced", func(t *testing.T) {
		round, err := lot.CurrentRound(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), round)

		pot, err := lot.Pot(ctx)
		require.NoError(t, err)
		assert.True(t, pot.IsZero())

		held, err := lot.TicketCount(ctx, "alice", "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(0), held)
	})
	t.Run("winner recorded", func(t *testing.T) {
		got, err := lot.Winner(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, types.Address("alice"), got)
	})
	t.Run("open round has no winner", func(t *testing.T) {
		_, err := lot.BuyTicket(ctx, "bob", "bob", ledger.Units(5))
		require.NoError(t, err)

		_, err = lot.Winner(ctx, 1)
		assert.ErrorIs(t, err, ledger.ErrWinnerNotFound)
	})
	t.Run("not owner", func(t *testing.T) {
		_, err := lot.AnnounceWinner(ctx, "mallory")
		assert.ErrorIs(t, err, ledger.ErrNotOwner)
	})
}

func TestAnnounceWinnerWeightedDraw(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	// Index 2 falls past alice's two tickets onto bob's first.
	lot := newTestLottery(t, l, lottery.DrawerFunc(func(total uint64) uint64 { return 2 }))

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(100)))
	require.NoError(t, l.Transfer(ctx, treasury, "bob", ledger.Units(100)))

	_, err := lot.BuyTicket(ctx, "alice", "alice", ledger.Units(10))
	require.NoError(t, err)
	_, err = lot.BuyTicket(ctx, "bob", "bob", ledger.Units(5))
	require.NoError(t, err)

	winner, err := lot.AnnounceWinner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, types.Address("bob"), winner)
}

func TestAnnounceWinnerEmptyRound(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	lot := newTestLottery(t, l, nil)

	_, err := lot.AnnounceWinner(ctx, owner)
	assert.ErrorIs(t, err, ledger.ErrRoundStillOpen)

	// The round stays open until tickets are sold or it is forced over.
	round, err := lot.CurrentRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), round)
}

func TestForceAdvanceRound(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	// Index 0 always falls on the first purchaser.
	lot := newTestLottery(t, l, lottery.DrawerFunc(func(total uint64) uint64 { return 0 }))

	assert.ErrorIs(t, lot.ForceAdvanceRound(ctx, "mallory"), ledger.ErrNotOwner)

	t.Run("empty round advances without transfers", func(t *testing.T) {
		treasuryBefore, _ := l.BalanceOf(ctx, treasury)

		require.NoError(t, lot.ForceAdvanceRound(ctx, owner))

		round, err := lot.CurrentRound(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), round)

		_, err = lot.Winner(ctx, 0)
		assert.ErrorIs(t, err, ledger.ErrWinnerNotFound)

		treasuryAfter, _ := l.BalanceOf(ctx, treasury)
		assert.True(t, treasuryAfter.Equal(treasuryBefore))
	})
	t.Run("round with tickets draws a winner", func(t *testing.T) {
		require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(100)))
		_, err := lot.BuyTicket(ctx, "alice", "alice", ledger.Units(10))
		require.NoError(t, err)

		require.NoError(t, lot.ForceAdvanceRound(ctx, owner))

		round, err := lot.CurrentRound(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), round)

		got, err := lot.Winner(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, types.Address("alice"), got)

		// Half the 10 unit pot comes back to the sole participant.
		balance, _ := l.BalanceOf(ctx, "alice")
		assert.True(t, balance.Equal(ledger.Units(95)))
	})
}

func TestLotteryPause(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, testConfig(), nil)
	lot := newTestLottery(t, l, nil)

	require.NoError(t, l.Transfer(ctx, treasury, "alice", ledger.Units(100)))

	assert.ErrorIs(t, lot.Pause(ctx, "mallory"), ledger.ErrNotOwner)
	require.NoError(t, lot.Pause(ctx, owner))
	assert.True(t, lot.Paused())

	t.Run("sales gated", func(t *testing.T) {
		_, err := lot.BuyTicket(ctx, "alice", "alice", ledger.Units(5))
		assert.ErrorIs(t, err, ledger.ErrPaused)

		_, err = lot.TicketPrice(ctx)
		assert.ErrorIs(t, err, ledger.ErrPaused)

		_, err = lot.TicketCount(ctx, "alice", "alice")
		assert.ErrorIs(t, err, ledger.ErrPaused)
	})
	t.Run("rounds advance while paused", func(t *testing.T) {
		_, err := lot.AnnounceWinner(ctx, owner)
		assert.ErrorIs(t, err, ledger.ErrRoundStillOpen)

		require.NoError(t, lot.ForceAdvanceRound(ctx, owner))

		round, err := lot.CurrentRound(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), round)
	})
	t.Run("double pause", func(t *testing.T) {
		assert.ErrorIs(t, lot.Pause(ctx, owner), ledger.ErrPaused)
	})
	t.Run("unpause restores sales", func(t *testing.T) {
		require.NoError(t, lot.Unpause(ctx, owner))
		assert.ErrorIs(t, lot.Unpause(ctx, owner), ledger.ErrNotPaused)

		_, err := lot.BuyTicket(ctx, "alice", "alice", ledger.Units(5))
		require.NoError(t, err)
	})
}
