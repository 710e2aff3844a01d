package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/mintworks/ledger"
	"github.com/mintworks/ledger/journal"
	"github.com/mintworks/ledger/staking"
	"github.com/mintworks/ledger/token"
	"github.com/mintworks/ledger/types"
)

func TestGetAccountDefaultsToZero(t *testing.T) {
	s := New()
	ctx := context.Background()

	acct, err := s.GetAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !acct.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", acct.Balance)
	}
}

func TestCommitPublishesWrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	acct, _ := tx.Account("alice")
	acct.Balance = types.Units(10)
	if err := tx.PutAccount(acct); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	if err := tx.SetTotalSupply(types.Units(10)); err != nil {
		t.Fatalf("SetTotalSupply: %v", err)
	}

	// Uncommitted writes are invisible to store readers.
	before, _ := s.GetAccount(ctx, "alice")
	if !before.Balance.IsZero() {
		t.Errorf("balance visible before commit: %s", before.Balance)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	after, _ := s.GetAccount(ctx, "alice")
	if !after.Balance.Equal(types.Units(10)) {
		t.Errorf("balance = %s, want 10", after.Balance)
	}
	supply, _ := s.TotalSupply(ctx)
	if !supply.Equal(types.Units(10)) {
		t.Errorf("supply = %s, want 10", supply)
	}
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	acct, _ := tx.Account("alice")
	acct.Balance = types.Units(10)
	tx.PutAccount(acct)
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	after, _ := s.GetAccount(ctx, "alice")
	if !after.Balance.IsZero() {
		t.Errorf("balance = %s after rollback, want 0", after.Balance)
	}

	// A finished transaction rejects further use.
	if err := tx.PutAccount(acct); !errors.Is(err, ledger.ErrTransactionFailed) {
		t.Errorf("PutAccount after rollback: %v, want ErrTransactionFailed", err)
	}
}

func TestStakeIDsAllocateFromOne(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	for want := uint64(1); want <= 3; want++ {
		id, err := tx.NextStakeID()
		if err != nil {
			t.Fatalf("NextStakeID: %v", err)
		}
		if id != want {
			t.Errorf("NextStakeID = %d, want %d", id, want)
		}
		tx.PutStake(&staking.Stake{ID: id, Owner: "alice", Principal: types.Units(1000)})
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ids, err := s.ListStakeIDs(ctx, "alice")
	if err != nil {
		t.Fatalf("ListStakeIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("ListStakeIDs = %v, want [1 2 3]", ids)
	}

	if _, err := s.GetStake(ctx, 99); !errors.Is(err, ledger.ErrStakeNotFound) {
		t.Errorf("GetStake(99): %v, want ErrStakeNotFound", err)
	}
}

func TestTicketsKeepPurchaseOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	tx.AddTickets(0, "bob", 2)
	tx.AddTickets(0, "alice", 1)
	tx.AddTickets(0, "bob", 3)
	tx.Commit()

	entries, err := s.ListTickets(ctx, 0)
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Holder != "bob" || entries[0].Count != 5 {
		t.Errorf("entries[0] = %+v, want bob with 5", entries[0])
	}
	if entries[1].Holder != "alice" || entries[1].Count != 1 {
		t.Errorf("entries[1] = %+v, want alice with 1", entries[1])
	}

	count, _ := s.TicketCount(ctx, 0, "bob")
	if count != 5 {
		t.Errorf("TicketCount = %d, want 5", count)
	}
}

func TestJournalQueryFilters(t *testing.T) {
	s := New()
	ctx := context.Background()

	entries := []*journal.Entry{
		{Kind: journal.KindMint, To: "alice", Amount: types.Units(10)},
		{Kind: journal.KindTransfer, From: "alice", To: "bob", Amount: types.Units(4)},
		{Kind: journal.KindBurn, From: "bob", Amount: types.Units(1)},
	}
	if err := s.AppendJournal(ctx, entries); err != nil {
		t.Fatalf("AppendJournal: %v", err)
	}

	got, err := s.QueryJournal(ctx, journal.QueryOpts{Account: "bob"})
	if err != nil {
		t.Fatalf("QueryJournal: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}

	got, _ = s.QueryJournal(ctx, journal.QueryOpts{Kind: journal.KindMint})
	if len(got) != 1 || got[0].To != "alice" {
		t.Errorf("mint query = %+v", got)
	}

	got, _ = s.QueryJournal(ctx, journal.QueryOpts{Limit: 1})
	if len(got) != 1 {
		t.Errorf("limit query len = %d, want 1", len(got))
	}
}

func TestJournalSurvivesConcurrentCommit(t *testing.T) {
	s := New()
	ctx := context.Background()

	// The flush worker appends while a mutating transaction is open; the
	// later commit must not swap the entry away.
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	entry := &journal.Entry{Kind: journal.KindMint, To: "alice", Amount: types.Units(10)}
	if err := s.AppendJournal(ctx, []*journal.Entry{entry}); err != nil {
		t.Fatalf("AppendJournal: %v", err)
	}
	if err := tx.PutAccount(token.NewAccount("alice")); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := s.QueryJournal(ctx, journal.QueryOpts{Kind: journal.KindMint})
	if err != nil {
		t.Fatalf("QueryJournal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.GetAccount(ctx, "alice"); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("GetAccount: %v, want ErrStoreClosed", err)
	}
	if _, err := s.Begin(ctx); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("Begin: %v, want ErrStoreClosed", err)
	}
}

func TestCloneIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	acct, _ := tx.Account("alice")
	acct.Balance = types.Units(5)
	acct.Authorize("op", nil)
	tx.PutAccount(acct)
	tx.Commit()

	// Mutating a read result must not leak into the store.
	read, _ := s.GetAccount(ctx, "alice")
	read.Authorized["mallory"] = struct{}{}

	fresh, _ := s.GetAccount(ctx, "alice")
	if _, ok := fresh.Authorized["mallory"]; ok {
		t.Error("mutation of a read result leaked into the store")
	}
}
