package lottery

import (
	"testing"

	"github.com/mintworks/ledger/types"
)

func fixedDrawer(idx uint64) Drawer {
	return DrawerFunc(func(total uint64) uint64 { return idx })
}

func TestPickWinner(t *testing.T) {
	entries := []TicketEntry{
		{Holder: "alice", Count: 2},
		{Holder: "bob", Count: 1},
		{Holder: "carol", Count: 3},
	}

	tests := []struct {
		idx  uint64
		want types.Address
	}{
		{0, "alice"},
		{1, "alice"},
		{2, "bob"},
		{3, "carol"},
		{5, "carol"},
		{99, "carol"}, // out of range falls back to the last entry
	}
	for _, tt := range tests {
		got, ok := PickWinner(entries, fixedDrawer(tt.idx))
		if !ok {
			t.Fatalf("PickWinner(idx %d): no winner", tt.idx)
		}
		if got != tt.want {
			t.Errorf("PickWinner(idx %d) = %s, want %s", tt.idx, got, tt.want)
		}
	}
}

func TestPickWinnerEmpty(t *testing.T) {
	if _, ok := PickWinner(nil, fixedDrawer(0)); ok {
		t.Error("PickWinner(nil) returned a winner")
	}
}

func TestRandomDrawerInRange(t *testing.T) {
	d := RandomDrawer()
	for range 100 {
		if got := d.Draw(7); got >= 7 {
			t.Fatalf("Draw(7) = %d, out of range", got)
		}
	}
}

func TestSplitPot(t *testing.T) {
	tests := []struct {
		name         string
		pot          types.Amount
		wantWinner   types.Amount
		wantTreasury types.Amount
	}{
		{"even", types.Units(10), types.Units(5), types.Units(5)},
		{"fifteen units", types.Units(15), types.MustParse("7.5"), types.MustParse("7.5")},
		{"odd base unit", types.Base(15), types.Base(8), types.Base(7)},
		{"zero", types.Amount{}, types.Amount{}, types.Amount{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, treasury := SplitPot(tt.pot)
			if !winner.Equal(tt.wantWinner) || !treasury.Equal(tt.wantTreasury) {
				t.Errorf("SplitPot(%s) = (%s, %s), want (%s, %s)",
					tt.pot.BaseString(), winner.BaseString(), treasury.BaseString(),
					tt.wantWinner.BaseString(), tt.wantTreasury.BaseString())
			}
		})
	}
}

func TestTotalTickets(t *testing.T) {
	entries := []TicketEntry{{Holder: "a", Count: 4}, {Holder: "b", Count: 6}}
	if got := TotalTickets(entries); got != 10 {
		t.Errorf("TotalTickets = %d, want 10", got)
	}
	if got := TotalTickets(nil); got != 0 {
		t.Errorf("TotalTickets(nil) = %d, want 0", got)
	}
}
