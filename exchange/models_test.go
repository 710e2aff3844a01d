package exchange

import (
	"testing"

	"github.com/mintworks/ledger/types"
)

func TestFeeFromPercent(t *testing.T) {
	tests := []struct {
		pct uint64
		bps Fee
		ok  bool
	}{
		{0, 0, true},
		{5, 500, true},
		{100, 10000, true},
		{101, 0, false},
	}

	for _, tt := range tests {
		fee, ok := FeeFromPercent(tt.pct)
		if ok != tt.ok || fee != tt.bps {
			t.Errorf("FeeFromPercent(%d): got (%d, %v), want (%d, %v)", tt.pct, fee, ok, tt.bps, tt.ok)
		}
		if ok && fee.Percent() != tt.pct {
			t.Errorf("Percent round trip for %d: got %d", tt.pct, fee.Percent())
		}
	}
}

func TestQuoteBuy(t *testing.T) {
	tests := []struct {
		name  string
		base  types.Amount
		fee   Fee
		gross types.Amount
		net   types.Amount
	}{
		{"no fee", types.Base(42), 0, types.Base(4200), types.Base(4200)},
		{"five percent", types.Base(42), 500, types.Base(4200), types.Base(3990)},
		{"whole units", types.Units(1), 0, types.Units(100), types.Units(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuoteBuy(tt.base, tt.fee)
			if !q.Gross.Equal(tt.gross) {
				t.Errorf("gross: got %s, want %s", q.Gross.BaseString(), tt.gross.BaseString())
			}
			if !q.Net.Equal(tt.net) {
				t.Errorf("net: got %s, want %s", q.Net.BaseString(), tt.net.BaseString())
			}
			if !q.Fee.Equal(tt.gross.Sub(tt.net)) {
				t.Errorf("fee: got %s", q.Fee.BaseString())
			}
		})
	}
}

func TestQuoteSellFloorsTwice(t *testing.T) {
	// Selling 3990 base units at a 5% exit fee: the fee floors to 199,
	// the conversion floors to 37, and 91 units of dust stay behind.
	q := QuoteSell(types.Base(3990), 500)

	if !q.Fee.Equal(types.Base(199)) {
		t.Errorf("fee: got %s, want 199", q.Fee.BaseString())
	}
	if !q.NetToken.Equal(types.Base(3791)) {
		t.Errorf("net tokens: got %s, want 3791", q.NetToken.BaseString())
	}
	if !q.BaseOut.Equal(types.Base(37)) {
		t.Errorf("base out: got %s, want 37", q.BaseOut.BaseString())
	}
}

func TestQuoteSellNoFee(t *testing.T) {
	q := QuoteSell(types.Base(4200), 0)
	if !q.BaseOut.Equal(types.Base(42)) {
		t.Errorf("base out: got %s, want 42", q.BaseOut.BaseString())
	}
	if !q.Fee.IsZero() {
		t.Errorf("fee: got %s, want 0", q.Fee.BaseString())
	}
}
