// Package exchange holds the fixed-curve pricing and fee math for the
// base-asset/token exchange.
package exchange

import (
	"github.com/mintworks/ledger/types"
)

// PriceMultiplier is the fixed exchange rate: tokens received per base
// unit spent. The curve is flat.
const PriceMultiplier = 100

// bps per whole percent.
const bpsPerPercent = 100

// feeDenominator converts basis points to a fraction.
const feeDenominator = 10_000

// Fee is an exchange fee expressed in basis points. Fees are configured in
// whole percent (0-100) and stored as bps.
type Fee uint64

// FeeFromPercent converts a whole-percent fee to basis points.
// The ok result is false when pct is out of the 0-100 range.
func FeeFromPercent(pct uint64) (Fee, bool) {
	if pct > 100 {
		return 0, false
	}
	return Fee(pct * bpsPerPercent), true
}

// Percent reports the fee in whole percent.
func (f Fee) Percent() uint64 { return uint64(f) / bpsPerPercent }

// Apply returns the fee charged on amount, flooring.
func (f Fee) Apply(amount types.Amount) types.Amount {
	return amount.MulDiv(int64(f), feeDenominator)
}

// BuyQuote is the result of pricing a purchase.
type BuyQuote struct {
	Gross types.Amount // tokens at the curve price, before fees
	Fee   types.Amount // entry fee retained by the treasury
	Net   types.Amount // tokens credited to the buyer
}

// QuoteBuy prices a purchase of tokens for baseAmount of the base asset.
// The gross tokens are baseAmount at the curve rate; the entry fee is
// carved out of the gross and stays with the treasury.
func QuoteBuy(baseAmount types.Amount, entryFee Fee) BuyQuote {
	gross := baseAmount.Mul(PriceMultiplier)
	fee := entryFee.Apply(gross)
	return BuyQuote{Gross: gross, Fee: fee, Net: gross.Sub(fee)}
}

// SellQuote is the result of pricing a sale.
type SellQuote struct {
	Fee      types.Amount // exit fee in tokens, flooring
	NetToken types.Amount // tokens converted after the fee
	BaseOut  types.Amount // base asset owed to the seller, flooring
}

// QuoteSell prices a sale of tokenAmount back into the base asset. Both
// the fee and the base conversion floor, so up to a curve-unit of dust per
// sale remains in the reserve.
func QuoteSell(tokenAmount types.Amount, exitFee Fee) SellQuote {
	fee := exitFee.Apply(tokenAmount)
	net := tokenAmount.Sub(fee)
	return SellQuote{Fee: fee, NetToken: net, BaseOut: net.Div(PriceMultiplier)}
}
