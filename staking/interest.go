package staking

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/mintworks/ledger/types"
)

// The compounding math runs in signed 64.64 binary fixed point, mirroring
// the ABDK representation: one token unit is 2^64, products are taken at
// 127 fractional bits and renormalized. Floor rounding happens at each
// multiply, so the result of n periods differs from an exact rational
// power by a handful of base units. Payouts must reproduce these exact
// floored figures, which is why the exponentiation below tracks the shift
// bookkeeping instead of using a plain square-and-multiply over big.Int.

const rateDenominator = 10_000

var (
	fixedOne  = new(uint256.Int).Lsh(uint256.NewInt(1), 64)  // 1.0 in 64.64
	fixedHalf = new(uint256.Int).Lsh(uint256.NewInt(1), 128) // squaring bound
)

// Periods reports the compounding period length in days and how many
// whole periods fit in heldDays. Remainder days are dropped.
func Periods(heldDays uint64) (periodDays, count uint64) {
	return PeriodDays, heldDays / PeriodDays
}

// Compound grows principal by rateBps basis points per period, compounded
// over the given number of periods, flooring at 64.64 precision. It
// returns the total payout including the principal.
func Compound(principal types.Amount, rateBps uint64, periods uint64) (types.Amount, error) {
	if !principal.IsPositive() {
		return types.Amount{}, nil
	}
	p, overflow := uint256.FromBig(principal.BigInt())
	if overflow {
		return types.Amount{}, fmt.Errorf("principal out of range: %s", principal.BaseString())
	}

	// ratio = 1 + rate/10000 in 64.64, floored.
	ratio := new(uint256.Int).Lsh(uint256.NewInt(rateBps), 64)
	ratio.Div(ratio, uint256.NewInt(rateDenominator))
	ratio.Add(ratio, fixedOne)

	growth, err := powFixed(ratio, periods)
	if err != nil {
		return types.Amount{}, err
	}

	// payout = principal * growth, dropping the fractional bits.
	out := new(uint256.Int).Mul(p, growth)
	out.Rsh(out, 64)
	return types.FromBig(out.ToBig()), nil
}

// Interest returns the compound interest earned on top of the principal.
func Interest(principal types.Amount, rateBps uint64, periods uint64) (types.Amount, error) {
	total, err := Compound(principal, rateBps, periods)
	if err != nil {
		return types.Amount{}, err
	}
	return total.Sub(principal), nil
}

// powFixed raises a positive 64.64 value to an integer power, returning a
// 64.64 result. Rounding matches the reference fixed-point library bit for
// bit: intermediates carry 127 fractional bits and every renormalization
// floors.
func powFixed(x *uint256.Int, n uint64) (*uint256.Int, error) {
	absX := x.Clone()
	absResult := new(uint256.Int).Lsh(uint256.NewInt(1), 128)

	if absX.Cmp(fixedOne) <= 0 {
		// x <= 1: no overflow possible, plain square-and-multiply at
		// 127 fractional bits.
		absX.Lsh(absX, 63)
		for n != 0 {
			if n&1 != 0 {
				absResult.Mul(absResult, absX)
				absResult.Rsh(absResult, 127)
			}
			absX.Mul(absX, absX)
			absX.Rsh(absX, 127)
			n >>= 1
		}
		return absResult.Rsh(absResult, 64), nil
	}

	// x > 1: normalize absX into [2^127, 2^128) and track the shift so
	// intermediates stay in range.
	up := uint(128 - absX.BitLen())
	absX.Lsh(absX, up)
	absXShift := 63 - up
	resultShift := uint(0)

	for n != 0 {
		if absXShift >= 64 {
			return nil, fmt.Errorf("growth factor overflows 64.64 range")
		}
		if n&1 != 0 {
			absResult.Mul(absResult, absX)
			absResult.Rsh(absResult, 127)
			resultShift += absXShift
			if absResult.Cmp(fixedHalf) > 0 {
				absResult.Rsh(absResult, 1)
				resultShift++
			}
		}
		absX.Mul(absX, absX)
		absX.Rsh(absX, 127)
		absXShift <<= 1
		if absX.Cmp(fixedHalf) >= 0 {
			absX.Rsh(absX, 1)
			absXShift++
		}
		n >>= 1
	}

	if resultShift >= 64 {
		return nil, fmt.Errorf("compound growth overflows 64.64 range")
	}
	return absResult.Rsh(absResult, 64-resultShift), nil
}
