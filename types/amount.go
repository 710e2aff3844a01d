// Package types provides common types used across the engine.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the number of fractional digits carried by every Amount.
// One whole token is 10^18 base units.
const Decimals = 18

var unitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// Amount represents a token or base-asset quantity in 18-decimal fixed
// point. The underlying representation is an arbitrary-precision integer
// counting base units, so arithmetic never overflows and never touches
// floating point. Division floors.
//
// The zero value is a valid zero Amount. All methods are non-mutating and
// return fresh values.
type Amount struct {
	v *big.Int
}

// Units creates an Amount of n whole tokens (n × 10^18 base units).
func Units(n int64) Amount {
	return Amount{v: new(big.Int).Mul(big.NewInt(n), unitScale)}
}

// Base creates an Amount of n base units.
func Base(n int64) Amount {
	return Amount{v: big.NewInt(n)}
}

// FromBig creates an Amount from a base-unit big integer. The value is
// copied.
func FromBig(v *big.Int) Amount {
	if v == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(v)}
}

// Parse parses a decimal string of whole tokens with up to 18 fractional
// digits, e.g. "1000" or "5791.816135971860477393".
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("types: parse amount: empty string")
	}

	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return Amount{}, fmt.Errorf("types: parse amount %q: more than %d fractional digits", s, Decimals)
	}
	// Right-pad the fraction to 18 digits so the concatenation is base units.
	frac += strings.Repeat("0", Decimals-len(frac))

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return Amount{}, fmt.Errorf("types: parse amount %q: not a decimal number", s)
	}
	if neg {
		v.Neg(v)
	}
	return Amount{v: v}, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded values.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// big returns the underlying integer, treating a nil pointer as zero.
func (a Amount) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// BigInt returns a copy of the base-unit value.
func (a Amount) BigInt() *big.Int {
	return new(big.Int).Set(a.big())
}

// Arithmetic operations

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.big(), b.big())}
}

// Sub returns a - b. The result may be negative; callers are expected to
// have validated with Cmp before mutating any balance.
func (a Amount) Sub(b Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.big(), b.big())}
}

// Mul returns a × n.
func (a Amount) Mul(n int64) Amount {
	return Amount{v: new(big.Int).Mul(a.big(), big.NewInt(n))}
}

// Div returns a / n with flooring. Panics on division by zero.
func (a Amount) Div(n int64) Amount {
	if n == 0 {
		panic("types: amount division by zero")
	}
	return Amount{v: new(big.Int).Quo(a.big(), big.NewInt(n))}
}

// MulDiv returns a × num / den with flooring. This is the basis-point fee
// primitive: amount.MulDiv(bps, 10000).
func (a Amount) MulDiv(num, den int64) Amount {
	if den == 0 {
		panic("types: amount division by zero")
	}
	v := new(big.Int).Mul(a.big(), big.NewInt(num))
	return Amount{v: v.Quo(v, big.NewInt(den))}
}

// Comparison methods

// Cmp compares a and b: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int { return a.big().Cmp(b.big()) }

// Equal reports whether a and b represent the same quantity.
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.big().Sign() == 0 }

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.big().Sign() > 0 }

// IsNegative reports whether the amount is less than zero.
func (a Amount) IsNegative() bool { return a.big().Sign() < 0 }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

// Formatting methods

// String returns the whole-token decimal representation with trailing
// fractional zeros trimmed, e.g. "1000", "37.905".
func (a Amount) String() string {
	v := a.big()
	neg := v.Sign() < 0

	abs := new(big.Int).Abs(v)
	whole, frac := new(big.Int).QuoRem(abs, unitScale, new(big.Int))

	s := whole.String()
	if frac.Sign() != 0 {
		f := fmt.Sprintf("%0*s", Decimals, frac.String())
		f = strings.TrimRight(f, "0")
		s += "." + f
	}
	if neg {
		s = "-" + s
	}
	return s
}

// BaseString returns the base-unit integer as a decimal string.
func (a Amount) BaseString() string { return a.big().String() }

// Float64 returns the whole-token value as a float64. Precision is lost
// above 2^53 base units; use it for metrics and display only.
func (a Amount) Float64() float64 {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(a.big()),
		new(big.Float).SetInt(unitScale),
	).Float64()
	return f
}

// MarshalJSON implements json.Marshaler. Amounts serialize as base-unit
// decimal strings to survive any JSON number precision limit.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.BaseString())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return a.scanString(s)
}

// Value implements driver.Valuer for database storage.
func (a Amount) Value() (driver.Value, error) {
	return a.BaseString(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.scanString(v)
	case []byte:
		return a.scanString(string(v))
	case int64:
		*a = Base(v)
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Amount", src)
	}
}

func (a *Amount) scanString(s string) error {
	if s == "" {
		*a = Amount{}
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("types: invalid amount %q", s)
	}
	*a = Amount{v: v}
	return nil
}

// Sum calculates the sum of multiple Amounts.
func Sum(values ...Amount) Amount {
	total := new(big.Int)
	for _, v := range values {
		total.Add(total, v.big())
	}
	return Amount{v: total}
}
