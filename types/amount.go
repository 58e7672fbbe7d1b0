// Package types provides common types used across subledger.
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Unit labels the denomination an Amount is expressed in.
type Unit string

const (
	// UnitToken denominates amounts of the fungible service token.
	UnitToken Unit = "tok"
	// UnitUSD denominates oracle-derived US dollar values.
	UnitUSD Unit = "usd"
)

// Decimals is the fixed-point scale shared by every Amount: 18 decimal
// places, matching the wei-style precision of the service token.
const Decimals = 18

// scale is 10^Decimals. Never mutated.
var scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// Amount is an immutable, non-negative fixed-point quantity with 18 decimal
// places. Arithmetic is arbitrary-precision integer math — no floating point.
// Every Amount carries a Unit; mixing units panics.
//
// Examples:
//   - Tokens(60)  = 60.000000000000000000 tok
//   - USD(50)     = $50.00 worth of value
//
// The zero value is usable and equals Zero("") — construct amounts through
// the exported constructors so the unit is always set.
type Amount struct {
	val  *big.Int
	unit Unit
}

// Tokens creates a token Amount of n whole tokens.
func Tokens(n int64) Amount { return scaled(n, UnitToken) }

// USD creates a dollar-denominated Amount of n whole dollars.
func USD(n int64) Amount { return scaled(n, UnitUSD) }

// Zero returns a zero Amount in the given unit.
func Zero(u Unit) Amount { return Amount{val: new(big.Int), unit: u} }

// FromBig creates an Amount from a raw 18-decimal scaled integer.
// The value is copied; v is never retained. Panics if v is negative.
func FromBig(v *big.Int, u Unit) Amount {
	if v.Sign() < 0 {
		panic(fmt.Sprintf("amount: negative value %s", v))
	}
	return Amount{val: new(big.Int).Set(v), unit: u}
}

// FromUint64 creates an Amount from a raw 18-decimal scaled integer.
func FromUint64(v uint64, u Unit) Amount {
	return Amount{val: new(big.Int).SetUint64(v), unit: u}
}

// ParseRaw parses a base-10 raw scaled integer string, as produced by
// RawString. Used by the storage backends.
func ParseRaw(s string, u Unit) (Amount, error) {
	if s == "" {
		return Zero(u), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("amount: parse %q: not a base-10 integer", s)
	}
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount: parse %q: negative", s)
	}
	return Amount{val: v, unit: u}, nil
}

func scaled(n int64, u Unit) Amount {
	if n < 0 {
		panic(fmt.Sprintf("amount: negative value %d", n))
	}
	return Amount{val: new(big.Int).Mul(big.NewInt(n), scale), unit: u}
}

// big returns the backing integer, treating the zero value as 0.
// Callers must not mutate the result; internal use only.
func (a Amount) big() *big.Int {
	if a.val == nil {
		return new(big.Int)
	}
	return a.val
}

// Big returns a copy of the raw 18-decimal scaled integer.
func (a Amount) Big() *big.Int { return new(big.Int).Set(a.big()) }

// Unit returns the denomination of the Amount.
func (a Amount) Unit() Unit { return a.unit }

// RawString returns the raw scaled integer as a base-10 string.
func (a Amount) RawString() string { return a.big().String() }

// Arithmetic operations. Results are fresh values; receivers are never mutated.

// Add adds two Amounts. Panics if units don't match.
func (a Amount) Add(other Amount) Amount {
	a.assertSameUnit(other)
	return Amount{val: new(big.Int).Add(a.big(), other.big()), unit: a.unit}
}

// Sub subtracts another Amount. Panics if units don't match or if the result
// would be negative — compare first on paths where underflow is reachable.
func (a Amount) Sub(other Amount) Amount {
	a.assertSameUnit(other)
	v := new(big.Int).Sub(a.big(), other.big())
	if v.Sign() < 0 {
		panic(fmt.Sprintf("amount: underflow: %s - %s", a.RawString(), other.RawString()))
	}
	return Amount{val: v, unit: a.unit}
}

// SubChecked subtracts another Amount, reporting false instead of panicking
// when the result would be negative. Panics if units don't match.
func (a Amount) SubChecked(other Amount) (Amount, bool) {
	a.assertSameUnit(other)
	v := new(big.Int).Sub(a.big(), other.big())
	if v.Sign() < 0 {
		return Amount{}, false
	}
	return Amount{val: v, unit: a.unit}, true
}

// MulDiv returns a*mul/div in one arbitrary-precision expression, with the
// result re-denominated in resultUnit. Panics if div is zero or the result
// would be negative. This is the primitive behind oracle price conversion.
func (a Amount) MulDiv(mul, div *big.Int, resultUnit Unit) Amount {
	if div.Sign() == 0 {
		panic("amount: division by zero")
	}
	v := new(big.Int).Mul(a.big(), mul)
	v.Quo(v, div)
	if v.Sign() < 0 {
		panic(fmt.Sprintf("amount: negative result: %s * %s / %s", a.RawString(), mul, div))
	}
	return Amount{val: v, unit: resultUnit}
}

// Comparison methods.

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.big().Sign() == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.big().Sign() > 0 }

// Cmp compares two Amounts: -1 if a < other, 0 if equal, +1 if a > other.
// Panics if units don't match.
func (a Amount) Cmp(other Amount) int {
	a.assertSameUnit(other)
	return a.big().Cmp(other.big())
}

// Equal returns true if both Amounts have the same value and unit.
func (a Amount) Equal(other Amount) bool {
	return a.unit == other.unit && a.big().Cmp(other.big()) == 0
}

// LessThan returns true if a < other. Panics if units don't match.
func (a Amount) LessThan(other Amount) bool { return a.Cmp(other) < 0 }

// GreaterThan returns true if a > other. Panics if units don't match.
func (a Amount) GreaterThan(other Amount) bool { return a.Cmp(other) > 0 }

// Formatting methods.

// FormatMajor returns the value in major units as a decimal string with
// trailing fractional zeros trimmed: Tokens(60) -> "60", half a token ->
// "0.5".
func (a Amount) FormatMajor() string {
	v := a.big()
	major := new(big.Int)
	minor := new(big.Int)
	major.QuoRem(v, scale, minor)

	if minor.Sign() == 0 {
		return major.String()
	}

	frac := fmt.Sprintf("%018s", minor.String())
	frac = strings.TrimRight(frac, "0")
	return major.String() + "." + frac
}

// String returns a human-readable representation: "$50" for usd values,
// "60 tok" for token amounts.
func (a Amount) String() string {
	if a.unit == UnitUSD {
		return "$" + a.FormatMajor()
	}
	if a.unit == "" {
		return a.FormatMajor()
	}
	return a.FormatMajor() + " " + string(a.unit)
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount  string `json:"amount"`
		Unit    string `json:"unit"`
		Display string `json:"display"`
	}{
		Amount:  a.RawString(),
		Unit:    string(a.unit),
		Display: a.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount string `json:"amount"`
		Unit   string `json:"unit"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRaw(raw.Amount, Unit(raw.Unit))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Helper functions.

// assertSameUnit panics if units don't match.
func (a Amount) assertSameUnit(other Amount) {
	if a.unit != other.unit {
		panic(fmt.Sprintf("amount: unit mismatch: %s != %s", a.unit, other.unit))
	}
}

// Sum calculates the sum of multiple Amounts in the given unit.
// All values must carry that unit.
func Sum(u Unit, values ...Amount) Amount {
	result := Zero(u)
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
