package types

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestAmountConstructors(t *testing.T) {
	tests := []struct {
		name    string
		amount  Amount
		raw     string
		unit    Unit
		display string
	}{
		{"Tokens", Tokens(60), "60000000000000000000", UnitToken, "60 tok"},
		{"USD", USD(50), "50000000000000000000", UnitUSD, "$50"},
		{"Zero token", Zero(UnitToken), "0", UnitToken, "0 tok"},
		{"Zero usd", Zero(UnitUSD), "0", UnitUSD, "$0"},
		{"FromBig", FromBig(big.NewInt(1500000000000000000), UnitToken), "1500000000000000000", UnitToken, "1.5 tok"},
		{"FromUint64", FromUint64(42, UnitUSD), "42", UnitUSD, "$0.000000000000000042"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.amount.RawString(); got != tt.raw {
				t.Errorf("RawString: got %s, want %s", got, tt.raw)
			}
			if got := tt.amount.Unit(); got != tt.unit {
				t.Errorf("Unit: got %s, want %s", got, tt.unit)
			}
			if got := tt.amount.String(); got != tt.display {
				t.Errorf("String: got %s, want %s", got, tt.display)
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Amount
		expected Amount
	}{
		{"Add", func() Amount { return Tokens(100).Add(Tokens(200)) }, Tokens(300)},
		{"Sub", func() Amount { return Tokens(500).Sub(Tokens(200)) }, Tokens(300)},
		{"Sub to zero", func() Amount { return Tokens(200).Sub(Tokens(200)) }, Zero(UnitToken)},
		{"Sum", func() Amount { return Sum(UnitToken, Tokens(1), Tokens(2), Tokens(3)) }, Tokens(6)},
		{"Sum empty", func() Amount { return Sum(UnitUSD) }, Zero(UnitUSD)},
		{"Chained", func() Amount {
			return Tokens(1000).Add(Tokens(500)).Sub(Tokens(250))
		}, Tokens(1250)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestAmountSubChecked(t *testing.T) {
	if got, ok := Tokens(5).SubChecked(Tokens(3)); !ok || !got.Equal(Tokens(2)) {
		t.Errorf("SubChecked(5,3): got %v ok=%v, want 2 tok ok=true", got, ok)
	}
	if _, ok := Tokens(3).SubChecked(Tokens(5)); ok {
		t.Error("SubChecked(3,5): expected underflow, got ok=true")
	}
}

func TestAmountMulDiv(t *testing.T) {
	// 60 tok * 2e18 / 1e18 = $120 at a price of $2/token normalized to 18dp.
	price := new(big.Int).Mul(big.NewInt(2), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	got := Tokens(60).MulDiv(price, one, UnitUSD)
	if !got.Equal(USD(120)) {
		t.Errorf("MulDiv: got %v, want %v", got, USD(120))
	}
}

func TestAmountUnitMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for unit mismatch")
		}
	}()

	_ = Tokens(100).Add(USD(100))
}

func TestAmountSubUnderflow(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for underflow")
		}
	}()

	_ = Tokens(100).Sub(Tokens(200))
}

func TestAmountNegativeConstructor(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for negative value")
		}
	}()

	_ = FromBig(big.NewInt(-1), UnitToken)
}

func TestAmountComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Amount
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", Tokens(100), Tokens(100), false, false, true},
		{"Less", Tokens(50), Tokens(100), true, false, false},
		{"Greater", Tokens(200), Tokens(100), false, true, false},
		{"Zero equal", Tokens(0), Zero(UnitToken), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestAmountImmutability(t *testing.T) {
	a := Tokens(100)
	_ = a.Add(Tokens(50))
	_ = a.Sub(Tokens(50))
	if !a.Equal(Tokens(100)) {
		t.Errorf("receiver mutated: got %v, want 100 tok", a)
	}

	// Big must return a defensive copy.
	b := a.Big()
	b.SetInt64(0)
	if !a.Equal(Tokens(100)) {
		t.Error("Big() leaked the backing integer")
	}
}

func TestAmountParseRaw(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Amount
		wantErr bool
	}{
		{"Round trip", Tokens(60).RawString(), Tokens(60), false},
		{"Empty is zero", "", Zero(UnitToken), false},
		{"Garbage", "sixty", Amount{}, true},
		{"Negative", "-5", Amount{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRaw(tt.in, UnitToken)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRaw(%q): err=%v, wantErr=%v", tt.in, err, tt.wantErr)
			}
			if err == nil && !got.Equal(tt.want) {
				t.Errorf("ParseRaw(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(Tokens(60))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Amount
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(Tokens(60)) {
		t.Errorf("round trip: got %v, want %v", decoded, Tokens(60))
	}
}

func TestAmountFormatMajor(t *testing.T) {
	half, err := ParseRaw("500000000000000000", UnitToken)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		amount Amount
		want   string
	}{
		{"Whole", Tokens(60), "60"},
		{"Zero", Zero(UnitToken), "0"},
		{"Fraction", half, "0.5"},
		{"Smallest", FromUint64(1, UnitToken), "0.000000000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.amount.FormatMajor(); got != tt.want {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.want)
			}
		})
	}
}
