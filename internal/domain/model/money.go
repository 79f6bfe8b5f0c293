package model

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"

	"telecom-ledger/internal/domain"
)

// minorDigits is the number of fraction digits every supported currency carries.
const minorDigits = 2

// Money is an amount in minor units (cents). It is encoded on the wire as a
// decimal number with two fraction digits.
type Money int64

// ParseMoney parses a decimal string such as "49.90" into minor units.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a decimal number", domain.ErrValidation, s)
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal converts a major-unit decimal into Money. Sub-cent
// precision is rejected rather than rounded.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	minor := d.Shift(minorDigits)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount %s has more than %d fraction digits", domain.ErrValidation, d.String(), minorDigits)
	}
	if minor.Abs().GreaterThan(decimal.NewFromInt(1 << 62)) {
		return 0, fmt.Errorf("%w: amount %s out of range", domain.ErrValidation, d.String())
	}
	return Money(minor.IntPart()), nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -minorDigits)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(minorDigits)
}

// MulRate multiplies by a rate and rounds half away from zero to the minor unit.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money(decimal.NewFromInt(int64(m)).Mul(rate).Round(0).IntPart())
}

// DivRound divides by n, rounding to the minor unit. Division by zero yields 0.
func (m Money) DivRound(n int) Money {
	if n == 0 {
		return 0
	}
	return Money(decimal.NewFromInt(int64(m)).Div(decimal.NewFromInt(int64(n))).Round(0).IntPart())
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}
	v, err := ParseMoney(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
