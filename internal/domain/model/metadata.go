package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"telecom-ledger/internal/domain"
)

type MetaKind uint8

const (
	MetaNull MetaKind = iota
	MetaString
	MetaNumber
	MetaBool
)

// MetaValue is a single scalar stored in Payment metadata.
type MetaValue struct {
	kind MetaKind
	str  string
	num  json.Number // literal as received, so large integers survive
	b    bool
}

func MetaStr(s string) MetaValue   { return MetaValue{kind: MetaString, str: s} }
func MetaBoolean(b bool) MetaValue { return MetaValue{kind: MetaBool, b: b} }

func MetaNum(n float64) MetaValue {
	return MetaValue{kind: MetaNumber, num: json.Number(strconv.FormatFloat(n, 'f', -1, 64))}
}

// MetaNumLiteral keeps a numeric literal exactly as written, e.g. an external
// order id beyond float64 precision.
func MetaNumLiteral(n json.Number) MetaValue { return MetaValue{kind: MetaNumber, num: n} }

func (v MetaValue) Kind() MetaKind      { return v.kind }
func (v MetaValue) Str() string         { return v.str }
func (v MetaValue) Number() json.Number { return v.num }
func (v MetaValue) Bool() bool          { return v.b }
func (v MetaValue) IsNull() bool        { return v.kind == MetaNull }

func (v MetaValue) Num() float64 {
	f, _ := v.num.Float64()
	return f
}

// Equal compares numbers by value, so 1 and 1.0 match.
func (v MetaValue) Equal(o MetaValue) bool {
	if v.kind != MetaNumber || o.kind != MetaNumber {
		return v == o
	}
	a, errA := decimal.NewFromString(v.num.String())
	b, errB := decimal.NewFromString(o.num.String())
	if errA != nil || errB != nil {
		return v.num == o.num
	}
	return a.Equal(b)
}

func (v MetaValue) String() string {
	switch v.kind {
	case MetaString:
		return v.str
	case MetaNumber:
		return v.num.String()
	case MetaBool:
		return strconv.FormatBool(v.b)
	default:
		return "null"
	}
}

func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetaString:
		return json.Marshal(v.str)
	case MetaNumber:
		return []byte(v.num), nil
	case MetaBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func (v *MetaValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("%w: empty metadata value", domain.ErrValidation)
	}
	switch b[0] {
	case 'n':
		*v = MetaValue{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = MetaStr(s)
		return nil
	case 't', 'f':
		var x bool
		if err := json.Unmarshal(b, &x); err != nil {
			return err
		}
		*v = MetaBoolean(x)
		return nil
	case '{', '[':
		return fmt.Errorf("%w: metadata values must be scalars", domain.ErrValidation)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*v = MetaNumLiteral(n)
		return nil
	}
}

// Metadata is opaque caller data attached to a payment.
type Metadata map[string]MetaValue

func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
