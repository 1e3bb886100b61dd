package types

import (
	"math"
	"strconv"

	"github.com/apache/arrow/go/v11/arrow"
)

// Kind tags the variant held by a ScalarValue.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInt32
	KindInt64
	KindFloat64
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// ScalarValue is a single typed literal. A typed value may still be NULL
// (Valid == false), which keeps its column type for type checking.
type ScalarValue struct {
	Kind  Kind
	Valid bool

	b   bool
	i64 int64
	f64 float64
	s   string
}

func Null() ScalarValue { return ScalarValue{Kind: KindNull} }

func NewBoolean(v bool) ScalarValue {
	return ScalarValue{Kind: KindBoolean, Valid: true, b: v}
}

func NewInt32(v int32) ScalarValue {
	return ScalarValue{Kind: KindInt32, Valid: true, i64: int64(v)}
}

func NewInt64(v int64) ScalarValue {
	return ScalarValue{Kind: KindInt64, Valid: true, i64: v}
}

func NewFloat64(v float64) ScalarValue {
	return ScalarValue{Kind: KindFloat64, Valid: true, f64: v}
}

func NewString(v string) ScalarValue {
	return ScalarValue{Kind: KindString, Valid: true, s: v}
}

// TypedNull returns a NULL of the given kind.
func TypedNull(k Kind) ScalarValue { return ScalarValue{Kind: k} }

// ParseNumber types a numeric literal: Int32 if it fits, else Int64, else Float64.
func ParseNumber(lit string) (ScalarValue, error) {
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return NewInt32(int32(i)), nil
		}
		return NewInt64(i), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return ScalarValue{}, err
	}
	return NewFloat64(f), nil
}

func (v ScalarValue) IsNull() bool { return !v.Valid }

func (v ScalarValue) Bool() bool       { return v.b }
func (v ScalarValue) Int32() int32     { return int32(v.i64) }
func (v ScalarValue) Int64() int64     { return v.i64 }
func (v ScalarValue) Float64() float64 { return v.f64 }
func (v ScalarValue) Str() string      { return v.s }

// DataType maps the value's kind onto the arrow type tag used across the engine.
func (v ScalarValue) DataType() arrow.DataType {
	return KindDataType(v.Kind)
}

func KindDataType(k Kind) arrow.DataType {
	switch k {
	case KindBoolean:
		return arrow.FixedWidthTypes.Boolean
	case KindInt32:
		return arrow.PrimitiveTypes.Int32
	case KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case KindString:
		return arrow.BinaryTypes.String
	default:
		return arrow.Null
	}
}

func (v ScalarValue) Equal(o ScalarValue) bool {
	if v.Kind != o.Kind || v.Valid != o.Valid {
		return false
	}
	if !v.Valid {
		return true
	}
	switch v.Kind {
	case KindBoolean:
		return v.b == o.b
	case KindInt32, KindInt64:
		return v.i64 == o.i64
	case KindFloat64:
		return v.f64 == o.f64
	case KindString:
		return v.s == o.s
	}
	return true
}

func (v ScalarValue) String() string {
	if !v.Valid {
		return "NULL"
	}
	switch v.Kind {
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.i64, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	}
	return "NULL"
}
