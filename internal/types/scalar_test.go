package types

import (
	"math"
	"strconv"
	"testing"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/stretchr/testify/require"
)

func TestParseNumber_NarrowestType(t *testing.T) {
	v, err := ParseNumber("2")
	require.NoError(t, err)
	require.Equal(t, KindInt32, v.Kind)
	require.Equal(t, int32(2), v.Int32())

	v, err = ParseNumber(strconv.FormatInt(math.MaxInt32+1, 10))
	require.NoError(t, err)
	require.Equal(t, KindInt64, v.Kind)
	require.Equal(t, int64(math.MaxInt32+1), v.Int64())

	v, err = ParseNumber("1.5")
	require.NoError(t, err)
	require.Equal(t, KindFloat64, v.Kind)
	require.Equal(t, 1.5, v.Float64())

	// Too large for int64 falls back to float.
	v, err = ParseNumber("99999999999999999999")
	require.NoError(t, err)
	require.Equal(t, KindFloat64, v.Kind)

	_, err = ParseNumber("abc")
	require.Error(t, err)
}

func TestScalarValue_DataType(t *testing.T) {
	require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int32, NewInt32(1).DataType()))
	require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, NewInt64(1).DataType()))
	require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, NewFloat64(1).DataType()))
	require.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, NewString("x").DataType()))
	require.True(t, arrow.TypeEqual(arrow.FixedWidthTypes.Boolean, NewBoolean(true).DataType()))
	require.True(t, arrow.TypeEqual(arrow.Null, Null().DataType()))

	// a typed NULL keeps its type
	require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, TypedNull(KindInt64).DataType()))
}

func TestScalarValue_EqualAndString(t *testing.T) {
	require.True(t, NewInt32(7).Equal(NewInt32(7)))
	require.False(t, NewInt32(7).Equal(NewInt64(7)))
	require.False(t, NewString("a").Equal(NewString("b")))
	require.True(t, Null().Equal(Null()))
	require.False(t, Null().Equal(TypedNull(KindInt32)))

	require.Equal(t, "7", NewInt32(7).String())
	require.Equal(t, `"Hopkins"`, NewString("Hopkins").String())
	require.Equal(t, "NULL", TypedNull(KindString).String())
	require.Equal(t, "true", NewBoolean(true).String())
}
