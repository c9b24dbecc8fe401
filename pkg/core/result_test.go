package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "int32", in: int32(7), want: int64(7)},
		{name: "uint8", in: uint8(3), want: int64(3)},
		{name: "huge uint64", in: uint64(1 << 63), want: "9223372036854775808"},
		{name: "float32", in: float32(1.5), want: float64(1.5)},
		{name: "bool true", in: true, want: int64(1)},
		{name: "bool false", in: false, want: int64(0)},
		{name: "string", in: "a", want: "a"},
		{name: "bytes", in: []byte{0x01, 0x02}, want: []byte{0x01, 0x02}},
		{name: "utc time", in: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), want: "2024-01-02 03:04:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeValue(tt.in))
		})
	}
}

func TestNormalizeValue_CopiesBytes(t *testing.T) {
	src := []byte("abc")
	got := NormalizeValue(src).([]byte)
	src[0] = 'z'
	assert.Equal(t, []byte("abc"), got)
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "nulls", a: nil, b: nil, want: true},
		{name: "null vs zero", a: nil, b: int64(0), want: false},
		{name: "ints", a: int64(1), b: int64(1), want: true},
		{name: "int vs real", a: int64(2), b: float64(2), want: true},
		{name: "real vs int", a: float64(2.5), b: int64(2), want: false},
		{name: "large int vs rounded real", a: int64(9007199254740993), b: float64(9007199254740992), want: false},
		{name: "real vs exact large int", a: float64(9007199254740992), b: int64(9007199254740992), want: true},
		{name: "text", a: "a", b: "a", want: true},
		{name: "text vs int", a: "1", b: int64(1), want: false},
		{name: "blobs", a: []byte{1}, b: []byte{1}, want: true},
		{name: "blob vs text", a: []byte("a"), b: "a", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValuesEqual(tt.a, tt.b))
		})
	}
}

func TestExactInt(t *testing.T) {
	n, ok := ExactInt(3.0)
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)

	for _, f := range []float64{2.5, math.NaN(), math.Inf(1), 1e19} {
		_, ok := ExactInt(f)
		assert.False(t, ok, "%v", f)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNull, KindOf(nil))
	assert.Equal(t, KindInteger, KindOf(int64(1)))
	assert.Equal(t, KindReal, KindOf(1.5))
	assert.Equal(t, KindText, KindOf("x"))
	assert.Equal(t, KindBlob, KindOf([]byte{}))
	assert.Equal(t, "blob", KindBlob.String())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", FormatValue(nil))
	assert.Equal(t, "x'0aff'", FormatValue([]byte{0x0a, 0xff}))
	assert.Equal(t, "1.5", FormatValue(1.5))
	assert.Equal(t, "42", FormatValue(int64(42)))
}

func TestQueryResultVariants(t *testing.T) {
	ok := Success([]string{"a"}, []Row{{int64(1)}}, 0)
	assert.False(t, ok.Failed())
	assert.True(t, ok.HasRows())

	mut := Success(nil, nil, 3)
	assert.False(t, mut.Failed())
	assert.False(t, mut.HasRows())

	bad := Failure("near \"SELEC\": syntax error")
	assert.True(t, bad.Failed())
	assert.Equal(t, "near \"SELEC\": syntax error", bad.Error)
}

func TestSchemaRows(t *testing.T) {
	tables := []TableInfo{
		{Name: "t", Columns: []ColumnInfo{{Name: "id", Type: "INT"}, {Name: "name", Type: "TEXT"}}},
		{Name: "empty"},
	}
	rows := SchemaRows(tables)
	assert.Equal(t, []Row{{"t", "id", "INT"}, {"t", "name", "TEXT"}, {"empty", nil, nil}}, rows)
	assert.Equal(t, []string{"t", "empty"}, TableNames(tables))
}
