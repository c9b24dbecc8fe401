package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"
)

// =============================================================================
// Values
// =============================================================================

// ValueKind classifies a scalar value held in a result row.
type ValueKind int

// Value kinds. Every row value is normalized to exactly one of these.
const (
	KindNull    ValueKind = iota // nil
	KindInteger                  // int64
	KindReal                     // float64
	KindText                     // string
	KindBlob                     // []byte
)

// String returns the SQL-ish name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of a normalized value.
func KindOf(v any) ValueKind {
	switch v.(type) {
	case nil:
		return KindNull
	case int64:
		return KindInteger
	case float64:
		return KindReal
	case []byte:
		return KindBlob
	default:
		return KindText
	}
}

// float64er is implemented by driver decimal types.
type float64er interface {
	Float64() float64
}

// NormalizeValue converts a value scanned from database/sql into one of the
// five scalar kinds. Anything without a natural mapping becomes text.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		return normalizeUint(uint64(x))
	case uint64:
		return normalizeUint(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case string:
		return x
	case []byte:
		out := make([]byte, len(x))
		copy(out, x)
		return out
	case time.Time:
		return formatTime(x)
	case float64er:
		return x.Float64()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func normalizeUint(u uint64) any {
	if u > math.MaxInt64 {
		return strconv.FormatUint(u, 10)
	}
	return int64(u)
}

func formatTime(t time.Time) string {
	if t.Nanosecond() == 0 && t.Location() == time.UTC {
		return t.Format(time.DateTime)
	}
	return t.Format(time.RFC3339Nano)
}

// ValuesEqual compares two normalized values. An integer equals a real only
// when the real holds exactly that integer; blobs compare bytewise.
func ValuesEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			n, ok := ExactInt(y)
			return ok && n == x
		}
		return false
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case int64:
			n, ok := ExactInt(x)
			return ok && n == y
		}
		return false
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	default:
		return false
	}
}

// ExactInt returns f as an int64 when f holds an integer in int64 range.
func ExactInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// FormatValue renders a normalized value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "x'" + hex.EncodeToString(x) + "'"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// =============================================================================
// QueryResult
// =============================================================================

// Row is an ordered sequence of normalized scalar values.
type Row []any

// QueryResult is the single shape returned by every execution operation.
// OK distinguishes the success variant (Columns, Rows, RowsAffected) from
// the failure variant (Error).
type QueryResult struct {
	OK           bool     `json:"ok"`
	Columns      []string `json:"columns,omitempty"`
	Rows         []Row    `json:"rows,omitempty"`
	RowsAffected int64    `json:"rows_affected"`
	Error        string   `json:"error,omitempty"`
}

// Success builds a success result.
func Success(columns []string, rows []Row, rowsAffected int64) QueryResult {
	return QueryResult{OK: true, Columns: columns, Rows: rows, RowsAffected: rowsAffected}
}

// Failure builds a failure result carrying an engine diagnostic.
func Failure(message string) QueryResult {
	return QueryResult{Error: message}
}

// Failed reports whether this is the failure variant.
func (r QueryResult) Failed() bool {
	return !r.OK
}

// HasRows reports whether the result carries a result set (possibly empty).
func (r QueryResult) HasRows() bool {
	return r.OK && len(r.Columns) > 0
}
