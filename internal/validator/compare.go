package validator

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// CompareOptions controls result comparison.
type CompareOptions struct {
	// Ordered requires rows to appear in the same order.
	Ordered bool
	// MatchColumnNames requires column names to match (case-insensitive).
	MatchColumnNames bool
}

// Compare checks got against want and returns the first difference, or nil
// when they match. Both results must be successes.
//
// Checks run in order: column count, column names (if requested), row
// count, then row values. Integers and reals compare numerically.
func Compare(got, want core.QueryResult, opts CompareOptions) *core.Mismatch {
	if len(got.Columns) != len(want.Columns) {
		return &core.Mismatch{
			Kind:   core.MismatchColumnCount,
			Detail: fmt.Sprintf("expected %d %s, got %d", len(want.Columns), plural(len(want.Columns), "column"), len(got.Columns)),
			Row:    -1,
		}
	}

	if opts.MatchColumnNames {
		for i := range want.Columns {
			if !strings.EqualFold(got.Columns[i], want.Columns[i]) {
				return &core.Mismatch{
					Kind:   core.MismatchColumnNames,
					Detail: fmt.Sprintf("column %d: expected %q, got %q", i+1, want.Columns[i], got.Columns[i]),
					Row:    -1,
				}
			}
		}
	}

	if len(got.Rows) != len(want.Rows) {
		return &core.Mismatch{
			Kind:   core.MismatchRowCount,
			Detail: fmt.Sprintf("expected %d %s, got %d", len(want.Rows), plural(len(want.Rows), "row"), len(got.Rows)),
			Row:    -1,
		}
	}

	if opts.Ordered {
		return compareOrdered(got.Rows, want.Rows)
	}
	return compareUnordered(got.Rows, want.Rows)
}

func compareOrdered(got, want []core.Row) *core.Mismatch {
	for i := range want {
		if !rowsEqual(got[i], want[i]) {
			return &core.Mismatch{
				Kind:   core.MismatchRowValues,
				Detail: fmt.Sprintf("row %d: expected %s, got %s", i+1, formatRow(want[i]), formatRow(got[i])),
				Row:    i,
			}
		}
	}
	return nil
}

// compareUnordered treats both row sets as multisets.
func compareUnordered(got, want []core.Row) *core.Mismatch {
	remaining := make(map[string]int, len(want))
	for _, r := range want {
		remaining[rowKey(r)]++
	}
	for i, r := range got {
		k := rowKey(r)
		if remaining[k] == 0 {
			return &core.Mismatch{
				Kind:   core.MismatchRowValues,
				Detail: fmt.Sprintf("row %d is not in the expected result: %s", i+1, formatRow(r)),
				Row:    i,
			}
		}
		remaining[k]--
	}
	return nil
}

func rowsEqual(a, b core.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !core.ValuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// rowKey encodes a row so that values equal under core.ValuesEqual share a
// key. Integers encode exactly, as do reals holding an integer.
func rowKey(r core.Row) string {
	var b strings.Builder
	for _, v := range r {
		switch x := v.(type) {
		case nil:
			b.WriteString("n;")
		case int64:
			b.WriteString("i:")
			b.WriteString(strconv.FormatInt(x, 10))
			b.WriteByte(';')
		case float64:
			if n, ok := core.ExactInt(x); ok {
				b.WriteString("i:")
				b.WriteString(strconv.FormatInt(n, 10))
			} else {
				b.WriteString("d:")
				b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
			}
			b.WriteByte(';')
		case []byte:
			b.WriteString("b:")
			b.WriteString(hex.EncodeToString(x))
			b.WriteByte(';')
		default:
			b.WriteString("s:")
			b.WriteString(strconv.Quote(fmt.Sprint(x)))
			b.WriteByte(';')
		}
	}
	return b.String()
}

func formatRow(r core.Row) string {
	parts := make([]string, len(r))
	for i, v := range r {
		if s, ok := v.(string); ok {
			parts[i] = strconv.Quote(s)
			continue
		}
		parts[i] = core.FormatValue(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
