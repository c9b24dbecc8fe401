package output

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// Result writes a query result. Failures are shown as error lines, not
// returned; only JSON encoding errors are returned.
func (r *Renderer) Result(res core.QueryResult) error {
	mode := r.EffectiveMode()
	if mode == ModeJSON {
		return r.JSON(res)
	}
	if res.Failed() {
		r.Error(res.Error)
		return nil
	}
	if len(res.Columns) == 0 {
		r.Println(r.Muted(fmt.Sprintf("OK (%d rows affected)", res.RowsAffected)))
		return nil
	}

	rows := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = core.FormatValue(v)
		}
		rows[i] = cells
	}
	r.Table(res.Columns, rows)
	r.Println(r.Muted(rowCount(len(res.Rows))))
	return nil
}

// Schema writes the table and column list of a sandbox.
func (r *Renderer) Schema(tables []core.TableInfo) error {
	if r.EffectiveMode() == ModeJSON {
		if tables == nil {
			tables = []core.TableInfo{}
		}
		return r.JSON(tables)
	}
	if len(tables) == 0 {
		r.Println(r.Muted("(no tables)"))
		return nil
	}
	for _, t := range tables {
		r.Header(3, t.Name)
		rows := make([][]string, len(t.Columns))
		for i, c := range t.Columns {
			rows[i] = []string{c.Name, c.Type}
		}
		r.Table([]string{"column", "type"}, rows)
		r.Println()
	}
	return nil
}

// Table writes a grid of cells: box-drawn in text mode, pipe table in
// markdown mode.
func (r *Renderer) Table(columns []string, rows [][]string) {
	writeTable(r.out, columns, rows, r.EffectiveMode() == ModeMarkdown)
}

func writeTable(w io.Writer, columns []string, rows [][]string, markdown bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}

	if markdown {
		t.RenderMarkdown()
		_, _ = fmt.Fprintln(w)
		return
	}
	t.Render()
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}
