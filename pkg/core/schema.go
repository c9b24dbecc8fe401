package core

// ColumnInfo describes one column of a user table.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableInfo is a derived snapshot of a user table. It is always recomputed
// from the live engine catalog and never cached across mutations.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// SchemaColumns are the column names of a flattened schema snapshot.
var SchemaColumns = []string{"table", "column", "type"}

// SchemaRows flattens tables into (table, column, type) rows. A table with
// no columns still yields one row so that empty tables remain visible.
func SchemaRows(tables []TableInfo) []Row {
	rows := make([]Row, 0, len(tables))
	for _, t := range tables {
		if len(t.Columns) == 0 {
			rows = append(rows, Row{t.Name, nil, nil})
			continue
		}
		for _, c := range t.Columns {
			rows = append(rows, Row{t.Name, c.Name, c.Type})
		}
	}
	return rows
}

// TableNames returns the table names in snapshot order.
func TableNames(tables []TableInfo) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
