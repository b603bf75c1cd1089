package moex

import (
	"BondPulse/pkg/util"
)

// Table is one block of an ISS response: a list of column names plus rows of
// positional cells.
type Table struct {
	Columns []string        `json:"columns"`
	Data    [][]interface{} `json:"data"`
}

// Row is a single table row keyed by column name.
type Row map[string]interface{}

// Rows zips column names onto each data row. Rows shorter than the column
// list keep the missing cells absent.
func (t *Table) Rows() []Row {
	rows := make([]Row, 0, len(t.Data))
	for _, cells := range t.Data {
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i >= len(cells) {
				break
			}
			row[col] = cells[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func (r Row) Float(col string) *float64 {
	return util.FloatCell(r[col])
}

func (r Row) Int(col string) *int {
	return util.IntCell(r[col])
}

func (r Row) String(col string) string {
	if s := util.StringCell(r[col]); s != nil {
		return *s
	}
	return ""
}
