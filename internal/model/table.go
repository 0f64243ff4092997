package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Table is the tabular view handed to persistence sinks.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// RowJSON encodes row i as a JSON object with keys in column order.
func (t Table) RowJSON(i int) ([]byte, error) {
	if i < 0 || i >= len(t.Rows) {
		return nil, fmt.Errorf("table %s: row %d out of range", t.Name, i)
	}
	row := t.Rows[i]
	if len(row) != len(t.Columns) {
		return nil, fmt.Errorf("table %s: row %d has %d values, want %d", t.Name, i, len(row), len(t.Columns))
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for j, col := range t.Columns {
		if j > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(row[j])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
