// Package tabular is the small CSV table shared by the ETL resources.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Table is a header plus rows of equal width.
type Table struct {
	Header []string
	Rows   [][]string
}

// Parse reads CSV data. The first record is the header.
func Parse(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("tabular:tabular - failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("tabular:tabular - csv has no header")
	}
	t := &Table{Header: records[0]}
	for _, rec := range records[1:] {
		row := make([]string, len(t.Header))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Column returns the index of name, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// SetColumn fills name with value on every row, appending the column if it is new.
func (t *Table) SetColumn(name, value string) {
	i := t.Column(name)
	if i < 0 {
		t.Header = append(t.Header, name)
		for r := range t.Rows {
			t.Rows[r] = append(t.Rows[r], value)
		}
		return
	}
	for r := range t.Rows {
		t.Rows[r][i] = value
	}
}

// Bytes writes the table back out as CSV.
func (t *Table) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Columns returns column -> {row index -> value}, with numeric cells as numbers and empty
// cells as nil.
func (t *Table) Columns() map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{}, len(t.Header))
	for c, name := range t.Header {
		col := make(map[string]interface{}, len(t.Rows))
		for r, row := range t.Rows {
			col[strconv.Itoa(r)] = Cell(row[c])
		}
		out[name] = col
	}
	return out
}

// Cell types a raw CSV value.
func Cell(s string) interface{} {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Stem is the base name of a URI without its extension: s3://b/raw/2020-11-02.csv -> 2020-11-02.
func Stem(uri string) string {
	base := path.Base(uri)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Latest returns the greatest stem among uris, or "" when uris is empty.
func Latest(uris []string) string {
	latest := ""
	for _, u := range uris {
		if s := Stem(u); s > latest {
			latest = s
		}
	}
	return latest
}
