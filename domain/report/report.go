// Package report holds the aggregation core: period derivation, date-range
// filtering, grouped counting, operator sampling and monthly stats.
// It has no knowledge of how tables are loaded or how results are rendered.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingColumn      = errors.New("missing column")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrUnknownGranularity = errors.New("unknown granularity")
	ErrEmptyTable         = errors.New("empty table")
)

// CountHeader is the column name of the count in aggregate tables.
const CountHeader = "Repetitions"

// Table is a loaded sheet: a header row and the data rows under it.
type Table struct {
	Columns []string
	Rows    []Row
}

// Row is one intervention record. Values are aligned with Table.Columns.
// Date, Dated and Buckets are filled by Derive.
type Row struct {
	Values  []string
	Date    time.Time
	Dated   bool
	Buckets map[Granularity]string
}

// ColumnIndex returns the position of column (exact match first, then
// case-insensitive), or -1.
func (t Table) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	want := normalizeHeader(column)
	for i, c := range t.Columns {
		if normalizeHeader(c) == want {
			return i
		}
	}
	return -1
}

// Cell returns the value of row r at column index i, "" when out of range.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// Record maps column names to cell values.
func (t Table) Record(r Row) map[string]string {
	m := make(map[string]string, len(t.Columns))
	for i, c := range t.Columns {
		m[c] = r.Cell(i)
	}
	return m
}

// WithRows returns a table sharing t's columns.
func (t Table) WithRows(rows []Row) Table {
	return Table{Columns: t.Columns, Rows: rows}
}

// AggregateRow is one (operator, period, count) group. Count is always >= 1:
// empty groups are not materialized.
type AggregateRow struct {
	Operator string `json:"operator"`
	Period   string `json:"period,omitempty"`
	Count    int    `json:"count"`
	Category string `json:"category,omitempty"`
}

// AggregateTable is the output of Count, ready for charts and exports.
type AggregateTable struct {
	Granularity    Granularity    `json:"granularity"`
	OperatorHeader string         `json:"operator_header"`
	CategoryHeader string         `json:"category_header,omitempty"`
	Rows           []AggregateRow `json:"rows"`
}

// Columns returns the header row: operator, period (unless Total), count,
// category (only when bound).
func (a AggregateTable) Columns() []string {
	cols := []string{a.OperatorHeader}
	if a.Granularity != Total {
		cols = append(cols, a.Granularity.Header())
	}
	cols = append(cols, CountHeader)
	if a.CategoryHeader != "" {
		cols = append(cols, a.CategoryHeader)
	}
	return cols
}

// Cells returns the values of row in the order of Columns. The count is
// returned as an int so writers can keep it numeric.
func (a AggregateTable) Cells(row AggregateRow) []any {
	cells := []any{row.Operator}
	if a.Granularity != Total {
		cells = append(cells, row.Period)
	}
	cells = append(cells, row.Count)
	if a.CategoryHeader != "" {
		cells = append(cells, row.Category)
	}
	return cells
}

// Validate reports precondition violations that exporters cannot work around.
func (a AggregateTable) Validate() error {
	if strings.TrimSpace(a.OperatorHeader) == "" {
		return fmt.Errorf("aggregate table: operator header: %w", ErrMissingColumn)
	}
	return nil
}

// Total sums the counts of all rows.
func (a AggregateTable) Total() int {
	n := 0
	for _, r := range a.Rows {
		n += r.Count
	}
	return n
}

// ExportArtifact is a serialized aggregate table ready for download.
type ExportArtifact struct {
	Format    string
	Filename  string
	MediaType string
	Content   []byte
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
