package report

import (
	"fmt"
	"strings"
)

// FromRecords builds a table from a header record followed by data records.
// Blank headers are named after their position, short records are padded and
// blank records are skipped.
func FromRecords(records [][]string) (Table, error) {
	if len(records) == 0 || isBlank(records[0]) {
		return Table{}, fmt.Errorf("header row: %w", ErrEmptyTable)
	}
	header := records[0]
	t := Table{Columns: make([]string, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		t.Columns[i] = h
	}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		values := make([]string, len(t.Columns))
		copy(values, rec)
		t.Rows = append(t.Rows, Row{Values: values})
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
