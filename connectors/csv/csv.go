package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"intervention-stats/domain/report"
)

// MediaType is the content type of files produced by WriteAggregate.
const MediaType = "text/csv"

// ReadTable reads a CSV export of the intervention sheet. The delimiter is
// sniffed from the header line: semicolons win when they outnumber commas.
func ReadTable(r io.Reader) (report.Table, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return report.Table{}, fmt.Errorf("read csv: %w", err)
	}
	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(head)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return report.Table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return report.FromRecords(records)
}

func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// WriteAggregate renders a as CSV: header row then one record per row.
func WriteAggregate(a report.AggregateTable) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(a.Columns()); err != nil {
		return nil, err
	}
	for _, r := range a.Rows {
		cells := a.Cells(r)
		rec := make([]string, len(cells))
		for i, c := range cells {
			switch v := c.(type) {
			case int:
				rec[i] = strconv.Itoa(v)
			default:
				rec[i] = fmt.Sprint(v)
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
