package xlsx

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"intervention-stats/domain/report"

	"github.com/xuri/excelize/v2"
)

// MediaType is the content type of workbooks produced by WriteAggregate.
const MediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the single sheet written by WriteAggregate.
const SheetName = "Sheet1"

// ReadTable reads a sheet of the workbook in r; the first sheet when sheet is
// empty. Cells are read raw. Numeric cells styled with a date format are
// rendered as ISO timestamps; other numbers are kept as stored.
func ReadTable(r io.Reader, sheet string) (report.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return report.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return report.Table{}, fmt.Errorf("workbook has no sheet: %w", report.ErrEmptyTable)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return report.Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := renderDates(f, sheet, rows); err != nil {
		return report.Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	t, err := report.FromRecords(rows)
	if err != nil {
		return report.Table{}, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return t, nil
}

// renderDates rewrites, in place, every numeric cell whose style carries a
// date number format.
func renderDates(f *excelize.File, sheet string, rows [][]string) error {
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	dated := map[int]bool{}
	for i, row := range rows {
		for j, v := range row {
			serial, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			style, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return err
			}
			isDate, seen := dated[style]
			if !seen {
				isDate = dateStyle(f, style)
				dated[style] = isDate
			}
			if !isDate {
				continue
			}
			ts, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			rows[i][j] = isoTimestamp(ts)
		}
	}
	return nil
}

// dateStyle reports whether style id formats numbers as calendar dates.
// Time-only formats are not dates.
func dateStyle(f *excelize.File, id int) bool {
	st, err := f.GetStyle(id)
	if err != nil || st == nil {
		return false
	}
	if st.CustomNumFmt != nil {
		return dateFormatCode(*st.CustomNumFmt)
	}
	return (st.NumFmt >= 14 && st.NumFmt <= 17) || st.NumFmt == 22
}

// dateFormatCode reports whether a custom number format shows a day or a
// year. Quoted literals and bracketed sections are ignored.
func dateFormatCode(code string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case bracket:
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(b.String(), "dy")
}

func isoTimestamp(ts time.Time) string {
	ts = ts.Round(time.Second)
	if h, m, s := ts.Clock(); h == 0 && m == 0 && s == 0 {
		return ts.Format("2006-01-02")
	}
	return ts.Format("2006-01-02 15:04:05")
}

// WriteAggregate writes a into a single-sheet workbook: a header row then
// one row per aggregate row. Counts stay numeric, nothing is formatted.
func WriteAggregate(a report.AggregateTable) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := writeRow(f, 1, toAny(a.Columns())); err != nil {
		return nil, err
	}
	for i, row := range a.Rows {
		if err := writeRow(f, i+2, a.Cells(row)); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, n int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
