package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Granularity is the calendar bucket used to group counts over time.
type Granularity string

const (
	Day     Granularity = "day"
	Week    Granularity = "week"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
	Total   Granularity = "total"
)

// TotalLabel is the single bucket every timestamp maps to under Total.
const TotalLabel = "Total"

// Granularities lists every supported granularity, finest first.
var Granularities = []Granularity{Day, Week, Month, Quarter, Year, Total}

var granularityAliases = map[string]Granularity{
	"day":       Day,
	"jour":      Day,
	"week":      Week,
	"semaine":   Week,
	"month":     Month,
	"mois":      Month,
	"quarter":   Quarter,
	"trimestre": Quarter,
	"year":      Year,
	"année":     Year,
	"annee":     Year,
	"total":     Total,
}

// ParseGranularity accepts the English names and the French dashboard labels.
func ParseGranularity(s string) (Granularity, error) {
	if g, ok := granularityAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

// Header is the column name used for the period in aggregate tables.
func (g Granularity) Header() string {
	switch g {
	case Day:
		return "Day"
	case Week:
		return "Week"
	case Month:
		return "Month"
	case Quarter:
		return "Quarter"
	case Year:
		return "Year"
	default:
		return TotalLabel
	}
}

// Label maps t to its bucket label.
func (g Granularity) Label(t time.Time) string {
	switch g {
	case Day:
		return t.Format("2006-01-02")
	case Week:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case Month:
		return t.Format("2006-01")
	case Quarter:
		return fmt.Sprintf("%04dQ%d", t.Year(), (int(t.Month())-1)/3+1)
	case Year:
		return strconv.Itoa(t.Year())
	default:
		return TotalLabel
	}
}

var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
}

// ParseTimestamp parses a date cell. Slashed dates are day-first. Bare
// numbers are not dates: workbook date cells reach the table already
// rendered as ISO timestamps.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Derive parses dateColumn on every row and attaches all bucket labels.
// Rows whose date does not parse are dropped and counted.
func Derive(t Table, dateColumn string) (Table, int, error) {
	idx := t.ColumnIndex(dateColumn)
	if idx < 0 {
		return Table{}, 0, fmt.Errorf("date column %q: %w", dateColumn, ErrMissingColumn)
	}
	rows := make([]Row, 0, len(t.Rows))
	dropped := 0
	for _, r := range t.Rows {
		ts, ok := ParseTimestamp(r.Cell(idx))
		if !ok {
			dropped++
			continue
		}
		r.Date = ts
		r.Dated = true
		r.Buckets = make(map[Granularity]string, len(Granularities))
		for _, g := range Granularities {
			r.Buckets[g] = g.Label(ts)
		}
		rows = append(rows, r)
	}
	return t.WithRows(rows), dropped, nil
}

// Bucket returns the derived label of r under g, computing it when r was not
// derived through Derive.
func (r Row) Bucket(g Granularity) string {
	if l, ok := r.Buckets[g]; ok {
		return l
	}
	return g.Label(r.Date)
}

// DateColumns returns the columns where at least half of the non-empty cells
// parse as timestamps.
func DateColumns(t Table) []string {
	var out []string
	for i, c := range t.Columns {
		filled, parsed := 0, 0
		for _, r := range t.Rows {
			v := r.Cell(i)
			if strings.TrimSpace(v) == "" {
				continue
			}
			filled++
			if _, ok := ParseTimestamp(v); ok {
				parsed++
			}
		}
		if filled > 0 && parsed*2 >= filled {
			out = append(out, c)
		}
	}
	return out
}
