package report

import (
	"math"
	"strings"
)

// OperatorStats summarizes one operator over a date range.
type OperatorStats struct {
	Operator        string  `json:"operator"`
	Total           int     `json:"total"`
	Months          int     `json:"months"`
	ActiveMonths    int     `json:"active_months"`
	AveragePerMonth float64 `json:"average_per_month"`
}

// MonthsSpanned counts the calendar months touched by r, both ends included.
func MonthsSpanned(r DateRange) int {
	s, e := dateOf(r.Start), dateOf(r.End)
	if e.Before(s) {
		return 0
	}
	return (e.Year()-s.Year())*12 + int(e.Month()) - int(s.Month()) + 1
}

// MonthlyStats computes, per operator in the given order, the total count
// over rows (expected to be already filtered to r) and the average per
// calendar month spanned by r, rounded to two decimals.
func MonthlyStats(t Table, b Bindings, operators []string, r DateRange) []OperatorStats {
	months := MonthsSpanned(r)
	totals := map[string]int{}
	active := map[string]map[string]struct{}{}
	for _, row := range t.Rows {
		op := strings.TrimSpace(row.Cell(b.Operator))
		totals[op]++
		if active[op] == nil {
			active[op] = map[string]struct{}{}
		}
		active[op][row.Bucket(Month)] = struct{}{}
	}

	out := make([]OperatorStats, 0, len(operators))
	for _, op := range operators {
		s := OperatorStats{
			Operator:     op,
			Total:        totals[op],
			Months:       months,
			ActiveMonths: len(active[op]),
		}
		if months > 0 {
			s.AveragePerMonth = math.Round(float64(s.Total)/float64(months)*100) / 100
		}
		out = append(out, s)
	}
	return out
}
