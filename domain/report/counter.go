package report

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

type groupKey struct {
	operator string
	period   string
}

// Count groups the rows of t belonging to operators by (operator, period) and
// counts each group. Rows of unselected operators are dropped. Rows are sorted
// by operator then period so repeated runs render identically.
func Count(t Table, b Bindings, operators []string, g Granularity) AggregateTable {
	out := AggregateTable{
		Granularity:    g,
		OperatorHeader: b.OperatorHeader,
		CategoryHeader: b.CategoryHeader,
	}
	selected := lo.SliceToMap(operators, func(o string) (string, struct{}) { return o, struct{}{} })
	counts := map[groupKey]int{}
	categories := map[string]string{}

	for _, r := range t.Rows {
		op := strings.TrimSpace(r.Cell(b.Operator))
		if _, ok := selected[op]; !ok {
			continue
		}
		k := groupKey{operator: op}
		if g != Total {
			k.period = r.Bucket(g)
		}
		counts[k]++
		if b.HasCategory() && categories[op] == "" {
			categories[op] = strings.TrimSpace(r.Cell(b.Category))
		}
	}

	out.Rows = make([]AggregateRow, 0, len(counts))
	for k, n := range counts {
		out.Rows = append(out.Rows, AggregateRow{
			Operator: k.operator,
			Period:   k.period,
			Count:    n,
			Category: categories[k.operator],
		})
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		if out.Rows[i].Operator != out.Rows[j].Operator {
			return out.Rows[i].Operator < out.Rows[j].Operator
		}
		return out.Rows[i].Period < out.Rows[j].Period
	})
	return out
}
