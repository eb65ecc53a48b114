package report

import (
	"math/rand/v2"
	"strings"
)

// DefaultSampleSize is the number of rows drawn per operator.
const DefaultSampleSize = 2

// Source is the randomness used by Sample. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// SampledRow is a drawn row with its cells keyed by column.
type SampledRow struct {
	Record map[string]string `json:"record"`
	Photos []Photo           `json:"photos,omitempty"`
}

// SampleSet is the draw for one operator. NoData marks an operator without
// any row in the sampled table.
type SampleSet struct {
	Operator string       `json:"operator"`
	Rows     []SampledRow `json:"rows"`
	NoData   bool         `json:"no_data"`
}

// Sample draws min(n, available) rows per operator, uniformly and without
// replacement, iterating operators in the given order. A nil src uses the
// global generator; n <= 0 means DefaultSampleSize.
func Sample(t Table, b Bindings, operators []string, src Source, n int) []SampleSet {
	if src == nil {
		src = globalSource{}
	}
	if n <= 0 {
		n = DefaultSampleSize
	}
	byOperator := map[string][]Row{}
	for _, r := range t.Rows {
		op := strings.TrimSpace(r.Cell(b.Operator))
		byOperator[op] = append(byOperator[op], r)
	}

	sets := make([]SampleSet, 0, len(operators))
	for _, op := range operators {
		rows := byOperator[op]
		set := SampleSet{Operator: op, Rows: []SampledRow{}}
		if len(rows) == 0 {
			set.NoData = true
			sets = append(sets, set)
			continue
		}
		for _, r := range draw(rows, n, src) {
			set.Rows = append(set.Rows, SampledRow{
				Record: t.Record(r),
				Photos: photosOf(r, b),
			})
		}
		sets = append(sets, set)
	}
	return sets
}

// draw is a partial Fisher-Yates shuffle over a copy of rows.
func draw(rows []Row, n int, src Source) []Row {
	pool := append([]Row(nil), rows...)
	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := i + src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
