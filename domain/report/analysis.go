package report

import (
	"fmt"
)

// Request is one "analyze" action.
type Request struct {
	DateColumn  string
	Selection   Selection
	Granularity Granularity
	// Range bounds left zero default to the observed first and last dates.
	Range      DateRange
	SampleSize int
}

// Result holds everything produced by one analysis. Chart is restricted to
// Range; Table covers every dated row regardless of Range.
type Result struct {
	Columns     []string        `json:"columns"`
	DateColumn  string          `json:"date_column"`
	Granularity Granularity     `json:"granularity"`
	Range       DateRange       `json:"range"`
	Observed    DateRange       `json:"observed"`
	Operators   []string        `json:"operators"`
	Rows        int             `json:"rows"`
	Dropped     int             `json:"dropped"`
	Chart       AggregateTable  `json:"chart"`
	Table       AggregateTable  `json:"table"`
	Samples     []SampleSet     `json:"samples"`
	Stats       []OperatorStats `json:"stats"`
}

// Analyze runs derive, filter, count, sample and stats over t.
func Analyze(t Table, d Dialect, req Request, src Source) (Result, error) {
	if len(t.Rows) == 0 {
		return Result{}, ErrEmptyTable
	}
	if req.DateColumn == "" {
		return Result{}, fmt.Errorf("date column not set: %w", ErrMissingColumn)
	}
	g := req.Granularity
	if g == "" {
		g = Total
	}
	if _, err := ParseGranularity(string(g)); err != nil {
		return Result{}, err
	}

	b, err := d.Resolve(t)
	if err != nil {
		return Result{}, err
	}
	derived, dropped, err := Derive(t, req.DateColumn)
	if err != nil {
		return Result{}, err
	}
	observed, ok := ObservedRange(derived.Rows)
	if !ok {
		return Result{}, fmt.Errorf("no parsable date in column %q: %w", req.DateColumn, ErrEmptyTable)
	}
	rng, err := ResolveRange(req.Range, observed)
	if err != nil {
		return Result{}, err
	}

	operators := req.Selection.Resolve(t, b)
	windowed := derived.WithRows(FilterByRange(derived.Rows, rng))

	return Result{
		Columns:     t.Columns,
		DateColumn:  t.Columns[t.ColumnIndex(req.DateColumn)],
		Granularity: g,
		Range:       rng,
		Observed:    observed,
		Operators:   operators,
		Rows:        len(derived.Rows),
		Dropped:     dropped,
		Chart:       Count(windowed, b, operators, g),
		Table:       Count(derived, b, operators, g),
		Samples:     Sample(windowed, b, operators, src, req.SampleSize),
		Stats:       MonthlyStats(windowed, b, operators, rng),
	}, nil
}
