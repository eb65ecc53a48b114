package report

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// DefaultOperatorCandidates are tried, in order, when no operator column is
// configured.
var DefaultOperatorCandidates = []string{
	"Prénom et nom",
	"Nom et prénom",
	"Nom",
	"Name",
	"Operator",
	"Opérateur",
}

// Dialect describes which columns of a dataset carry which meaning. Only the
// operator binding is required; it is auto-detected when OperatorColumn is
// empty.
type Dialect struct {
	OperatorColumn     string
	OperatorCandidates []string
	CategoryColumn     string
	PhotoColumns       []string
}

// Bindings are a Dialect resolved against the columns of a concrete table.
type Bindings struct {
	Operator       int
	OperatorHeader string
	Category       int
	CategoryHeader string
	Photos         []int
	PhotoHeaders   []string
}

// HasCategory reports whether a category column is bound.
func (b Bindings) HasCategory() bool { return b.Category >= 0 }

// Resolve binds d to t's columns. Explicitly configured columns that are
// absent yield ErrMissingColumn.
func (d Dialect) Resolve(t Table) (Bindings, error) {
	b := Bindings{Operator: -1, Category: -1}

	if d.CategoryColumn != "" {
		b.Category = t.ColumnIndex(d.CategoryColumn)
		if b.Category < 0 {
			return Bindings{}, fmt.Errorf("category column %q: %w", d.CategoryColumn, ErrMissingColumn)
		}
		b.CategoryHeader = t.Columns[b.Category]
	}

	if d.OperatorColumn != "" {
		b.Operator = t.ColumnIndex(d.OperatorColumn)
		if b.Operator < 0 {
			return Bindings{}, fmt.Errorf("operator column %q: %w", d.OperatorColumn, ErrMissingColumn)
		}
	} else {
		b.Operator = detectOperator(t, d.candidates(), b.Category)
		if b.Operator < 0 {
			return Bindings{}, fmt.Errorf("operator column not detected among %v: %w", t.Columns, ErrMissingColumn)
		}
	}
	b.OperatorHeader = t.Columns[b.Operator]

	for _, p := range d.PhotoColumns {
		i := t.ColumnIndex(p)
		if i < 0 {
			return Bindings{}, fmt.Errorf("photo column %q: %w", p, ErrMissingColumn)
		}
		b.Photos = append(b.Photos, i)
		b.PhotoHeaders = append(b.PhotoHeaders, t.Columns[i])
	}
	return b, nil
}

func (d Dialect) candidates() []string {
	if len(d.OperatorCandidates) > 0 {
		return d.OperatorCandidates
	}
	return DefaultOperatorCandidates
}

// detectOperator looks for an exact header match first, then for a header
// containing a candidate. The category column is never picked.
func detectOperator(t Table, candidates []string, skip int) int {
	for _, c := range candidates {
		if i := t.ColumnIndex(c); i >= 0 && i != skip {
			return i
		}
	}
	for _, c := range candidates {
		want := normalizeHeader(c)
		for i, h := range t.Columns {
			if i != skip && strings.Contains(normalizeHeader(h), want) {
				return i
			}
		}
	}
	return -1
}

// Operators returns the distinct non-empty operator names of t in first-seen
// order.
func Operators(t Table, b Bindings) []string {
	names := lo.FilterMap(t.Rows, func(r Row, _ int) (string, bool) {
		name := strings.TrimSpace(r.Cell(b.Operator))
		return name, name != ""
	})
	return lo.Uniq(names)
}

// Selection is the set of operators a report covers. All is the select-all
// sentinel.
type Selection struct {
	All       bool     `json:"all"`
	Operators []string `json:"operators"`
}

// Resolve expands the selection against t. The select-all sentinel snapshots
// the operators present in t at call time.
func (s Selection) Resolve(t Table, b Bindings) []string {
	if s.All {
		return Operators(t, b)
	}
	return lo.Uniq(lo.Map(s.Operators, func(o string, _ int) string { return strings.TrimSpace(o) }))
}
