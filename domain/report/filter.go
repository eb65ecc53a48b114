package report

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateRange is an inclusive interval of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether the date component of t lies within r.
func (r DateRange) Contains(t time.Time) bool {
	d := dateOf(t)
	return !d.Before(dateOf(r.Start)) && !d.After(dateOf(r.End))
}

// String renders the range as "start..end".
func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}

// MarshalJSON renders both bounds as YYYY-MM-DD.
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{r.Start.Format("2006-01-02"), r.End.Format("2006-01-02")})
}

// ObservedRange returns the first and last dates among dated rows.
func ObservedRange(rows []Row) (DateRange, bool) {
	var r DateRange
	found := false
	for _, row := range rows {
		if !row.Dated {
			continue
		}
		d := dateOf(row.Date)
		if !found || d.Before(r.Start) {
			r.Start = d
		}
		if !found || d.After(r.End) {
			r.End = d
		}
		found = true
	}
	return r, found
}

// ResolveRange fills a zero Start or End from observed. Both bounds must lie
// within observed and Start must not be after End.
func ResolveRange(requested, observed DateRange) (DateRange, error) {
	r := requested
	if r.Start.IsZero() {
		r.Start = observed.Start
	}
	if r.End.IsZero() {
		r.End = observed.End
	}
	r.Start, r.End = dateOf(r.Start), dateOf(r.End)
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}
	if r.Start.Before(dateOf(observed.Start)) || r.End.After(dateOf(observed.End)) {
		return DateRange{}, fmt.Errorf("%w: %s is outside the observed dates %s", ErrInvalidRange,
			r.String(), observed.String())
	}
	return r, nil
}

// FilterByRange keeps dated rows whose date lies within r. Undated rows are
// always excluded.
func FilterByRange(rows []Row, r DateRange) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Dated && r.Contains(row.Date) {
			out = append(out, row)
		}
	}
	return out
}

// ParseDay parses a YYYY-MM-DD bound; an empty string yields the zero time.
func ParseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidRange, s)
	}
	return t, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
