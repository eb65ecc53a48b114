package cache

import (
	"errors"
	"testing"

	"intervention-stats/domain/report"

	"github.com/stretchr/testify/require"
)

func TestLoader(t *testing.T) {
	calls := 0
	l := NewLoader(func(name string, content []byte) (report.Table, error) {
		calls++
		if string(content) == "bad" {
			return report.Table{}, errors.New("not a workbook")
		}
		return report.Table{Columns: []string{name, string(content)}}, nil
	})

	_, _, ok := l.Current()
	require.False(t, ok)

	tbl, cached, err := l.Load("a.xlsx", []byte("one"))
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, []string{"a.xlsx", "one"}, tbl.Columns)

	tbl, cached, err = l.Load("renamed.xlsx", []byte("one"))
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, []string{"a.xlsx", "one"}, tbl.Columns)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, l.Hits())

	_, _, err = l.Load("b.xlsx", []byte("bad"))
	require.Error(t, err)
	cur, key, ok := l.Current()
	require.True(t, ok)
	require.Equal(t, Key("a.xlsx", []byte("one")), key)
	require.Equal(t, []string{"a.xlsx", "one"}, cur.Columns)

	_, cached, err = l.Load("c.xlsx", []byte("two"))
	require.NoError(t, err)
	require.False(t, cached)

	l.Invalidate()
	_, _, ok = l.Current()
	require.False(t, ok)
	_, cached, err = l.Load("c.xlsx", []byte("two"))
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 4, calls)
}

func TestLoader_ExtensionIsPartOfKey(t *testing.T) {
	l := NewLoader(func(name string, content []byte) (report.Table, error) {
		return report.Table{Columns: []string{name}}, nil
	})

	_, _, err := l.Load("donnee.xlsx", []byte("same"))
	require.NoError(t, err)
	tbl, cached, err := l.Load("donnee.csv", []byte("same"))
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, []string{"donnee.csv"}, tbl.Columns)

	_, cached, err = l.Load("export.CSV", []byte("same"))
	require.NoError(t, err)
	require.True(t, cached)
	require.NotEqual(t, Key("a.csv", []byte("same")), Key("a.xlsx", []byte("same")))
}
