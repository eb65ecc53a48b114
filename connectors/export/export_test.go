package export

import (
	"os"
	"path/filepath"
	"testing"

	"intervention-stats/domain/report"

	"github.com/stretchr/testify/require"
)

var agg = report.AggregateTable{
	Granularity:    report.Total,
	OperatorHeader: "Prénom et nom",
	Rows:           []report.AggregateRow{{Operator: "A", Count: 2}},
}

func TestBuild(t *testing.T) {
	arts, err := Build(agg, "", "xlsx", "PDF", "csv")
	require.NoError(t, err)
	require.Len(t, arts, 3)

	require.Equal(t, "repetitions.xlsx", arts[0].Filename)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", arts[0].MediaType)
	require.Equal(t, "repetitions.pdf", arts[1].Filename)
	require.Equal(t, "application/pdf", arts[1].MediaType)
	require.Equal(t, "text/csv", arts[2].MediaType)
	require.Equal(t, "Prénom et nom,Repetitions\nA,2\n", string(arts[2].Content))
	for _, a := range arts {
		require.NotEmpty(t, a.Content)
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(agg, "x", "docx")
	require.Error(t, err)
	require.False(t, Supported("docx"))

	_, err = Build(report.AggregateTable{}, "x", "xlsx")
	require.ErrorIs(t, err, report.ErrMissingColumn)
}

func TestWriteDir(t *testing.T) {
	arts, err := Build(agg, "interventions", "csv")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteDir(dir, arts)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "interventions.csv")}, paths)

	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	require.Equal(t, arts[0].Content, b)
}
