package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	ccsv "intervention-stats/connectors/csv"
	"intervention-stats/connectors/xlsx"
	"intervention-stats/domain/report"
)

// Parse reads an uploaded dataset. Names ending in .csv are read as CSV,
// everything else as a workbook.
func Parse(name string, content []byte, sheet string) (report.Table, error) {
	var (
		t   report.Table
		err error
	)
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		t, err = ccsv.ReadTable(bytes.NewReader(content))
	} else {
		t, err = xlsx.ReadTable(bytes.NewReader(content), sheet)
	}
	if err != nil {
		return report.Table{}, fmt.Errorf("load %s: %w", name, err)
	}
	return t, nil
}

// Loader adapts Parse to a fixed sheet name.
func Loader(sheet string) func(name string, content []byte) (report.Table, error) {
	return func(name string, content []byte) (report.Table, error) {
		return Parse(name, content, sheet)
	}
}
