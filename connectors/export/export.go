package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ccsv "intervention-stats/connectors/csv"
	"intervention-stats/connectors/pdf"
	"intervention-stats/connectors/xlsx"
	"intervention-stats/domain/report"
)

// Supported formats.
const (
	XLSX = "xlsx"
	PDF  = "pdf"
	CSV  = "csv"
)

// DefaultBasename names artifacts when none is configured.
const DefaultBasename = "repetitions"

type writer struct {
	mediaType string
	write     func(report.AggregateTable) ([]byte, error)
}

var writers = map[string]writer{
	XLSX: {xlsx.MediaType, xlsx.WriteAggregate},
	PDF:  {pdf.MediaType, pdf.Render},
	CSV:  {ccsv.MediaType, ccsv.WriteAggregate},
}

// Supported reports whether format can be produced.
func Supported(format string) bool {
	_, ok := writers[strings.ToLower(format)]
	return ok
}

// Build serializes a once per format. Filenames are <basename>.<format>.
func Build(a report.AggregateTable, basename string, formats ...string) ([]report.ExportArtifact, error) {
	if basename == "" {
		basename = DefaultBasename
	}
	out := make([]report.ExportArtifact, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		w, ok := writers[f]
		if !ok {
			return nil, fmt.Errorf("unsupported export format %q", f)
		}
		content, err := w.write(a)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", f, err)
		}
		out = append(out, report.ExportArtifact{
			Format:    f,
			Filename:  basename + "." + f,
			MediaType: w.mediaType,
			Content:   content,
		})
	}
	return out, nil
}

// WriteDir writes artifacts into dir, creating it when needed.
func WriteDir(dir string, artifacts []report.ExportArtifact) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		p := filepath.Join(dir, a.Filename)
		if err := os.WriteFile(p, a.Content, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
