package analyze

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"intervention-stats/connectors/export"
	"intervention-stats/connectors/remote"
	"intervention-stats/connectors/source"
	dc "intervention-stats/domain/config"
	"intervention-stats/domain/report"

	lo "github.com/samber/lo"
)

// Run executes the analyze subcommand over a local or remote dataset.
//
// Usage:
//
//	intervention-stats analyze -file donnee.xlsx [-url https://...] [-sheet name]
//	    [-date-col col] [-operators "A,B" | -all] [-period month]
//	    [-from 2024-01-01] [-to 2024-03-31] [-out ./out] [-formats xlsx,pdf] [-samples 2]
func Run(cfg *dc.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "path of the workbook (.xlsx) or CSV export to analyze")
	rawURL := fs.String("url", "", "download the dataset from this URL instead of -file")
	sheet := fs.String("sheet", cfg.Dataset.Sheet, "sheet to read (default: first sheet)")
	dateCol := fs.String("date-col", cfg.Dataset.DateColumn, "column holding the intervention date")
	operators := fs.String("operators", "", "comma-separated operators to include")
	all := fs.Bool("all", false, "include every operator present in the dataset")
	period := fs.String("period", string(report.Total), "day|week|month|quarter|year|total")
	from := fs.String("from", "", "first day of the window, YYYY-MM-DD (default: first date in data)")
	to := fs.String("to", "", "last day of the window, YYYY-MM-DD (default: last date in data)")
	out := fs.String("out", "./out", "directory receiving the exports")
	formats := fs.String("formats", strings.Join(cfg.Export.Formats, ","), "export formats: xlsx,pdf,csv")
	samples := fs.Int("samples", cfg.Dataset.SampleSize, "rows drawn per operator")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*file == "") == (*rawURL == "") {
		return errors.New("analyze: exactly one of -file or -url is required")
	}

	g, err := report.ParseGranularity(*period)
	if err != nil {
		return err
	}
	start, err := report.ParseDay(*from)
	if err != nil {
		return err
	}
	end, err := report.ParseDay(*to)
	if err != nil {
		return err
	}

	name, content, err := readInput(*file, *rawURL, cfg.Remote.Token, cfg.Remote.Timeout)
	if err != nil {
		return err
	}
	tbl, err := source.Parse(name, content, *sheet)
	if err != nil {
		return err
	}
	slog.Info("dataset.loaded", "name", name, "rows", len(tbl.Rows), "columns", len(tbl.Columns))

	if *dateCol == "" {
		candidates := report.DateColumns(tbl)
		if len(candidates) == 0 {
			return fmt.Errorf("analyze: no date column found, set -date-col: %w", report.ErrMissingColumn)
		}
		*dateCol = candidates[0]
		slog.Info("dataset.date_column.detected", "column", *dateCol)
	}

	sel := report.Selection{All: *all}
	if !*all {
		sel.Operators = lo.Compact(strings.Split(*operators, ","))
	}
	res, err := report.Analyze(tbl, cfg.Dataset.Dialect(), report.Request{
		DateColumn:  *dateCol,
		Selection:   sel,
		Granularity: g,
		Range:       report.DateRange{Start: start, End: end},
		SampleSize:  *samples,
	}, nil)
	if err != nil {
		return err
	}
	if res.Dropped > 0 {
		slog.Warn("dataset.dates.unparsable", "column", res.DateColumn, "dropped", res.Dropped)
	}

	logResult(res)

	fmts := lo.Compact(strings.Split(*formats, ","))
	artifacts, err := export.Build(res.Table, cfg.Export.Basename, fmts...)
	if err != nil {
		return err
	}
	paths, err := export.WriteDir(*out, artifacts)
	if err != nil {
		return err
	}
	slog.Info("analyze.done", "range", res.Range.String(), "granularity", res.Granularity,
		"operators", len(res.Operators), "exports", strings.Join(paths, ","))
	return nil
}

func readInput(file, rawURL, token string, timeout time.Duration) (string, []byte, error) {
	if rawURL != "" {
		ctx := context.Background()
		return remote.New(ctx, token, timeout).Fetch(ctx, rawURL)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", file, err)
	}
	return filepath.Base(file), b, nil
}

func logResult(res report.Result) {
	for _, r := range res.Chart.Rows {
		slog.Info("chart.row", "operator", r.Operator, "period", r.Period, "count", r.Count)
	}
	for _, s := range res.Stats {
		slog.Info("stats.operator", "operator", s.Operator, "total", s.Total,
			"months", s.Months, "average_per_month", s.AveragePerMonth)
	}
	for _, set := range res.Samples {
		if set.NoData {
			slog.Info("sample.no_data", "operator", set.Operator, "range", res.Range.String())
			continue
		}
		for _, row := range set.Rows {
			attrs := []any{"operator", set.Operator}
			for _, c := range res.Columns {
				attrs = append(attrs, c, row.Record[c])
			}
			slog.Info("sample.row", attrs...)
		}
	}
}
