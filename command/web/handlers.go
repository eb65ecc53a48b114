package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"intervention-stats/connectors/export"
	"intervention-stats/domain/report"

	"github.com/labstack/echo/v4"
)

// sessionHeader lets a client keep its session (and load cache) across
// uploads.
const sessionHeader = "X-Session-ID"

type datasetSummary struct {
	SessionID      string   `json:"session_id"`
	Name           string   `json:"name"`
	Cached         bool     `json:"cached"`
	Columns        []string `json:"columns"`
	Rows           int      `json:"rows"`
	OperatorColumn string   `json:"operator_column,omitempty"`
	Operators      []string `json:"operators"`
	DateColumns    []string `json:"date_columns"`
	DateColumn     string   `json:"date_column,omitempty"`
}

type remoteRequest struct {
	URL string `json:"url"`
}

type analyzeRequest struct {
	DateColumn string   `json:"date_column"`
	Operators  []string `json:"operators"`
	All        bool     `json:"all"`
	Period     string   `json:"period"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	SampleSize int      `json:"sample_size"`
}

func (s *Server) uploadDataset(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, err, "multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, err, "failed to open upload")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return fail(c, http.StatusBadRequest, err, "failed to read upload")
	}
	return s.load(c, fh.Filename, content)
}

func (s *Server) fetchDataset(c echo.Context) error {
	var req remoteRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return fail(c, http.StatusBadRequest, errors.New("url is required"), "invalid request")
	}
	name, content, err := s.remote.Fetch(c.Request().Context(), req.URL)
	if err != nil {
		return fail(c, http.StatusBadGateway, err, "failed to download dataset")
	}
	return s.load(c, name, content)
}

// load parses content into the caller's session, creating one when the
// request carries no live session id.
func (s *Server) load(c echo.Context, name string, content []byte) error {
	sess := s.sessions.getOrCreate(c.Request().Header.Get(sessionHeader))
	sess.mu.Lock()
	defer sess.mu.Unlock()

	tbl, cached, err := sess.loader.Load(name, content)
	if err != nil {
		slog.Warn("dataset.load.failed", "session", sess.id, "name", name, "err", err)
		return fail(c, http.StatusBadRequest, err, "file is not a readable spreadsheet")
	}
	sess.name = name
	sess.last = nil

	sum := datasetSummary{
		SessionID:   sess.id,
		Name:        name,
		Cached:      cached,
		Columns:     tbl.Columns,
		Rows:        len(tbl.Rows),
		Operators:   []string{},
		DateColumns: report.DateColumns(tbl),
		DateColumn:  s.cfg.Dataset.DateColumn,
	}
	if b, err := s.cfg.Dataset.Dialect().Resolve(tbl); err == nil {
		sum.OperatorColumn = b.OperatorHeader
		sum.Operators = report.Operators(tbl, b)
	} else {
		slog.Warn("dataset.operator_column.unresolved", "session", sess.id, "err", err)
	}
	if sum.DateColumn == "" && len(sum.DateColumns) > 0 {
		sum.DateColumn = sum.DateColumns[0]
	}
	slog.Info("dataset.loaded", "session", sess.id, "name", name, "rows", sum.Rows, "cached", cached)
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) observedRange(c echo.Context) error {
	sess, tbl, aerr := s.dataset(c)
	if aerr != nil {
		return aerr.write(c)
	}
	defer sess.mu.Unlock()

	derived, dropped, err := report.Derive(tbl, c.QueryParam("date_column"))
	if err != nil {
		return failReport(c, err)
	}
	r, ok := report.ObservedRange(derived.Rows)
	if !ok {
		return fail(c, http.StatusUnprocessableEntity, report.ErrEmptyTable, "no parsable date in column")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"range":   r,
		"dropped": dropped,
	})
}

func (s *Server) rows(c echo.Context) error {
	sess, tbl, aerr := s.dataset(c)
	if aerr != nil {
		return aerr.write(c)
	}
	defer sess.mu.Unlock()

	records := make([]map[string]string, 0, len(tbl.Rows))
	for _, r := range tbl.Rows {
		records = append(records, tbl.Record(r))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"name":    sess.name,
		"columns": tbl.Columns,
		"rows":    records,
	})
}

func (s *Server) analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err, "invalid request")
	}
	g, err := report.ParseGranularity(orDefault(req.Period, string(report.Total)))
	if err != nil {
		return failReport(c, err)
	}
	start, err := report.ParseDay(req.Start)
	if err != nil {
		return failReport(c, err)
	}
	end, err := report.ParseDay(req.End)
	if err != nil {
		return failReport(c, err)
	}

	sess, tbl, aerr := s.dataset(c)
	if aerr != nil {
		return aerr.write(c)
	}
	defer sess.mu.Unlock()

	sampleSize := req.SampleSize
	if sampleSize <= 0 {
		sampleSize = s.cfg.Dataset.SampleSize
	}
	dateColumn := orDefault(req.DateColumn, s.cfg.Dataset.DateColumn)
	if dateColumn == "" {
		if detected := report.DateColumns(tbl); len(detected) > 0 {
			dateColumn = detected[0]
		}
	}
	res, err := report.Analyze(tbl, s.cfg.Dataset.Dialect(), report.Request{
		DateColumn:  dateColumn,
		Selection:   report.Selection{All: req.All, Operators: req.Operators},
		Granularity: g,
		Range:       report.DateRange{Start: start, End: end},
		SampleSize:  sampleSize,
	}, s.source())
	if err != nil {
		return failReport(c, err)
	}
	if res.Dropped > 0 {
		slog.Warn("dataset.dates.unparsable", "session", sess.id, "column", res.DateColumn, "dropped", res.Dropped)
	}
	sess.last = &res
	slog.Info("analyze.done", "session", sess.id, "range", res.Range.String(),
		"granularity", res.Granularity, "operators", len(res.Operators))
	return c.JSON(http.StatusOK, res)
}

func (s *Server) export(c echo.Context) error {
	format := c.Param("format")
	if !export.Supported(format) {
		return fail(c, http.StatusBadRequest, errors.New("unsupported format"), "format must be xlsx, pdf or csv")
	}
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok {
		return fail(c, http.StatusNotFound, errors.New("session not found"), "upload a dataset first")
	}
	sess.mu.Lock()
	last := sess.last
	sess.mu.Unlock()
	if last == nil {
		return fail(c, http.StatusConflict, errors.New("no analysis"), "run an analysis before exporting")
	}

	arts, err := export.Build(last.Table, s.cfg.Export.Basename, format)
	if err != nil {
		return failReport(c, err)
	}
	a := arts[0]
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+strconv.Quote(a.Filename))
	return c.Blob(http.StatusOK, a.MediaType, a.Content)
}

// apiError is a failure not yet written to the response.
type apiError struct {
	status  int
	err     error
	message string
}

func (e *apiError) write(c echo.Context) error {
	return fail(c, e.status, e.err, e.message)
}

// dataset resolves the session of the request and returns it locked with its
// current table.
func (s *Server) dataset(c echo.Context) (*session, report.Table, *apiError) {
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok {
		return nil, report.Table{}, &apiError{http.StatusNotFound, errors.New("session not found"), "upload a dataset first"}
	}
	sess.mu.Lock()
	tbl, _, ok := sess.loader.Current()
	if !ok {
		sess.mu.Unlock()
		return nil, report.Table{}, &apiError{http.StatusNotFound, errors.New("no dataset"), "upload a dataset first"}
	}
	return sess, tbl, nil
}

// fail writes an error body shaped like {error, message}.
func fail(c echo.Context, status int, err error, message string) error {
	return c.JSON(status, map[string]any{
		"error":   err.Error(),
		"message": message,
	})
}

func failReport(c echo.Context, err error) error {
	switch {
	case errors.Is(err, report.ErrMissingColumn), errors.Is(err, report.ErrEmptyTable):
		return fail(c, http.StatusUnprocessableEntity, err, "dataset does not match the request")
	case errors.Is(err, report.ErrInvalidRange), errors.Is(err, report.ErrUnknownGranularity):
		return fail(c, http.StatusBadRequest, err, "invalid analysis parameters")
	default:
		return fail(c, http.StatusInternalServerError, err, "analysis failed")
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
