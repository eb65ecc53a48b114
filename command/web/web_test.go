package web

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"intervention-stats/connectors/xlsx"
	dc "intervention-stats/domain/config"
	"intervention-stats/domain/report"

	"github.com/stretchr/testify/require"
)

const dataset = "Horodateur;Prénom et nom;Opérateur;Photo\n" +
	"05/01/2024 08:00;Alice;Interne;https://drive.google.com/open?id=a1\n" +
	"20/01/2024 09:15;Alice;Interne;\n" +
	"01/02/2024 10:30;Bob;Externe;\n" +
	"11/03/2024 10:30;Alice;Interne;\n" +
	"?;Bob;Externe;\n"

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	cfg := dc.Default()
	cfg.Server.UIDir = t.TempDir()
	cfg.Dataset.CategoryColumn = "Opérateur"
	cfg.Dataset.PhotoColumns = []string{"Photo"}
	s := NewServer(&cfg)
	s.source = func() report.Source { return rand.New(rand.NewPCG(1, 2)) }
	return s, s.Echo()
}

func upload(t *testing.T, h http.Handler, name, content, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func do(t *testing.T, h http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestUpload_SummaryAndCache(t *testing.T) {
	s, h := newTestServer(t)

	rec := upload(t, h, "donnee.csv", dataset, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[datasetSummary](t, rec)
	require.NotEmpty(t, sum.SessionID)
	require.False(t, sum.Cached)
	require.Equal(t, 5, sum.Rows)
	require.Equal(t, "Prénom et nom", sum.OperatorColumn)
	require.Equal(t, []string{"Alice", "Bob"}, sum.Operators)
	require.Equal(t, []string{"Horodateur"}, sum.DateColumns)
	require.Equal(t, "Horodateur", sum.DateColumn)

	again := decode[datasetSummary](t, upload(t, h, "donnee.csv", dataset, sum.SessionID))
	require.Equal(t, sum.SessionID, again.SessionID)
	require.True(t, again.Cached)

	other := decode[datasetSummary](t, upload(t, h, "donnee.csv", dataset, ""))
	require.NotEqual(t, sum.SessionID, other.SessionID)
	require.False(t, other.Cached)
	require.Equal(t, 2, s.sessions.len())
}

func TestUpload_Invalid(t *testing.T) {
	_, h := newTestServer(t)

	rec := upload(t, h, "donnee.xlsx", "not a workbook", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	require.Equal(t, "file is not a readable spreadsheet", body["message"])

	rec = do(t, h, http.MethodPost, "/api/datasets", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_AndExport(t *testing.T) {
	_, h := newTestServer(t)
	sum := decode[datasetSummary](t, upload(t, h, "donnee.csv", dataset, ""))
	base := "/api/sessions/" + sum.SessionID

	rec := do(t, h, http.MethodGet, base+"/export/xlsx", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/analyze", analyzeRequest{
		Operators: []string{"Alice", "Bob", "Chloé"},
		Period:    "month",
		Start:     "2024-01-05",
		End:       "2024-01-31",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Range   map[string]string      `json:"range"`
		Dropped int                    `json:"dropped"`
		Chart   report.AggregateTable  `json:"chart"`
		Table   report.AggregateTable  `json:"table"`
		Samples []report.SampleSet     `json:"samples"`
		Stats   []report.OperatorStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, map[string]string{"start": "2024-01-05", "end": "2024-01-31"}, res.Range)
	require.Equal(t, 1, res.Dropped)
	require.Equal(t, []report.AggregateRow{
		{Operator: "Alice", Period: "2024-01", Count: 2, Category: "Interne"},
	}, res.Chart.Rows)
	require.ElementsMatch(t, []report.AggregateRow{
		{Operator: "Alice", Period: "2024-01", Count: 2, Category: "Interne"},
		{Operator: "Alice", Period: "2024-03", Count: 1, Category: "Interne"},
		{Operator: "Bob", Period: "2024-02", Count: 1, Category: "Externe"},
	}, res.Table.Rows)

	require.Len(t, res.Samples, 3)
	require.Len(t, res.Samples[0].Rows, 2)
	require.True(t, res.Samples[1].NoData)
	require.True(t, res.Samples[2].NoData)
	require.Equal(t, 2, res.Stats[0].Total)

	rec = do(t, h, http.MethodGet, base+"/export/xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, xlsx.MediaType, rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="repetitions.xlsx"`, rec.Header().Get("Content-Disposition"))
	tbl, err := xlsx.ReadTable(bytes.NewReader(rec.Body.Bytes()), "")
	require.NoError(t, err)
	require.Equal(t, []string{"Prénom et nom", "Month", report.CountHeader, "Opérateur"}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)

	rec = do(t, h, http.MethodGet, base+"/export/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = do(t, h, http.MethodGet, base+"/export/docx", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_Errors(t *testing.T) {
	_, h := newTestServer(t)
	sum := decode[datasetSummary](t, upload(t, h, "donnee.csv", dataset, ""))
	base := "/api/sessions/" + sum.SessionID

	rec := do(t, h, http.MethodPost, base+"/analyze", analyzeRequest{DateColumn: "Horodateur", Period: "decade"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/analyze", analyzeRequest{DateColumn: "Horodateur", Start: "2024-03-01", End: "2024-01-01"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/analyze", analyzeRequest{DateColumn: "Horodateur", Start: "2024-01-01"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/analyze", analyzeRequest{DateColumn: "Horodateur", End: "2024-12-31"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/analyze", analyzeRequest{DateColumn: "Date"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions/unknown/analyze", analyzeRequest{All: true})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRangeAndRows(t *testing.T) {
	_, h := newTestServer(t)
	sum := decode[datasetSummary](t, upload(t, h, "donnee.csv", dataset, ""))
	base := "/api/sessions/" + sum.SessionID

	rec := do(t, h, http.MethodGet, base+"/range?date_column=Horodateur", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	require.Equal(t, map[string]any{"start": "2024-01-05", "end": "2024-03-11"}, body["range"])
	require.Equal(t, float64(1), body["dropped"])

	rec = do(t, h, http.MethodGet, base+"/range?date_column=Nope", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, base+"/rows", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[struct {
		Columns []string            `json:"columns"`
		Rows    []map[string]string `json:"rows"`
	}](t, rec)
	require.Len(t, rows.Rows, 5)
	require.Equal(t, "Bob", rows.Rows[4]["Prénom et nom"])
}

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	r := newRegistry(time.Hour, nil)
	r.now = func() time.Time { return now }

	a := r.getOrCreate("")
	b := r.getOrCreate("")
	require.Equal(t, 2, r.len())

	now = now.Add(45 * time.Minute)
	_, ok := r.get(a.id)
	require.True(t, ok)

	now = now.Add(30 * time.Minute)
	_, ok = r.get(b.id)
	require.False(t, ok)
	_, ok = r.get(a.id)
	require.True(t, ok)
	require.Equal(t, 1, r.len())

	require.NotEqual(t, a.id, r.getOrCreate("stale").id)
}

func TestRegistry_EvictionIgnoresBusySessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	r := newRegistry(time.Hour, nil)
	r.now = func() time.Time { return now }

	busy := r.getOrCreate("")
	idle := r.getOrCreate("")
	busy.mu.Lock()
	defer busy.mu.Unlock()

	now = now.Add(2 * time.Hour)
	done := make(chan bool)
	go func() {
		_, ok := r.get(idle.id)
		done <- ok
	}()
	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("lookup blocked on a locked session")
	}
	require.Equal(t, 0, r.len())
}
