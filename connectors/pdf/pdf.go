package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"intervention-stats/domain/report"

	"github.com/go-pdf/fpdf"
)

// MediaType is the content type of documents produced by Render.
const MediaType = "application/pdf"

// Page geometry in points, Letter portrait.
const (
	marginLeft   = 30.0
	marginTop    = 50.0
	marginBottom = 40.0
	columnWidth  = 100.0
	linePitch    = 20.0
	cellPadding  = 4.0
	headerSize   = 10.0
	rowSize      = 8.0
)

// Render lays a out as a plain listing: a bold header line then one line per
// row, one fixed-width column per field. When a line would cross the bottom
// margin a new page is started and the header repeated.
func Render(a report.AggregateTable) ([]byte, error) {
	doc, err := render(a)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func render(a report.AggregateTable) (*fpdf.Fpdf, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetCreationDate(time.Unix(0, 0).UTC())
	doc.SetAutoPageBreak(false, marginBottom)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	_, pageHeight := doc.GetPageSize()

	columns := a.Columns()
	y := 0.0
	header := func() {
		doc.AddPage()
		y = marginTop
		doc.SetFont("Helvetica", "B", headerSize)
		line(doc, tr, columns, y)
		doc.SetFont("Helvetica", "", rowSize)
		y += linePitch
	}
	header()
	for _, row := range a.Rows {
		if y > pageHeight-marginBottom {
			header()
		}
		line(doc, tr, format(a.Cells(row)), y)
		y += linePitch
	}
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return doc, nil
}

func line(doc *fpdf.Fpdf, tr func(string) string, cells []string, y float64) {
	for i, c := range cells {
		doc.Text(marginLeft+columnWidth*float64(i), y, fit(doc, tr(c), columnWidth-cellPadding))
	}
}

// fit shortens s until it fits in width with the current font.
func fit(doc *fpdf.Fpdf, s string, width float64) string {
	if doc.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && doc.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func format(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case int:
			out[i] = strconv.Itoa(v)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
