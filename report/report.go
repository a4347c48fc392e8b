// Package report lays a computed dashboard page out as a printable A4 PDF:
// title, active filters, KPI boxes, chart images and the detail table.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/spektr-org/painel/dashboard"
	"github.com/spektr-org/painel/engine"
	"github.com/spektr-org/painel/render"
)

// ContentType is the MIME type of PDF output.
const ContentType = "application/pdf"

const (
	pageWidth  = 210.0
	margin     = 10.0
	bodyWidth  = pageWidth - 2*margin
	lineHeight = 6.0
)

// Option configures PDF.
type Option func(*settings)

type settings struct {
	generatedAt time.Time
	charts      bool
	maxRows     int
	render      []render.Option
}

// WithGeneratedAt stamps the report with t instead of the current time.
func WithGeneratedAt(t time.Time) Option {
	return func(s *settings) { s.generatedAt = t }
}

// WithCharts toggles the chart images.
func WithCharts(on bool) Option {
	return func(s *settings) { s.charts = on }
}

// WithMaxRows caps the detail table; 0 prints every row.
func WithMaxRows(n int) Option {
	return func(s *settings) { s.maxRows = n }
}

// WithRenderOptions passes opts to every chart image.
func WithRenderOptions(opts ...render.Option) Option {
	return func(s *settings) { s.render = append(s.render, opts...) }
}

// PDF writes res as a PDF document to w.
func PDF(w io.Writer, res *dashboard.Result, opts ...Option) error {
	if res == nil {
		return errors.New("report: nil result")
	}
	s := &settings{generatedAt: time.Now(), charts: true}
	for _, opt := range opts {
		opt(s)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(res.Page.Title, true)
	pdf.SetCreator("painel", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Página %d", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	l := &layout{pdf: pdf, tr: tr}
	l.header(res, s.generatedAt)
	l.kpis(res.Headings.KPIs, res.Cards, res.Page.Color)
	if s.charts {
		if err := l.charts(res.Headings.Charts, res.Charts, s.render); err != nil {
			return err
		}
	}
	if res.Table != nil && res.Table.TableData != nil {
		l.table(res.Headings.Table, res.Table.TableData, s.maxRows)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// FileName returns the download name of a page report.
func FileName(p dashboard.Page) string {
	return p.ExportName + ".pdf"
}

// ============================================================================
// LAYOUT
// ============================================================================

type layout struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (l *layout) section(title string) {
	l.pdf.Ln(4)
	l.pdf.SetFont("Helvetica", "B", 12)
	l.pdf.SetTextColor(1, 22, 39)
	l.pdf.CellFormat(0, 8, l.tr(title), "B", 1, "L", false, 0, "")
	l.pdf.Ln(2)
}

func (l *layout) header(res *dashboard.Result, at time.Time) {
	pdf := l.pdf
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, l.tr(res.Page.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 5, l.tr("Gerado em "+at.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, l.tr(filterLine(res.Controls)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, l.tr(fmt.Sprintf("%d de %d registros", res.RecordCount, res.BaseCount)), "", 1, "L", false, 0, "")
}

// filterLine lists the controls holding a value other than their sentinel.
func filterLine(controls []dashboard.Control) string {
	var parts []string
	for _, c := range controls {
		if c.Selected != "" && c.Selected != c.AllLabel {
			parts = append(parts, c.Label+" = "+c.Selected)
		}
	}
	if len(parts) == 0 {
		return "Filtros: nenhum"
	}
	return "Filtros: " + strings.Join(parts, "; ")
}

func (l *layout) kpis(title string, cards []engine.KPICard, accent string) {
	if len(cards) == 0 {
		return
	}
	l.section(title)
	pdf := l.pdf
	r, g, b := hexRGB(accent)
	w := bodyWidth / float64(len(cards))
	y := pdf.GetY()
	for i, card := range cards {
		x := margin + float64(i)*w
		pdf.SetFillColor(r, g, b)
		pdf.Rect(x+1, y, w-2, 18, "F")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(x+1, y+2)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(w-2, 5, l.tr(card.Label), "", 0, "C", false, 0, "")
		pdf.SetXY(x+1, y+8)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(w-2, 7, l.tr(card.Value), "", 0, "C", false, 0, "")
	}
	pdf.SetXY(margin, y+20)
	pdf.SetTextColor(0, 0, 0)
}

// charts places chart images two per row.
func (l *layout) charts(title string, results []*engine.Result, opts []render.Option) error {
	pdf := l.pdf
	const (
		imgW = bodyWidth/2 - 2
		imgH = imgW * 0.62
	)
	var drawn int
	for _, res := range results {
		if res == nil || res.ChartConfig == nil {
			continue
		}
		var buf bytes.Buffer
		if err := render.PNG(&buf, res.ChartConfig, opts...); err != nil {
			if errors.Is(err, render.ErrNoData) {
				continue
			}
			return fmt.Errorf("report: chart %s: %w", res.Key, err)
		}
		if drawn == 0 {
			l.section(title)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(res.Key, opts, &buf)

		col := drawn % 2
		if col == 0 && pdf.GetY()+imgH > 297-20 {
			pdf.AddPage()
		}
		y := pdf.GetY()
		pdf.ImageOptions(res.Key, margin+float64(col)*(imgW+4), y, imgW, imgH, false, opts, 0, "")
		if col == 1 {
			pdf.SetY(y + imgH + 3)
		}
		drawn++
	}
	if drawn%2 == 1 {
		pdf.SetY(pdf.GetY() + imgH + 3)
	}
	return pdf.Error()
}

func (l *layout) table(title string, td *engine.TableData, maxRows int) {
	if len(td.Columns) == 0 {
		return
	}
	l.section(title)
	pdf := l.pdf

	widths := columnWidths(td.Columns)
	head := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 236, 245)
		pdf.SetTextColor(0, 0, 0)
		for i, c := range td.Columns {
			pdf.CellFormat(widths[i], lineHeight, l.tr(c.Label), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	head()

	rows := td.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		if pdf.GetY()+lineHeight > 297-15 {
			pdf.AddPage()
			head()
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], lineHeight, l.tr(cell), "1", 0, align(td.Columns[i].Align), false, 0, "")
		}
		pdf.Ln(-1)
	}

	if td.Summary != nil {
		pdf.SetFont("Helvetica", "B", 8)
		for i, c := range td.Columns {
			text := td.Summary.Values[c.Key]
			if i == 0 {
				text = td.Summary.Label
			}
			pdf.CellFormat(widths[i], lineHeight, l.tr(text), "1", 0, align(c.Align), false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(rows) < len(td.Rows) {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, lineHeight, l.tr(fmt.Sprintf("%d de %d linhas", len(rows), len(td.Rows))), "", 1, "L", false, 0, "")
	}
}

// columnWidths gives text columns twice the share of numeric ones.
func columnWidths(cols []engine.Column) []float64 {
	var units float64
	for _, c := range cols {
		if c.Type == "text" {
			units += 2
		} else {
			units++
		}
	}
	widths := make([]float64, len(cols))
	for i, c := range cols {
		u := 1.0
		if c.Type == "text" {
			u = 2
		}
		widths[i] = bodyWidth * u / units
	}
	return widths
}

func align(a string) string {
	switch a {
	case "right":
		return "R"
	case "center":
		return "C"
	}
	return "L"
}

// hexRGB reads "#RRGGBB", falling back to the default card blue.
func hexRGB(s string) (int, int, int) {
	var r, g, b int
	if _, err := fmt.Sscanf(strings.TrimPrefix(s, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0x1E, 0x88, 0xE5
	}
	return r, g, b
}
