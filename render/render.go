// Package render draws engine chart configs as PNG images with gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spektr-org/painel/engine"
)

// ErrNoData is returned for a nil chart or one without points.
var ErrNoData = errors.New("render: chart has no data")

// ContentType is the MIME type of PNG output.
const ContentType = "image/png"

// Option configures PNG.
type Option func(*settings)

type settings struct {
	width, height vg.Length
	valueLabels   bool
}

// WithSize sets the image size.
func WithSize(width, height vg.Length) Option {
	return func(s *settings) {
		if width > 0 && height > 0 {
			s.width, s.height = width, height
		}
	}
}

// WithValueLabels toggles the formatted value drawn above each bar.
func WithValueLabels(on bool) Option {
	return func(s *settings) { s.valueLabels = on }
}

// PNG draws chart to w.
//
//	bar, hbar → plotter.BarChart (hbar horizontal, largest on top)
//	line      → plotter.Line with point markers
//	pie       → bars of percentage shares
//	heatmap   → plotter.HeatMap, one row per series point label
func PNG(w io.Writer, chart *engine.ChartConfig, opts ...Option) error {
	if chart == nil || len(chart.Series) == 0 || len(chart.Series[0].Data) == 0 {
		return ErrNoData
	}
	s := &settings{width: 8 * vg.Inch, height: 5 * vg.Inch, valueLabels: true}
	for _, opt := range opts {
		opt(s)
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = chart.XAxis
	p.Y.Label.Text = chart.YAxis

	var err error
	switch chart.ChartType {
	case "hbar":
		err = drawBars(p, chart, true, s)
	case "line":
		err = drawLine(p, chart)
	case "pie":
		err = drawShares(p, chart, s)
	case "heatmap":
		err = drawHeatmap(p, chart)
	default:
		err = drawBars(p, chart, false, s)
	}
	if err != nil {
		return err
	}
	if chart.ShowGrid {
		p.Add(plotter.NewGrid())
	}

	wt, err := p.WriterTo(s.width, s.height, "png")
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("render: write png: %w", err)
	}
	return nil
}

// ============================================================================
// PLOTTERS
// ============================================================================

func drawBars(p *plot.Plot, chart *engine.ChartConfig, horizontal bool, s *settings) error {
	points := chart.Series[0].Data
	if horizontal {
		// Bar 0 sits at the bottom; flip so the first ranked item is on top.
		points = reversed(points)
	}

	values := make(plotter.Values, len(points))
	labels := make([]string, len(points))
	for i, pt := range points {
		values[i] = pt.Value
		labels[i] = pt.Label
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("render: bars: %w", err)
	}
	bars.Horizontal = horizontal
	bars.Color = seriesColor(chart, 0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	if horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
		if len(labels) > 4 {
			p.X.Tick.Label.Rotation = math.Pi / 6
			p.X.Tick.Label.XAlign = draw.XRight
			p.X.Tick.Label.YAlign = draw.YCenter
		}
	}

	if s.valueLabels {
		xys := make([]plotter.XY, len(points))
		text := make([]string, len(points))
		for i, pt := range points {
			if horizontal {
				xys[i] = plotter.XY{X: pt.Value, Y: float64(i)}
			} else {
				xys[i] = plotter.XY{X: float64(i), Y: pt.Value}
			}
			text[i] = pt.Formatted
		}
		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
		if err != nil {
			return fmt.Errorf("render: labels: %w", err)
		}
		p.Add(lbl)
	}
	return nil
}

func drawLine(p *plot.Plot, chart *engine.ChartConfig) error {
	points := chart.Series[0].Data
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		x, err := strconv.ParseFloat(strings.TrimSpace(pt.Label), 64)
		if err != nil {
			x = float64(i)
		}
		xys[i] = plotter.XY{X: x, Y: pt.Value}
	}

	line, scatter, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("render: line: %w", err)
	}
	c := seriesColor(chart, 0)
	line.Color = c
	line.Width = vg.Points(2)
	scatter.Color = c
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(line, scatter)
	return nil
}

// drawShares plots a pie as one bar per slice, valued by its share.
func drawShares(p *plot.Plot, chart *engine.ChartConfig, s *settings) error {
	points := chart.Series[0].Data
	for i, pt := range points {
		values := make(plotter.Values, len(points))
		values[i] = pt.Share
		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return fmt.Errorf("render: shares: %w", err)
		}
		bars.Color = parseHex(colorAt(chart.Colors, i))
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.Legend.Add(pt.Label, bars)
	}

	labels := make([]string, len(points))
	for i, pt := range points {
		labels[i] = pt.Label
	}
	p.NominalX(labels...)
	p.Y.Label.Text = "%"
	p.Legend.Top = true

	if s.valueLabels {
		xys := make([]plotter.XY, len(points))
		text := make([]string, len(points))
		for i, pt := range points {
			xys[i] = plotter.XY{X: float64(i), Y: pt.Share}
			text[i] = pt.ShareFormatted
		}
		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
		if err != nil {
			return fmt.Errorf("render: labels: %w", err)
		}
		p.Add(lbl)
	}
	return nil
}

func drawHeatmap(p *plot.Plot, chart *engine.ChartConfig) error {
	g := newGrid(chart)
	hm := plotter.NewHeatMap(g, palette.Heat(12, 1))
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)
	p.NominalX(g.cols...)
	p.NominalY(g.rows...)
	return nil
}

// ============================================================================
// HEATMAP GRID
// ============================================================================

// grid adapts a heatmap ChartConfig (one series per column, one point per
// row) to plotter.GridXYZ.
type grid struct {
	rows, cols []string
	z          [][]float64 // z[row][col]
}

func newGrid(chart *engine.ChartConfig) *grid {
	g := &grid{cols: make([]string, len(chart.Series))}
	for _, pt := range chart.Series[0].Data {
		g.rows = append(g.rows, pt.Label)
	}
	g.z = make([][]float64, len(g.rows))
	for r := range g.z {
		g.z[r] = make([]float64, len(g.cols))
	}
	for c, series := range chart.Series {
		g.cols[c] = series.Name
		for r, pt := range series.Data {
			if r < len(g.rows) {
				g.z[r][c] = pt.Value
			}
		}
	}
	return g
}

func (g *grid) Dims() (c, r int)   { return len(g.cols), len(g.rows) }
func (g *grid) Z(c, r int) float64 { return g.z[r][c] }
func (g *grid) X(c int) float64    { return float64(c) }
func (g *grid) Y(r int) float64    { return float64(r) }

// ============================================================================
// COLORS
// ============================================================================

func seriesColor(chart *engine.ChartConfig, i int) color.Color {
	if c := chart.Series[i].Color; c != "" {
		return parseHex(c)
	}
	return parseHex(colorAt(chart.Colors, i))
}

func colorAt(colors []string, i int) string {
	if len(colors) == 0 {
		return "#1E88E5"
	}
	return colors[i%len(colors)]
}

// parseHex reads "#RRGGBB"; anything else yields a neutral gray.
func parseHex(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

func reversed(points []engine.ChartPoint) []engine.ChartPoint {
	out := make([]engine.ChartPoint, len(points))
	for i, pt := range points {
		out[len(points)-1-i] = pt
	}
	return out
}
