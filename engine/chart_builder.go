package engine

import "github.com/shopspring/decimal"

// ============================================================================
// CHART BUILDER — Produces ChartConfig from QuerySpec + Groups
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#1E88E5", "#2EC4B6", "#FF9F1C", "#E71D36", "#011627",
	"#8B5CF6", "#10B981", "#F59E0B", "#EC4899", "#6366F1",
}

// BuildChart produces a ChartConfig from a QuerySpec and aggregated groups.
// Returns nil when there is nothing to draw.
func BuildChart(spec QuerySpec, groups []Group, opts ...Option) *ChartConfig {
	if len(groups) == 0 {
		return nil
	}
	cfg := applyOptions(opts)

	chartType := spec.Visualize
	if chartType == "" {
		chartType = "bar"
	}
	measure := spec.Measure
	if measure == "" {
		measure = cfg.DefaultMeasure
	}

	config := &ChartConfig{
		ChartType:  chartType,
		Title:      spec.Title,
		XAxis:      spec.XAxis,
		YAxis:      spec.YAxis,
		ShowLegend: chartType == "pie",
		ShowGrid:   chartType != "pie",
	}
	if config.XAxis == "" && len(spec.GroupBy) > 0 {
		config.XAxis = cfg.label(spec.GroupBy[0])
	}
	if config.YAxis == "" {
		config.YAxis = cfg.label(measure)
	}

	seriesName := config.YAxis
	config.Series = buildSingleSeries(groups, seriesName, measure, chartType == "pie", cfg)
	if chartType == "pie" {
		config.Colors = assignColors(len(groups), cfg.Colors)
	} else {
		config.Colors = assignColors(len(config.Series), cfg.Colors)
	}
	return config
}

// BuildHeatmap renders a cross-tab as a heatmap chart: one series per
// column value, one point per row value.
func BuildHeatmap(spec QuerySpec, ct *CrossTab, opts ...Option) *ChartConfig {
	if ct == nil || len(ct.Rows) == 0 {
		return nil
	}
	cfg := applyOptions(opts)

	config := &ChartConfig{
		ChartType:  "heatmap",
		Title:      spec.Title,
		XAxis:      spec.XAxis,
		YAxis:      spec.YAxis,
		ShowLegend: true,
	}
	if config.XAxis == "" {
		config.XAxis = cfg.label(ct.ColumnDimension)
	}
	if config.YAxis == "" {
		config.YAxis = cfg.label(ct.RowDimension)
	}

	config.Series = make([]ChartSeries, 0, len(ct.Columns))
	for c, col := range ct.Columns {
		points := make([]ChartPoint, 0, len(ct.Rows))
		for r, row := range ct.Rows {
			v := ct.Cells[r][c]
			points = append(points, ChartPoint{
				Label:     row,
				Value:     ToFloat(v),
				Formatted: formatMeasure(cfg, ct.Measure, v),
			})
		}
		config.Series = append(config.Series, ChartSeries{
			Name:  col,
			Data:  points,
			Color: cfg.Colors[c%len(cfg.Colors)],
		})
	}
	return config
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(groups []Group, seriesName, measure string, withShare bool, cfg *config) []ChartSeries {
	if seriesName == "" {
		seriesName = "Valor"
	}

	total := decimal.Zero
	if withShare {
		for _, g := range groups {
			total = total.Add(g.Value)
		}
	}

	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		p := ChartPoint{
			Label:     g.Label,
			Value:     ToFloat(g.Value),
			Formatted: formatMeasure(cfg, measure, g.Value),
		}
		if withShare {
			p.Share = Share(g.Value, total)
			p.ShareFormatted = cfg.Format.Percent(p.Share)
		}
		points = append(points, p)
	}

	return []ChartSeries{{
		Name: seriesName,
		Data: points,
	}}
}

func formatMeasure(cfg *config, measure string, v decimal.Decimal) string {
	if isCurrencyMeasure(measure) {
		return cfg.Format.Currency(v)
	}
	return cfg.Format.Quantity(v)
}

func isCurrencyMeasure(measure string) bool {
	return measure == "revenue" || measure == "unit_price" || measure == "average_value"
}

func assignColors(count int, palette []string) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}
