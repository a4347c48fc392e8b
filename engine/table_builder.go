package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from QuerySpec + Groups
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Column discovery uses view.DimensionKeys() instead of inspecting records.
// ============================================================================

// BuildTable produces a TableData from a QuerySpec, groups and filtered view.
// Without GroupBy it lists records (up to spec.Limit); otherwise it renders
// one row per group.
func BuildTable(spec QuerySpec, groups []Group, view RecordView, opts ...Option) *TableData {
	if len(spec.GroupBy) == 0 {
		return BuildListTable(spec.Title, view, spec.Limit, opts...)
	}
	return BuildAggregatedTable(spec, groups, opts...)
}

// ============================================================================
// LIST TABLE — Row per record
// ============================================================================

// BuildListTable lists the first limit records of view (0 = all), one column
// per dimension then one per measure.
func BuildListTable(title string, view RecordView, limit int, opts ...Option) *TableData {
	cfg := applyOptions(opts)

	if view.Len() == 0 {
		return &TableData{
			Title:   title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	dimKeys := view.DimensionKeys()
	mesKeys := view.MeasureKeys()
	columns := make([]Column, 0, len(dimKeys)+len(mesKeys))

	for _, key := range dimKeys {
		columns = append(columns, Column{Key: key, Label: cfg.label(key), Type: "text", Align: "left"})
	}
	for _, key := range mesKeys {
		columns = append(columns, Column{Key: key, Label: cfg.label(key), Type: columnType(key), Align: "right"})
	}

	n := view.Len()
	if limit > 0 && limit < n {
		n = limit
	}

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(columns))
		for _, key := range dimKeys {
			row = append(row, view.Dimension(i, key))
		}
		for _, key := range mesKeys {
			row = append(row, formatCell(cfg, key, view.Measure(i, key)))
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("%d de %d registros", n, view.Len()),
			Values: map[string]string{},
		},
	}
}

// ============================================================================
// AGGREGATED TABLE — Summary rows
// ============================================================================

// BuildAggregatedTable renders one row per group: the group's dimension
// values, then each summed measure, then the average value when both
// quantity and revenue were summed.
func BuildAggregatedTable(spec QuerySpec, groups []Group, opts ...Option) *TableData {
	cfg := applyOptions(opts)

	if len(groups) == 0 {
		return &TableData{
			Title:   spec.Title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	measure := spec.Measure
	if measure == "" {
		measure = cfg.DefaultMeasure
	}
	measures := measureList(measure, spec.Measures)
	withAverage := contains(measures, "quantity") && contains(measures, "revenue")

	columns := make([]Column, 0, len(spec.GroupBy)+len(measures)+1)
	for _, dim := range spec.GroupBy {
		columns = append(columns, Column{Key: dim, Label: cfg.label(dim), Type: "text", Align: "left"})
	}
	for _, m := range measures {
		columns = append(columns, Column{Key: m, Label: cfg.label(m), Type: columnType(m), Align: "right"})
	}
	if withAverage {
		columns = append(columns, Column{Key: "average_value", Label: cfg.label("average_value"), Type: "currency", Align: "right"})
	}

	totals := make(map[string]decimal.Decimal, len(measures))
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		row := make([]string, 0, len(columns))
		for d := range spec.GroupBy {
			if d < len(g.Keys) {
				row = append(row, g.Keys[d])
			} else {
				row = append(row, g.Key)
			}
		}
		for _, m := range measures {
			v := g.Total(m)
			row = append(row, formatCell(cfg, m, v))
			totals[m] = totals[m].Add(v)
		}
		if withAverage {
			row = append(row, cfg.Format.Currency(SafeDiv(g.Total("revenue"), g.Total("quantity"))))
		}
		rows = append(rows, row)
	}

	summary := &Summary{Label: "Total", Values: make(map[string]string, len(measures)+1)}
	for _, m := range measures {
		summary.Values[m] = formatCell(cfg, m, totals[m])
	}
	if withAverage {
		summary.Values["average_value"] = cfg.Format.Currency(SafeDiv(totals["revenue"], totals["quantity"]))
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Summary: summary,
	}
}

func columnType(measure string) string {
	if isCurrencyMeasure(measure) {
		return "currency"
	}
	return "number"
}

func formatCell(cfg *config, measure string, v decimal.Decimal) string {
	if isCurrencyMeasure(measure) {
		return cfg.Format.Currency(v)
	}
	if v.IsInteger() {
		return cfg.Format.Int(v.IntPart())
	}
	return cfg.Format.Decimal(v, 2)
}

func contains(list []string, s string) bool {
	return indexOf(list, s) >= 0
}
