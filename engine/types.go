package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ============================================================================
// ENGINE TYPES — Filter / Group / Aggregate over service visits
// ============================================================================
// The engine knows dimension and measure keys, not spreadsheet columns.
// Keys come from package schema; values are read through RecordView.
// ============================================================================

// ============================================================================
// QUERYSPEC — One visual of a dashboard page
// ============================================================================

// QuerySpec defines what the engine should compute for one chart or table.
type QuerySpec struct {
	Key       string   `json:"key"`       // stable identifier, e.g. "units_by_quantity"
	Visualize string   `json:"visualize"` // "bar", "hbar", "line", "pie", "table", "heatmap"
	Filters   Filters  `json:"filters,omitempty"`
	GroupBy   []string `json:"groupBy"`            // dimension keys; heatmap uses [row, column]
	Measure   string   `json:"measure"`            // summed and used for sorting (empty → default)
	Measures  []string `json:"measures,omitempty"` // extra sums carried on every group
	SortBy    string   `json:"sortBy"`             // "value_desc", "value_asc", "numeric_asc", "label_asc", "" keeps input order
	Limit     int      `json:"limit"`              // 0 = all; heatmap: top rows by total
	Title     string   `json:"title"`
	XAxis     string   `json:"xAxis,omitempty"`
	YAxis     string   `json:"yAxis,omitempty"`
}

// Filters maps a dimension key to the single value it must equal.
// AND across dimensions, exact case-sensitive match. Empty = all records.
type Filters map[string]string

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, v := range f {
		if v != "" {
			return false
		}
	}
	return true
}

// Merge returns a new Filters with other's constraints laid over f.
func (f Filters) Merge(other Filters) Filters {
	out := make(Filters, len(f)+len(other))
	for k, v := range f {
		if v != "" {
			out[k] = v
		}
	}
	for k, v := range other {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Keys returns the constrained dimensions in sorted order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k, v := range f {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output for one QuerySpec.
type Result struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
	Type    string `json:"type"` // "chart", "table", "empty"
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`

	ChartConfig *ChartConfig `json:"chartConfig,omitempty"`
	TableData   *TableData   `json:"tableData,omitempty"`
	CrossTab    *CrossTab    `json:"crossTab,omitempty"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Builders convert these into ChartConfig or TableData.
type Group struct {
	Key       string                     `json:"key"`
	Keys      []string                   `json:"keys,omitempty"` // one value per GroupBy dimension
	Label     string                     `json:"label"`
	Value     decimal.Decimal            `json:"value"`            // sum of the primary measure
	Totals    map[string]decimal.Decimal `json:"totals,omitempty"` // sum of every requested measure
	Count     int                        `json:"count"`
	SubGroups []Group                    `json:"subGroups,omitempty"`
	View      RecordView                 `json:"-"` // Sub-view for records in this group (zero-copy)
}

// Total returns the summed value of measure for this group.
func (g Group) Total(measure string) decimal.Decimal {
	if v, ok := g.Totals[measure]; ok {
		return v
	}
	return decimal.Zero
}

// ============================================================================
// KPI TYPES
// ============================================================================

// KPIs are the scalar indicators shown at the top of a page.
type KPIs struct {
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	AverageValue  decimal.Decimal `json:"averageValue"` // revenue / quantity, 0 when quantity is 0
	RecordCount   int             `json:"recordCount"`
}

// KPICard is one formatted indicator.
type KPICard struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Value    string  `json:"value"`
	RawValue float64 `json:"rawValue"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted,omitempty"`
	Share     float64 `json:"share,omitempty"` // pie only: percent of the series total

	ShareFormatted string `json:"shareFormatted,omitempty"`
}

// ============================================================================
// CROSS-TAB
// ============================================================================

// CrossTab is a two-dimension pivot of a summed measure.
// Cells[r][c] holds the sum for Rows[r] × Columns[c]; absent pairs are zero.
type CrossTab struct {
	RowDimension    string              `json:"rowDimension"`
	ColumnDimension string              `json:"columnDimension"`
	Measure         string              `json:"measure"`
	Rows            []string            `json:"rows"`
	Columns         []string            `json:"columns"`
	Cells           [][]decimal.Decimal `json:"cells"`
}

// Cell returns the value at row label r and column label c.
func (ct *CrossTab) Cell(r, c string) decimal.Decimal {
	ri, ci := indexOf(ct.Rows, r), indexOf(ct.Columns, c)
	if ri < 0 || ci < 0 {
		return decimal.Zero
	}
	return ct.Cells[ri][ci]
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals or aggregations for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
