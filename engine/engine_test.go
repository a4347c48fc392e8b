package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

// ============================================================================
// TEST FIXTURES
// ============================================================================

type visit struct {
	Unit       string
	Subarea    string
	Attendance string
	Service    string
	Day        int
	Qty        int64
	Price      decimal.Decimal
}

var visitAdapter = NewDomainAdapter[visit]().
	Dimension("unit", func(v visit) string { return v.Unit }).
	Dimension("subarea", func(v visit) string { return v.Subarea }).
	Dimension("attendance_type", func(v visit) string { return v.Attendance }).
	Dimension("service_name", func(v visit) string { return v.Service }).
	Dimension("day", func(v visit) string { return fmt.Sprintf("%d", v.Day) }).
	Measure("quantity", func(v visit) decimal.Decimal { return decimal.NewFromInt(v.Qty) }).
	Measure("revenue", func(v visit) decimal.Decimal { return v.Price.Mul(decimal.NewFromInt(v.Qty)) })

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// exampleVisits: A q1 p10, A q1 p10, B q1 p5.
func exampleVisits() []visit {
	return []visit{
		{Unit: "A", Subarea: "Odontologia", Attendance: "Particular", Service: "Limpeza", Day: 1, Qty: 1, Price: d("10")},
		{Unit: "A", Subarea: "Odontologia", Attendance: "Convênio", Service: "Limpeza", Day: 2, Qty: 1, Price: d("10")},
		{Unit: "B", Subarea: "S.S.T", Attendance: "Particular", Service: "ASO", Day: 2, Qty: 1, Price: d("5")},
	}
}

// ============================================================================
// FILTER TESTS
// ============================================================================

func TestApplyFiltersEmptyReturnsSameView(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())
	if got := ApplyFilters(view, nil); got != RecordView(view) {
		t.Error("empty filters should return the input view")
	}
	if got := ApplyFilters(view, Filters{"unit": ""}); got != RecordView(view) {
		t.Error("blank filter values should be ignored")
	}
}

func TestApplyFiltersExactMatch(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())

	assertLen(t, ApplyFilters(view, Filters{"unit": "A"}), 2, "unit=A")
	assertLen(t, ApplyFilters(view, Filters{"unit": "a"}), 0, "match is case-sensitive")
	assertLen(t, ApplyFilters(view, Filters{"unit": "A "}), 0, "no trimming")
	assertLen(t, ApplyFilters(view, Filters{"unit": "A", "attendance_type": "Particular"}), 1, "AND across dimensions")
	assertLen(t, ApplyFilters(view, Filters{"unit": "Z"}), 0, "unknown value")
}

func TestApplyFiltersSubsetIdempotentMonotonic(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())
	f := Filters{"subarea": "Odontologia"}

	once := ApplyFilters(view, f)
	twice := ApplyFilters(once, f)
	if once.Len() != twice.Len() {
		t.Errorf("filter not idempotent: %d vs %d", once.Len(), twice.Len())
	}
	for i := 0; i < once.Len(); i++ {
		if once.Dimension(i, "subarea") != "Odontologia" {
			t.Errorf("row %d escaped the filter", i)
		}
	}

	narrower := ApplyFilters(view, f.Merge(Filters{"attendance_type": "Particular"}))
	if narrower.Len() > once.Len() {
		t.Errorf("adding a constraint grew the result: %d > %d", narrower.Len(), once.Len())
	}
}

func TestRowsResolvesNestedViews(t *testing.T) {
	data := exampleVisits()
	root := visitAdapter.Bind(data)

	byUnit := ApplyFilters(root, Filters{"unit": "A"})
	nested := ApplyFilters(byUnit, Filters{"attendance_type": "Convênio"})

	rows := Rows(root, nested)
	if len(rows) != 1 || rows[0].Day != 2 || rows[0].Unit != "A" {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if RootIndex(nested, 0) != 1 {
		t.Errorf("root index: got %d, want 1", RootIndex(nested, 0))
	}
}

// ============================================================================
// KPI TESTS
// ============================================================================

func TestBuildKPIsExampleScenario(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())

	k := BuildKPIs(view, "quantity", "revenue")
	assertDecimal(t, k.TotalQuantity, "3", "total quantity")
	assertDecimal(t, k.TotalRevenue, "25", "total revenue")
	if got := k.AverageValue.Round(2).String(); got != "8.33" {
		t.Errorf("average value: got %s, want 8.33", got)
	}
	if k.RecordCount != 3 {
		t.Errorf("record count: got %d, want 3", k.RecordCount)
	}

	a := BuildKPIs(ApplyFilters(view, Filters{"unit": "A"}), "quantity", "revenue")
	assertDecimal(t, a.TotalQuantity, "2", "unit A quantity")
	assertDecimal(t, a.TotalRevenue, "20", "unit A revenue")
	assertDecimal(t, a.AverageValue, "10", "unit A average")
	if a.RecordCount != 2 {
		t.Errorf("unit A count: got %d", a.RecordCount)
	}
}

func TestBuildKPIsZeroGuard(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())

	none := BuildKPIs(ApplyFilters(view, Filters{"unit": "Z"}), "quantity", "revenue")
	assertDecimal(t, none.TotalQuantity, "0", "empty quantity")
	assertDecimal(t, none.TotalRevenue, "0", "empty revenue")
	assertDecimal(t, none.AverageValue, "0", "empty average")
	if none.RecordCount != 0 {
		t.Errorf("empty count: got %d", none.RecordCount)
	}

	zeroQty := visitAdapter.Bind([]visit{{Unit: "A", Qty: 0, Price: d("10")}})
	k := BuildKPIs(zeroQty, "quantity", "revenue")
	assertDecimal(t, k.AverageValue, "0", "zero quantity average")
	if k.RecordCount != 1 {
		t.Errorf("zero quantity rows still count: got %d", k.RecordCount)
	}
}

func TestKPICardsFormatting(t *testing.T) {
	k := KPIs{
		TotalQuantity: d("1234"),
		TotalRevenue:  d("1234.56"),
		AverageValue:  d("1.005"),
		RecordCount:   12,
	}
	cards := KPICards(k, WithLabels(map[string]string{"total_quantity": "Quantidade Total"}))
	if len(cards) != 4 {
		t.Fatalf("expected 4 cards, got %d", len(cards))
	}
	assertEqual(t, cards[0].Label, "Quantidade Total", "label override")
	assertEqual(t, cards[0].Value, "1.234", "quantity")
	assertEqual(t, cards[1].Value, "R$ 1.234,56", "revenue")
	assertEqual(t, cards[3].Value, "12", "count")
}

// ============================================================================
// AGGREGATION TESTS
// ============================================================================

func TestGroupAndAggregateDescendingStableTies(t *testing.T) {
	data := []visit{
		{Unit: "C", Qty: 1, Price: d("1")},
		{Unit: "A", Qty: 2, Price: d("1")},
		{Unit: "B", Qty: 1, Price: d("1")},
		{Unit: "A", Qty: 1, Price: d("1")},
	}
	groups := GroupAndAggregate(visitAdapter.Bind(data), []string{"unit"}, "quantity", nil, "value_desc", 0)

	assertKeys(t, groups, []string{"A", "C", "B"})
	assertDecimal(t, groups[0].Value, "3", "A quantity")
	if groups[0].Count != 2 {
		t.Errorf("A count: got %d", groups[0].Count)
	}
}

func TestGroupByDayAscending(t *testing.T) {
	data := []visit{
		{Day: 10, Qty: 5}, {Day: 2, Qty: 1}, {Day: 31, Qty: 2}, {Day: 2, Qty: 1},
	}
	groups := GroupAndAggregate(visitAdapter.Bind(data), []string{"day"}, "quantity", nil, "numeric_asc", 0)
	assertKeys(t, groups, []string{"2", "10", "31"})
	assertDecimal(t, groups[0].Value, "2", "day 2 quantity")
}

func TestGroupByCompositeCarriesExtraMeasures(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())
	groups := GroupAndAggregate(view, []string{"unit", "attendance_type"}, "quantity", []string{"revenue"}, "value_desc", 0)

	if len(groups) != 3 {
		t.Fatalf("expected 3 composite groups, got %d", len(groups))
	}
	g := groups[0]
	if len(g.Keys) != 2 || g.Keys[0] != "A" || g.Keys[1] != "Particular" {
		t.Errorf("first group keys: %v", g.Keys)
	}
	assertDecimal(t, g.Total("revenue"), "10", "revenue carried on group")
	assertDecimal(t, g.Total("missing"), "0", "unknown measure")
}

func TestTopNIndependentRankings(t *testing.T) {
	var data []visit
	// service S00..S11: quantity rises with index, price falls with index.
	for i := 0; i < 12; i++ {
		data = append(data, visit{
			Service: fmt.Sprintf("S%02d", i),
			Qty:     int64(i + 1),
			Price:   decimal.NewFromInt(int64(100 - i*8)),
		})
	}
	view := visitAdapter.Bind(data)

	byQty := TopN(view, "service_name", "quantity", 10)
	byRev := TopN(view, "service_name", "revenue", 10)

	if len(byQty) != 10 || len(byRev) != 10 {
		t.Fatalf("top-10 sizes: %d, %d", len(byQty), len(byRev))
	}
	assertEqual(t, byQty[0].Key, "S11", "most performed")
	for i := 1; i < len(byQty); i++ {
		if byQty[i].Value.GreaterThan(byQty[i-1].Value) {
			t.Errorf("quantity ranking not descending at %d", i)
		}
	}
	for i := 1; i < len(byRev); i++ {
		if byRev[i].Value.GreaterThan(byRev[i-1].Value) {
			t.Errorf("revenue ranking not descending at %d", i)
		}
	}
	if byRev[0].Key == byQty[0].Key {
		t.Errorf("rankings should differ: both led by %s", byRev[0].Key)
	}
}

func TestSortedUniqueValues(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())
	got := SortedUniqueValues(view, "attendance_type")
	if len(got) != 2 || got[0] != "Convênio" || got[1] != "Particular" {
		t.Errorf("unexpected values: %v", got)
	}
}

// ============================================================================
// CROSS-TAB TESTS
// ============================================================================

func TestBuildCrossTabZeroFill(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())
	ct := BuildCrossTab(view, "subarea", "attendance_type", "quantity", 10)
	if ct == nil {
		t.Fatal("expected cross-tab")
	}

	if len(ct.Rows) != 2 || ct.Rows[0] != "Odontologia" || ct.Rows[1] != "S.S.T" {
		t.Errorf("rows: %v", ct.Rows)
	}
	if len(ct.Columns) != 2 || ct.Columns[0] != "Convênio" {
		t.Errorf("columns: %v", ct.Columns)
	}
	assertDecimal(t, ct.Cell("S.S.T", "Convênio"), "0", "absent pair is zero")
	assertDecimal(t, ct.Cell("Odontologia", "Particular"), "1", "present pair")
	assertDecimal(t, ct.RowTotal(0), "2", "row total")
}

func TestBuildCrossTabTopRows(t *testing.T) {
	var data []visit
	for i := 0; i < 12; i++ {
		data = append(data, visit{
			Subarea:    fmt.Sprintf("Sub%02d", i),
			Attendance: "Particular",
			Qty:        int64(i + 1),
		})
	}
	ct := BuildCrossTab(visitAdapter.Bind(data), "subarea", "attendance_type", "quantity", 10)
	if len(ct.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(ct.Rows))
	}
	for _, r := range ct.Rows {
		if r == "Sub00" || r == "Sub01" {
			t.Errorf("%s is outside the top 10 by quantity", r)
		}
	}
}

func TestBuildCrossTabEmpty(t *testing.T) {
	if ct := BuildCrossTab(visitAdapter.Bind(nil), "subarea", "attendance_type", "quantity", 10); ct != nil {
		t.Error("empty view should yield nil cross-tab")
	}
}

// ============================================================================
// BUILDER + EXECUTOR TESTS
// ============================================================================

func TestBuildChartPieShares(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())
	spec := QuerySpec{Key: "units", Visualize: "pie", GroupBy: []string{"unit"}, Measure: "revenue", SortBy: "value_desc"}
	groups := GroupAndAggregate(view, spec.GroupBy, spec.Measure, nil, spec.SortBy, 0)

	chart := BuildChart(spec, groups)
	if chart == nil || len(chart.Series) != 1 {
		t.Fatalf("unexpected chart: %+v", chart)
	}
	pts := chart.Series[0].Data
	if pts[0].Share != 80 || pts[1].Share != 20 {
		t.Errorf("shares: %v / %v", pts[0].Share, pts[1].Share)
	}
	assertEqual(t, pts[0].Formatted, "R$ 20,00", "formatted revenue")
	assertEqual(t, pts[0].ShareFormatted, "80,00%", "formatted share")
	if len(chart.Colors) != 2 {
		t.Errorf("pie gets one color per slice, got %d", len(chart.Colors))
	}
}

func TestBuildChartPieSharesUseNumberFormat(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())
	spec := QuerySpec{Key: "units", Visualize: "pie", GroupBy: []string{"unit"}, Measure: "revenue", SortBy: "value_desc"}
	groups := GroupAndAggregate(view, spec.GroupBy, spec.Measure, nil, spec.SortBy, 0)

	us := NumberFormat{ThousandsSep: ",", DecimalSep: ".", CurrencyPrefix: "$"}
	chart := BuildChart(spec, groups, WithNumberFormat(us))
	pts := chart.Series[0].Data
	assertEqual(t, pts[0].ShareFormatted, "80.00%", "share with dot decimals")
	assertEqual(t, pts[1].ShareFormatted, "20.00%", "share with dot decimals")
	assertEqual(t, pts[0].Formatted, "$20.00", "currency with dot decimals")
}

func TestExecuteDefaultMeasure(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())
	spec := QuerySpec{Key: "units", Visualize: "bar", GroupBy: []string{"unit"}, SortBy: "value_desc"}

	res, err := Execute(context.Background(), spec, view, WithDefaultMeasure("revenue"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	pts := res.ChartConfig.Series[0].Data
	if pts[0].Label != "A" || pts[0].Value != 20 {
		t.Errorf("expected A=20 revenue, got %s=%v", pts[0].Label, pts[0].Value)
	}
}

func TestBuildAggregatedTableAverage(t *testing.T) {
	view := visitAdapter.Bind(exampleVisits())
	spec := QuerySpec{
		Visualize: "table",
		GroupBy:   []string{"unit"},
		Measure:   "quantity",
		Measures:  []string{"revenue"},
		SortBy:    "value_desc",
	}
	groups := GroupAndAggregate(view, spec.GroupBy, spec.Measure, spec.Measures, spec.SortBy, 0)
	table := BuildAggregatedTable(spec, groups)

	if len(table.Columns) != 4 {
		t.Fatalf("expected unit, quantity, revenue, average columns; got %d", len(table.Columns))
	}
	assertEqual(t, table.Rows[0][0], "A", "first unit")
	assertEqual(t, table.Rows[0][3], "R$ 10,00", "A average")
	assertEqual(t, table.Summary.Values["revenue"], "R$ 25,00", "total revenue")
	assertEqual(t, table.Summary.Values["average_value"], "R$ 8,33", "overall average")
}

func TestBuildListTableLimit(t *testing.T) {
	table := BuildListTable("Amostra", visitAdapter.Bind(exampleVisits()), 2)
	if len(table.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(table.Rows))
	}
	assertEqual(t, table.Summary.Label, "2 de 3 registros", "summary label")
}

func TestExecuteDispatch(t *testing.T) {
	ctx := context.Background()
	view := visitAdapter.Bind(exampleVisits())

	heat, err := Execute(ctx, QuerySpec{Key: "heat", Visualize: "heatmap", GroupBy: []string{"subarea", "attendance_type"}, Limit: 10}, view)
	if err != nil {
		t.Fatalf("heatmap: %v", err)
	}
	if heat.CrossTab == nil || heat.ChartConfig.ChartType != "heatmap" {
		t.Errorf("heatmap result: %+v", heat)
	}

	empty, err := Execute(ctx, QuerySpec{Key: "bar", Visualize: "bar", GroupBy: []string{"unit"}, Filters: Filters{"unit": "Z"}}, view)
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	assertEqual(t, empty.Type, "empty", "no rows")

	if _, err := Execute(ctx, QuerySpec{GroupBy: []string{"nope"}}, view); err == nil {
		t.Error("unknown dimension should fail")
	}
	if _, err := Execute(ctx, QuerySpec{Measure: "nope"}, view); err == nil {
		t.Error("unknown measure should fail")
	}
}

// ============================================================================
// FORMAT TESTS
// ============================================================================

func TestBrazilianFormat(t *testing.T) {
	f := BrazilianFormat()
	assertEqual(t, f.Int(0), "0", "zero")
	assertEqual(t, f.Int(999), "999", "hundreds")
	assertEqual(t, f.Int(1234), "1.234", "thousands")
	assertEqual(t, f.Int(1234567), "1.234.567", "millions")
	assertEqual(t, f.Int(-1234), "-1.234", "negative")
	assertEqual(t, f.Currency(d("1234.56")), "R$ 1.234,56", "currency")
	assertEqual(t, f.Currency(d("0")), "R$ 0,00", "zero currency")
	assertEqual(t, f.Currency(d("-5.5")), "R$ -5,50", "negative currency")
	assertEqual(t, f.Percent(12.345), "12,35%", "percent")
	assertEqual(t, f.Quantity(d("2.5")), "3", "quantity rounds")
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func assertLen(t *testing.T, view RecordView, want int, msg string) {
	t.Helper()
	if view.Len() != want {
		t.Errorf("%s: got %d records, want %d", msg, view.Len(), want)
	}
}

func assertDecimal(t *testing.T, got decimal.Decimal, want, msg string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s: got %s, want %s", msg, got, want)
	}
}

func assertEqual(t *testing.T, got, want, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", msg, got, want)
	}
}

func assertKeys(t *testing.T, groups []Group, want []string) {
	t.Helper()
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, g := range groups {
		if g.Key != want[i] {
			t.Errorf("group %d: got %q, want %q", i, g.Key, want[i])
		}
	}
}
