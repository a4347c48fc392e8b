package engine

import "github.com/shopspring/decimal"

// ============================================================================
// KPI BUILDER — Scalar indicators for a filtered view
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// ============================================================================

// BuildKPIs computes total quantity, total revenue, average value per unit
// and record count over view. An empty view yields all zeros.
func BuildKPIs(view RecordView, quantity, revenue string) KPIs {
	k := KPIs{
		TotalQuantity: SumMeasure(view, quantity),
		TotalRevenue:  SumMeasure(view, revenue),
		RecordCount:   view.Len(),
	}
	k.AverageValue = SafeDiv(k.TotalRevenue, k.TotalQuantity)
	return k
}

// KPICards formats KPIs for display, in page order.
func KPICards(k KPIs, opts ...Option) []KPICard {
	cfg := applyOptions(opts)
	return []KPICard{
		{
			Key:      "total_quantity",
			Label:    cfg.label("total_quantity"),
			Value:    cfg.Format.Quantity(k.TotalQuantity),
			RawValue: ToFloat(k.TotalQuantity),
		},
		{
			Key:      "total_revenue",
			Label:    cfg.label("total_revenue"),
			Value:    cfg.Format.Currency(k.TotalRevenue),
			RawValue: ToFloat(k.TotalRevenue),
		},
		{
			Key:      "average_value",
			Label:    cfg.label("average_value"),
			Value:    cfg.Format.Currency(k.AverageValue),
			RawValue: ToFloat(k.AverageValue),
		},
		{
			Key:      "record_count",
			Label:    cfg.label("record_count"),
			Value:    cfg.Format.Int(int64(k.RecordCount)),
			RawValue: float64(k.RecordCount),
		},
	}
}

// Share returns part as a percentage of whole, 0 when whole is zero.
func Share(part, whole decimal.Decimal) float64 {
	return ToFloat(SafeDiv(part, whole).Mul(decimal.NewFromInt(100)))
}
