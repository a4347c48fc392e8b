package engine

import (
	"context"
	"fmt"

	"github.com/spektr-org/painel/logger"
)

// ============================================================================
// EXECUTOR — Dispatcher for one visual
// ============================================================================
// Entry point: Execute(ctx, spec, view, opts...)
//
// Pipeline:
//   1. Apply filters from QuerySpec → SubView
//   2. Group and aggregate (or pivot, for heatmaps)
//   3. Dispatch to builder (chart / table)
//   4. Return Result
//
// Every call recomputes from the view; nothing is cached between calls.
// ============================================================================

// Execute runs a QuerySpec against a RecordView and returns a render-ready Result.
//
// Options:
//   - WithDefaultMeasure(key) — sets the measure when QuerySpec.Measure is empty
//   - WithNumberFormat(f) — separators and currency prefix for formatted values
//   - WithLabels(m) — display labels for keys
func Execute(ctx context.Context, spec QuerySpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	measure := spec.Measure
	if measure == "" {
		measure = cfg.DefaultMeasure
	}
	spec.Measure = measure

	if !contains(view.MeasureKeys(), measure) {
		return nil, fmt.Errorf("engine: unknown measure %q", measure)
	}
	for _, dim := range spec.GroupBy {
		if !contains(view.DimensionKeys(), dim) {
			return nil, fmt.Errorf("engine: unknown dimension %q", dim)
		}
	}

	// 1. Apply filters → SubView (zero-copy)
	filtered := ApplyFilters(view, spec.Filters)

	logger.Debugf(ctx, "🔧 %s: %d records after filtering (from %d), visualize=%s, measure=%s",
		spec.Key, filtered.Len(), view.Len(), spec.Visualize, measure)

	result := &Result{
		Success: true,
		Key:     spec.Key,
		Title:   spec.Title,
	}

	if filtered.Len() == 0 {
		result.Type = "empty"
		result.Summary = "Nenhum registro para os filtros selecionados."
		return result, nil
	}

	// 2–3. Aggregate and dispatch to builder
	switch spec.Visualize {
	case "heatmap":
		if len(spec.GroupBy) != 2 {
			return nil, fmt.Errorf("engine: heatmap %q needs exactly two dimensions, got %d", spec.Key, len(spec.GroupBy))
		}
		ct := BuildCrossTab(filtered, spec.GroupBy[0], spec.GroupBy[1], measure, spec.Limit)
		if ct == nil {
			result.Type = "empty"
			return result, nil
		}
		result.Type = "chart"
		result.CrossTab = ct
		result.ChartConfig = BuildHeatmap(spec, ct, opts...)

	case "table":
		groups := GroupAndAggregate(filtered, spec.GroupBy, measure, spec.Measures, spec.SortBy, limitFor(spec))
		result.Type = "table"
		result.TableData = BuildTable(spec, groups, filtered, opts...)

	default:
		groups := GroupAndAggregate(filtered, spec.GroupBy, measure, spec.Measures, spec.SortBy, spec.Limit)
		result.Type = "chart"
		result.ChartConfig = BuildChart(spec, groups, opts...)
		if result.ChartConfig == nil {
			result.Type = "empty"
		}
	}

	return result, nil
}

// limitFor keeps list tables from truncating groups: for those, Limit is
// the number of listed records.
func limitFor(spec QuerySpec) int {
	if len(spec.GroupBy) == 0 {
		return 0
	}
	return spec.Limit
}
