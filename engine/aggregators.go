package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// Groups keep first-appearance order until sorted; every sort is stable, so
// ties keep input order.
// ============================================================================

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort → limit.
//
// measure is summed into Group.Value and drives value sorts; every key in
// extra is summed into Group.Totals alongside it.
func GroupAndAggregate(
	view RecordView,
	groupBy []string,
	measure string,
	extra []string,
	sortBy string,
	limit int,
) []Group {
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	switch len(groupBy) {
	case 0:
		groups = []Group{{
			Key:   "all",
			Label: "Total",
			View:  view,
		}}
	case 1:
		groups = groupBySingle(view, groupBy[0])
	default:
		groups = groupByComposite(view, groupBy)
	}

	// 2. Aggregate
	measures := measureList(measure, extra)
	for i := range groups {
		aggregateGroup(&groups[i], measure, measures)
	}

	// 3. Sort
	SortGroups(groups, sortBy)

	// 4. Limit
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	return groups
}

// TopN ranks values of dimension by summed measure, descending, keeping at
// most n entries.
func TopN(view RecordView, dimension, measure string, n int) []Group {
	return GroupAndAggregate(view, []string{dimension}, measure, nil, "value_desc", n)
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Keys:  []string{key},
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

// groupByComposite produces one flat group per distinct combination of
// dimension values, in first-appearance order.
func groupByComposite(view RecordView, dimensions []string) []Group {
	grouped := make(map[string][]int)
	keys := make(map[string][]string)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		parts := make([]string, len(dimensions))
		for d, dim := range dimensions {
			parts[d] = view.Dimension(i, dim)
		}
		key := strings.Join(parts, keySeparator)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
			keys[key] = parts
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Keys:  keys[key],
			Label: strings.Join(keys[key], " / "),
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

// groupNested groups by the first dimension, then each group by the second.
func groupNested(view RecordView, outer, inner string) []Group {
	groups := groupBySingle(view, outer)
	for i := range groups {
		groups[i].SubGroups = groupBySingle(groups[i].View, inner)
	}
	return groups
}

const keySeparator = "\x1f"

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, measures []string) {
	group.Count = group.View.Len()
	group.Totals = make(map[string]decimal.Decimal, len(measures))
	for _, m := range measures {
		group.Totals[m] = SumMeasure(group.View, m)
	}
	group.Value = group.Totals[measure]
	for j := range group.SubGroups {
		aggregateGroup(&group.SubGroups[j], measure, measures)
	}
}

func measureList(measure string, extra []string) []string {
	out := []string{measure}
	for _, m := range extra {
		if m != "" && m != measure {
			out = append(out, m)
		}
	}
	return out
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) decimal.Decimal {
	total := decimal.Zero
	for i := 0; i < view.Len(); i++ {
		total = total.Add(view.Measure(i, measure))
	}
	return total
}

// SafeDiv returns num / den, or zero when den is zero.
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, 10)
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
// All modes are stable: equal keys keep their current relative order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value.GreaterThan(groups[j].Value) })
	case "value_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value.LessThan(groups[j].Value) })
	case "numeric_asc":
		sort.SliceStable(groups, func(i, j int) bool { return numericKey(groups[i].Key) < numericKey(groups[j].Key) })
	case "label_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	case "label_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key > groups[j].Key })
	default:
		// preserve grouping order
	}
}

// numericKey parses a group key as an integer; non-numeric keys sort last.
func numericKey(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// ============================================================================
// DIMENSION UTILITIES
// ============================================================================

// UniqueValues returns distinct non-empty values for a dimension, in
// first-appearance order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// SortedUniqueValues returns distinct non-empty values for a dimension in
// ascending order.
func SortedUniqueValues(view RecordView, dimension string) []string {
	vals := UniqueValues(view, dimension)
	sort.Strings(vals)
	return vals
}

// LabelForDimension returns a capitalized label for a dimension key.
// Used when no schema label is supplied.
func LabelForDimension(dimension string) string {
	if len(dimension) == 0 {
		return ""
	}
	s := strings.ReplaceAll(dimension, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

// ToFloat rounds d to two places for JSON and chart output.
func ToFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
