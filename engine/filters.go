package engine

// ============================================================================
// FILTERS — Exact-Match Dimension Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy.
// ============================================================================

// ApplyFilters returns a view of records whose dimensions equal every
// constraint in filters. Comparison is exact and case-sensitive.
// Empty filter = no restriction (returns the original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	type constraint struct{ dim, value string }
	active := make([]constraint, 0, len(filters))
	for _, dim := range filters.Keys() {
		active = append(active, constraint{dim, filters[dim]})
	}

	// Single pass — record passes if it matches ALL dimension filters
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for _, c := range active {
			if view.Dimension(i, c.dim) != c.value {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}
