package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ============================================================================
// CROSS-TAB — Two-dimension pivot with top-N row restriction
// ============================================================================
// 1. Rank row values by total measure (ties keep first appearance) and keep
//    the top N.
// 2. Restrict the view to those rows.
// 3. Pivot: rows and columns sorted ascending, missing pairs filled with 0.
// ============================================================================

// BuildCrossTab pivots measure over rowDim × colDim, keeping only the topN
// row values by total measure (0 = all). Returns nil when view is empty.
func BuildCrossTab(view RecordView, rowDim, colDim, measure string, topN int) *CrossTab {
	if view.Len() == 0 {
		return nil
	}

	top := TopN(view, rowDim, measure, topN)
	if len(top) == 0 {
		return nil
	}

	allowed := make(map[string]bool, len(top))
	for _, g := range top {
		allowed[g.Key] = true
	}

	indices := make([]int, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if allowed[view.Dimension(i, rowDim)] {
			indices = append(indices, i)
		}
	}
	restricted := newSubView(view, indices)

	groups := groupNested(restricted, rowDim, colDim)
	for i := range groups {
		aggregateGroup(&groups[i], measure, []string{measure})
	}

	rows := make([]string, 0, len(groups))
	colSet := make(map[string]bool)
	for _, g := range groups {
		rows = append(rows, g.Key)
		for _, sg := range g.SubGroups {
			colSet[sg.Key] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(rows)
	sort.Strings(cols)

	byRow := make(map[string]map[string]decimal.Decimal, len(groups))
	for _, g := range groups {
		cells := make(map[string]decimal.Decimal, len(g.SubGroups))
		for _, sg := range g.SubGroups {
			cells[sg.Key] = sg.Value
		}
		byRow[g.Key] = cells
	}

	ct := &CrossTab{
		RowDimension:    rowDim,
		ColumnDimension: colDim,
		Measure:         measure,
		Rows:            rows,
		Columns:         cols,
		Cells:           make([][]decimal.Decimal, len(rows)),
	}
	for r, row := range rows {
		ct.Cells[r] = make([]decimal.Decimal, len(cols))
		for c, col := range cols {
			if v, ok := byRow[row][col]; ok {
				ct.Cells[r][c] = v
			} else {
				ct.Cells[r][c] = decimal.Zero
			}
		}
	}
	return ct
}

// RowTotal returns the sum of row r across all columns.
func (ct *CrossTab) RowTotal(r int) decimal.Decimal {
	total := decimal.Zero
	for _, v := range ct.Cells[r] {
		total = total.Add(v)
	}
	return total
}
