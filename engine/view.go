package engine

import "github.com/shopspring/decimal"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   DomainView[T]  — reads typed structs via accessor functions (zero-copy)
//   SubView        — filtered subset (indices into parent, zero-copy)
//
// Measures are decimals: summing money as float64 drifts by cents on a
// month of visits, and exports must match the spreadsheet to the cent.
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure in tight loops — keep implementations fast.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) decimal.Decimal
	DimensionKeys() []string // available dimension keys
	MeasureKeys() []string   // available measure keys
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) decimal.Decimal {
	if i < 0 || i >= len(v.indices) {
		return decimal.Zero
	}
	return v.parent.Measure(v.indices[i], key)
}

// Index maps a position in this view to a position in the root view.
// Exporters use it to reach the typed record behind a row.
func (v *SubView) Index(i int) int {
	idx := v.indices[i]
	if parent, ok := v.parent.(Indexer); ok {
		return parent.Index(idx)
	}
	return idx
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// Indexer is implemented by views that select rows of an underlying slice.
type Indexer interface {
	Index(i int) int
}

// RootIndex resolves position i of view to the index in the bound slice.
func RootIndex(view RecordView, i int) int {
	if ix, ok := view.(Indexer); ok {
		return ix.Index(i)
	}
	return i
}

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[visits.ServiceRecord]().
//	    Dimension("unit", func(r visits.ServiceRecord) string { return r.Unit }).
//	    Measure("quantity", func(r visits.ServiceRecord) decimal.Decimal { return decimal.NewFromInt(r.Quantity) })
//
//	view := adapter.Bind(records)
//	filtered := engine.ApplyFilters(view, engine.Filters{"unit": "A"})
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	dimOrder []string
	mesOrder []string
	dims     map[string]func(T) string
	meas     map[string]func(T) decimal.Decimal
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{
		dims: make(map[string]func(T) string),
		meas: make(map[string]func(T) decimal.Decimal),
	}
}

// Dimension registers a dimension accessor.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	if _, exists := a.dims[key]; !exists {
		a.dimOrder = append(a.dimOrder, key)
	}
	a.dims[key] = fn
	return a
}

// Measure registers a measure accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) decimal.Decimal) *DomainAdapter[T] {
	if _, exists := a.meas[key]; !exists {
		a.mesOrder = append(a.mesOrder, key)
	}
	a.meas[key] = fn
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy — holds reference.
func (a *DomainAdapter[T]) Bind(data []T) *DomainView[T] {
	return &DomainView[T]{
		data:     data,
		dims:     a.dims,
		meas:     a.meas,
		dimKeys:  a.dimOrder,
		measKeys: a.mesOrder,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data     []T
	dims     map[string]func(T) string
	meas     map[string]func(T) decimal.Decimal
	dimKeys  []string
	measKeys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.data) {
		return ""
	}
	if fn, ok := v.dims[key]; ok {
		return fn(v.data[i])
	}
	return ""
}

func (v *DomainView[T]) Measure(i int, key string) decimal.Decimal {
	if i < 0 || i >= len(v.data) {
		return decimal.Zero
	}
	if fn, ok := v.meas[key]; ok {
		return fn(v.data[i])
	}
	return decimal.Zero
}

func (v *DomainView[T]) DimensionKeys() []string { return v.dimKeys }
func (v *DomainView[T]) MeasureKeys() []string   { return v.measKeys }

// Rows returns the typed records selected by view, which must be v or a
// view derived from v by filtering or grouping.
func Rows[T any](root *DomainView[T], view RecordView) []T {
	out := make([]T, view.Len())
	for i := range out {
		out[i] = root.data[RootIndex(view, i)]
	}
	return out
}
