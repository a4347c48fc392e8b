package dashboard

import (
	"context"
	"fmt"

	"github.com/spektr-org/painel/engine"
	"github.com/spektr-org/painel/logger"
	"github.com/spektr-org/painel/schema"
)

// ============================================================================
// PAGE PIPELINE — base → filters → KPIs, charts, table
// ============================================================================
// Entry point: Execute(ctx, page, view, selection, opts...)
//
//   1. Restrict the full view to the page scope (pinned subarea)
//   2. Build controls from that base
//   3. Apply the user selection → filtered view
//   4. KPIs, every chart, the detail table, all from the filtered view
//
// Nothing is cached; every call recomputes from the view it is given.
// ============================================================================

// Result is everything one page shows for one selection.
type Result struct {
	Page         Page             `json:"page"`
	Headings     Headings         `json:"headings"`
	Filters      engine.Filters   `json:"filters"`
	Controls     []Control        `json:"controls"`
	KPIs         engine.KPIs      `json:"kpis"`
	Cards        []engine.KPICard `json:"cards"`
	Charts       []*engine.Result `json:"charts"`
	Table        *engine.Result   `json:"table"`
	RecordCount  int              `json:"recordCount"`
	BaseCount    int              `json:"baseCount"`
	SubareaCards []SubareaCard    `json:"subareaCards,omitempty"`

	// View holds the filtered records, the rows the exporters write.
	View engine.RecordView `json:"-"`
}

// Headings are the section titles of a page.
type Headings struct {
	KPIs     string `json:"kpis"`
	Charts   string `json:"charts"`
	Table    string `json:"table"`
	Download string `json:"download"`
}

// Chart returns the chart result with the given key.
func (r *Result) Chart(key string) (*engine.Result, bool) {
	for _, c := range r.Charts {
		if c.Key == key {
			return c, true
		}
	}
	return nil, false
}

// HeadingsFor returns the section titles of p.
func HeadingsFor(p Page) Headings {
	if !p.Pinned() {
		return Headings{
			KPIs:     "Indicadores (KPIs) do Filtro Atual",
			Charts:   "Visualizações",
			Table:    "Tabela Detalhada",
			Download: "Baixar Dados Filtrados",
		}
	}
	return Headings{
		KPIs:     p.Heading("Indicadores (KPIs)"),
		Charts:   p.Heading("Visualizações"),
		Table:    p.Heading("Tabela Detalhada"),
		Download: p.Heading("Baixar Dados Filtrados"),
	}
}

// Execute computes page p over view for the user's selection.
// view is the full dataset; the page scope is applied here.
func Execute(ctx context.Context, p Page, view engine.RecordView, sel Selection, opts ...Option) (*Result, error) {
	s := applyOptions(opts)
	eopts := s.engineOptions()

	// 1–3. Scope, controls, filters
	base := p.Base(view)
	filters := p.Filters(s.schema, sel)
	filtered := engine.ApplyFilters(base, filters)

	logger.Debugf(ctx, "📄 page %s: %d of %d records match %v", p.Slug, filtered.Len(), base.Len(), filters)

	kpis := engine.BuildKPIs(filtered, schema.Quantity, schema.Revenue)
	result := &Result{
		Page:        p,
		Headings:    HeadingsFor(p),
		Filters:     filters,
		Controls:    FilterOptions(p, base, sel, opts...),
		KPIs:        kpis,
		Cards:       engine.KPICards(kpis, eopts...),
		RecordCount: filtered.Len(),
		BaseCount:   base.Len(),
		View:        filtered,
	}

	// 4. Visuals. Filters were already applied, so the specs carry none.
	specs := p.Charts(s.topN)
	result.Charts = make([]*engine.Result, 0, len(specs))
	for _, spec := range specs {
		r, err := engine.Execute(ctx, spec, filtered, eopts...)
		if err != nil {
			return nil, fmt.Errorf("dashboard: chart %s: %w", spec.Key, err)
		}
		result.Charts = append(result.Charts, r)
	}

	table, err := engine.Execute(ctx, p.DetailTable(), filtered, eopts...)
	if err != nil {
		return nil, fmt.Errorf("dashboard: detail table: %w", err)
	}
	result.Table = table

	if !p.Pinned() {
		result.SubareaCards = SubareaCards(view, s.pages, opts...)
	}
	return result, nil
}

// Visual computes a single chart of page p for the user's selection.
func Visual(ctx context.Context, p Page, key string, view engine.RecordView, sel Selection, opts ...Option) (*engine.Result, error) {
	s := applyOptions(opts)
	spec, ok := p.Chart(key, s.topN)
	if !ok {
		return nil, fmt.Errorf("dashboard: page %s has no chart %q", p.Slug, key)
	}
	spec.Filters = p.Scope().Merge(p.Filters(s.schema, sel))
	return engine.Execute(ctx, spec, view, s.engineOptions()...)
}

// Filtered returns the records page p shows for the user's selection.
func Filtered(p Page, view engine.RecordView, sel Selection, opts ...Option) engine.RecordView {
	s := applyOptions(opts)
	return engine.ApplyFilters(p.Base(view), p.Filters(s.schema, sel))
}

// Preview lists the first records of the full dataset, unfiltered.
func Preview(view engine.RecordView, opts ...Option) *engine.TableData {
	s := applyOptions(opts)
	return engine.BuildListTable("Amostra dos dados (primeiras linhas)", view, s.previewRows, s.engineOptions()...)
}
