package dashboard

import (
	"fmt"

	"github.com/spektr-org/painel/engine"
	"github.com/spektr-org/painel/schema"
)

// ============================================================================
// PAGES — One parameterized dashboard, many scopes
// ============================================================================
// The landing page runs over the whole dataset. A subarea page pins
// Subarea to one value before user filters apply, hides the Subarea
// control, drops the heatmap and groups its detail table without Subarea.
// ============================================================================

// Page configures one dashboard view.
type Page struct {
	Slug        string `json:"slug" mapstructure:"slug" validate:"required"`
	Title       string `json:"title" mapstructure:"title" validate:"required"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	// Subarea pins the page to one subarea; empty on the landing page.
	Subarea     string `json:"subarea,omitempty" mapstructure:"subarea"`
	// ScopeIn and ScopeOf are the Portuguese phrases used in titles,
	// e.g. "nas Especialidades Médicas" and "das Especialidades Médicas".
	ScopeIn     string `json:"scopeIn,omitempty" mapstructure:"scope_in"`
	ScopeOf     string `json:"scopeOf,omitempty" mapstructure:"scope_of"`
	ExportName  string `json:"exportName" mapstructure:"export_name" validate:"required"`
	Icon        string `json:"icon,omitempty" mapstructure:"icon"`
	Color       string `json:"color,omitempty" mapstructure:"color"`
}

// Pinned reports whether the page is scoped to one subarea.
func (p Page) Pinned() bool { return p.Subarea != "" }

// ChartSuffix is appended to ranking and evolution chart titles.
func (p Page) ChartSuffix() string {
	if p.ScopeIn == "" {
		return ""
	}
	return " " + p.ScopeIn
}

// Heading returns a section heading scoped to the page.
func (p Page) Heading(base string) string {
	if p.ScopeOf == "" {
		return base
	}
	return base + " " + p.ScopeOf
}

// DefaultPages returns the landing page followed by one page per known subarea.
func DefaultPages() []Page {
	return []Page{
		{
			Slug:        "geral",
			Title:       "Dashboard de Análise - Agosto 2025",
			Description: "Visão geral de todos os atendimentos",
			ExportName:  "dados_filtrados",
			Icon:        "📊",
		},
		{
			Slug:       "central-de-atendimento",
			Title:      "Dashboard - Central de Atendimento",
			Subarea:    "Central de Atendimento",
			ScopeIn:    "na Central de Atendimento",
			ScopeOf:    "da Central de Atendimento",
			ExportName: "central_de_atendimento_filtrado",
			Icon:       "📞",
			Color:      "#FF9F1C",
		},
		{
			Slug:       "especialidades-medicas",
			Title:      "Dashboard - Especialidades Médicas",
			Subarea:    "Especialidades Médicas",
			ScopeIn:    "nas Especialidades Médicas",
			ScopeOf:    "das Especialidades Médicas",
			ExportName: "especialidades_medicas_filtrado",
			Icon:       "👨‍⚕️",
			Color:      "#2EC4B6",
		},
		{
			Slug:       "odontologia",
			Title:      "Dashboard - Odontologia",
			Subarea:    "Odontologia",
			ScopeIn:    "na Odontologia",
			ScopeOf:    "da Odontologia",
			ExportName: "odontologia_filtrado",
			Icon:       "🦷",
			Color:      "#E71D36",
		},
		{
			Slug:       "sst",
			Title:      "Dashboard - S.S.T",
			Subarea:    "S.S.T",
			ScopeIn:    "no S.S.T",
			ScopeOf:    "do S.S.T",
			ExportName: "sst_filtrado",
			Icon:       "🛡️",
			Color:      "#011627",
		},
	}
}

// FindPage returns the page with the given slug.
func FindPage(pages []Page, slug string) (Page, bool) {
	for _, p := range pages {
		if p.Slug == slug {
			return p, true
		}
	}
	return Page{}, false
}

// FindBySubarea returns the page pinned to subarea.
func FindBySubarea(pages []Page, subarea string) (Page, bool) {
	for _, p := range pages {
		if p.Pinned() && p.Subarea == subarea {
			return p, true
		}
	}
	return Page{}, false
}

// ============================================================================
// VISUALS — QuerySpecs per page
// ============================================================================

// Chart keys, stable across pages.
const (
	ChartQuantityByUnit     = "quantidade-por-unidade"
	ChartRevenueByUnit      = "receita-por-unidade"
	ChartCategoryShare      = "distribuicao-categoria"
	ChartAttendanceShare    = "distribuicao-tipo-atendimento"
	ChartTopServicesQty     = "top-servicos-quantidade"
	ChartTopServicesRevenue = "top-servicos-faturamento"
	ChartDailyEvolution     = "evolucao-diaria"
	ChartSubareaHeatmap     = "mapa-calor-subarea"
	TableDetail             = "tabela-detalhada"
)

// Charts returns the chart specs shown on page, in display order.
// topN bounds the service rankings and the heatmap rows.
func (p Page) Charts(topN int) []engine.QuerySpec {
	sfx := p.ChartSuffix()
	specs := []engine.QuerySpec{
		{
			Key: ChartQuantityByUnit, Visualize: "bar",
			GroupBy: []string{schema.Unit}, Measure: schema.Quantity, SortBy: "value_desc",
			Title: "Quantidade por Unidade", XAxis: "Unidade", YAxis: "Quantidade",
		},
		{
			Key: ChartRevenueByUnit, Visualize: "bar",
			GroupBy: []string{schema.Unit}, Measure: schema.Revenue, SortBy: "value_desc",
			Title: "Receita por Unidade", XAxis: "Unidade", YAxis: "Receita (R$)",
		},
		{
			Key: ChartCategoryShare, Visualize: "pie",
			GroupBy: []string{schema.Category}, Measure: schema.Quantity, SortBy: "value_desc",
			Title: "Distribuição por Categoria",
		},
		{
			Key: ChartAttendanceShare, Visualize: "pie",
			GroupBy: []string{schema.AttendanceType}, Measure: schema.Quantity, SortBy: "value_desc",
			Title: "Distribuição por Tipo de Atendimento",
		},
		{
			Key: ChartTopServicesQty, Visualize: "hbar",
			GroupBy: []string{schema.ServiceName}, Measure: schema.Quantity, SortBy: "value_desc", Limit: topN,
			Title: fmt.Sprintf("Top %d Serviços mais realizados%s", topN, sfx), XAxis: "Quantidade", YAxis: "Serviço",
		},
		{
			Key: ChartTopServicesRevenue, Visualize: "hbar",
			GroupBy: []string{schema.ServiceName}, Measure: schema.Revenue, SortBy: "value_desc", Limit: topN,
			Title: fmt.Sprintf("Top %d Serviços que mais trouxeram faturamento%s", topN, sfx), XAxis: "Receita (R$)", YAxis: "Serviço",
		},
		{
			Key: ChartDailyEvolution, Visualize: "line",
			GroupBy: []string{schema.Day}, Measure: schema.Quantity, SortBy: "numeric_asc",
			Title: "Evolução Diária de Atendimentos" + sfx, XAxis: "Dia do Mês", YAxis: "Quantidade",
		},
	}
	if !p.Pinned() {
		specs = append(specs, engine.QuerySpec{
			Key: ChartSubareaHeatmap, Visualize: "heatmap",
			GroupBy: []string{schema.Subarea, schema.AttendanceType}, Measure: schema.Quantity, Limit: topN,
			Title: "Mapa de Calor: Subárea vs Tipo de Atendimento", XAxis: "Tipo de Atendimento", YAxis: "Subárea",
		})
	}
	return specs
}

// DetailTable returns the grouped detail table spec for page.
func (p Page) DetailTable() engine.QuerySpec {
	groupBy := []string{schema.Unit, schema.Subarea, schema.AttendanceType}
	if p.Pinned() {
		groupBy = []string{schema.Unit, schema.AttendanceType}
	}
	return engine.QuerySpec{
		Key:       TableDetail,
		Visualize: "table",
		GroupBy:   groupBy,
		Measure:   schema.Quantity,
		Measures:  []string{schema.Revenue},
		SortBy:    "value_desc",
		Title:     p.Heading("Tabela Detalhada"),
	}
}

// Chart returns the spec with key from page's charts.
func (p Page) Chart(key string, topN int) (engine.QuerySpec, bool) {
	for _, spec := range p.Charts(topN) {
		if spec.Key == key {
			return spec, true
		}
	}
	return engine.QuerySpec{}, false
}
