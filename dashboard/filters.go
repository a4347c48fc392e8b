package dashboard

import (
	"github.com/spektr-org/painel/engine"
	"github.com/spektr-org/painel/schema"
)

// ============================================================================
// FILTERS — Control values → engine constraints
// ============================================================================
// A Selection is what the user picked on the controls, keyed by column key.
// The "Todas"/"Todos" sentinels and empty values mean "no constraint".
// ============================================================================

// Selection holds one chosen value per filter control.
type Selection map[string]string

// Control is one filter dropdown: the sentinel first, then the distinct
// values of the page's base records in ascending order.
type Control struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	AllLabel string   `json:"allLabel"`
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

// Scope returns the constraints every record on p satisfies before any
// user choice: the pinned subarea, or nothing on the landing page.
func (p Page) Scope() engine.Filters {
	if !p.Pinned() {
		return engine.Filters{}
	}
	return engine.Filters{schema.Subarea: p.Subarea}
}

// Filters turns sel into engine constraints for p. Sentinels are dropped,
// and on pinned pages a user Subarea value is ignored.
func (p Page) Filters(cfg schema.Config, sel Selection) engine.Filters {
	out := engine.Filters{}
	for _, col := range p.controlColumns(cfg) {
		v := sel[col.Key]
		if cfg.IsAll(col.Key, v) {
			continue
		}
		out[col.Key] = v
	}
	return out
}

// Base returns the records p shows before user filters.
func (p Page) Base(view engine.RecordView) engine.RecordView {
	return engine.ApplyFilters(view, p.Scope())
}

// FilterOptions lists the controls exposed on p with their choices,
// computed over the page's base records.
func FilterOptions(p Page, base engine.RecordView, sel Selection, opts ...Option) []Control {
	s := applyOptions(opts)
	cols := p.controlColumns(s.schema)
	controls := make([]Control, 0, len(cols))
	for _, col := range cols {
		values := engine.SortedUniqueValues(base, col.Key)
		options := make([]string, 0, len(values)+1)
		options = append(options, col.AllLabel)
		options = append(options, values...)

		selected := sel[col.Key]
		if s.schema.IsAll(col.Key, selected) {
			selected = col.AllLabel
		}
		controls = append(controls, Control{
			Key:      col.Key,
			Label:    col.DisplayName,
			AllLabel: col.AllLabel,
			Options:  options,
			Selected: selected,
		})
	}
	return controls
}

func (p Page) controlColumns(cfg schema.Config) []schema.ColumnMeta {
	cols := cfg.Filterable()
	if !p.Pinned() {
		return cols
	}
	out := cols[:0:0]
	for _, col := range cols {
		if col.Key != schema.Subarea {
			out = append(out, col)
		}
	}
	return out
}
