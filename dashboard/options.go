package dashboard

import (
	"github.com/spektr-org/painel/engine"
	"github.com/spektr-org/painel/schema"
)

// Option configures Execute and the card builders.
type Option func(*settings)

type settings struct {
	schema      schema.Config
	format      engine.NumberFormat
	topN        int
	previewRows int
	colors      []string
	pages       []Page
}

// WithNumberFormat sets the separators and currency prefix for every
// formatted value on the page.
func WithNumberFormat(f engine.NumberFormat) Option {
	return func(s *settings) { s.format = f }
}

// WithTopN bounds the service rankings and the heatmap rows.
func WithTopN(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithPreviewRows sets how many records the sample table lists.
func WithPreviewRows(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.previewRows = n
		}
	}
}

// WithColors overrides the chart palette.
func WithColors(colors []string) Option {
	return func(s *settings) { s.colors = colors }
}

// WithPages sets the page catalogue the landing cards link to.
func WithPages(pages []Page) Option {
	return func(s *settings) {
		if len(pages) > 0 {
			s.pages = pages
		}
	}
}

func applyOptions(opts []Option) *settings {
	s := &settings{
		schema:      schema.ServiceVisits(),
		format:      engine.BrazilianFormat(),
		topN:        10,
		previewRows: 5,
		pages:       DefaultPages(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// engineOptions translates page settings into engine options.
func (s *settings) engineOptions() []engine.Option {
	return []engine.Option{
		engine.WithDefaultMeasure(schema.Quantity),
		engine.WithNumberFormat(s.format),
		engine.WithLabels(Labels(s.schema)),
		engine.WithColors(s.colors),
	}
}

// Labels maps every column and KPI key to its Portuguese display label.
func Labels(cfg schema.Config) map[string]string {
	labels := map[string]string{
		"total_quantity": "Quantidade Total",
		"total_revenue":  "Receita Total",
		"average_value":  "Valor Médio",
		"record_count":   "Número de Atendimentos",
	}
	for _, col := range cfg.Columns {
		labels[col.Key] = col.DisplayName
	}
	return labels
}
