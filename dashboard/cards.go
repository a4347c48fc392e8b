package dashboard

import (
	"github.com/spektr-org/painel/engine"
	"github.com/spektr-org/painel/schema"
)

const (
	defaultCardIcon  = "📈"
	defaultCardColor = "#1E88E5"
)

// SubareaCard is one landing-page navigation tile.
type SubareaCard struct {
	Subarea     string  `json:"subarea"`
	Slug        string  `json:"slug,omitempty"` // page to open; empty when no page is pinned to the subarea
	Icon        string  `json:"icon"`
	Color       string  `json:"color"`
	Quantity    string  `json:"quantity"`
	Revenue     string  `json:"revenue"`
	RawQuantity float64 `json:"rawQuantity"`
	RawRevenue  float64 `json:"rawRevenue"`
}

// SubareaCards summarizes every subarea of view, in ascending subarea order.
// view is the full dataset; user filters never apply to the cards.
func SubareaCards(view engine.RecordView, pages []Page, opts ...Option) []SubareaCard {
	s := applyOptions(opts)

	groups := engine.GroupAndAggregate(view, []string{schema.Subarea}, schema.Quantity,
		[]string{schema.Revenue}, "label_asc", 0)

	cards := make([]SubareaCard, 0, len(groups))
	for _, g := range groups {
		card := SubareaCard{
			Subarea:     g.Key,
			Icon:        defaultCardIcon,
			Color:       defaultCardColor,
			Quantity:    s.format.Quantity(g.Total(schema.Quantity)),
			Revenue:     s.format.Currency(g.Total(schema.Revenue)),
			RawQuantity: engine.ToFloat(g.Total(schema.Quantity)),
			RawRevenue:  engine.ToFloat(g.Total(schema.Revenue)),
		}
		if p, ok := FindBySubarea(pages, g.Key); ok {
			card.Slug = p.Slug
			if p.Icon != "" {
				card.Icon = p.Icon
			}
			if p.Color != "" {
				card.Color = p.Color
			}
		}
		cards = append(cards, card)
	}
	return cards
}
