package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	DefaultMeasure string            // measure key if QuerySpec.Measure is empty
	Format         NumberFormat      // presentation number rules
	Labels         map[string]string // dimension/measure key → display label
	Colors         []string          // series palette
}

// WithDefaultMeasure sets the measure to aggregate when QuerySpec.Measure is empty.
func WithDefaultMeasure(measure string) Option {
	return func(c *config) {
		c.DefaultMeasure = measure
	}
}

// WithNumberFormat sets the separators and currency prefix used for
// formatted values.
func WithNumberFormat(f NumberFormat) Option {
	return func(c *config) {
		c.Format = f
	}
}

// WithLabels supplies display labels for dimension and measure keys.
func WithLabels(labels map[string]string) Option {
	return func(c *config) {
		c.Labels = labels
	}
}

// WithColors overrides the default series palette.
func WithColors(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Colors = colors
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		DefaultMeasure: "quantity",
		Format:         BrazilianFormat(),
		Colors:         defaultColors,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) label(key string) string {
	if l, ok := c.Labels[key]; ok {
		return l
	}
	return LabelForDimension(key)
}
