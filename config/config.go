// Package config loads runtime settings from an optional painel.yaml, the
// environment (PAINEL_ prefix) and a local .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/spektr-org/painel/dashboard"
	"github.com/spektr-org/painel/engine"
	"github.com/spektr-org/painel/render"
	"github.com/spektr-org/painel/report"
)

// EnvPrefix prefixes every environment override, e.g. PAINEL_DATA_PATH.
const EnvPrefix = "PAINEL"

type Config struct {
	Server    ServerConfig        `mapstructure:"server"`
	Data      DataConfig          `mapstructure:"data"`
	Log       LogConfig           `mapstructure:"log"`
	Format    engine.NumberFormat `mapstructure:"format"`
	Dashboard DashboardConfig     `mapstructure:"dashboard"`
	Pages     []dashboard.Page    `mapstructure:"pages" validate:"dive"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

type DataConfig struct {
	Path        string        `mapstructure:"path" validate:"required"`
	Sheet       string        `mapstructure:"sheet"`
	LoadRetries uint64        `mapstructure:"load_retries" validate:"max=20"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"min=0"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

type DashboardConfig struct {
	TopN          int      `mapstructure:"top_n" validate:"min=1,max=100"`
	PreviewRows   int      `mapstructure:"preview_rows" validate:"min=1,max=1000"`
	Colors        []string `mapstructure:"colors" validate:"dive,hexcolor"`
	ValueLabels   bool     `mapstructure:"value_labels"`
	ReportMaxRows int      `mapstructure:"report_max_rows" validate:"min=0"`
}

// Load reads the configuration. path names a config file explicitly; when
// empty, painel.yaml is searched in the working directory and /etc/painel
// and its absence is not an error.
func Load(path string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("painel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/painel")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if len(cfg.Pages) == 0 {
		cfg.Pages = dashboard.DefaultPages()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	br := engine.BrazilianFormat()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("data.path", "Analise_Agosto.xlsx")
	v.SetDefault("data.sheet", "")
	v.SetDefault("data.load_retries", 0)
	v.SetDefault("data.retry_delay", 500*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("format.thousands_sep", br.ThousandsSep)
	v.SetDefault("format.decimal_sep", br.DecimalSep)
	v.SetDefault("format.currency_prefix", br.CurrencyPrefix)
	v.SetDefault("dashboard.top_n", 10)
	v.SetDefault("dashboard.preview_rows", 5)
	v.SetDefault("dashboard.colors", []string{})
	v.SetDefault("dashboard.value_labels", true)
	v.SetDefault("dashboard.report_max_rows", 0)
}

// Validate checks field constraints, page slug uniqueness and that the
// number format can be read back unambiguously.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Format.DecimalSep == "" {
		return fmt.Errorf("config: format.decimal_sep is required")
	}
	if c.Format.DecimalSep == c.Format.ThousandsSep {
		return fmt.Errorf("config: format.decimal_sep and format.thousands_sep must differ")
	}

	seen := make(map[string]bool, len(c.Pages))
	landing := 0
	for _, p := range c.Pages {
		if seen[p.Slug] {
			return fmt.Errorf("config: duplicate page slug %q", p.Slug)
		}
		seen[p.Slug] = true
		if !p.Pinned() {
			landing++
		}
	}
	if landing != 1 {
		return fmt.Errorf("config: want exactly one page without a subarea, got %d", landing)
	}
	return nil
}

// Landing returns the page without a pinned subarea.
func (c *Config) Landing() dashboard.Page {
	for _, p := range c.Pages {
		if !p.Pinned() {
			return p
		}
	}
	return dashboard.DefaultPages()[0]
}

// DashboardOptions returns the page-pipeline options implied by c.
func (c *Config) DashboardOptions() []dashboard.Option {
	return []dashboard.Option{
		dashboard.WithNumberFormat(c.Format),
		dashboard.WithTopN(c.Dashboard.TopN),
		dashboard.WithPreviewRows(c.Dashboard.PreviewRows),
		dashboard.WithColors(c.Dashboard.Colors),
		dashboard.WithPages(c.Pages),
	}
}

// RenderOptions returns the PNG chart options implied by c.
func (c *Config) RenderOptions() []render.Option {
	return []render.Option{render.WithValueLabels(c.Dashboard.ValueLabels)}
}

// ReportOptions returns the PDF report options implied by c.
func (c *Config) ReportOptions() []report.Option {
	return []report.Option{
		report.WithMaxRows(c.Dashboard.ReportMaxRows),
		report.WithRenderOptions(c.RenderOptions()...),
	}
}
