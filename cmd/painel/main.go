package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/painel/config"
	"github.com/spektr-org/painel/dashboard"
	"github.com/spektr-org/painel/export"
	"github.com/spektr-org/painel/logger"
	"github.com/spektr-org/painel/report"
	"github.com/spektr-org/painel/schema"
	"github.com/spektr-org/painel/server"
	"github.com/spektr-org/painel/visits"
)

// ============================================================================
// PAINEL CLI — Service-visit dashboard from a spreadsheet
// ============================================================================

const version = "0.3.0"

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	filePath := flag.String("file", "", "Path to the .xlsx workbook (overrides data.path)")
	sheet := flag.String("sheet", "", "Worksheet to read (default: first sheet)")
	configPath := flag.String("config", "", "Path to painel.yaml (default: ./painel.yaml if present)")
	pageSlug := flag.String("page", "", "Page slug to compute (default: landing page)")
	unidade := flag.String("unidade", "", "Filter: Unidade")
	categoria := flag.String("categoria", "", "Filter: Categoria")
	subarea := flag.String("subarea", "", "Filter: Subárea (landing page only)")
	tipoAtendimento := flag.String("tipo-atendimento", "", "Filter: Tipo de Atendimento")
	tipoServico := flag.String("tipo-servico", "", "Filter: Tipo de Serviço")
	format := flag.String("format", "pretty", "Output format: json, pretty, text, csv, xlsx, pdf")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	serve := flag.Bool("serve", false, "Start the HTTP API instead of printing one page")
	exportAll := flag.String("export-all", "", "Write csv, xlsx and pdf of every page into this directory")
	noCharts := flag.Bool("no-charts", false, "Leave chart images out of PDF reports")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Painel — service-visit dashboard

Usage:
  painel --file Analise_Agosto.xlsx --format text
  painel --file Analise_Agosto.xlsx --page odontologia --unidade "Unidade Centro" --format pdf --out odonto.pdf
  painel --file Analise_Agosto.xlsx --format csv --out dados_filtrados.csv
  painel --file Analise_Agosto.xlsx --export-all ./relatorios
  painel --serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  PAINEL_DATA_PATH, PAINEL_SERVER_ADDR, PAINEL_LOG_LEVEL, ...
  Any config key, upper-cased with "." replaced by "_" and prefixed PAINEL_.

Formats:
  json      Page result as JSON
  pretty    Pretty-printed JSON (default)
  text      KPIs and chart leaders, human-readable
  csv       Filtered records, UTF-8 with BOM
  xlsx      Filtered records, one "Dados" sheet
  pdf       Page report with KPIs, charts and detail table
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("painel %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("%v", err)
	}
	if *filePath != "" {
		cfg.Data.Path = *filePath
	}
	if *sheet != "" {
		cfg.Data.Sheet = *sheet
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		fatalf("%v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Server mode ───────────────────────────────────────────────────────
	if *serve {
		runServer(ctx, cfg)
		return
	}

	if !validFormat(*format) {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *format)
		flag.Usage()
		os.Exit(1)
	}

	// ── Read data ─────────────────────────────────────────────────────────
	var loadOpts []visits.LoadOption
	if cfg.Data.Sheet != "" {
		loadOpts = append(loadOpts, visits.WithSheet(cfg.Data.Sheet))
	}
	ds, err := visits.LoadWithRetry(ctx, cfg.Data.Path, cfg.Data.LoadRetries, cfg.Data.RetryDelay, loadOpts...)
	if err != nil {
		fatalf("%v", err)
	}
	logger.Infof(ctx, "📊 Loaded %d records from %s", ds.Len(), ds.Source)

	opts := cfg.DashboardOptions()
	reportOpts := append(cfg.ReportOptions(), report.WithCharts(!*noCharts))

	// ── Export-all mode ───────────────────────────────────────────────────
	if *exportAll != "" {
		if err := exportPages(ctx, *exportAll, cfg.Pages, ds, opts, reportOpts); err != nil {
			fatalf("%v", err)
		}
		logger.Infof(ctx, "📁 %d pages written to %s", len(cfg.Pages), *exportAll)
		return
	}

	// ── Single page ───────────────────────────────────────────────────────
	page := cfg.Landing()
	if *pageSlug != "" {
		p, ok := dashboard.FindPage(cfg.Pages, *pageSlug)
		if !ok {
			fatalf("unknown page %q", *pageSlug)
		}
		page = p
	}

	sel := dashboard.Selection{
		schema.Unit:           *unidade,
		schema.Category:       *categoria,
		schema.Subarea:        *subarea,
		schema.AttendanceType: *tipoAtendimento,
		schema.ServiceType:    *tipoServico,
	}
	res, err := dashboard.Execute(ctx, page, ds.View(), sel, opts...)
	if err != nil {
		fatalf("%v", err)
	}

	// ── Output writer ─────────────────────────────────────────────────────
	var writer io.Writer = os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		writer = f
	}

	if err := render(writer, *format, res, ds, reportOpts); err != nil {
		fatalf("%v", err)
	}
	if *outFile != "" {
		logger.Infof(ctx, "📄 %s written to %s", *format, *outFile)
	}
}

// ============================================================================
// SERVER MODE
// ============================================================================

func runServer(ctx context.Context, cfg *config.Config) {
	svc, err := server.NewAPIService(cfg)
	if err != nil {
		fatalf("%v", err)
	}

	// A failed first load is served as an error until a reload succeeds.
	_ = svc.LoadDataset(ctx)

	go svc.Serve()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "❌ shutdown: %v", err)
	}
	logger.Infof(shutdownCtx, "👋 server stopped")
}

// ============================================================================
// OUTPUT
// ============================================================================

var formats = []string{"json", "pretty", "text", "csv", "xlsx", "pdf"}

func validFormat(f string) bool {
	for _, v := range formats {
		if v == f {
			return true
		}
	}
	return false
}

func render(w io.Writer, format string, res *dashboard.Result, ds *visits.Dataset, reportOpts []report.Option) error {
	switch format {
	case "csv":
		return export.CSV(w, ds.Select(res.View), schema.ServiceVisits())
	case "xlsx":
		return export.XLSX(w, ds.Select(res.View), schema.ServiceVisits())
	case "pdf":
		return report.PDF(w, res, reportOpts...)
	case "text":
		return writeText(w, res)
	default:
		return writeJSON(w, res, format)
	}
}

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = sonic.ConfigStd.MarshalIndent(v, "", "  ")
	} else {
		out, err = sonic.ConfigStd.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeText prints the KPI cards and the top entry of every ranked chart.
func writeText(w io.Writer, res *dashboard.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", res.Page.Title)
	if line := activeFilters(res.Controls); line != "" {
		fmt.Fprintf(&b, "Filtros: %s\n", line)
	}
	fmt.Fprintf(&b, "\n%s\n", res.Headings.KPIs)
	for _, c := range res.Cards {
		fmt.Fprintf(&b, "  %-24s %s\n", c.Label, c.Value)
	}

	if len(res.SubareaCards) > 0 {
		b.WriteString("\nSubáreas\n")
		for _, c := range res.SubareaCards {
			fmt.Fprintf(&b, "  %s %-26s %10s  %s\n", c.Icon, c.Subarea, c.Quantity, c.Revenue)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", res.Headings.Charts)
	for _, r := range res.Charts {
		if r == nil || r.ChartConfig == nil || len(r.ChartConfig.Series) == 0 || len(r.ChartConfig.Series[0].Data) == 0 {
			continue
		}
		if t := r.ChartConfig.ChartType; t == "line" || t == "heatmap" {
			continue
		}
		top := r.ChartConfig.Series[0].Data[0]
		fmt.Fprintf(&b, "  %-48s %s (%s)\n", r.ChartConfig.Title, top.Label, top.Formatted)
	}

	fmt.Fprintf(&b, "\n%d de %d registros\n", res.RecordCount, res.BaseCount)
	_, err := io.WriteString(w, b.String())
	return err
}

func activeFilters(controls []dashboard.Control) string {
	parts := make([]string, 0, len(controls))
	for _, c := range controls {
		if c.Selected != c.AllLabel {
			parts = append(parts, c.Label+": "+c.Selected)
		}
	}
	return strings.Join(parts, ", ")
}

// ============================================================================
// EXPORT-ALL MODE
// ============================================================================

// exportPages writes the unfiltered csv, xlsx and pdf of every page into dir,
// one page per goroutine.
func exportPages(ctx context.Context, dir string, pages []dashboard.Page, ds *visits.Dataset, opts []dashboard.Option, reportOpts []report.Option) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export dir: %w", err)
	}
	reportOpts = append(reportOpts[:len(reportOpts):len(reportOpts)], report.WithGeneratedAt(time.Now()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range pages {
		p := p
		g.Go(func() error {
			res, err := dashboard.Execute(gctx, p, ds.View(), nil, opts...)
			if err != nil {
				return err
			}
			records := ds.Select(res.View)
			cfg := schema.ServiceVisits()

			writers := []struct {
				name  string
				write func(io.Writer) error
			}{
				{export.FileName(p.ExportName, "csv"), func(w io.Writer) error { return export.CSV(w, records, cfg) }},
				{export.FileName(p.ExportName, "xlsx"), func(w io.Writer) error { return export.XLSX(w, records, cfg) }},
				{report.FileName(p), func(w io.Writer) error { return report.PDF(w, res, reportOpts...) }},
			}
			for _, wr := range writers {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := writeFile(filepath.Join(dir, wr.name), wr.write); err != nil {
					return fmt.Errorf("page %s: %w", p.Slug, err)
				}
			}
			logger.Debugf(gctx, "📄 page %s: %d records exported", p.Slug, len(records))
			return nil
		})
	}
	return g.Wait()
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return write(f)
}

// ============================================================================
// HELPERS
// ============================================================================

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
