package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spektr-org/painel/visits"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// chdir changes the working directory to dir for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Data.Path != "Analise_Agosto.xlsx" {
		t.Errorf("data.path = %q", cfg.Data.Path)
	}
	if cfg.Format.DecimalSep != "," || cfg.Format.CurrencyPrefix != "R$ " {
		t.Errorf("format = %+v", cfg.Format)
	}
	if cfg.Dashboard.TopN != 10 || cfg.Dashboard.PreviewRows != 5 {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
	if len(cfg.Pages) != 5 || cfg.Landing().Slug != "geral" {
		t.Errorf("pages = %d, landing = %s", len(cfg.Pages), cfg.Landing().Slug)
	}
	if cfg.Data.LoadRetries != 0 {
		t.Errorf("load retries = %d, loads must not be retried unless configured", cfg.Data.LoadRetries)
	}
	if cfg.Data.RetryDelay != 500*time.Millisecond {
		t.Errorf("retry delay = %v", cfg.Data.RetryDelay)
	}
	if !cfg.Dashboard.ValueLabels || cfg.Dashboard.ReportMaxRows != 0 || len(cfg.Dashboard.Colors) != 0 {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
}

func TestDefaultConfigLoadFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// A CSV that shows up while a retry would still be waiting.
	csv := "Quantidade;ValorUnitario;dataRealizado;Unidade;Categoria;Subarea;TipoAtendimento;TipoServico;NMServico\n" +
		"1;10;2025-08-01;A;Consulta;Odontologia;Particular;Exame;Limpeza\n"
	path := filepath.Join(dir, "dados.csv")
	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(path, []byte(csv), 0o644)
	}()
	defer func() { <-done }()

	_, err = visits.LoadWithRetry(context.Background(), path, cfg.Data.LoadRetries, cfg.Data.RetryDelay)
	if !errors.Is(err, visits.ErrFileNotFound) {
		t.Fatalf("got %v, want ErrFileNotFound on the first attempt", err)
	}
}

func TestConfigOptionsFollowDashboardSettings(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PAINEL_DASHBOARD_REPORT_MAX_ROWS", "50")
	t.Setenv("PAINEL_DASHBOARD_VALUE_LABELS", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dashboard.ReportMaxRows != 50 || cfg.Dashboard.ValueLabels {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
	if len(cfg.RenderOptions()) != 1 || len(cfg.ReportOptions()) != 2 {
		t.Error("expected render and report options")
	}
}

func TestValidateRejectsBadColor(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeFile(t, dir, "painel.yaml", "dashboard:\n  colors: [\"#1E88E5\", \"azul\"]\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "Colors") {
		t.Errorf("got %v, want a Colors validation error", err)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, "painel.yaml", `
server:
  addr: ":9090"
data:
  path: /srv/dados/setembro.xlsx
  sheet: Planilha1
log:
  level: debug
dashboard:
  top_n: 5
pages:
  - slug: geral
    title: Geral
    export_name: dados
  - slug: odonto
    title: Odonto
    subarea: Odontologia
    export_name: odonto
`)
	t.Setenv("PAINEL_SERVER_ADDR", ":7070")
	t.Setenv("PAINEL_SERVER_ALLOW_ORIGINS", "http://a.local,http://b.local")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("env should override yaml, addr = %q", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowOrigins) != 2 {
		t.Errorf("allow_origins = %v", cfg.Server.AllowOrigins)
	}
	if cfg.Data.Path != "/srv/dados/setembro.xlsx" || cfg.Data.Sheet != "Planilha1" {
		t.Errorf("data = %+v", cfg.Data)
	}
	if cfg.Log.Level != "debug" || cfg.Dashboard.TopN != 5 {
		t.Errorf("log/dashboard = %+v %+v", cfg.Log, cfg.Dashboard)
	}
	if len(cfg.Pages) != 2 || cfg.Pages[1].Subarea != "Odontologia" || cfg.Pages[1].ExportName != "odonto" {
		t.Errorf("pages = %+v", cfg.Pages)
	}
	if len(cfg.DashboardOptions()) != 5 {
		t.Error("expected five dashboard options")
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := Load("nope.yaml"); err == nil {
		t.Error("an explicit config path must exist")
	}
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())

	cases := map[string]struct {
		env  map[string]string
		yaml string
		want string
	}{
		"bad log level": {env: map[string]string{"PAINEL_LOG_LEVEL": "loud"}, want: "Level"},
		"same separators": {
			env:  map[string]string{"PAINEL_FORMAT_THOUSANDS_SEP": ",", "PAINEL_FORMAT_DECIMAL_SEP": ","},
			want: "must differ",
		},
		"top n zero": {env: map[string]string{"PAINEL_DASHBOARD_TOP_N": "0"}, want: "TopN"},
		"duplicate slug": {
			yaml: "pages:\n  - {slug: a, title: A, export_name: a}\n  - {slug: a, title: B, subarea: X, export_name: b}\n",
			want: "duplicate page slug",
		},
		"two landing pages": {
			yaml: "pages:\n  - {slug: a, title: A, export_name: a}\n  - {slug: b, title: B, export_name: b}\n",
			want: "exactly one page",
		},
		"page without export name": {
			yaml: "pages:\n  - {slug: a, title: A}\n",
			want: "ExportName",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := ""
			if tc.yaml != "" {
				path = writeFile(t, t.TempDir(), "painel.yaml", tc.yaml)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}
