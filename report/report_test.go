package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spektr-org/painel/dashboard"
	"github.com/spektr-org/painel/render"
	"github.com/spektr-org/painel/schema"
	"github.com/spektr-org/painel/visits"
)

func pageResult(t *testing.T, slug string, sel dashboard.Selection) *dashboard.Result {
	t.Helper()
	day := func(d int) time.Time { return time.Date(2025, time.August, d, 8, 0, 0, 0, time.UTC) }
	records, err := visits.Derive([]visits.ServiceRecord{
		{Unit: "A", Category: "Consulta", Subarea: "Odontologia", AttendanceType: "Particular", ServiceType: "Clínico",
			ServiceName: "Limpeza", Quantity: 2, UnitPrice: decimal.NewFromInt(90), RealizedDate: day(4)},
		{Unit: "B", Category: "Exame", Subarea: "S.S.T", AttendanceType: "Convênio", ServiceType: "Ocupacional",
			ServiceName: "Audiometria", Quantity: 5, UnitPrice: decimal.NewFromInt(35), RealizedDate: day(11)},
	})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	p, ok := dashboard.FindPage(dashboard.DefaultPages(), slug)
	if !ok {
		t.Fatalf("no page %s", slug)
	}
	res, err := dashboard.Execute(context.Background(), p, visits.NewDataset("x.xlsx", records).View(), sel)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return res
}

func TestPDFLanding(t *testing.T) {
	var buf bytes.Buffer
	err := PDF(&buf, pageResult(t, "geral", nil), WithGeneratedAt(time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestPDFWithoutChartsAndRowCap(t *testing.T) {
	var buf bytes.Buffer
	res := pageResult(t, "odontologia", dashboard.Selection{schema.Unit: "A"})
	if err := PDF(&buf, res, WithCharts(false), WithMaxRows(1)); err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty PDF")
	}
}

func TestPDFWithRenderOptions(t *testing.T) {
	res := pageResult(t, "geral", nil)
	var plain, labeled bytes.Buffer
	at := WithGeneratedAt(time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC))
	if err := PDF(&plain, res, at, WithRenderOptions(render.WithValueLabels(false))); err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if err := PDF(&labeled, res, at); err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if plain.Len() == labeled.Len() && bytes.Equal(plain.Bytes(), labeled.Bytes()) {
		t.Error("render options should reach the chart images")
	}
}

func TestPDFEmptySelection(t *testing.T) {
	var buf bytes.Buffer
	res := pageResult(t, "geral", dashboard.Selection{schema.Unit: "Z"})
	if err := PDF(&buf, res); err != nil {
		t.Fatalf("PDF on empty selection: %v", err)
	}
}

func TestPDFNilResult(t *testing.T) {
	if err := PDF(&bytes.Buffer{}, nil); err == nil {
		t.Error("nil result should fail")
	}
}

func TestFilterLine(t *testing.T) {
	controls := []dashboard.Control{
		{Label: "Unidade", AllLabel: "Todas", Selected: "A"},
		{Label: "Categoria", AllLabel: "Todas", Selected: "Todas"},
		{Label: "Tipo de Serviço", AllLabel: "Todos", Selected: "Ocupacional"},
	}
	want := "Filtros: Unidade = A; Tipo de Serviço = Ocupacional"
	if got := filterLine(controls); got != want {
		t.Errorf("filterLine = %q, want %q", got, want)
	}
	if got := filterLine(nil); got != "Filtros: nenhum" {
		t.Errorf("filterLine(nil) = %q", got)
	}
}

func TestHexRGB(t *testing.T) {
	if r, g, b := hexRGB("#E71D36"); r != 0xE7 || g != 0x1D || b != 0x36 {
		t.Errorf("hexRGB = %d,%d,%d", r, g, b)
	}
	if r, g, b := hexRGB(""); r != 0x1E || g != 0x88 || b != 0xE5 {
		t.Errorf("fallback = %d,%d,%d", r, g, b)
	}
}

func TestFileName(t *testing.T) {
	p, _ := dashboard.FindPage(dashboard.DefaultPages(), "especialidades-medicas")
	if got := FileName(p); got != "especialidades_medicas_filtrado.pdf" {
		t.Errorf("FileName = %q", got)
	}
}
