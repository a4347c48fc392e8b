package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/painel/helpers"
	"github.com/spektr-org/painel/schema"
	"github.com/spektr-org/painel/visits"
)

func fixtureRecords(t *testing.T) []visits.ServiceRecord {
	t.Helper()
	records, err := visits.Derive([]visits.ServiceRecord{
		{
			Unit: "Unidade Centro", Category: "Consulta", Subarea: "Especialidades Médicas",
			AttendanceType: "Convênio", ServiceType: "Ambulatorial", ServiceName: "Consulta Cardiologia",
			Quantity: 3, UnitPrice: decimal.RequireFromString("12.35"),
			RealizedDate: time.Date(2025, time.August, 14, 8, 0, 0, 0, time.UTC),
		},
		{
			Unit: "Unidade Norte", Category: "Exame", Subarea: "S.S.T",
			AttendanceType: "Particular", ServiceType: "Ocupacional", ServiceName: "ASO, admissional",
			Quantity: 1, UnitPrice: decimal.RequireFromString("80"),
			RealizedDate: time.Date(2025, time.August, 2, 10, 15, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return records
}

func TestFileName(t *testing.T) {
	if got := FileName("dados_filtrados", "csv"); got != "dados_filtrados.csv" {
		t.Errorf("FileName = %q", got)
	}
}

func TestCSVHasBOMAndAllColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, fixtureRecords(t), schema.ServiceVisits()); err != nil {
		t.Fatalf("CSV: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("CSV output should start with a UTF-8 BOM")
	}

	headers, rows, err := helpers.ReadCSV(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(headers) != 11 {
		t.Fatalf("got %d columns, want 11: %v", len(headers), headers)
	}
	if headers[0] != "Unidade" || headers[9] != "Receita" || headers[10] != "Dia" {
		t.Errorf("unexpected headers %v", headers)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	first := rows[0]
	assertEqual(t, first[6], "2025-08-14 08:00:00", "date")
	assertEqual(t, first[9], "37.05", "revenue")
	assertEqual(t, first[10], "14", "day")
	assertEqual(t, rows[1][5], "ASO, admissional", "quoted service name")
}

func TestCSVRoundTripThroughLoader(t *testing.T) {
	want := fixtureRecords(t)
	var buf bytes.Buffer
	if err := CSV(&buf, want, schema.ServiceVisits()); err != nil {
		t.Fatalf("CSV: %v", err)
	}
	path := filepath.Join(t.TempDir(), "dados_filtrados.csv")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := visits.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != len(want) {
		t.Fatalf("reloaded %d records, want %d", ds.Len(), len(want))
	}
	for i, got := range ds.Records {
		if got.Unit != want[i].Unit || got.ServiceName != want[i].ServiceName {
			t.Errorf("[%d] dimensions changed: %+v", i, got)
		}
		if got.Quantity != want[i].Quantity || !got.Revenue.Equal(want[i].Revenue) {
			t.Errorf("[%d] measures changed: q=%d rev=%s", i, got.Quantity, got.Revenue)
		}
		if !got.RealizedDate.Equal(want[i].RealizedDate) {
			t.Errorf("[%d] date changed: %v", i, got.RealizedDate)
		}
	}
}

func TestXLSXWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := XLSX(&buf, fixtureRecords(t), schema.ServiceVisits()); err != nil {
		t.Fatalf("XLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, SheetName)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	assertEqual(t, rows[0][1], "Categoria", "header")
	assertEqual(t, rows[1][0], "Unidade Centro", "first cell")
	assertEqual(t, rows[1][7], "3", "quantity")

	// "Consulta Cardiologia" is the longest NMServico text: 20 + 2.
	width, err := f.GetColWidth(SheetName, "F")
	if err != nil {
		t.Fatal(err)
	}
	if width != 22 {
		t.Errorf("column F width = %v, want 22", width)
	}
}

func TestEmptyExportsKeepHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, nil, schema.ServiceVisits()); err != nil {
		t.Fatalf("CSV: %v", err)
	}
	headers, rows, err := helpers.ReadCSV(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(headers) != 11 || len(rows) != 0 {
		t.Errorf("empty export: %d headers, %d rows", len(headers), len(rows))
	}

	buf.Reset()
	if err := XLSX(&buf, nil, schema.ServiceVisits()); err != nil {
		t.Fatalf("XLSX: %v", err)
	}
}

func assertEqual(t *testing.T, got, want, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", msg, got, want)
	}
}
