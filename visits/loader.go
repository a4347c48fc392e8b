package visits

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/painel/helpers"
	"github.com/spektr-org/painel/logger"
	"github.com/spektr-org/painel/schema"
)

// ============================================================================
// LOADER — Spreadsheet → []ServiceRecord → Derive
// ============================================================================
// .xlsx/.xlsm are read with excelize (raw cell values, so dates arrive as
// serial numbers); .csv goes through helpers.ParseCSV. Headers are resolved
// through the schema catalogue, every row is parsed, then Derive adds
// Revenue and Day. The source file is never written.
// ============================================================================

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	sheet  string
	schema schema.Config
}

// WithSheet reads the named worksheet instead of the first one.
func WithSheet(name string) LoadOption {
	return func(c *loadConfig) {
		c.sheet = name
	}
}

// Load reads, validates and derives the dataset at path.
// Failures are *LoadError values matching ErrFileNotFound, ErrParseFailure
// or ErrEmptyDataset.
func Load(ctx context.Context, path string, opts ...LoadOption) (*Dataset, error) {
	cfg := &loadConfig{schema: schema.ServiceVisits()}
	for _, opt := range opts {
		opt(cfg)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Kind: FileNotFound, Path: path, Err: err}
		}
		return nil, parseError(path, 0, err)
	}

	started := time.Now()

	var (
		headers []string
		rows    [][]string
		lines   []int
		sheet   string
		err     error
	)
	// ";" files come from pt-BR spreadsheets, where "." only groups thousands.
	var commaDecimal bool
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		var data []byte
		var tbl *helpers.Table
		data, err = os.ReadFile(path)
		if err == nil {
			tbl, err = helpers.ParseCSV(data)
		}
		if err == nil {
			headers, rows, lines = tbl.Headers, tbl.Rows, tbl.Lines
			commaDecimal = tbl.Comma == ';'
		}
	default:
		headers, rows, sheet, err = readWorkbook(path, cfg.sheet)
	}
	if err != nil {
		return nil, parseError(path, 0, err)
	}
	if len(headers) == 0 || len(rows) == 0 {
		return nil, &LoadError{Kind: EmptyDataset, Path: path}
	}

	layout, err := cfg.schema.Resolve(headers)
	if err != nil {
		return nil, parseError(path, 0, err)
	}

	records := make([]ServiceRecord, 0, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		line := i + 2
		if lines != nil {
			line = lines[i]
		}
		rec, err := parseRow(layout, row, commaDecimal)
		if err != nil {
			return nil, parseError(path, line, err)
		}
		rec.SourceRow = line
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, &LoadError{Kind: EmptyDataset, Path: path}
	}

	derived, err := Derive(records)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}

	ds := NewDataset(path, derived)
	ds.Sheet = sheet
	ds.Profile = cfg.schema.Profile(layout, rows, 10)

	logger.Infof(ctx, "📊 Loaded %d records from %s in %s", len(derived), filepath.Base(path), time.Since(started).Round(time.Millisecond))
	return ds, nil
}

// readWorkbook returns the header row and data rows of one worksheet.
func readWorkbook(path, sheet string) ([]string, [][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, "", err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, "", nil
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil, "", fmt.Errorf("planilha %q não encontrada", sheet)
	}

	all, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, "", err
	}
	if len(all) == 0 {
		return nil, nil, sheet, nil
	}
	return all[0], all[1:], sheet, nil
}

// parseRow converts one source row into a record (not yet derived).
func parseRow(layout schema.Layout, row []string, commaDecimal bool) (ServiceRecord, error) {
	rec := ServiceRecord{
		Unit:           layout.Cell(row, schema.Unit),
		Category:       layout.Cell(row, schema.Category),
		Subarea:        layout.Cell(row, schema.Subarea),
		AttendanceType: layout.Cell(row, schema.AttendanceType),
		ServiceType:    layout.Cell(row, schema.ServiceType),
		ServiceName:    layout.Cell(row, schema.ServiceName),
		RealizedRaw:    layout.Cell(row, schema.RealizedDate),
	}

	qty, err := parseDecimal(layout.Cell(row, schema.Quantity), commaDecimal)
	if err != nil {
		return rec, fmt.Errorf("Quantidade: %w", err)
	}
	if !qty.IsInteger() {
		return rec, fmt.Errorf("Quantidade: %s não é um número inteiro", qty)
	}
	if qty.IsNegative() {
		return rec, fmt.Errorf("Quantidade: %s é negativa", qty)
	}
	rec.Quantity = qty.IntPart()

	price, err := parseDecimal(layout.Cell(row, schema.UnitPrice), commaDecimal)
	if err != nil {
		return rec, fmt.Errorf("ValorUnitario: %w", err)
	}
	if price.IsNegative() {
		return rec, fmt.Errorf("ValorUnitario: %s é negativo", price)
	}
	rec.UnitPrice = price

	return rec, nil
}

// parseDecimal accepts "10.5", "10,5", "1.234,56", "1,234.56" and
// "R$ 10,50". Blank cells count as zero. With commaDecimal a value whose
// dots all separate three-digit groups ("1.234", "12.345.678") is an
// integer; other lone dots stay decimal points.
func parseDecimal(s string, commaDecimal bool) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero, nil
	}
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && commaDecimal && thousandsGrouped(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("valor inválido %q", s)
	}
	return d, nil
}

// thousandsGrouped reports whether s looks like "1.234" or "-12.345.678".
func thousandsGrouped(s string) bool {
	groups := strings.Split(strings.TrimPrefix(s, "-"), ".")
	if len(groups) < 2 {
		return false
	}
	head := groups[0]
	if len(head) == 0 || len(head) > 3 || head[0] == '0' || !digits(head) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !digits(g) {
			return false
		}
	}
	return true
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
