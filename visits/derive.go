package visits

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ============================================================================
// DERIVATION — Revenue = Quantity × UnitPrice, Day = day-of-month
// ============================================================================
// A single unparsable date fails the whole dataset: a silently dropped row
// would make the KPIs disagree with the source spreadsheet.
// ============================================================================

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ErrMissingDate marks a record with an empty dataRealizado cell.
var ErrMissingDate = errors.New("dataRealizado vazio")

// Derive returns a copy of records with RealizedDate parsed (when not yet
// set), Revenue recomputed and Day set. It is idempotent.
func Derive(records []ServiceRecord) ([]ServiceRecord, error) {
	out := make([]ServiceRecord, len(records))
	for i, rec := range records {
		if rec.RealizedDate.IsZero() {
			t, err := ParseRealized(rec.RealizedRaw)
			if err != nil {
				row := rec.SourceRow
				if row == 0 {
					row = i + 2
				}
				return nil, parseError("", row, fmt.Errorf("dataRealizado: %w", err))
			}
			rec.RealizedDate = t
		}
		rec.Revenue = rec.UnitPrice.Mul(decimal.NewFromInt(rec.Quantity))
		rec.Day = rec.RealizedDate.Day()
		out[i] = rec
	}
	return out, nil
}

// ParseRealized parses a date cell: an Excel serial number or one of the
// common text layouts.
func ParseRealized(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMissingDate
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, fmt.Errorf("data inválida %q", raw)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("data inválida %q: %w", raw, err)
		}
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("data inválida %q", raw)
}
