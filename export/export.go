// Package export writes filtered service-visit records as downloadable
// CSV and Excel files. Both formats carry every column of the dataset,
// derived ones included, in schema order.
package export

import (
	"fmt"
	"strconv"

	"github.com/spektr-org/painel/schema"
	"github.com/spektr-org/painel/visits"
)

// Content types served with each format.
const (
	CSVContentType  = "text/csv"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SheetName is the single worksheet of an Excel export.
const SheetName = "Dados"

// FileName joins a page export name and an extension ("csv", "xlsx").
func FileName(base, ext string) string {
	return fmt.Sprintf("%s.%s", base, ext)
}

// text renders one cell of r as it appears in CSV output.
func text(r visits.ServiceRecord, key string) string {
	switch key {
	case schema.Unit:
		return r.Unit
	case schema.Category:
		return r.Category
	case schema.Subarea:
		return r.Subarea
	case schema.AttendanceType:
		return r.AttendanceType
	case schema.ServiceType:
		return r.ServiceType
	case schema.ServiceName:
		return r.ServiceName
	case schema.RealizedDate:
		return r.RealizedDate.Format(visits.DateLayout)
	case schema.Quantity:
		return strconv.FormatInt(r.Quantity, 10)
	case schema.UnitPrice:
		return r.UnitPrice.String()
	case schema.Revenue:
		return r.Revenue.String()
	case schema.Day:
		return strconv.Itoa(r.Day)
	}
	return ""
}

// value returns one cell of r typed for a spreadsheet: numbers as numbers,
// the date as a time.
func value(r visits.ServiceRecord, key string) any {
	switch key {
	case schema.RealizedDate:
		return r.RealizedDate
	case schema.Quantity:
		return r.Quantity
	case schema.UnitPrice:
		return r.UnitPrice.InexactFloat64()
	case schema.Revenue:
		return r.Revenue.InexactFloat64()
	case schema.Day:
		return r.Day
	}
	return text(r, key)
}
