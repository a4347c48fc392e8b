// Package visits holds the service-visit record, the spreadsheet loader and
// the derivation step that adds Revenue and Day to every record.
package visits

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spektr-org/painel/engine"
	"github.com/spektr-org/painel/schema"
)

// ServiceRecord is one row of the monthly service-visit spreadsheet.
type ServiceRecord struct {
	Unit           string          `json:"unit"`
	Category       string          `json:"category"`
	Subarea        string          `json:"subarea"`
	AttendanceType string          `json:"attendanceType"`
	ServiceType    string          `json:"serviceType"`
	ServiceName    string          `json:"serviceName"`
	Quantity       int64           `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	RealizedDate   time.Time       `json:"realizedDate"`

	// Derived; always recomputed by Derive.
	Revenue decimal.Decimal `json:"revenue"`
	Day     int             `json:"day"`

	RealizedRaw string `json:"-"` // source text of the date cell until Derive parses it
	SourceRow   int    `json:"-"` // 1-based spreadsheet row
}

// DateLayout is the text form of RealizedDate in exports and tables.
const DateLayout = "2006-01-02 15:04:05"

// Adapter exposes ServiceRecord fields to the engine under schema keys.
var Adapter = engine.NewDomainAdapter[ServiceRecord]().
	Dimension(schema.Unit, func(r ServiceRecord) string { return r.Unit }).
	Dimension(schema.Category, func(r ServiceRecord) string { return r.Category }).
	Dimension(schema.Subarea, func(r ServiceRecord) string { return r.Subarea }).
	Dimension(schema.AttendanceType, func(r ServiceRecord) string { return r.AttendanceType }).
	Dimension(schema.ServiceType, func(r ServiceRecord) string { return r.ServiceType }).
	Dimension(schema.ServiceName, func(r ServiceRecord) string { return r.ServiceName }).
	Dimension(schema.RealizedDate, func(r ServiceRecord) string { return r.RealizedDate.Format(DateLayout) }).
	Dimension(schema.Day, func(r ServiceRecord) string { return strconv.Itoa(r.Day) }).
	Measure(schema.Quantity, func(r ServiceRecord) decimal.Decimal { return decimal.NewFromInt(r.Quantity) }).
	Measure(schema.UnitPrice, func(r ServiceRecord) decimal.Decimal { return r.UnitPrice }).
	Measure(schema.Revenue, func(r ServiceRecord) decimal.Decimal { return r.Revenue })

// Dataset is the derived, read-only record set of one source file.
type Dataset struct {
	Source   string                 `json:"source"`
	Sheet    string                 `json:"sheet,omitempty"`
	LoadedAt time.Time              `json:"loadedAt"`
	Records  []ServiceRecord        `json:"-"`
	Profile  []schema.ColumnProfile `json:"profile,omitempty"`

	view *engine.DomainView[ServiceRecord]
}

// NewDataset wraps already-derived records.
func NewDataset(source string, records []ServiceRecord) *Dataset {
	return &Dataset{
		Source:   source,
		LoadedAt: time.Now(),
		Records:  records,
		view:     Adapter.Bind(records),
	}
}

// View returns the zero-copy engine view over all records.
func (d *Dataset) View() *engine.DomainView[ServiceRecord] {
	if d.view == nil {
		return Adapter.Bind(d.Records)
	}
	return d.view
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// Select returns the typed records behind a view derived from d.View().
func (d *Dataset) Select(view engine.RecordView) []ServiceRecord {
	return engine.Rows(d.View(), view)
}
