package schema

import "fmt"

// ============================================================================
// SCHEMA — Describes the shape of the service-visit dataset
// ============================================================================
// One catalogue drives the loader (which headers must exist), the engine
// (dimension/measure keys), the filter controls (labels, "all" sentinels)
// and the exporters (column order, header text).
// ============================================================================

// Kind is the value type of a column.
type Kind string

const (
	KindText     Kind = "text"
	KindInteger  Kind = "integer"
	KindDecimal  Kind = "decimal"
	KindDateTime Kind = "datetime"
)

// Role tells the engine how a column is read.
type Role string

const (
	RoleDimension Role = "dimension"
	RoleMeasure   Role = "measure"
)

// Column keys used across packages.
const (
	Unit           = "unit"
	Category       = "category"
	Subarea        = "subarea"
	AttendanceType = "attendance_type"
	ServiceType    = "service_type"
	ServiceName    = "service_name"
	RealizedDate   = "realized_date"
	Quantity       = "quantity"
	UnitPrice      = "unit_price"
	Revenue        = "revenue"
	Day            = "day"
)

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string       `json:"name"`
	Version     string       `json:"version,omitempty"`
	Description string       `json:"description,omitempty"`
	Columns     []ColumnMeta `json:"columns"`
}

// ColumnMeta describes one column, either read from the source or derived.
type ColumnMeta struct {
	Key         string `json:"key"`
	Header      string `json:"header"`      // header text in the source file and in exports
	DisplayName string `json:"displayName"` // label shown on controls and axes
	Kind        Kind   `json:"kind"`
	Role        Role   `json:"role"`
	Derived     bool   `json:"derived,omitempty"`
	Filterable  bool   `json:"filterable,omitempty"`
	AllLabel    string `json:"allLabel,omitempty"` // "no constraint" sentinel on filter controls
}

// ServiceVisits is the catalogue of the monthly service-visit spreadsheet.
// Column order is the export order.
func ServiceVisits() Config {
	return Config{
		Name:        "Atendimentos",
		Version:     "1",
		Description: "Registro mensal de atendimentos e serviços realizados",
		Columns: []ColumnMeta{
			filterable(Unit, "Unidade", "Unidade", "Todas"),
			filterable(Category, "Categoria", "Categoria", "Todas"),
			filterable(Subarea, "Subarea", "Subárea", "Todas"),
			filterable(AttendanceType, "TipoAtendimento", "Tipo de Atendimento", "Todos"),
			filterable(ServiceType, "TipoServico", "Tipo de Serviço", "Todos"),
			{Key: ServiceName, Header: "NMServico", DisplayName: "Serviço", Kind: KindText, Role: RoleDimension},
			{Key: RealizedDate, Header: "dataRealizado", DisplayName: "Data de Realização", Kind: KindDateTime, Role: RoleDimension},
			{Key: Quantity, Header: "Quantidade", DisplayName: "Quantidade", Kind: KindInteger, Role: RoleMeasure},
			{Key: UnitPrice, Header: "ValorUnitario", DisplayName: "Valor Unitário", Kind: KindDecimal, Role: RoleMeasure},
			{Key: Revenue, Header: "Receita", DisplayName: "Receita", Kind: KindDecimal, Role: RoleMeasure, Derived: true},
			{Key: Day, Header: "Dia", DisplayName: "Dia do Mês", Kind: KindInteger, Role: RoleDimension, Derived: true},
		},
	}
}

func filterable(key, header, display, all string) ColumnMeta {
	return ColumnMeta{
		Key:         key,
		Header:      header,
		DisplayName: display,
		Kind:        KindText,
		Role:        RoleDimension,
		Filterable:  true,
		AllLabel:    all,
	}
}

// Column returns the column with the given key.
func (c Config) Column(key string) (ColumnMeta, bool) {
	for _, col := range c.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return ColumnMeta{}, false
}

// Label returns the display name of a column, or the key itself when unknown.
func (c Config) Label(key string) string {
	if col, ok := c.Column(key); ok {
		return col.DisplayName
	}
	return key
}

// Source returns the columns that must be present in an input file.
func (c Config) Source() []ColumnMeta {
	cols := make([]ColumnMeta, 0, len(c.Columns))
	for _, col := range c.Columns {
		if !col.Derived {
			cols = append(cols, col)
		}
	}
	return cols
}

// Filterable returns the columns exposed as filter controls, in control order.
func (c Config) Filterable() []ColumnMeta {
	var cols []ColumnMeta
	for _, col := range c.Columns {
		if col.Filterable {
			cols = append(cols, col)
		}
	}
	return cols
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	return c.keys(RoleDimension)
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	return c.keys(RoleMeasure)
}

func (c Config) keys(role Role) []string {
	var keys []string
	for _, col := range c.Columns {
		if col.Role == role {
			keys = append(keys, col.Key)
		}
	}
	return keys
}

// Headers returns the header row in column order.
func (c Config) Headers() []string {
	headers := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		headers[i] = col.Header
	}
	return headers
}

// IsAll reports whether value is the "no constraint" sentinel for key.
// An empty value is always "no constraint".
func (c Config) IsAll(key, value string) bool {
	if value == "" {
		return true
	}
	col, ok := c.Column(key)
	return ok && col.AllLabel != "" && value == col.AllLabel
}

// MissingColumnError reports a required source column absent from a header row.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("coluna obrigatória ausente: %s", e.Column)
}
