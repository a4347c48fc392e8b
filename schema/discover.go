package schema

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// HEADER RESOLUTION + PROFILING
// ============================================================================
// Spreadsheets exported by hand drift: "Subárea" vs "Subarea", trailing
// spaces, "Tipo Atendimento" vs "TipoAtendimento". Resolve matches source
// headers against the catalogue on a folded form (accents stripped,
// snake_case, separators removed) and reports the first missing column.
//
// Profile inspects raw rows the way discovery inspects a CSV sample:
// fill rate, distinct count, cardinality hint and sorted sample values.
// ============================================================================

// Layout maps column keys to their index in a source header row.
type Layout map[string]int

// Resolve locates every source column of c in headers.
// Extra columns are ignored. The first missing column is returned as a
// *MissingColumnError, checked in catalogue order.
func (c Config) Resolve(headers []string) (Layout, error) {
	folded := make(map[string]int, len(headers))
	for i, h := range headers {
		key := foldHeader(h)
		if key == "" {
			continue
		}
		if _, dup := folded[key]; !dup {
			folded[key] = i
		}
	}

	layout := make(Layout, len(c.Columns))
	for _, col := range c.Source() {
		idx, ok := folded[foldHeader(col.Header)]
		if !ok {
			return nil, &MissingColumnError{Column: col.Header}
		}
		layout[col.Key] = idx
	}
	return layout, nil
}

// Cell returns the trimmed value of key in row, or "" when the row is short.
func (l Layout) Cell(row []string, key string) string {
	idx, ok := l[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ColumnProfile summarizes the values of one source column.
type ColumnProfile struct {
	Key             string   `json:"key"`
	Header          string   `json:"header"`
	DisplayName     string   `json:"displayName"`
	Kind            Kind     `json:"kind"`
	Filled          int      `json:"filled"`
	Empty           int      `json:"empty"`
	Unique          int      `json:"unique"`
	CardinalityHint string   `json:"cardinalityHint"` // "low", "medium", "high"
	SampleValues    []string `json:"sampleValues"`
}

// Profile inspects data rows (header row excluded) resolved through layout.
func (c Config) Profile(layout Layout, rows [][]string, maxSamples int) []ColumnProfile {
	if maxSamples <= 0 {
		maxSamples = 10
	}

	profiles := make([]ColumnProfile, 0, len(layout))
	for _, col := range c.Source() {
		if _, ok := layout[col.Key]; !ok {
			continue
		}
		p := ColumnProfile{
			Key:         col.Key,
			Header:      col.Header,
			DisplayName: col.DisplayName,
			Kind:        col.Kind,
		}
		unique := make(map[string]bool)
		for _, row := range rows {
			val := layout.Cell(row, col.Key)
			if isNullish(val) {
				p.Empty++
				continue
			}
			p.Filled++
			unique[val] = true
		}
		p.Unique = len(unique)
		p.CardinalityHint = cardinalityHint(p.Unique)
		p.SampleValues = collectSamples(unique, maxSamples)
		profiles = append(profiles, p)
	}
	return profiles
}

func isNullish(v string) bool {
	switch v {
	case "", "null", "NULL", "N/A", "n/a", "NaN", "nan":
		return true
	}
	return false
}

func cardinalityHint(unique int) string {
	switch {
	case unique <= 10:
		return "low"
	case unique <= 100:
		return "medium"
	default:
		return "high"
	}
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldHeader reduces a header to a comparable form:
// "Subárea" → "subarea", "Tipo Atendimento" → "tipoatendimento".
func foldHeader(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	if folded, _, err := transform.String(accentFolder, s); err == nil {
		s = folded
	}
	s = toSnakeCase(s)
	return strings.ReplaceAll(s, "_", "")
}

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	var result strings.Builder
	prev := rune(0)
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = strings.ToLower(result.String())
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// collectSamples picks up to maxSamples values, sorted for deterministic output.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}

// String renders a profile for CLI output.
func (p ColumnProfile) String() string {
	return fmt.Sprintf("%-16s %-9s filled=%d empty=%d unique=%d (%s)",
		p.Header, p.Kind, p.Filled, p.Empty, p.Unique, p.CardinalityHint)
}
