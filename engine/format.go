package engine

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// NUMBER FORMAT — Explicit locale rules for presentation
// ============================================================================
// Nothing reads process locale. Callers pass a NumberFormat through
// options; BrazilianFormat is the default.
//
//	Int(1234)           → "1.234"
//	Currency(1234.56)   → "R$ 1.234,56"
//	Percent(12.345)     → "12,35%"
// ============================================================================

// NumberFormat holds separators and the currency prefix.
type NumberFormat struct {
	ThousandsSep   string `json:"thousandsSep" mapstructure:"thousands_sep"`
	DecimalSep     string `json:"decimalSep" mapstructure:"decimal_sep"`
	CurrencyPrefix string `json:"currencyPrefix" mapstructure:"currency_prefix"`
}

// BrazilianFormat formats numbers the pt-BR way.
func BrazilianFormat() NumberFormat {
	return NumberFormat{ThousandsSep: ".", DecimalSep: ",", CurrencyPrefix: "R$ "}
}

// Int formats an integer with thousands separators.
func (f NumberFormat) Int(n int64) string {
	if n < 0 {
		return "-" + f.Int(-n)
	}
	return groupThousands(strconv.FormatInt(n, 10), f.ThousandsSep)
}

// Quantity formats a whole-number measure; fractions are rounded half away
// from zero.
func (f NumberFormat) Quantity(d decimal.Decimal) string {
	return f.Int(d.Round(0).IntPart())
}

// Decimal formats d with the given number of decimal places.
func (f NumberFormat) Decimal(d decimal.Decimal, places int32) string {
	s := d.Abs().StringFixed(places)
	intPart, fracPart, _ := strings.Cut(s, ".")
	out := groupThousands(intPart, f.ThousandsSep)
	if places > 0 {
		out += f.DecimalSep + fracPart
	}
	if d.Round(places).IsNegative() {
		out = "-" + out
	}
	return out
}

// Currency formats an amount with two decimals and the currency prefix.
func (f NumberFormat) Currency(d decimal.Decimal) string {
	return f.CurrencyPrefix + f.Decimal(d, 2)
}

// Percent formats a percentage value (12.5 → "12,50%").
func (f NumberFormat) Percent(p float64) string {
	return f.Decimal(decimal.NewFromFloat(p), 2) + "%"
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
