package portfolio

import (
	"fmt"
	"math"
	"strings"
)

// FormatMoney renders an amount the way the dashboard shows it: two
// decimals, comma decimal separator, space-grouped thousands, followed by
// the currency symbol (or code when no symbol is known). Absent values
// render as a dash.
func FormatMoney(v Number, symbol, code string) string {
	f, ok := v.Float()
	if !ok {
		return "-"
	}
	s := groupedFixed(f)
	if symbol == "" {
		symbol = CurrencySymbols[NormalizeCurrency(code)]
	}
	if symbol != "" {
		return s + " " + symbol
	}
	if code != "" {
		return s + " " + code
	}
	return s
}

// FormatPercent renders a weight as a two-decimal percentage, dash when
// absent.
func FormatPercent(v Number) string {
	f, ok := v.Float()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", f)
}

// ParsePercent recovers a numeric weight from a FormatPercent string.
func ParsePercent(s string) Number {
	return ParseNumber(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

// groupedFixed formats with two decimals, "," as the decimal separator and
// " " as the thousands separator (ru-RU style).
func groupedFixed(f float64) string {
	neg := math.Signbit(f) && f != 0
	s := fmt.Sprintf("%.2f", math.Abs(f))
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
