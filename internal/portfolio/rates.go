package portfolio

import (
	"math"
	"strings"
)

// Reporting currency sentinels. MOEX reports ruble-denominated bonds with
// the legacy "SUR" code; both forms mean "no conversion needed".
const (
	CurrencySUR = "SUR"
	CurrencyRUB = "RUB"
)

// CurrencySymbols maps common currency codes to their display symbols.
var CurrencySymbols = map[string]string{
	"RUB": "₽", "SUR": "₽", "USD": "$", "CNY": "¥", "CNH": "¥", "EUR": "€", "GBP": "£",
}

// NormalizeCurrency trims and uppercases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsReportingCurrency reports whether the code is the reporting currency
// (ruble) or empty, meaning the amount needs no conversion.
func IsReportingCurrency(code string) bool {
	switch NormalizeCurrency(code) {
	case "", CurrencySUR, CurrencyRUB:
		return true
	}
	return false
}

// RateTable maps normalized currency codes to conversion rates expressed as
// rubles per one unit of the foreign currency.
type RateTable map[string]float64

// Set stores a rate under the normalized code.
func (t RateTable) Set(code string, rate float64) {
	k := NormalizeCurrency(code)
	if k == "" {
		return
	}
	t[k] = rate
}

// Lookup finds a usable rate for a currency code, trying progressively
// looser keys: the full code, its first three characters, its alphabetic
// characters only, and its first two characters. Upstream sources disagree
// on code shape ("USD", "USD000UTSTOM", "usd "), hence the fallbacks.
// Only positive finite rates count as found.
func (t RateTable) Lookup(code string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	k := NormalizeCurrency(code)
	alpha := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, k)
	candidates := []string{k, prefix(k, 3), alpha, prefix(k, 2)}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if rate, ok := t[c]; ok && rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate) {
			return rate, true
		}
	}
	return 0, false
}

// ToReporting converts a native-currency amount to rubles. Ruble amounts
// pass through unchanged. A missing or non-positive rate yields an absent
// Number rather than a silently wrong value.
func (t RateTable) ToReporting(amount Number, currency string) Number {
	v, ok := amount.Float()
	if !ok {
		return Number{}
	}
	if IsReportingCurrency(currency) {
		return N(v)
	}
	rate, ok := t.Lookup(currency)
	if !ok {
		return Number{}
	}
	return N(v * rate)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
