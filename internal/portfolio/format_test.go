package portfolio

import "testing"

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name   string
		v      Number
		symbol string
		code   string
		want   string
	}{
		{"ruble symbol", N(1234.5), "₽", "SUR", "1 234,50 ₽"},
		{"symbol from code", N(1234.5), "", "USD", "1 234,50 $"},
		{"unknown code falls back to code", N(7), "", "AED", "7,00 AED"},
		{"no symbol no code", N(7), "", "", "7,00"},
		{"millions grouping", N(12345678.9), "₽", "", "12 345 678,90 ₽"},
		{"negative", N(-1500), "₽", "", "-1 500,00 ₽"},
		{"absent", None(), "₽", "SUR", "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMoney(tt.v, tt.symbol, tt.code); got != tt.want {
				t.Errorf("FormatMoney = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(N(33.336)); got != "33.34%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(None()); got != "-" {
		t.Errorf("absent percent = %q", got)
	}
}

func TestParsePercent(t *testing.T) {
	if v, ok := ParsePercent(" 25.00% ").Float(); !ok || v != 25 {
		t.Errorf("ParsePercent = %v,%v", v, ok)
	}
	if ParsePercent("-").Valid() {
		t.Error("dash must parse as absent")
	}
}
