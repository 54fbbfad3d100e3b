package google

import "testing"

func TestParseSheetAmount(t *testing.T) {
	cases := []struct {
		in string
		v  float64
		ok bool
	}{
		{"10.5", 10.5, true},
		{"10,50", 10.5, true},
		{"R$ 1.234,56", 1234.56, true},
		{"R$1.234,56", 1234.56, true},
		{"-R$ 3,00", -3, true},
		{"R$ -3,00", -3, true},
		{"$1,234.56", 1234.56, true},
		{"1,234,567", 1234567, true},
		{"1.234.567", 1234567, true},
		{"12 €", 12, true},
		{"-3", -3, true},
		{" 20 ", 20, true},
		{"1E+21", 1e21, true},
		{"2.5e-3", 0.0025, true},
		{"", 0, false},
		{"abc", 0, false},
		{"Valor", 0, false},
		{"12abc", 0, false},
		{"abc12", 0, false},
		{"N/A 5", 0, false},
		{"1,2,3", 0, false},
		{"1.2.3", 0, false},
		{"1.23,4.5", 0, false},
		{"10.", 0, false},
		{"--3", 0, false},
		{"-", 0, false},
		{"1e999", 0, false},
	}
	for _, tc := range cases {
		v, ok := parseSheetAmount(tc.in)
		if ok != tc.ok || (ok && v != tc.v) {
			t.Fatalf("parseSheetAmount(%q) = %v, %v; want %v, %v", tc.in, v, ok, tc.v, tc.ok)
		}
	}
}
