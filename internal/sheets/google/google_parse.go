package google

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberShape is a mantissa of digits and separators with an optional
// exponent, as Sheets writes large values ("1E+21").
var numberShape = regexp.MustCompile(`^([0-9][0-9.,]*)([eE][+-]?[0-9]+)?$`)

var currencySymbols = []string{"R$", "US$", "$", "€", "£"}

// parseSheetAmount reads an amount typed into a text cell: "10.5", "10,50",
// "R$ 1.234,56", "$1,234.56", "-3", "1E+21". When both separators appear
// the rightmost one is the decimal separator. Anything else besides a
// currency symbol and surrounding spaces makes the cell unreadable.
func parseSheetAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		neg, s = true, strings.TrimSpace(rest)
	}
	s = trimCurrency(s)
	if rest, ok := strings.CutPrefix(s, "-"); ok && !neg {
		neg, s = true, rest
	}

	m := numberShape.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	mantissa, ok := normalizeSeparators(m[1])
	if !ok {
		return 0, false
	}

	f, err := strconv.ParseFloat(mantissa+m[2], 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

func trimCurrency(s string) string {
	for _, sym := range currencySymbols {
		if rest, ok := strings.CutPrefix(s, sym); ok {
			return strings.TrimSpace(rest)
		}
		if rest, ok := strings.CutSuffix(s, sym); ok {
			return strings.TrimSpace(rest)
		}
	}
	return s
}

// normalizeSeparators rewrites a mantissa into strconv form, dropping
// thousands separators only where they group digits in threes.
func normalizeSeparators(s string) (string, bool) {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		thousands, decimal := ".", ","
		if dot > comma {
			thousands, decimal = ",", "."
		}
		i := strings.LastIndex(s, decimal)
		intPart, frac := s[:i], s[i+1:]
		if strings.Contains(intPart, decimal) || !grouped(intPart, thousands) || !digits(frac) {
			return "", false
		}
		return strings.ReplaceAll(intPart, thousands, "") + "." + frac, true
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			if !grouped(s, ",") {
				return "", false
			}
			return strings.ReplaceAll(s, ",", ""), true
		}
		return strings.Replace(s, ",", ".", 1), digits(s[comma+1:])
	case strings.Count(s, ".") > 1:
		// "1.234.567" only makes sense as thousands grouping
		if !grouped(s, ".") {
			return "", false
		}
		return strings.ReplaceAll(s, ".", ""), true
	}
	return s, dot < 0 || digits(s[dot+1:])
}

// grouped reports whether s is "1", "12", "123" or groups of three
// digits after the first, joined by sep.
func grouped(s, sep string) bool {
	parts := strings.Split(s, sep)
	if len(parts[0]) < 1 || len(parts[0]) > 3 || !digits(parts[0]) {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 || !digits(p) {
			return false
		}
	}
	return true
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
