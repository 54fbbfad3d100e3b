package core

import (
	"strings"
	"unicode"
)

// ParseMessage splits a raw chat message into Fields for the given schema.
//
// Fields are separated by commas and trimmed. Content is not checked here.
// A message with exactly one extra field is accepted when the extra comma
// belongs to a decimal amount written without spaces ("10,50"):
//
//	ParseMessage("Mercado, 10,50, alimentação, crédito", FourField)
//	  -> {Mercado 10,50 alimentação crédito}
//	ParseMessage("a, b", FourField)
//	  -> ParseError{Kind: WrongArity, Expected: 4, Actual: 2}
func ParseMessage(raw string, schema Schema) (Fields, error) {
	segments := strings.Split(raw, ",")
	expected := int(schema)
	actual := len(segments)

	if actual == expected+1 && isDecimalComma(segments[1], segments[2]) {
		merged := make([]string, 0, expected)
		merged = append(merged, segments[0])
		merged = append(merged, strings.TrimSpace(segments[1])+","+strings.TrimSpace(segments[2]))
		merged = append(merged, segments[3:]...)
		segments = merged
	}
	if len(segments) != expected {
		return Fields{}, &ParseError{Kind: WrongArity, Expected: expected, Actual: actual}
	}

	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}
	f := Fields{
		Description: segments[0],
		Amount:      segments[1],
		Category:    segments[2],
	}
	if schema == FourField {
		f.PaymentType = segments[3]
	}
	return f, nil
}

// isDecimalComma reports whether "intPart,frac" is one number split by the
// field separator: digits on the left, digits right after the comma.
func isDecimalComma(intPart, frac string) bool {
	if strings.TrimLeftFunc(frac, unicode.IsSpace) != frac {
		return false
	}
	intPart = strings.TrimLeft(strings.TrimSpace(intPart), "+-")
	return allDigits(intPart) && allDigits(strings.TrimSpace(frac))
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
