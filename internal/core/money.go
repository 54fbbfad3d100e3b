// Package core holds the ledger domain: message parsing, validation and
// the typed errors shared by every backend.
//
// This file contains amount parsing. Amounts are float64 end to end;
// rounding to cents happens only when a reply is rendered.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a user supplied amount to a float64.
//
// The comma decimal separator is replaced by a dot before parsing, so
// "10,50" and "10.50" are equal. Sign and magnitude are not restricted.
// Anything that does not parse to a finite number fails with a
// ValidationError carrying the raw input.
//
// Examples:
//
//	ParseAmount("10,50") -> 10.5, nil
//	ParseAmount("-3")    -> -3, nil
//	ParseAmount("abc")   -> 0, ValidationError{InvalidAmount, "abc"}
//	ParseAmount("1e999") -> 0, ValidationError{InvalidAmount, "1e999"}
func ParseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) {
		return 0, &ValidationError{Kind: InvalidAmount, Value: raw}
	}
	return v, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
