// Package utils provides common utility functions for number formatting and
// bounded readiness polling.
//
// The formatting helpers convert between the host site's abbreviated
// human-readable figures ("$70.5K", "1.2M") and plain numbers, and render
// locale-style grouped amounts for marker descriptions.
package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseHumanReadableNumber parses an abbreviated figure as displayed by the
// host site, such as "$70.5K" or "1.2M", into a plain float.
//
// A leading "$" is ignored. Supported magnitude suffixes are K (thousand),
// M (million), B (billion) and T (trillion). Input without a parseable
// numeric prefix yields an error.
func ParseHumanReadableNumber(text string) (float64, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "$")
	if text == "" {
		return 0, fmt.Errorf("empty number text")
	}

	multiplier := 1.0
	switch text[len(text)-1] {
	case 'K':
		multiplier = 1_000
	case 'M':
		multiplier = 1_000_000
	case 'B':
		multiplier = 1_000_000_000
	case 'T':
		multiplier = 1_000_000_000_000
	}
	if multiplier != 1 {
		text = text[:len(text)-1]
	}

	// Commas appear in fully written-out figures ("1,234,567").
	text = strings.ReplaceAll(text, ",", "")

	number, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", text, err)
	}

	return number * multiplier, nil
}

// FormatHumanReadableNumber renders a number in the host site's abbreviated
// style: sub-unit values keep five decimals, values under a thousand keep
// two, and larger values are scaled to K/M/B with two decimals. A trailing
// ".00" is stripped.
func FormatHumanReadableNumber(number float64) string {
	var fmtd string
	var mod string

	switch {
	case number == 0:
		fmtd = "0"
	case number < 1:
		fmtd = strconv.FormatFloat(number, 'f', 5, 64)
	case number < 1_000:
		fmtd = strconv.FormatFloat(number, 'f', 2, 64)
	case number < 1_000_000:
		fmtd = strconv.FormatFloat(number/1_000, 'f', 2, 64)
		mod = "K"
	case number < 1_000_000_000:
		fmtd = strconv.FormatFloat(number/1_000_000, 'f', 2, 64)
		mod = "M"
	default:
		fmtd = strconv.FormatFloat(number/1_000_000_000, 'f', 2, 64)
		mod = "B"
	}

	fmtd = strings.TrimSuffix(fmtd, ".00")

	return fmtd + mod
}

// GroupDigits renders a decimal amount with comma-grouped thousands and at
// most three fractional digits, mirroring locale-style number rendering in
// marker description text ("1,234,567.89").
func GroupDigits(d decimal.Decimal) string {
	s := d.Round(3).String()

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}

	return b.String()
}
