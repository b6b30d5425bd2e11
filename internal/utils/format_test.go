package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_ParseHumanReadableNumber tests abbreviated figure parsing
func Test_ParseHumanReadableNumber(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		expected    float64
		expectError bool
		description string
	}{
		{
			name:        "Plain number",
			text:        "123.45",
			expected:    123.45,
			description: "Should parse a plain decimal number",
		},
		{
			name:        "Dollar prefix",
			text:        "$70.5K",
			expected:    70_500,
			description: "Should strip the dollar sign and apply the K suffix",
		},
		{
			name:        "Million suffix",
			text:        "1.2M",
			expected:    1_200_000,
			description: "Should multiply by one million",
		},
		{
			name:        "Billion suffix",
			text:        "2B",
			expected:    2_000_000_000,
			description: "Should multiply by one billion",
		},
		{
			name:        "Trillion suffix",
			text:        "1T",
			expected:    1_000_000_000_000,
			description: "Should multiply by one trillion",
		},
		{
			name:        "Comma grouped",
			text:        "1,234,567",
			expected:    1_234_567,
			description: "Should accept fully written-out grouped figures",
		},
		{
			name:        "Empty text",
			text:        "",
			expectError: true,
			description: "Should reject empty input",
		},
		{
			name:        "Garbage text",
			text:        "abc",
			expectError: true,
			description: "Should reject non-numeric input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, err := ParseHumanReadableNumber(tt.text)

			if tt.expectError {
				assert.Error(t, err, tt.description)
				return
			}

			require.NoError(t, err, tt.description)
			assert.InDelta(t, tt.expected, number, 1e-9, tt.description)
		})
	}
}

// Test_FormatHumanReadableNumber tests abbreviated figure rendering
func Test_FormatHumanReadableNumber(t *testing.T) {
	tests := []struct {
		name     string
		number   float64
		expected string
	}{
		{name: "Zero", number: 0, expected: "0"},
		{name: "Sub unit", number: 0.5, expected: "0.50000"},
		{name: "Small", number: 12.3, expected: "12.30"},
		{name: "Exact hundred", number: 100, expected: "100"},
		{name: "Thousands", number: 70_500, expected: "70.50K"},
		{name: "Exact thousand", number: 1_000, expected: "1K"},
		{name: "Millions", number: 1_230_000, expected: "1.23M"},
		{name: "Billions", number: 2_500_000_000, expected: "2.50B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatHumanReadableNumber(tt.number))
		})
	}
}

// Test_GroupDigits tests locale-style grouped rendering
func Test_GroupDigits(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "Small integer", value: "5", expected: "5"},
		{name: "Three digits", value: "999", expected: "999"},
		{name: "Four digits", value: "1000", expected: "1,000"},
		{name: "Millions with fraction", value: "1234567.89", expected: "1,234,567.89"},
		{name: "Fraction rounded to three places", value: "10.123456", expected: "10.123"},
		{name: "Negative", value: "-1234", expected: "-1,234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.value)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, GroupDigits(d))
		})
	}
}
