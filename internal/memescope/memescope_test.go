package memescope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_Palette tests palette lookup with stale indices
func Test_Palette(t *testing.T) {
	assert.Equal(t, Palettes[2], Palette(2))
	assert.Equal(t, Palettes[0], Palette(-1), "Negative index falls back to the first palette")
	assert.Equal(t, Palettes[0], Palette(len(Palettes)), "Out-of-range index falls back to the first palette")
}

// Test_StyleFor tests threshold and intensity scaling
func Test_StyleFor(t *testing.T) {
	styler := NewStyler(70_000, Palettes[0])

	tests := []struct {
		name          string
		marketCap     float64
		highlighted   bool
		borderWidth   float64
		shadowOpacity float64
		description   string
	}{
		{
			name:        "Below threshold",
			marketCap:   69_999,
			highlighted: false,
			description: "Caps below the threshold get no decoration",
		},
		{
			name:          "At threshold",
			marketCap:     70_000,
			highlighted:   true,
			borderWidth:   0.5,
			shadowOpacity: 0,
			description:   "The threshold itself is the minimum intensity",
		},
		{
			name:          "Halfway",
			marketCap:     535_000,
			highlighted:   true,
			borderWidth:   2.0,
			shadowOpacity: 0.25,
			description:   "Intensity scales linearly toward the cap",
		},
		{
			name:          "At maximum",
			marketCap:     1_000_000,
			highlighted:   true,
			borderWidth:   3.5,
			shadowOpacity: 0.5,
			description:   "Full intensity at one million",
		},
		{
			name:          "Beyond maximum",
			marketCap:     50_000_000,
			highlighted:   true,
			borderWidth:   3.5,
			shadowOpacity: 0.5,
			description:   "Intensity clamps beyond the cap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := styler.StyleFor(tt.marketCap)

			assert.Equal(t, tt.highlighted, style.Highlighted, tt.description)
			if !tt.highlighted {
				assert.Zero(t, style.BorderWidth)
				assert.Empty(t, style.Gradient)
				return
			}

			assert.InDelta(t, tt.borderWidth, style.BorderWidth, 1e-9, tt.description)
			assert.InDelta(t, tt.shadowOpacity, style.ShadowOpacity, 1e-9, tt.description)
			assert.Equal(t, Palettes[0], style.Gradient)
		})
	}
}

// Test_StyleForText tests styling from displayed figures
func Test_StyleForText(t *testing.T) {
	styler := NewStyler(70_000, Palettes[1])

	style, err := styler.StyleForText("$535K")
	require.NoError(t, err)
	assert.True(t, style.Highlighted)
	assert.Equal(t, Palettes[1], style.Gradient)

	_, err = styler.StyleForText("n/a")
	assert.Error(t, err, "Unparseable market cap text is an error")
}

// Test_Styler_Updates tests runtime threshold and palette changes
func Test_Styler_Updates(t *testing.T) {
	styler := NewStyler(70_000, Palettes[0])

	assert.False(t, styler.StyleFor(50_000).Highlighted)

	styler.SetMarketCap(40_000)
	assert.True(t, styler.StyleFor(50_000).Highlighted, "Lowering the threshold highlights more cards")

	styler.SetPalette(Palettes[3])
	assert.Equal(t, Palettes[3], styler.StyleFor(50_000).Gradient)
}
