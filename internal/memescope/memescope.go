// Package memescope computes the listing-card decorations applied on the
// discovery page: cards whose market capitalization clears the user's
// threshold get a gradient border whose intensity scales with the cap.
//
// The package is pure computation: it turns a card's displayed market-cap
// figure plus the current threshold and palette into a style description.
// Applying that style to the page is the embedder's concern.
package memescope

import (
	"fmt"
	"sync"

	"github.com/saucesteals/photontools/internal/utils"
)

// maxMarketCap is the cap at which the border reaches full intensity.
const maxMarketCap = 1_000_000

// Palettes are the selectable five-color border gradients. The active one
// is chosen by the persisted palette index preference.
var Palettes = [][]string{
	{"#FF6B6B", "#FFD93D", "#6BCB77", "#4D96FF", "#9D4EDD"},
	{"#F72585", "#B5179E", "#7209B7", "#3A0CA3", "#4361EE"},
	{"#FFBE0B", "#FB5607", "#FF006E", "#8338EC", "#3A86FF"},
	{"#D9ED92", "#99D98C", "#52B69A", "#168AAD", "#184E77"},
	{"#FFFFFF", "#C0C0C0", "#808080", "#404040", "#101010"},
}

// Palette returns the palette at index, falling back to the first palette
// for out-of-range values (a stale persisted index after a palette list
// change).
func Palette(index int) []string {
	if index < 0 || index >= len(Palettes) {
		return Palettes[0]
	}

	return Palettes[index]
}

// CardStyle describes the decoration of one listing card.
type CardStyle struct {
	// Highlighted reports whether the card clears the threshold. When
	// false the remaining fields are zero and any existing decoration
	// should be removed.
	Highlighted bool

	// BorderWidth is the border width in pixels.
	BorderWidth float64

	// Gradient holds the five border gradient colors.
	Gradient []string

	// ShadowOpacity is the white glow opacity.
	ShadowOpacity float64
}

// Styler computes card styles from the current threshold and palette. Both
// settings are mutable at runtime (the user edits them in the settings
// menu), so access is synchronized.
type Styler struct {
	mu           sync.RWMutex
	minMarketCap float64
	palette      []string
}

// NewStyler returns a styler with the given threshold and palette.
func NewStyler(minMarketCap float64, palette []string) *Styler {
	return &Styler{
		minMarketCap: minMarketCap,
		palette:      palette,
	}
}

// SetMarketCap updates the highlight threshold.
func (s *Styler) SetMarketCap(minMarketCap float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minMarketCap = minMarketCap
}

// SetPalette updates the gradient palette.
func (s *Styler) SetPalette(palette []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.palette = palette
}

// StyleFor computes the decoration for a card with the given market cap.
//
// Caps below the threshold get no decoration. Above it, border width grows
// linearly from 0.5px to 3.5px and the glow from 0 to 0.5 opacity as the
// cap approaches maxMarketCap, clamping beyond that.
func (s *Styler) StyleFor(marketCap float64) CardStyle {
	s.mu.RLock()
	minMarketCap := s.minMarketCap
	palette := s.palette
	s.mu.RUnlock()

	if marketCap < minMarketCap {
		return CardStyle{}
	}

	visibility := (marketCap - minMarketCap) / (maxMarketCap - minMarketCap)
	if visibility > 1 {
		visibility = 1
	}
	if visibility < 0 {
		visibility = 0
	}

	return CardStyle{
		Highlighted:   true,
		BorderWidth:   0.5 + visibility*3,
		Gradient:      palette,
		ShadowOpacity: 0.5 * visibility,
	}
}

// StyleForText computes the decoration from the card's displayed market-cap
// figure ("$70.5K"). Unparseable text is an error; callers skip the card.
func (s *Styler) StyleForText(text string) (CardStyle, error) {
	marketCap, err := utils.ParseHumanReadableNumber(text)
	if err != nil {
		return CardStyle{}, fmt.Errorf("invalid market cap value: %w", err)
	}

	return s.StyleFor(marketCap), nil
}
