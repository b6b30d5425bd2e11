package chart

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saucesteals/photontools/internal/model"
	"github.com/saucesteals/photontools/internal/utils"
)

const (
	// sellColor is the fixed background for sell markers, independent of
	// the wallet's configured color.
	sellColor = "#FF0000"

	// defaultBorderColor is the marker border when no avatar image is
	// present. When the wallet carries an avatar the border matches the
	// background instead; the image itself provides the visual
	// distinction.
	defaultBorderColor = "#010101"
)

// BuildMark deterministically derives a marker from a (wallet, swap) pair.
//
// The background is the wallet's configured color for buys and the fixed
// sell color for sells. The label font color is the bitwise complement of
// the background, which keeps the label legible on any background the user
// picks.
func BuildMark(wallet model.Wallet, swap model.Swap, minSize int) model.Mark {
	background := sellColor
	if swap.IsBuy() {
		background = wallet.Color
	}

	border := defaultBorderColor
	if wallet.ImageUrl != "" {
		border = background
	}

	return model.Mark{
		Id:             swap.Id,
		Time:           swap.Timestamp,
		LabelFontColor: complementColor(background),
		MinSize:        minSize,
		Data: model.MarkData{
			Type:         swap.Type,
			Timestamp:    swap.Timestamp,
			Id:           swap.TxHash,
			UsdAmount:    swap.UsdAmount.String(),
			PriceUsd:     swap.PriceUsd.String(),
			PriceQuote:   swap.PriceQuote.String(),
			TokensAmount: swap.TokensAmount.String(),
			EventType:    swap.EventType,
			Maker:        swap.Maker,
		},
		Color: model.MarkColor{
			Background: background,
			Border:     border,
		},
		Label:             wallet.Symbol,
		Text:              []string{describeTrade(wallet, swap)},
		Tickmark:          swap.Timestamp,
		HighlightByAuthor: true,
		ImageUrl:          wallet.ImageUrl,
	}
}

// complementColor returns the bitwise complement of a "#RRGGBB" color as a
// zero-padded 6-digit hex color.
func complementColor(color string) string {
	value, err := strconv.ParseUint(strings.TrimPrefix(color, "#"), 16, 32)
	if err != nil {
		return "#FFFFFF"
	}

	return fmt.Sprintf("#%06x", 0xFFFFFF^value)
}

// describeTrade renders the human-readable marker description: who traded,
// the direction, the grouped token and USD amounts, the unit prices, and a
// localized timestamp.
func describeTrade(wallet model.Wallet, swap model.Swap) string {
	verb := "🔴 sold"
	if swap.IsBuy() {
		verb = "🟢 bought"
	}

	when := time.UnixMilli(swap.Timestamp).Local().Format("1/2/2006, 3:04:05 PM")

	return fmt.Sprintf("%s (%s) %s %s tokens for $%s at 💰 $%s/token (%s ◎ SOL/token) \non %s",
		wallet.Nickname,
		wallet.Symbol,
		verb,
		utils.GroupDigits(swap.TokensAmount),
		utils.GroupDigits(swap.UsdAmount),
		utils.GroupDigits(swap.PriceUsd),
		swap.PriceQuote.StringFixed(4),
		when,
	)
}
