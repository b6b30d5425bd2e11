// Package model defines core data types for the trade-marker overlay pipeline.
//
// This package contains the fundamental data structures shared across the
// system: tracked wallets, trade events (swaps) received from the live feed
// or the history endpoint, chart markers derived from (wallet, swap) pairs,
// and the persisted user preferences.
//
// All monetary and token-amount values use decimal.Decimal for precise
// financial calculations, avoiding the floating-point rounding drift that
// would otherwise accumulate when rendering prices and totals.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Wallet represents one user-tracked wallet address.
//
// Wallets are created and edited by the user, persisted as a list in the
// preference store, and matched against the maker field of incoming trade
// events. Address comparison is case-insensitive, but the address is stored
// exactly as the user provided it.
type Wallet struct {
	// Address is the wallet's on-chain address and the unique key within
	// the watch-list.
	Address string `json:"address" validate:"required"`

	// Nickname is the user-chosen display name rendered in marker text.
	Nickname string `json:"nickname" validate:"required"`

	// Symbol is the short label drawn inside the marker bubble.
	Symbol string `json:"symbol" validate:"required"`

	// Color is the marker background color for buys, as "#RRGGBB".
	Color string `json:"color" validate:"required,hexcolor"`

	// ImageUrl optionally points at an avatar image shown in the marker.
	ImageUrl string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// Matches reports whether the given maker address belongs to this wallet.
// Matching is case-insensitive string equality.
func (w Wallet) Matches(maker string) bool {
	return strings.EqualFold(w.Address, maker)
}

// Swap represents one trade event for a pool, produced either by the live
// feed subscription or by the history backfill.
//
// A Swap is immutable once received; it is consumed directly into a Mark and
// never persisted. The Id field is populated from the record envelope, not
// from the inner attributes payload.
type Swap struct {
	Id           string          `json:"id"`           // Envelope identifier of the event record
	EventType    string          `json:"eventType"`    // Feed-specific event classification
	Maker        string          `json:"maker"`        // Wallet address that initiated the trade
	PriceQuote   decimal.Decimal `json:"priceQuote"`   // Price in quote asset per token
	PriceUsd     decimal.Decimal `json:"priceUsd"`     // Price in USD per token
	QuoteAmount  decimal.Decimal `json:"quoteAmount"`  // Quote asset amount exchanged
	TokensAmount decimal.Decimal `json:"tokensAmount"` // Token amount exchanged
	UsdAmount    decimal.Decimal `json:"usdAmount"`    // USD value of the trade
	Slot         int64           `json:"slot"`         // Chain slot of the transaction
	SortId       int64           `json:"sortId"`       // Feed ordering hint
	Timestamp    int64           `json:"timestamp"`    // Trade time in Unix milliseconds
	TxHash       string          `json:"txHash"`       // Transaction hash
	Type         string          `json:"type"`         // "buy" or "sell"
}

// Swap type values emitted by the feed.
const (
	SwapTypeBuy  = "buy"
	SwapTypeSell = "sell"
)

// IsBuy reports whether the swap is a buy.
func (s Swap) IsBuy() bool {
	return s.Type == SwapTypeBuy
}

// MarkColor holds the background and border colors of a marker.
type MarkColor struct {
	Background string `json:"background"`
	Border     string `json:"border"`
}

// MarkData carries the originating trade's attributes inside a marker, in
// the stringified form the chart widget expects.
type MarkData struct {
	Type         string `json:"type"`
	Timestamp    int64  `json:"timestamp"`
	Id           string `json:"id"` // Transaction hash of the trade
	UsdAmount    string `json:"usdAmount"`
	PriceUsd     string `json:"priceUsd"`
	PriceQuote   string `json:"priceQuote"`
	TokensAmount string `json:"tokensAmount"`
	EventType    string `json:"eventType"`
	Maker        string `json:"maker"`
}

// Mark is a visual annotation placed on the chart widget's timeline,
// representing one trade by one tracked wallet.
//
// Marks are derived deterministically from a (Wallet, Swap) pair, owned by
// the overlay engine's in-memory list, and live only for the page session.
type Mark struct {
	Id                string    `json:"id"`
	Time              int64     `json:"time"`
	LabelFontColor    string    `json:"labelFontColor"`
	MinSize           int       `json:"minSize"`
	Data              MarkData  `json:"data"`
	Color             MarkColor `json:"color"`
	Label             string    `json:"label"`
	Text              []string  `json:"text"`
	Tickmark          int64     `json:"tickmark"`
	HighlightByAuthor bool      `json:"highlightByAuthor"`
	ImageUrl          string    `json:"imageUrl,omitempty"`
}

// Preferences is the full set of persisted user settings.
type Preferences struct {
	Wallets           []Wallet `json:"wallets"`
	MinMarkSize       int      `json:"minMarkSize"`
	ColorPaletteIndex int      `json:"colorPaletteIndex"`
	MarketCap         float64  `json:"marketCap"`
}

// Preference store keys.
const (
	PrefWallets           = "wallets"
	PrefMinMarkSize       = "minMarkSize"
	PrefColorPaletteIndex = "colorPaletteIndex"
	PrefMarketCap         = "marketCap"
)

// DefaultPreferences returns the values used when a key has never been
// written. These defaults are written back to the store on first read.
func DefaultPreferences() Preferences {
	return Preferences{
		Wallets:           []Wallet{},
		MinMarkSize:       35,
		ColorPaletteIndex: 0,
		MarketCap:         70_000,
	}
}
