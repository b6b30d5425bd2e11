// Package watchlist implements the watch-list controller: the single
// source of truth for which wallets are tracked, and the trigger point for
// per-wallet history backfill.
//
// The controller follows the actor model: one goroutine owns the wallet
// list and the seen-wallet set, and all mutation flows through its select
// loop. Live swaps and wallet-list replacements are serialized onto that
// loop, so a live trade and a concurrent backfill can never interleave
// mid-mutation. Their relative order in the marker list is simply queue
// order; no timestamp-based merge is performed.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/saucesteals/photontools/internal/model"
)

// Overlay is the mark overlay engine surface the controller drives.
type Overlay interface {
	// AddTrade creates one marker from a (wallet, swap) pair.
	AddTrade(wallet model.Wallet, swap model.Swap)

	// Marks returns a snapshot of the current marker list.
	Marks() []model.Mark

	// SetMarks wholesale-replaces the marker list.
	SetMarks(marks []model.Mark)
}

// HistoryFetcher performs the one-shot backfill request for a wallet.
type HistoryFetcher interface {
	GetEventsHistory(ctx context.Context, poolID int64, wallet string) ([]model.Swap, error)
}

// Config holds the controller settings.
type Config struct {
	// PoolID is the pool whose history is backfilled for new wallets.
	PoolID int64
}

// Controller reconciles the live feed and backfill history against the
// tracked wallet set.
type Controller struct {
	cfg     Config
	overlay Overlay
	history HistoryFetcher

	// wallets and seen are owned by the Run goroutine.
	wallets []model.Wallet
	seen    map[string]struct{}

	setWalletsCh chan []model.Wallet
	started      atomic.Bool
}

// NewController creates a controller in a stopped state.
func NewController(cfg Config, overlay Overlay, history HistoryFetcher) *Controller {
	return &Controller{
		cfg:          cfg,
		overlay:      overlay,
		history:      history,
		seen:         make(map[string]struct{}),
		setWalletsCh: make(chan []model.Wallet, 10), // Buffered to prevent blocking
	}
}

// SetWallets submits a wholesale replacement of the tracked wallet list.
// The replacement is applied asynchronously on the controller goroutine.
func (c *Controller) SetWallets(wallets []model.Wallet) error {
	if !c.started.Load() {
		return errors.New("controller not started")
	}

	select {
	case c.setWalletsCh <- wallets:
		return nil
	default:
		return fmt.Errorf("wallet update channel is full")
	}
}

// Start launches the controller goroutine consuming live swaps and wallet
// updates until the context is cancelled or the swap channel closes.
func (c *Controller) Start(ctx context.Context, swaps <-chan model.Swap) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("controller already started")
	}

	go func() {
		logger := log.With().Str("component", "watchlist").Logger()

		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("controller stopped")
				return
			case wallets := <-c.setWalletsCh:
				c.applyWallets(ctx, wallets)
			case swap, ok := <-swaps:
				if !ok {
					logger.Info().Msg("swap feed closed, controller stopping")
					return
				}
				c.handleSwap(swap)
			}
		}
	}()

	return nil
}

// applyWallets installs the replacement wallet list, prunes markers whose
// maker is no longer tracked, and backfills history for wallets seen for
// the first time.
//
// Pruning recomputes the overlay's marker set by filtering, then writes it
// back as a full replacement; removed wallets are never chased via
// per-marker deletion. Backfill runs at most once per wallet per process
// lifetime: a fetch failure still marks the wallet seen, so it is not
// retried on later list replacements.
func (c *Controller) applyWallets(ctx context.Context, wallets []model.Wallet) {
	logger := log.With().Str("component", "watchlist").Logger()

	c.wallets = wallets
	logger.Info().Int("wallets", len(wallets)).Msg("wallet list replaced")

	c.pruneMarks()

	for _, wallet := range wallets {
		key := strings.ToLower(wallet.Address)
		if _, ok := c.seen[key]; ok {
			continue
		}
		c.seen[key] = struct{}{}

		c.backfill(ctx, wallet)
	}
}

// pruneMarks drops markers whose maker no longer matches a tracked wallet.
func (c *Controller) pruneMarks() {
	marks := c.overlay.Marks()

	kept := make([]model.Mark, 0, len(marks))
	for _, mark := range marks {
		if c.findWallet(mark.Data.Maker) != nil {
			kept = append(kept, mark)
		}
	}

	if len(kept) == len(marks) {
		return
	}

	log.Info().
		Str("component", "watchlist").
		Int("before", len(marks)).
		Int("after", len(kept)).
		Msg("pruning marks for untracked wallets")

	c.overlay.SetMarks(kept)
}

// backfill fetches a newly tracked wallet's recent trades and feeds them to
// the overlay in the order received (newest-first per the fetch ordering;
// markers are inserted in that same order, not chronologically).
func (c *Controller) backfill(ctx context.Context, wallet model.Wallet) {
	logger := log.With().
		Str("component", "watchlist").
		Str("nickname", wallet.Nickname).
		Str("address", wallet.Address).
		Logger()

	swaps, err := c.history.GetEventsHistory(ctx, c.cfg.PoolID, wallet.Address)
	if err != nil {
		// One-shot by design: the wallet's historical markers are simply
		// absent until the page is reloaded.
		logger.Error().Err(err).Msg("history backfill failed")
		return
	}

	logger.Info().Int("events", len(swaps)).Msg("backfilling history")

	for _, swap := range swaps {
		c.overlay.AddTrade(wallet, swap)
	}
}

// handleSwap matches a live swap's maker against the tracked wallets and
// emits exactly one marker on a match. Untracked makers are dropped.
func (c *Controller) handleSwap(swap model.Swap) {
	wallet := c.findWallet(swap.Maker)
	if wallet == nil {
		return
	}

	log.Debug().
		Str("component", "watchlist").
		Str("nickname", wallet.Nickname).
		Str("txHash", swap.TxHash).
		Msg("received tracked swap event")

	c.overlay.AddTrade(*wallet, swap)
}

// findWallet returns the tracked wallet matching the maker address
// case-insensitively, or nil.
func (c *Controller) findWallet(maker string) *model.Wallet {
	for i := range c.wallets {
		if c.wallets[i].Matches(maker) {
			return &c.wallets[i]
		}
	}

	return nil
}
