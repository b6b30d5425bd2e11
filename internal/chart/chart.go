package chart

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saucesteals/photontools/internal/model"
	"github.com/saucesteals/photontools/internal/utils"
)

const (
	// widgetPollInterval is the wait between widget readiness checks.
	widgetPollInterval = 50 * time.Millisecond

	// widgetPollAttempts bounds the readiness wait. A widget that has not
	// appeared after this many attempts never will for this page load.
	widgetPollAttempts = 100
)

// engineState tracks the hook lifecycle. The progression is
// Uninitialized → WaitingForWidget → Hooked, with NeverHooked as the
// terminal state when the widget never appears. There is no transition
// back: a hooked engine stays hooked for the page's lifetime, and Init is
// not re-entered after giving up.
type engineState int

const (
	stateUninitialized engineState = iota
	stateWaitingForWidget
	stateHooked
	stateNeverHooked
)

// Chart is the mark overlay engine. It owns the in-memory marker list,
// converts trade events into markers, and injects them into the widget by
// intercepting its mark-retrieval entry point.
//
// All methods are safe for concurrent use; the marker list is guarded by a
// single mutex and is mutated only through the documented operations.
type Chart struct {
	widget Widget

	mu         sync.Mutex
	marks      []model.Mark
	bubbleSize int
	state      engineState
}

// NewChart returns an overlay engine for the given widget capability.
// bubbleSize is the minimum visual size applied to newly created markers.
func NewChart(widget Widget, bubbleSize int) *Chart {
	return &Chart{
		widget:     widget,
		marks:      []model.Mark{},
		bubbleSize: bubbleSize,
		state:      stateUninitialized,
	}
}

// Init waits for the widget's global handle to appear, then wraps its
// mark-retrieval entry point with the engine's injecting decorator.
//
// The wait polls at a fixed interval with a bounded attempt count. If the
// widget never appears, the engine settles into a terminal never-hooked
// state where Refresh perpetually no-ops; that outcome is reported to the
// caller but is not an error for the surrounding pipeline.
func (c *Chart) Init(ctx context.Context) utils.WaitOutcome {
	logger := log.With().Str("component", "chart").Logger()

	c.mu.Lock()
	if c.state != stateUninitialized {
		state := c.state
		c.mu.Unlock()
		logger.Warn().Int("state", int(state)).Msg("init called more than once, ignoring")
		if state == stateHooked {
			return utils.WaitReady
		}
		return utils.WaitTimedOut
	}
	c.state = stateWaitingForWidget
	c.mu.Unlock()

	outcome := utils.WaitUntil(ctx, c.widget.IsReady, widgetPollInterval, widgetPollAttempts)
	if outcome != utils.WaitReady {
		c.mu.Lock()
		c.state = stateNeverHooked
		c.mu.Unlock()
		logger.Warn().Msg("chart widget never appeared, overlay stays inactive")
		return outcome
	}

	logger.Info().Msg("found chart, hooking")

	original := c.widget.MarkSource()
	c.widget.SetMarkSource(&injectingSource{
		original: original,
		marks:    c.Marks,
	})

	c.mu.Lock()
	c.state = stateHooked
	c.mu.Unlock()

	logger.Info().Msg("successfully hooked chart")
	return outcome
}

// AddTrade builds a marker from the (wallet, swap) pair, appends it to the
// marker list, and triggers a refresh. The marker's minimum size is the
// current global size preference at the time of creation.
func (c *Chart) AddTrade(wallet model.Wallet, swap model.Swap) {
	c.mu.Lock()
	mark := BuildMark(wallet, swap, c.bubbleSize)
	c.marks = append(c.marks, mark)
	c.mu.Unlock()

	log.Debug().
		Str("component", "chart").
		Str("markId", mark.Id).
		Str("maker", swap.Maker).
		Str("type", swap.Type).
		Msg("adding mark")

	c.Refresh()
}

// Marks returns a snapshot copy of the current marker list.
func (c *Chart) Marks() []model.Mark {
	c.mu.Lock()
	defer c.mu.Unlock()

	marks := make([]model.Mark, len(c.marks))
	copy(marks, c.marks)
	return marks
}

// SetMarks wholesale-replaces the marker list, then refreshes. This is the
// seam used to prune markers when the watch-list shrinks: the overlay
// supports full replacement, not only append.
func (c *Chart) SetMarks(marks []model.Mark) {
	c.mu.Lock()
	c.marks = make([]model.Mark, len(marks))
	copy(c.marks, marks)
	c.mu.Unlock()

	c.Refresh()
}

// SetBubbleSize updates the stored default size and bulk-rewrites the
// minimum size of all existing markers. Markers are updated in place, not
// regenerated from their trades. A refresh is triggered only when the
// widget is ready.
func (c *Chart) SetBubbleSize(size int) {
	c.mu.Lock()
	c.bubbleSize = size
	for i := range c.marks {
		c.marks[i].MinSize = size
	}
	c.mu.Unlock()

	if c.widget.ActiveChart() != nil {
		c.Refresh()
	}
}

// Refresh asks the widget to re-pull its marks. A not-yet-ready widget is
// an expected transient state, not an error: the call logs and no-ops, and
// never mutates engine state.
func (c *Chart) Refresh() {
	handle := c.widget.ActiveChart()
	if handle == nil {
		log.Warn().Str("component", "chart").Msg("chart not yet initialized, skipping refresh")
		return
	}

	handle.RefreshMarks()
}
