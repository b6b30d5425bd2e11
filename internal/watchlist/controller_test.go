package watchlist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucesteals/photontools/internal/chart"
	"github.com/saucesteals/photontools/internal/model"
)

// mockHistory records backfill calls and serves canned responses
type mockHistory struct {
	mu      sync.Mutex
	calls   map[string]int
	swaps   map[string][]model.Swap
	err     error
	fetched chan string
}

func newMockHistory() *mockHistory {
	return &mockHistory{
		calls:   make(map[string]int),
		swaps:   make(map[string][]model.Swap),
		fetched: make(chan string, 16),
	}
}

func (m *mockHistory) GetEventsHistory(ctx context.Context, poolID int64, wallet string) ([]model.Swap, error) {
	m.mu.Lock()
	m.calls[wallet]++
	err := m.err
	swaps := m.swaps[wallet]
	m.mu.Unlock()

	m.fetched <- wallet

	if err != nil {
		return nil, err
	}
	return swaps, nil
}

func (m *mockHistory) callCount(wallet string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[wallet]
}

// awaitFetch waits until one backfill for the given wallet completes
func (m *mockHistory) awaitFetch(t *testing.T, wallet string) {
	t.Helper()
	select {
	case got := <-m.fetched:
		require.Equal(t, wallet, got, "Unexpected backfill target")
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for backfill of %s", wallet)
	}
}

// readyWidget is a minimal always-ready widget for the overlay engine
type readyWidget struct {
	source chart.MarkSource
}

func (w *readyWidget) IsReady() bool                    { return true }
func (w *readyWidget) ActiveChart() chart.Handle        { return noopHandle{} }
func (w *readyWidget) MarkSource() chart.MarkSource     { return w.source }
func (w *readyWidget) SetMarkSource(s chart.MarkSource) { w.source = s }

type noopHandle struct{}

func (noopHandle) RefreshMarks() {}

func createWallet(address, nickname, color string) model.Wallet {
	return model.Wallet{
		Address:  address,
		Nickname: nickname,
		Symbol:   nickname,
		Color:    color,
	}
}

func createSwap(id, maker, swapType string, timestamp int64) model.Swap {
	return model.Swap{
		Id:           id,
		Maker:        maker,
		Type:         swapType,
		TokensAmount: decimal.NewFromInt(10),
		UsdAmount:    decimal.NewFromInt(5),
		PriceUsd:     decimal.NewFromFloat(0.5),
		PriceQuote:   decimal.NewFromFloat(0.004),
		Timestamp:    timestamp,
		TxHash:       "t-" + id,
	}
}

// startController spins up a controller with a live swap channel
func startController(t *testing.T, history HistoryFetcher) (*Controller, *chart.Chart, chan model.Swap, context.CancelFunc) {
	t.Helper()

	engine := chart.NewChart(&readyWidget{}, 35)
	controller := NewController(Config{PoolID: 1}, engine, history)

	ctx, cancel := context.WithCancel(context.Background())
	swaps := make(chan model.Swap, 16)
	require.NoError(t, controller.Start(ctx, swaps))

	return controller, engine, swaps, cancel
}

// awaitMarks polls the engine until the marker list reaches the wanted
// length
func awaitMarks(t *testing.T, engine *chart.Chart, want int) []model.Mark {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		marks := engine.Marks()
		if len(marks) == want {
			return marks
		}
		time.Sleep(5 * time.Millisecond)
	}

	marks := engine.Marks()
	require.Len(t, marks, want, "marker list never reached expected size")
	return marks
}

// Test_Start tests the started-state guard
func Test_Start(t *testing.T) {
	controller := NewController(Config{PoolID: 1}, chart.NewChart(&readyWidget{}, 35), newMockHistory())

	assert.Error(t, controller.SetWallets(nil), "SetWallets should fail before start")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	swaps := make(chan model.Swap)
	require.NoError(t, controller.Start(ctx, swaps))
	assert.Error(t, controller.Start(ctx, swaps), "Should reject a second start")
}

// Test_Backfill_OncePerWallet tests the single-backfill invariant
func Test_Backfill_OncePerWallet(t *testing.T) {
	history := newMockHistory()
	history.swaps["abc"] = []model.Swap{
		createSwap("h2", "abc", model.SwapTypeBuy, 2000),
		createSwap("h1", "abc", model.SwapTypeBuy, 1000),
	}

	controller, engine, _, cancel := startController(t, history)
	defer cancel()

	wallet := createWallet("abc", "N", "#0C9981")

	require.NoError(t, controller.SetWallets([]model.Wallet{wallet}))
	history.awaitFetch(t, "abc")

	marks := awaitMarks(t, engine, 2)
	assert.Equal(t, "h2", marks[0].Id, "Markers should be added in fetch order, newest first")
	assert.Equal(t, "h1", marks[1].Id)

	// Re-sending the same list (a no-op edit) must not fetch again.
	require.NoError(t, controller.SetWallets([]model.Wallet{wallet}))
	require.NoError(t, controller.SetWallets([]model.Wallet{wallet}))

	awaitMarks(t, engine, 2)
	assert.Equal(t, 1, history.callCount("abc"), "Exactly one backfill per wallet per lifetime")
}

// Test_Backfill_FailureMarksSeen tests that a failed fetch is not retried
func Test_Backfill_FailureMarksSeen(t *testing.T) {
	history := newMockHistory()
	history.err = errors.New("unexpected status 500")

	controller, engine, _, cancel := startController(t, history)
	defer cancel()

	wallet := createWallet("abc", "N", "#0C9981")

	require.NoError(t, controller.SetWallets([]model.Wallet{wallet}))
	history.awaitFetch(t, "abc")

	require.NoError(t, controller.SetWallets([]model.Wallet{wallet}))
	awaitMarks(t, engine, 0)
	assert.Equal(t, 1, history.callCount("abc"), "A failed backfill still marks the wallet seen")
}

// Test_LiveSwap_CaseInsensitiveMatch tests maker matching (scenario: a
// tracked lowercase address receives an uppercase maker)
func Test_LiveSwap_CaseInsensitiveMatch(t *testing.T) {
	history := newMockHistory()
	controller, engine, swaps, cancel := startController(t, history)
	defer cancel()

	require.NoError(t, controller.SetWallets([]model.Wallet{createWallet("abc", "N", "#0C9981")}))
	history.awaitFetch(t, "abc")

	swaps <- createSwap("e1", "ABC", model.SwapTypeBuy, 1000)

	marks := awaitMarks(t, engine, 1)
	assert.Equal(t, "#0C9981", marks[0].Color.Background, "Buy marker uses the wallet color")
	assert.Equal(t, "N", marks[0].Label)
	assert.Equal(t, "e1", marks[0].Id)
}

// Test_LiveSwap_UntrackedMaker tests that unknown makers emit nothing
func Test_LiveSwap_UntrackedMaker(t *testing.T) {
	history := newMockHistory()
	controller, engine, swaps, cancel := startController(t, history)
	defer cancel()

	require.NoError(t, controller.SetWallets([]model.Wallet{createWallet("abc", "N", "#0C9981")}))
	history.awaitFetch(t, "abc")

	swaps <- createSwap("e1", "somebody-else", model.SwapTypeBuy, 1000)
	swaps <- createSwap("e2", "abc", model.SwapTypeSell, 2000)

	marks := awaitMarks(t, engine, 1)
	assert.Equal(t, "e2", marks[0].Id, "Only the tracked maker's swap becomes a marker")
}

// Test_Prune_OnWalletRemoval tests marker pruning via wholesale
// replacement
func Test_Prune_OnWalletRemoval(t *testing.T) {
	history := newMockHistory()
	controller, engine, swaps, cancel := startController(t, history)
	defer cancel()

	walletA := createWallet("aaa", "A", "#111111")
	walletB := createWallet("bbb", "B", "#222222")

	require.NoError(t, controller.SetWallets([]model.Wallet{walletA, walletB}))
	history.awaitFetch(t, "aaa")
	history.awaitFetch(t, "bbb")

	swaps <- createSwap("e1", "aaa", model.SwapTypeBuy, 1000)
	swaps <- createSwap("e2", "bbb", model.SwapTypeBuy, 2000)
	awaitMarks(t, engine, 2)

	// Dropping wallet A must remove its markers but keep B's, without
	// re-fetching B.
	require.NoError(t, controller.SetWallets([]model.Wallet{walletB}))

	marks := awaitMarks(t, engine, 1)
	assert.Equal(t, "e2", marks[0].Id, "Only the still-tracked wallet's marker survives")
	assert.Equal(t, 1, history.callCount("bbb"), "Pruning must not re-trigger backfill")
}
