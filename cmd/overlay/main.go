/*
Package main runs the trade-marker overlay pipeline headless.

It wires the full per-page-load composition: the SQLite preference store
behind its relay, the cross-world message bus, the live feed subscription,
the per-wallet history backfill, the watch-list controller, and the mark
overlay engine. Without a host page there is no real chart widget, so a
console widget stands in: it is immediately ready and renders every refresh
as a log line, which makes the binary a live monitor for the tracked
wallets' trades.

Usage:

	go run ./cmd/overlay -config=config.yaml -pool=12345

The pool can come from the -pool flag, the config file, or a dumped
page-embedded pool configuration JSON.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/saucesteals/photontools/internal/bridge"
	"github.com/saucesteals/photontools/internal/chart"
	"github.com/saucesteals/photontools/internal/config"
	"github.com/saucesteals/photontools/internal/memescope"
	"github.com/saucesteals/photontools/internal/model"
	"github.com/saucesteals/photontools/internal/photon"
	"github.com/saucesteals/photontools/internal/storage"
	"github.com/saucesteals/photontools/internal/watchlist"
)

var (
	// configPath points at the optional YAML configuration file.
	configPath = flag.String("config", "", "Path to config file")
	// poolID selects the pool directly, overriding the config file.
	poolID = flag.Int64("pool", 0, "Pool id to track")
)

func main() {
	flag.Parse()

	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.Logging.Level).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("initiating graceful shutdown")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("overlay pipeline failed")
	}
}

// run wires and drives the pipeline until the context is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	store, err := storage.NewStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	relay := storage.NewRelay(store)
	if err := relay.Serve(ctx); err != nil {
		return err
	}

	// Preferences are read through the relay, the same path the
	// unprivileged page-world code uses.
	wallets, err := storage.GetPreference[[]model.Wallet](ctx, relay, model.PrefWallets)
	if err != nil {
		return err
	}
	minMarkSize, err := storage.GetPreference[int](ctx, relay, model.PrefMinMarkSize)
	if err != nil {
		return err
	}
	paletteIndex, err := storage.GetPreference[int](ctx, relay, model.PrefColorPaletteIndex)
	if err != nil {
		return err
	}
	marketCap, err := storage.GetPreference[float64](ctx, relay, model.PrefMarketCap)
	if err != nil {
		return err
	}

	if err := watchlist.ValidateWallets(wallets); err != nil {
		log.Warn().Err(err).Msg("stored watch-list failed validation, starting empty")
		wallets = nil
	}

	styler := memescope.NewStyler(marketCap, memescope.Palette(paletteIndex))
	_ = styler // Applied per card by the listing-page embedder.
	log.Info().
		Int("paletteIndex", paletteIndex).
		Float64("marketCap", marketCap).
		Msg("card styling configured")

	pool, err := resolvePoolID(cfg)
	if err != nil {
		return err
	}

	widget := newConsoleWidget()
	engine := chart.NewChart(widget, minMarkSize)

	bus := bridge.NewBus()

	history := photon.NewHistory(photon.HistoryConfig{BaseURL: cfg.API.BaseURL})
	controller := watchlist.NewController(watchlist.Config{PoolID: pool}, engine, history)

	cable := photon.NewCable(photon.CableConfig{
		Endpoint: cfg.Feed.Endpoint,
		PoolID:   pool,
	})

	if err := controller.Start(ctx, cable.Swaps()); err != nil {
		return err
	}

	// Relay watch-list replacements from the settings side into the
	// controller.
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	go func() {
		for msg := range sub.Messages() {
			if msg.Type != bridge.MessageSetWallets {
				continue
			}
			if err := controller.SetWallets(msg.Wallets); err != nil {
				log.Error().Err(err).Msg("failed to apply wallet update")
			}
		}
	}()

	engine.Init(ctx)
	bus.Publish(bridge.Message{Type: bridge.MessageChartInitialized})
	log.Info().Int64("poolId", pool).Msg("chart initialized")

	bus.Publish(bridge.Message{Type: bridge.MessageSetWallets, Wallets: wallets})

	cable.Run(ctx)
	return nil
}

// resolvePoolID picks the pool from the flag, the config file, or a dumped
// pool configuration JSON, in that order.
func resolvePoolID(cfg *config.Config) (int64, error) {
	if *poolID > 0 {
		return *poolID, nil
	}
	if cfg.Pool.ID > 0 {
		return cfg.Pool.ID, nil
	}

	if cfg.Pool.ConfigPath != "" {
		data, err := os.ReadFile(cfg.Pool.ConfigPath)
		if err != nil {
			return 0, err
		}

		poolCfg, err := photon.ParsePoolConfig(data)
		if err != nil {
			return 0, err
		}

		return poolCfg.CurrentPoolID(), nil
	}

	return 0, photon.ErrNoPool
}

// consoleWidget is the stand-in chart widget for headless runs. It is
// ready immediately, its native mark source has no marks of its own, and a
// refresh pulls the full mark list through whatever source is installed
// and logs it. The engine hooks it exactly as it would the real widget.
type consoleWidget struct {
	source chart.MarkSource
}

func newConsoleWidget() *consoleWidget {
	w := &consoleWidget{}
	w.source = emptyMarkSource{}
	return w
}

func (w *consoleWidget) IsReady() bool { return true }

func (w *consoleWidget) ActiveChart() chart.Handle { return (*consoleChart)(w) }

func (w *consoleWidget) MarkSource() chart.MarkSource { return w.source }

func (w *consoleWidget) SetMarkSource(source chart.MarkSource) { w.source = source }

// consoleChart renders refreshes as log lines.
type consoleChart consoleWidget

func (c *consoleChart) RefreshMarks() {
	c.source.GetMarks("", 0, time.Now().UnixMilli(), func(marks []model.Mark) {
		for _, mark := range marks {
			log.Debug().
				Str("markId", mark.Id).
				Str("label", mark.Label).
				Str("background", mark.Color.Background).
				Msg("mark")
		}
		log.Info().Int("marks", len(marks)).Msg("chart refreshed")
	})
}

// emptyMarkSource is the console widget's native mark source.
type emptyMarkSource struct{}

func (emptyMarkSource) GetMarks(symbol string, from, to int64, callback chart.MarkCallback) {
	callback(nil)
}
