// Package photon provides the clients for the host site's trade data
// surfaces: the live swap feed ("cable"), the historical events endpoint,
// and the page-embedded pool configuration.
//
// The Cable maintains a persistent subscription to one pool's trade feed.
// Connection mechanics live in the websocket package; this package owns the
// subscription protocol, payload parsing, and the reconnect policy.
package photon

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/saucesteals/photontools/internal/model"
	"github.com/saucesteals/photontools/internal/websocket"
)

const (
	// defaultFeedEndpoint is the host site's trade feed WebSocket URL.
	defaultFeedEndpoint = "wss://ws-token-sol-lb.tinyastro.io/cable"

	// feedChannel is the subscription channel carrying per-pool swap events.
	feedChannel = "LpChannel"

	// defaultReconnectDelay is the fixed wait between connection attempts.
	// The feed is best-effort and reconnect cost is low, so there is no
	// backoff growth and no attempt cap.
	defaultReconnectDelay = time.Second
)

// CableConfig holds the settings for a feed subscription.
type CableConfig struct {
	// Endpoint is the feed WebSocket URL. Defaults to the host site's feed.
	Endpoint string

	// PoolID identifies the pool whose swaps are subscribed to. Resolved
	// once from the page-embedded pool configuration.
	// Required: must be positive.
	PoolID int64

	// ReconnectDelay is the fixed wait between connection attempts.
	ReconnectDelay time.Duration
}

// Cable maintains a live subscription to one pool's trade feed and emits
// one Swap per incoming trade record.
//
// The output channel is stable across reconnects: consumers subscribe once
// and keep receiving through any number of underlying connections.
type Cable struct {
	cfg   CableConfig
	swaps chan model.Swap
}

// subscribeIdentifier is the inner identifier of the subscribe command,
// serialized to a JSON string per the feed's envelope format.
type subscribeIdentifier struct {
	Channel string `json:"channel"`
	Id      int64  `json:"id"`
}

// subscribeCommand is the envelope sent immediately after connecting.
type subscribeCommand struct {
	Command    string `json:"command"`
	Identifier string `json:"identifier"`
}

// feedMessage is the outer wrapper of an inbound feed payload. Swap records
// live at message.events.data; payloads without that path (welcome frames,
// pings, unrelated channel traffic) simply decode to an empty record list.
type feedMessage struct {
	Message struct {
		Events struct {
			Data []swapRecord `json:"data"`
		} `json:"events"`
	} `json:"message"`
}

// swapRecord is one event record: an envelope id plus the swap attributes.
// The application-level event id comes from the envelope, not the
// attributes payload.
type swapRecord struct {
	Id         string     `json:"id"`
	Attributes model.Swap `json:"attributes"`
}

// NewCable returns a Cable for the given pool.
func NewCable(cfg CableConfig) *Cable {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultFeedEndpoint
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}

	return &Cable{
		cfg:   cfg,
		swaps: make(chan model.Swap, 1000),
	}
}

// Swaps returns the channel delivering live swap events. It remains open
// across reconnects and is closed only when Run returns.
func (c *Cable) Swaps() <-chan model.Swap {
	return c.swaps
}

// Run maintains the feed subscription until the context is cancelled.
//
// Each iteration dials the endpoint, sends the subscribe command, and
// forwards parsed swaps to the output channel. When the connection drops
// (or the dial fails) it waits the fixed reconnect delay and tries again,
// with no bound on total attempts. Only one connection is ever in flight:
// a new dial is attempted only after the previous connection's swap
// channel has closed.
func (c *Cable) Run(ctx context.Context) {
	logger := log.With().
		Str("component", "photon/cable").
		Int64("poolId", c.cfg.PoolID).
		Logger()

	subscribeMsg, err := c.subscribeMessage()
	if err != nil {
		// Only possible with an unencodable identifier, which the fixed
		// command shape rules out.
		logger.Error().Err(err).Msg("failed to encode subscribe command")
		close(c.swaps)
		return
	}

	defer close(c.swaps)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		client, err := websocket.NewWebsocketClient(ctx, websocket.Config{
			Endpoint:             c.cfg.Endpoint,
			Handler:              c.handleFeedMessage,
			SubscriptionMessages: [][]byte{subscribeMsg},
		})
		if err != nil {
			logger.Warn().Err(err).
				Dur("retryIn", c.cfg.ReconnectDelay).
				Msg("feed connection failed")

			if !c.sleep(ctx) {
				return
			}
			continue
		}

		logger.Info().Msg("subscribed to pool feed")

		c.forward(ctx, client)
		client.Close()

		select {
		case <-ctx.Done():
			return
		default:
		}

		logger.Info().
			Dur("retryIn", c.cfg.ReconnectDelay).
			Msg("feed connection closed, reconnecting")

		if !c.sleep(ctx) {
			return
		}
	}
}

// forward relays swaps from one connection to the stable output channel
// until that connection disconnects or the context is cancelled.
func (c *Cable) forward(ctx context.Context, client *websocket.Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case swap, ok := <-client.SwapChan:
			if !ok {
				return
			}

			select {
			case c.swaps <- swap:
			case <-ctx.Done():
				return
			}
		}
	}
}

// sleep waits the reconnect delay; it returns false if the context was
// cancelled while waiting.
func (c *Cable) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.cfg.ReconnectDelay):
		return true
	}
}

// subscribeMessage builds the subscribe command for the configured pool.
// The identifier is itself a JSON document carried as a string, per the
// feed's envelope format.
func (c *Cable) subscribeMessage() ([]byte, error) {
	identifier, err := json.Marshal(subscribeIdentifier{
		Channel: feedChannel,
		Id:      c.cfg.PoolID,
	})
	if err != nil {
		return nil, err
	}

	return json.Marshal(subscribeCommand{
		Command:    "subscribe",
		Identifier: string(identifier),
	})
}

// handleFeedMessage parses one inbound feed payload and emits a swap event
// per record carrying a non-empty maker.
//
// Payloads that are not JSON, or that carry no record array at the known
// path, are feed noise and dropped without error. Records without a maker
// represent non-trade events and are silently skipped. Each emitted swap
// takes its id from the record envelope.
func (c *Cable) handleFeedMessage(data []byte, swaps chan<- model.Swap) error {
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().
			Str("component", "photon/cable").
			Int("bytes", len(data)).
			Msg("ignoring non-JSON feed payload")
		return nil
	}

	for _, record := range msg.Message.Events.Data {
		if record.Attributes.Maker == "" {
			continue
		}

		swap := record.Attributes
		swap.Id = record.Id
		swaps <- swap
	}

	return nil
}
