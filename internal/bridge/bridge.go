// Package bridge provides the typed message bus connecting the privileged
// settings context with the page-world overlay pipeline.
//
// It replaces the original window message passing with an explicit
// publish/subscribe seam: the settings side publishes watch-list
// replacements, and the overlay side announces chart readiness.
package bridge

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/saucesteals/photontools/internal/model"
)

// MessageType identifies a cross-world message.
type MessageType string

const (
	// MessageSetWallets carries a wholesale watch-list replacement into
	// the overlay pipeline.
	MessageSetWallets MessageType = "SET_WALLETS"

	// MessageChartInitialized signals that the overlay engine finished
	// its widget hookup.
	MessageChartInitialized MessageType = "CHART_INITIALIZED"
)

// Message is one cross-world message. Wallets is populated only for
// MessageSetWallets.
type Message struct {
	Type    MessageType    `json:"type"`
	Wallets []model.Wallet `json:"wallets,omitempty"`
}

// Subscriber receives bus messages on its own buffered channel.
type Subscriber struct {
	id int64
	ch chan Message
}

// Messages returns the subscriber's delivery channel. It is closed on
// unsubscribe.
func (s *Subscriber) Messages() <-chan Message {
	return s.ch
}

// Bus is a small fan-out message bus. Publishing never blocks: a slow
// subscriber loses its oldest buffered message instead of stalling the
// publisher.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int64]*Subscriber
	nextID      int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[int64]*Subscriber),
	}
}

// Subscribe registers a new subscriber.
func (b *Bus) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscriber{
		id: b.nextID,
		ch: make(chan Message, 16),
	}
	b.subscribers[sub.id] = sub

	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub.id]; ok {
		delete(b.subscribers, sub.id)
		close(sub.ch)
	}
}

// Publish delivers a message to every subscriber.
func (b *Bus) Publish(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		select {
		case sub.ch <- msg:
		default:
			// Slow subscriber: drop its oldest buffered message so the
			// newest one always lands.
			log.Warn().
				Str("component", "bridge").
				Str("type", string(msg.Type)).
				Msg("subscriber too slow, dropping oldest buffered message")
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- msg
		}
	}
}
