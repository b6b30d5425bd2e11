package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Relay request names. The wire shape mirrors the original cross-context
// messaging: a caller sends {name, body} and awaits one response.
const (
	relayGet = "get"
	relaySet = "set"
)

// relayRequest is one in-flight request from a page-world caller to the
// privileged store owner.
type relayRequest struct {
	name  string
	body  json.RawMessage
	reply chan relayResponse
}

// relayResponse carries the result back to the caller.
type relayResponse struct {
	body json.RawMessage
	err  error
}

// getBody is the body of a "get" request.
type getBody struct {
	Key string `json:"key"`
}

// Relay gives unprivileged callers request/response access to the
// preference store. The store is touched only by the Serve goroutine; the
// callers marshal requests over a channel and await the reply.
type Relay struct {
	store    *Store
	requests chan *relayRequest
	started  atomic.Bool
}

// NewRelay returns a relay in front of the given store.
func NewRelay(store *Store) *Relay {
	return &Relay{
		store:    store,
		requests: make(chan *relayRequest, 16),
	}
}

// Serve owns the store and answers relay requests until the context is
// cancelled.
func (r *Relay) Serve(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("relay already serving")
	}

	go func() {
		logger := log.With().Str("component", "storage/relay").Logger()

		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("relay stopped")
				return
			case req := <-r.requests:
				req.reply <- r.handle(ctx, req)
			}
		}
	}()

	return nil
}

// handle dispatches one request against the store.
func (r *Relay) handle(ctx context.Context, req *relayRequest) relayResponse {
	switch req.name {
	case relayGet:
		var body getBody
		if err := json.Unmarshal(req.body, &body); err != nil {
			return relayResponse{err: fmt.Errorf("malformed get request: %w", err)}
		}

		value, err := r.store.Get(ctx, body.Key)
		return relayResponse{body: value, err: err}

	case relaySet:
		var updates map[string]json.RawMessage
		if err := json.Unmarshal(req.body, &updates); err != nil {
			return relayResponse{err: fmt.Errorf("malformed set request: %w", err)}
		}

		return relayResponse{err: r.store.Set(ctx, updates)}

	default:
		return relayResponse{err: fmt.Errorf("unknown relay request %q", req.name)}
	}
}

// send submits a request and awaits its response.
func (r *Relay) send(ctx context.Context, name string, body json.RawMessage) (json.RawMessage, error) {
	if !r.started.Load() {
		return nil, errors.New("relay not serving")
	}

	req := &relayRequest{
		name:  name,
		body:  body,
		reply: make(chan relayResponse, 1),
	}

	select {
	case r.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.body, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get reads one preference value through the relay. The Relay satisfies
// Getter, so GetPreference works on it directly.
func (r *Relay) Get(ctx context.Context, key string) (json.RawMessage, error) {
	body, err := json.Marshal(getBody{Key: key})
	if err != nil {
		return nil, err
	}

	return r.send(ctx, relayGet, body)
}

// Set writes a partial preference record through the relay.
func (r *Relay) Set(ctx context.Context, updates map[string]json.RawMessage) error {
	body, err := json.Marshal(updates)
	if err != nil {
		return err
	}

	_, err = r.send(ctx, relaySet, body)
	return err
}
