package photon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/saucesteals/photontools/internal/model"
)

const (
	// defaultAPIBaseURL is the host site's REST base used for event history.
	defaultAPIBaseURL = "https://photon-sol.tinyastro.io"

	// historyPageSize bounds a backfill to the most recent events.
	historyPageSize = 50

	// defaultRequestTimeout caps one history request.
	defaultRequestTimeout = 15 * time.Second
)

// ErrFetchFailed indicates a history request failed or returned a payload
// without the expected event array, signalling upstream schema drift.
// History fetches are one-shot: the caller never retries.
var ErrFetchFailed = errors.New("failed to fetch events history")

// History fetches a wallet's past trades against a pool.
type History struct {
	baseURL string
	client  *http.Client
}

// HistoryConfig holds the settings for the history client.
type HistoryConfig struct {
	// BaseURL is the REST API base. Defaults to the host site's API.
	BaseURL string

	// Client is the HTTP client used for requests. Defaults to a client
	// with a bounded request timeout.
	Client *http.Client
}

// historyResponse is the envelope of the events endpoint. Data is kept raw
// so a non-array value can be distinguished from an empty one.
type historyResponse struct {
	Events struct {
		Data json.RawMessage `json:"data"`
	} `json:"events"`
}

// NewHistory returns a history client.
func NewHistory(cfg HistoryConfig) *History {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultRequestTimeout}
	}

	return &History{
		baseURL: cfg.BaseURL,
		client:  cfg.Client,
	}
}

// GetEventsHistory requests the most recent trades for a wallet/pool pair:
// at most 50 events, ordered newest-first by timestamp.
//
// It returns ErrFetchFailed (wrapped with detail) on a non-200 status or
// when the payload does not carry an event array. Each returned swap's id
// is populated from its record envelope.
func (h *History) GetEventsHistory(ctx context.Context, poolID int64, wallet string) ([]model.Swap, error) {
	query := url.Values{}
	query.Set("old_pool", "false")
	query.Set("order_by", "timestamp")
	query.Set("order_dir", "desc")
	query.Set("pool_id", strconv.FormatInt(poolID, 10))
	query.Set("signer", wallet)
	query.Set("size", strconv.Itoa(historyPageSize))

	endpoint := fmt.Sprintf("%s/api/lp/events?%s", h.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	log.Debug().
		Str("component", "photon/events").
		Int64("poolId", poolID).
		Str("signer", wallet).
		Msg("fetching events history")

	res, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	var payload historyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	data := bytes.TrimSpace(payload.Events.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: no events found in %s", ErrFetchFailed, body)
	}

	var records []swapRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	swaps := make([]model.Swap, 0, len(records))
	for _, record := range records {
		swap := record.Attributes
		swap.Id = record.Id
		swaps = append(swaps, swap)
	}

	return swaps, nil
}
