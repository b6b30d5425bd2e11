package photon

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// ErrNoPool indicates the page configuration carried no usable pool id.
var ErrNoPool = errors.New("no pool id in page configuration")

// PoolConfig is the page-embedded configuration object identifying the
// active pool. Some tokens additionally carry a pump pool trading in
// parallel with the main one.
type PoolConfig struct {
	Show struct {
		PoolID     int64  `json:"pool-id"`
		PumpPoolID *int64 `json:"pump-pool_id"`
	} `json:"show"`
}

// ParsePoolConfig decodes the page-embedded configuration JSON. The pool
// id is resolved once, synchronously, at startup; there is no fallback if
// it is missing.
func ParsePoolConfig(data []byte) (*PoolConfig, error) {
	var cfg PoolConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid pool configuration: %w", err)
	}

	if cfg.Show.PoolID <= 0 {
		return nil, ErrNoPool
	}

	return &cfg, nil
}

// CurrentPoolID returns the active pool's identifier.
func (p *PoolConfig) CurrentPoolID() int64 {
	return p.Show.PoolID
}

// AllPoolIDs returns the active pool id plus the pump pool id when present.
func (p *PoolConfig) AllPoolIDs() []int64 {
	poolIDs := []int64{p.CurrentPoolID()}
	if p.Show.PumpPoolID != nil && *p.Show.PumpPoolID > 0 {
		poolIDs = append(poolIDs, *p.Show.PumpPoolID)
	}

	return poolIDs
}
