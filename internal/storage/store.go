// Package storage implements the durable preference store and the
// request/response relay that exposes it across contexts.
//
// Preferences are a small key-value set (watch-list, mark size, palette
// index, market-cap threshold) persisted in SQLite with values stored as
// JSON. Reads default on first use: a key that has never been written
// returns its default and writes it back, so later readers observe a
// stable value.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
	json "github.com/goccy/go-json"

	"github.com/saucesteals/photontools/internal/model"
)

// ErrUnknownKey indicates a preference key outside the recognized set.
var ErrUnknownKey = errors.New("unknown preference key")

// Store is a SQLite-backed key-value preference store.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the preference database at path.
// Use ":memory:" for an ephemeral store.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preferences table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the JSON value stored under key. If the key has never been
// written, its default is persisted and returned.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE key = ?", key,
	).Scan(&value)
	if err == nil {
		return json.RawMessage(value), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read preference %s: %w", key, err)
	}

	fallback, err := defaultValue(key)
	if err != nil {
		return nil, err
	}

	if err := s.set(ctx, key, fallback); err != nil {
		return nil, err
	}

	return fallback, nil
}

// Set writes every entry of the partial preference record. Unknown keys
// are rejected before anything is written.
func (s *Store) Set(ctx context.Context, updates map[string]json.RawMessage) error {
	for key := range updates {
		if _, err := defaultValue(key); err != nil {
			return err
		}
	}

	for key, value := range updates {
		if err := s.set(ctx, key, value); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) set(ctx context.Context, key string, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO preferences (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value",
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}

	return nil
}

// defaultValue returns the JSON encoding of a key's default, or
// ErrUnknownKey for keys outside the recognized preference set.
func defaultValue(key string) (json.RawMessage, error) {
	defaults := model.DefaultPreferences()

	var value any
	switch key {
	case model.PrefWallets:
		value = defaults.Wallets
	case model.PrefMinMarkSize:
		value = defaults.MinMarkSize
	case model.PrefColorPaletteIndex:
		value = defaults.ColorPaletteIndex
	case model.PrefMarketCap:
		value = defaults.MarketCap
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return encoded, nil
}

// Getter reads one preference value by key. Both the Store and the Relay
// satisfy it, so typed accessors work in either context.
type Getter interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
}

// GetPreference reads and decodes one preference value.
func GetPreference[T any](ctx context.Context, getter Getter, key string) (T, error) {
	var value T

	raw, err := getter.Get(ctx, key)
	if err != nil {
		return value, err
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("corrupt preference %s: %w", key, err)
	}

	return value, nil
}

// EncodeUpdate builds a partial preference record for Set from typed
// values.
func EncodeUpdate(pairs map[string]any) (map[string]json.RawMessage, error) {
	updates := make(map[string]json.RawMessage, len(pairs))
	for key, value := range pairs {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode preference %s: %w", key, err)
		}
		updates[key] = encoded
	}

	return updates, nil
}
