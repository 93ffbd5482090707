// Package settings reads and writes the single-row application settings.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

const globalID = "global"

// DefaultUpsellPrice is the fallback full-fight add-on price in minor units.
const DefaultUpsellPrice int64 = 2000

// AppSettings are operator-tunable values. Prices in minor currency units.
type AppSettings struct {
	FullFightUpsellPrice int64 `json:"full_fight_upsell_price"`
}

func defaults() AppSettings {
	return AppSettings{FullFightUpsellPrice: DefaultUpsellPrice}
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// Get loads the global settings. A missing or unreadable row degrades to the
// defaults rather than failing a checkout over a tunable.
func (c *Conf) Get(ctx context.Context) AppSettings {
	var raw []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE id = $1`, globalID).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("failed to load settings, using defaults", slog.String("Error", err.Error()))
		}
		return defaults()
	}

	result := defaults()
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Error("failed to decode settings, using defaults", slog.String("Error", err.Error()))
		return defaults()
	}
	return result
}

// Update merges the given settings over the stored row.
func (c *Conf) Update(ctx context.Context, s AppSettings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO settings (id, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, globalID, raw)
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	return nil
}
