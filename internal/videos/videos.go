// Package videos is the catalog store: the purchasable highlight packages.
package videos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrVideoNotFound = errors.New("video not found")

// Video is one purchasable highlight package for a fight.
type Video struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id,omitempty"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	EventName      string    `json:"event_name"`
	FightDate      time.Time `json:"fight_date"`
	Category       string    `json:"category"`
	Modality       string    `json:"modality"`
	TeaserURL      string    `json:"teaser_url"`
	PriceHighlight int64     `json:"price_highlight"` // minor currency units
	PriceFull      int64     `json:"price_full_bundle"`
	IsActive       bool      `json:"is_active"`
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

const videoColumns = `
	id, COALESCE(event_id::text, ''), title, slug, event_name, fight_date,
	category, modality, teaser_url, price_highlight, price_full_bundle, is_active
`

// GetBySlug resolves an active video by its URL slug.
func (c *Conf) GetBySlug(ctx context.Context, slug string) (Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE slug = $1 AND is_active = TRUE`
	var v Video
	err := c.db.QueryRowContext(ctx, query, slug).Scan(
		&v.ID, &v.EventID, &v.Title, &v.Slug, &v.EventName, &v.FightDate,
		&v.Category, &v.Modality, &v.TeaserURL, &v.PriceHighlight, &v.PriceFull, &v.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Video{}, ErrVideoNotFound
		}
		return Video{}, fmt.Errorf("querying video by slug: %w", err)
	}
	return v, nil
}

// List returns active videos, most recent fights first.
func (c *Conf) List(ctx context.Context) ([]Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE is_active = TRUE ORDER BY fight_date DESC`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying videos: %w", err)
	}
	defer rows.Close()

	var result []Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(
			&v.ID, &v.EventID, &v.Title, &v.Slug, &v.EventName, &v.FightDate,
			&v.Category, &v.Modality, &v.TeaserURL, &v.PriceHighlight, &v.PriceFull, &v.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scanning video: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating videos: %w", err)
	}
	return result, nil
}
