// Package users is the buyer profile store.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrProfileNotFound = errors.New("profile not found")

// Profile is the buyer identity record the checkout needs: contact details
// and the tax id the gateway requires.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Whatsapp  string    `json:"whatsapp"`
	CPF       string    `json:"cpf"`
	CreatedAt time.Time `json:"created_at"`
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

// GetProfile fetches a buyer profile by user id.
func (c *Conf) GetProfile(ctx context.Context, userID string) (Profile, error) {
	query := `
		SELECT id, email, full_name, whatsapp, cpf, created_at
		FROM profiles
		WHERE id = $1
	`
	var p Profile
	err := c.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Whatsapp, &p.CPF, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// UpdateCPF persists a validated tax id so the buyer is not prompted again.
func (c *Conf) UpdateCPF(ctx context.Context, userID, cpf string) error {
	result, err := c.db.ExecContext(ctx,
		`UPDATE profiles SET cpf = $1 WHERE id = $2`, cpf, userID)
	if err != nil {
		return fmt.Errorf("updating profile cpf: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking cpf update: %w", err)
	}
	if affected == 0 {
		return ErrProfileNotFound
	}
	return nil
}
