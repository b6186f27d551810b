package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/guff/internal/model"
)

// GetProfile returns the profile of p, or nil if none was saved.
func (s *Store) GetProfile(ctx context.Context, p model.Principal) (*model.Profile, error) {
	var profile model.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM profiles WHERE principal = ?
	`, string(p)).Scan(&profile.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile creates or replaces the profile of p.
func (s *Store) SaveProfile(ctx context.Context, p model.Principal, profile model.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (principal, name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(principal) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
	`, string(p), profile.Name, s.clock.Next())
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
