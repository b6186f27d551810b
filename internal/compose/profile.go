package compose

import (
	"context"
	"fmt"

	"github.com/roach88/guff/internal/backend"
	"github.com/roach88/guff/internal/model"
	"github.com/roach88/guff/internal/validate"
)

// NeedsProfile reports whether the caller still has to pick a name.
func NeedsProfile(ctx context.Context, p backend.Profiles) (bool, error) {
	profile, err := p.GetCallerUserProfile(ctx)
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	return profile == nil, nil
}

// SetupProfile validates name and saves it as the caller's profile.
func SetupProfile(ctx context.Context, p backend.Profiles, name string) (model.Profile, error) {
	res := validate.DisplayName(name)
	if !res.Valid {
		return model.Profile{}, res.Err()
	}

	profile := model.Profile{Name: res.Trimmed}
	if err := p.SaveCallerUserProfile(ctx, profile); err != nil {
		return model.Profile{}, err
	}
	return profile, nil
}
