package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const unitPreferenceKey = "weatherUnit"

// UnitPreference stores the preferred unit system.
type UnitPreference struct {
	kv       store.KV
	fallback weather.Units
}

func NewUnitPreference(kv store.KV, fallback weather.Units) *UnitPreference {
	return &UnitPreference{kv: kv, fallback: fallback}
}

// Get returns the stored preference, or the fallback when none (or an invalid one) is stored.
func (p *UnitPreference) Get(ctx context.Context) (weather.Units, error) {
	data, err := p.kv.Get(ctx, unitPreferenceKey)
	if errors.Is(err, store.ErrNotFound) {
		return p.fallback, nil
	}
	if err != nil {
		return p.fallback, fmt.Errorf("load unit preference: %w", err)
	}

	u, err := weather.ParseUnits(string(data))
	if err != nil {
		return p.fallback, nil
	}
	return u, nil
}

// Set validates and stores a preference.
func (p *UnitPreference) Set(ctx context.Context, raw string) (weather.Units, error) {
	u, err := weather.ParseUnits(raw)
	if err != nil {
		return "", err
	}
	if err := p.kv.Set(ctx, unitPreferenceKey, []byte(u)); err != nil {
		return "", fmt.Errorf("save unit preference: %w", err)
	}
	return u, nil
}
