// Package prefs keeps the dashboard state a browser would hold in local storage:
// recent searches and the preferred unit system.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/store"
)

const (
	recentSearchesKey = "recentWeatherSearches"

	// DefaultRecentLimit is how many searches are kept.
	DefaultRecentLimit = 5
)

// Search is one entry in the recent searches list.
type Search struct {
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Timestamp time.Time `json:"timestamp"`
}

// RecentSearches is a most-recent-first list, de-duplicated by city name.
type RecentSearches struct {
	kv    store.KV
	limit int
	now   func() time.Time
	log   logrus.FieldLogger

	// serializes read-modify-write of the stored list
	mu sync.Mutex
}

// NewRecentSearches creates a RecentSearches. limit <= 0 uses DefaultRecentLimit.
func NewRecentSearches(kv store.KV, limit int, log logrus.FieldLogger) *RecentSearches {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RecentSearches{
		kv:    kv,
		limit: limit,
		now:   time.Now,
		log:   log.WithField("component", "recent_searches"),
	}
}

// List returns the stored searches, most recent first.
func (r *RecentSearches) List(ctx context.Context) ([]Search, error) {
	return r.load(ctx)
}

// Add records a search for city, moving it to the front if already present.
func (r *RecentSearches) Add(ctx context.Context, city, country string) ([]Search, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	updated := make([]Search, 0, r.limit)
	updated = append(updated, Search{City: city, Country: country, Timestamp: r.now().UTC()})
	for _, s := range current {
		if len(updated) == r.limit {
			break
		}
		if common.FoldEqual(s.City, city) {
			continue
		}
		updated = append(updated, s)
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("encode recent searches: %w", err)
	}
	if err := r.kv.Set(ctx, recentSearchesKey, data); err != nil {
		return nil, fmt.Errorf("save recent searches: %w", err)
	}
	return updated, nil
}

func (r *RecentSearches) load(ctx context.Context) ([]Search, error) {
	data, err := r.kv.Get(ctx, recentSearchesKey)
	if errors.Is(err, store.ErrNotFound) {
		return []Search{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load recent searches: %w", err)
	}

	var searches []Search
	if err := json.Unmarshal(data, &searches); err != nil {
		r.log.Warnf("discarding corrupt recent searches: %v", err)
		return []Search{}, nil
	}
	if len(searches) > r.limit {
		searches = searches[:r.limit]
	}
	return searches, nil
}
