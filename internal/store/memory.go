package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when a key or overview is not available.
	ErrNotFound = errors.New("not found")
)

// MemoryKV is a concurrency-safe in-memory KV.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (s *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryKV) Close() error {
	return nil
}

// Overview is one refresh of the world overview.
type Overview struct {
	Units       weather.Units       `json:"units"`
	Result      weather.BatchResult `json:"result"`
	RefreshedAt time.Time           `json:"refreshedAt"` // always UTC
}

// OverviewBoard holds the latest overview per unit system.
type OverviewBoard struct {
	mu sync.RWMutex

	latest map[weather.Units]Overview

	// overviews older than maxAge are reported as missing (0 = never stale)
	maxAge time.Duration
	now    func() time.Time
}

// NewOverviewBoard creates an empty board. If maxAge is <= 0, entries never go stale.
func NewOverviewBoard(maxAge time.Duration) *OverviewBoard {
	return &OverviewBoard{
		latest: make(map[weather.Units]Overview),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Save replaces the overview for its unit system.
func (b *OverviewBoard) Save(o Overview) {
	if o.RefreshedAt.IsZero() {
		o.RefreshedAt = b.now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest[o.Units] = o
}

// Latest returns the most recent overview for units.
func (b *OverviewBoard) Latest(units weather.Units) (Overview, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	o, ok := b.latest[units]
	if !ok {
		return Overview{}, ErrNotFound
	}

	if b.maxAge > 0 && b.now().Sub(o.RefreshedAt) > b.maxAge {
		return Overview{}, ErrNotFound
	}
	return o, nil
}
