package tle

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager ties the fetcher, cache and store together: Refresh fetches every
// catalog satellite, falling back per satellite to the newest cached copy
// when the network fails, and installs the merged dataset atomically.
type Manager struct {
	fetcher *Fetcher
	cache   *Cache
	store   *Store
	logger  *slog.Logger
}

// NewManager builds a Manager over the given collaborators.
func NewManager(fetcher *Fetcher, cache *Cache, store *Store, logger *slog.Logger) *Manager {
	return &Manager{fetcher: fetcher, cache: cache, store: store, logger: logger}
}

// LoadCached populates the store from the on-disk cache only. Used at
// startup so the service is usable before the first fetch completes.
func (m *Manager) LoadCached() {
	entries := make(map[int]Entry, len(Catalog))
	var newest time.Time
	for _, sat := range Catalog {
		data, ts, err := m.cache.LoadLatest(sat.NoradID)
		if err != nil {
			m.logger.Info("no TLE cache", "norad_id", sat.NoradID, "error", err)
			continue
		}
		for _, e := range m.parse(data, sat) {
			entries[e.NoradID] = e
		}
		if ts.After(newest) {
			newest = ts
		}
	}
	if len(entries) == 0 {
		return
	}
	m.store.Set(&Dataset{Source: "cache", FetchedAt: newest, Entries: entries})
	m.logger.Info("loaded TLE data from cache", "count", len(entries), "cached_at", newest.Format(time.RFC3339))
}

// Refresh fetches fresh element sets for the whole catalog. A satellite
// whose fetch fails keeps its cached entry; Refresh errors only when no
// satellite could be resolved at all.
func (m *Manager) Refresh(ctx context.Context) error {
	m.store.Lock()
	defer m.store.Unlock()

	now := time.Now().UTC()
	entries := make(map[int]Entry, len(Catalog))

	for _, sat := range Catalog {
		data, err := m.fetcher.Fetch(ctx, sat.NoradID)
		if err == nil {
			parsed := m.parse(data, sat)
			if len(parsed) > 0 {
				for _, e := range parsed {
					entries[e.NoradID] = e
				}
				if err := m.cache.Write(sat.NoradID, data, now); err != nil {
					m.logger.Warn("TLE cache write failed", "norad_id", sat.NoradID, "error", err)
				}
				continue
			}
			err = fmt.Errorf("no valid entries in response")
		}

		m.logger.Warn("TLE fetch failed, falling back to cache", "norad_id", sat.NoradID, "error", err)
		cached, ts, cerr := m.cache.LoadLatest(sat.NoradID)
		if cerr != nil {
			m.logger.Warn("no cached TLE either", "norad_id", sat.NoradID, "error", cerr)
			continue
		}
		for _, e := range m.parse(cached, sat) {
			entries[e.NoradID] = e
		}
		m.logger.Info("using stale cached TLE", "norad_id", sat.NoradID, "cached_at", ts.Format(time.RFC3339))
	}

	if len(entries) == 0 {
		return fmt.Errorf("tle refresh: no element sets available for any catalog satellite")
	}

	m.store.Set(&Dataset{Source: "celestrak", FetchedAt: now, Entries: entries})
	m.logger.Info("TLE dataset refreshed", "count", len(entries))
	return nil
}

func (m *Manager) parse(data []byte, sat Satellite) []Entry {
	entries, err := Parse(bytes.NewReader(data), m.logger)
	if err != nil {
		m.logger.Warn("TLE parse failed", "norad_id", sat.NoradID, "error", err)
		return nil
	}
	// CATNR responses carry exactly one satellite; drop anything else.
	out := entries[:0]
	for _, e := range entries {
		if e.NoradID == sat.NoradID {
			out = append(out, e)
		}
	}
	return out
}
