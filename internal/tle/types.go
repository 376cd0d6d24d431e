// Package tle acquires two-line element sets for the tracked satellites:
// Celestrak per-catalog-number fetch, timestamped on-disk cache with
// staleness fallback, and an atomic in-memory store. It sits entirely
// outside the prediction core, which receives element text already resolved.
package tle

import "time"

// Entry is one satellite's element set with its parsed identity.
type Entry struct {
	NoradID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// Dataset is the current element sets for all tracked satellites.
type Dataset struct {
	Source    string // "celestrak" or "cache"
	FetchedAt time.Time
	Entries   map[int]Entry // keyed by NORAD catalog number
}
