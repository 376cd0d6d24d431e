package tle

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const issResponse = "ISS (ZARYA)\n" +
	"1 25544U 98067A   25278.49802050  .00011384  00000+0  20935-3 0  9990\n" +
	"2 25544  51.6327 120.3420 0000884 206.2421 153.8523 15.49697304532279\n"

func TestParse_ValidEntry(t *testing.T) {
	entries, err := Parse(strings.NewReader(issResponse), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("parsed %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.NoradID != 25544 {
		t.Errorf("NoradID = %d, want 25544", e.NoradID)
	}
	if e.Name != "ISS (ZARYA)" {
		t.Errorf("Name = %q", e.Name)
	}
	if e.Epoch.Year() != 2025 {
		t.Errorf("Epoch = %v, want 2025", e.Epoch)
	}
}

func TestParse_SkipsCorruptChecksum(t *testing.T) {
	corrupt := strings.Replace(issResponse, "9990", "9991", 1)
	entries, err := Parse(strings.NewReader(corrupt), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("corrupt entry was accepted")
	}
}

func TestParse_ResyncsAfterGarbage(t *testing.T) {
	entries, err := Parse(strings.NewReader("noise line\n"+issResponse), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 || entries[0].NoradID != 25544 {
		t.Errorf("parser did not resync past leading garbage: %+v", entries)
	}
}

func TestCatalog_ByName(t *testing.T) {
	cases := []struct {
		in     string
		wantID int
	}{
		{"iss", 25544},
		{"ISS (ZARYA)", 25544},
		{"Tiangong", 48274},
		{"css", 48274},
		{"hubble", 20580},
		{"HST", 20580},
	}
	for _, tc := range cases {
		sat, ok := ByName(tc.in)
		if !ok || sat.NoradID != tc.wantID {
			t.Errorf("ByName(%q) = %+v, %v; want id %d", tc.in, sat, ok, tc.wantID)
		}
	}
	if _, ok := ByName("voyager"); ok {
		t.Error("unknown satellite resolved")
	}
}

func TestCache_WriteLoadPrune(t *testing.T) {
	c := NewCache(t.TempDir(), 2)
	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		data := []byte(issResponse + "# rev " + string(rune('0'+i)) + "\n")
		if err := c.Write(25544, data, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	data, ts, err := c.LoadLatest(25544)
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if !ts.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("latest ts = %v, want %v", ts, base.Add(3*time.Hour))
	}
	if !strings.Contains(string(data), "rev 3") {
		t.Error("LoadLatest returned stale content")
	}

	files, err := c.listFiles(25544)
	if err != nil {
		t.Fatalf("listFiles: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("%d files after prune, want 2", len(files))
	}

	// Per-satellite isolation: another catalog number sees nothing.
	if _, _, err := c.LoadLatest(48274); err == nil {
		t.Error("LoadLatest for unrelated satellite found files")
	}
}

func TestManager_RefreshAndStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only the ISS catalog number gets a real answer.
		if r.URL.Query().Get("CATNR") == "25544" {
			io.WriteString(w, issResponse)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := NewStore()
	m := NewManager(NewFetcher(server.URL), NewCache(t.TempDir(), 5), store, testLogger)

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	entry, ok := store.Lookup(25544)
	if !ok {
		t.Fatal("ISS entry missing after refresh")
	}
	if entry.Line1 == "" || entry.Line2 == "" {
		t.Error("entry missing element lines")
	}
	if _, ok := store.Lookup(48274); ok {
		t.Error("failed satellite produced an entry")
	}
	if store.AgeSeconds() < 0 {
		t.Error("dataset age not tracked")
	}
}

func TestManager_FallsBackToCache(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, 5)
	if err := cache.Write(25544, []byte(issResponse), time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewStore()
	m := NewManager(NewFetcher(server.URL), cache, store, testLogger)

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh with cache fallback: %v", err)
	}
	if _, ok := store.Lookup(25544); !ok {
		t.Error("cached ISS entry not used as fallback")
	}
}

func TestManager_RefreshFailsWithNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := NewManager(NewFetcher(server.URL), NewCache(t.TempDir(), 5), NewStore(), testLogger)
	if err := m.Refresh(context.Background()); err == nil {
		t.Error("refresh with no data and no cache did not error")
	}
}

func TestStore_EmptyAge(t *testing.T) {
	if age := NewStore().AgeSeconds(); age != -1 {
		t.Errorf("empty store age = %v, want -1", age)
	}
}
