package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/geraldgg/helioselene/internal/propagation"
)

// Parse reads 3-line NORAD TLE format from r and returns the entries that
// pass full format and checksum validation. Malformed entries are skipped
// with a warning log; the propagation parser is the single authority on what
// a valid element set is.
func Parse(r io.Reader, logger *slog.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []Entry
	for i := 0; i+2 < len(lines); {
		name := strings.TrimSpace(lines[i])
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Resync on the next line.
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		el, err := propagation.ParseTLE(line1, line2)
		if err != nil {
			logger.Warn("skipping invalid TLE entry", "name", name, "error", err)
			i += 3
			continue
		}

		entries = append(entries, Entry{
			NoradID: el.NoradID,
			Name:    name,
			Epoch:   el.Epoch,
			Line1:   line1,
			Line2:   line2,
		})
		i += 3
	}

	return entries, nil
}
