package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// maxRecordBytes bounds a single NDJSON line. High-dimensional embeddings
// serialize to tens of kilobytes; 8 MiB leaves ample headroom.
const maxRecordBytes = 8 << 20

// record is the on-disk shape of one catalog entry.
type record struct {
	TrackID     string    `json:"track_id"`
	Vector      []float64 `json:"vector"`
	Genre       string    `json:"genre"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	DurationSec float64   `json:"duration_sec"`
}

// LoadFile reads a catalog from an NDJSON file (one track per line).
func LoadFile(path string) ([]Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()

	tracks, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}
	return tracks, nil
}

// Load reads NDJSON catalog records from r. Blank lines are skipped.
func Load(r io.Reader) ([]Track, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordBytes)

	var tracks []Track
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.TrackID == "" {
			return nil, fmt.Errorf("line %d: missing track_id", line)
		}
		if len(rec.Vector) == 0 {
			return nil, fmt.Errorf("line %d: track %s has no embedding vector", line, rec.TrackID)
		}

		tracks = append(tracks, Track{
			ID:          rec.TrackID,
			Vector:      rec.Vector,
			Genre:       rec.Genre,
			Title:       rec.Title,
			Artist:      rec.Artist,
			DurationSec: rec.DurationSec,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning records: %w", err)
	}
	return tracks, nil
}
