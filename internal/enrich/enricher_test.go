package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/soniq-labs/soniq-core/internal/catalog"
)

// fakeLookup serves canned tags keyed by "artist|title".
type fakeLookup struct {
	mu    sync.Mutex
	tags  map[string][]Tag
	err   error
	calls []string
}

func (f *fakeLookup) GetTags(_ context.Context, artist, title string) ([]Tag, error) {
	f.mu.Lock()
	f.calls = append(f.calls, artist+"|"+title)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.tags[artist+"|"+title], nil
}

func TestEnrichFillsUnknownGenres(t *testing.T) {
	lookup := &fakeLookup{tags: map[string][]Tag{
		"Miles Davis|So What":  {{Name: "Jazz", Count: 100}},
		"Daft Punk|Around":     {{Name: "french touch", Count: 50}, {Name: "House", Count: 40}},
		"Unknown Band|Obscure": {{Name: "seen live", Count: 3}},
	}}
	tracks := []catalog.Track{
		{ID: "t1", Genre: "unknown", Artist: "Miles Davis", Title: "So What"},
		{ID: "t2", Genre: "", Artist: "Daft Punk", Title: "Around"},
		{ID: "t3", Genre: "unknown", Artist: "Unknown Band", Title: "Obscure"},
	}

	e := NewEnricher(lookup, zerolog.Nop())
	enriched := e.Enrich(context.Background(), tracks)

	if enriched != 2 {
		t.Fatalf("enriched = %d, want 2", enriched)
	}
	if tracks[0].Genre != "jazz" {
		t.Errorf("t1 genre = %q, want jazz", tracks[0].Genre)
	}
	if tracks[1].Genre != "electronic" {
		t.Errorf("t2 genre = %q, want electronic", tracks[1].Genre)
	}
	// No recognizable tag keeps the unknown label.
	if tracks[2].Genre != "unknown" {
		t.Errorf("t3 genre = %q, want unknown", tracks[2].Genre)
	}
}

func TestEnrichSkipsKnownAndUntitled(t *testing.T) {
	lookup := &fakeLookup{tags: map[string][]Tag{}}
	tracks := []catalog.Track{
		{ID: "t1", Genre: "rock", Artist: "A", Title: "B"},
		{ID: "t2", Genre: "unknown", Artist: "", Title: "B"},
		{ID: "t3", Genre: "unknown", Artist: "A", Title: ""},
	}

	e := NewEnricher(lookup, zerolog.Nop())
	if got := e.Enrich(context.Background(), tracks); got != 0 {
		t.Fatalf("enriched = %d, want 0", got)
	}
	if len(lookup.calls) != 0 {
		t.Errorf("lookup called %d times, want 0", len(lookup.calls))
	}
	if tracks[0].Genre != "rock" {
		t.Errorf("known genre overwritten: %q", tracks[0].Genre)
	}
}

func TestEnrichToleratesLookupErrors(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("network down")}
	tracks := []catalog.Track{
		{ID: "t1", Genre: "unknown", Artist: "A", Title: "B"},
		{ID: "t2", Genre: "unknown", Artist: "C", Title: "D"},
	}

	e := NewEnricher(lookup, zerolog.Nop())
	if got := e.Enrich(context.Background(), tracks); got != 0 {
		t.Fatalf("enriched = %d, want 0", got)
	}
	for _, tr := range tracks {
		if tr.Genre != "unknown" {
			t.Errorf("track %s genre changed on error: %q", tr.ID, tr.Genre)
		}
	}
}

func TestEnrichBoundedConcurrency(t *testing.T) {
	lookup := &fakeLookup{tags: map[string][]Tag{}}
	tracks := make([]catalog.Track, 20)
	for i := range tracks {
		tracks[i] = catalog.Track{
			ID:     string(rune('a' + i)),
			Genre:  "unknown",
			Artist: "Artist",
			Title:  string(rune('a' + i)),
		}
	}

	e := NewEnricher(lookup, zerolog.Nop(), WithConcurrency(2))
	e.Enrich(context.Background(), tracks)

	if len(lookup.calls) != len(tracks) {
		t.Errorf("lookup called %d times, want %d", len(lookup.calls), len(tracks))
	}
}

func TestGenreFromTags(t *testing.T) {
	tests := []struct {
		name string
		tags []Tag
		want string
	}{
		{"first recognizable wins", []Tag{{Name: "seen live"}, {Name: "Hip Hop"}, {Name: "rock"}}, "hip-hop"},
		{"case insensitive", []Tag{{Name: "CLASSICAL"}}, "classical"},
		{"alias mapping", []Tag{{Name: "ambient"}}, "instrumental"},
		{"nothing recognizable", []Tag{{Name: "favourite"}, {Name: "2010s"}}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := genreFromTags(tt.tags); got != tt.want {
				t.Errorf("genreFromTags() = %q, want %q", got, tt.want)
			}
		})
	}
}
