package enrich

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/soniq-labs/soniq-core/internal/catalog"
)

// DefaultConcurrency bounds concurrent tag lookups.
const DefaultConcurrency = 5

// TagLookup abstracts the Last.fm client for testing.
type TagLookup interface {
	GetTags(ctx context.Context, artist, title string) ([]Tag, error)
}

// canonicalGenres maps common tag spellings onto the catalog's genre
// vocabulary. Tags outside the table are ignored.
var canonicalGenres = map[string]string{
	"pop":          "pop",
	"rock":         "rock",
	"indie rock":   "rock",
	"classic rock": "rock",
	"hip-hop":      "hip-hop",
	"hip hop":      "hip-hop",
	"rap":          "hip-hop",
	"electronic":   "electronic",
	"electronica":  "electronic",
	"techno":       "electronic",
	"house":        "electronic",
	"jazz":         "jazz",
	"classical":    "classical",
	"folk":         "folk",
	"acoustic":     "folk",
	"instrumental": "instrumental",
	"ambient":      "instrumental",
}

// Enricher fills unknown genres from Last.fm tags.
type Enricher struct {
	lookup      TagLookup
	concurrency int
	log         zerolog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithConcurrency sets the number of concurrent tag lookups.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEnricher creates an enricher using the given tag source.
func NewEnricher(lookup TagLookup, log zerolog.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		lookup:      lookup,
		concurrency: DefaultConcurrency,
		log:         log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich resolves genres for tracks still labeled unknown, in place.
// Tracks without title and artist metadata are left untouched, as are
// tracks whose tags map to no known genre. Lookup failures are logged
// and skipped rather than failing the batch.
func (e *Enricher) Enrich(ctx context.Context, tracks []catalog.Track) int {
	type workItem struct{ index int }
	workCh := make(chan workItem, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		if t.Genre != "" && t.Genre != catalog.UnknownGenre {
			continue
		}
		if t.Title == "" || t.Artist == "" {
			continue
		}
		workCh <- workItem{index: i}
	}
	close(workCh)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		enriched int
	)
	for w := 0; w < e.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if ctx.Err() != nil {
					return
				}

				t := &tracks[work.index]
				tags, err := e.lookup.GetTags(ctx, t.Artist, t.Title)
				if err != nil {
					e.log.Warn().Err(err).
						Str("track_id", t.ID).
						Msg("genre lookup failed")
					continue
				}

				genre := genreFromTags(tags)
				if genre == "" {
					continue
				}
				t.Genre = genre
				mu.Lock()
				enriched++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return enriched
}

// genreFromTags returns the canonical genre of the first recognizable
// tag, relying on Last.fm's popularity ordering.
func genreFromTags(tags []Tag) string {
	for _, tag := range tags {
		if g, ok := canonicalGenres[strings.ToLower(tag.Name)]; ok {
			return g
		}
	}
	return ""
}
