// Command soniq-fit fits the archetype model offline. It reads every
// user's listening history from the event database, extracts behavioral
// feature vectors, clusters them, and writes the model JSON consumed by
// soniq-core.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/soniq-labs/soniq-core/internal/archetype"
	"github.com/soniq-labs/soniq-core/internal/catalog"
	"github.com/soniq-labs/soniq-core/internal/listening"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	databaseURL := flag.String("database-url", os.Getenv("SONIQ_DATABASE_URL"), "Postgres connection string")
	catalogPath := flag.String("catalog", "", "NDJSON catalog, used for genre lookups")
	outPath := flag.String("out", "archetypes.json", "output model path")
	sessionGap := flag.Duration("session-gap", 30*time.Minute, "idle gap separating listening sessions")
	minPlays := flag.Int("min-plays", 5, "skip users with fewer plays")
	flag.Parse()

	if *databaseURL == "" {
		return fmt.Errorf("a database URL is required (flag -database-url or SONIQ_DATABASE_URL)")
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ctx := context.Background()

	genreOf := func(string) string { return catalog.UnknownGenre }
	if *catalogPath != "" {
		tracks, err := catalog.LoadFile(*catalogPath)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
		store := catalog.NewStore()
		if err := store.Replace(tracks); err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
		genreOf = store.Genre
		log.Info().Int("tracks", store.Len()).Msg("catalog loaded")
	} else {
		log.Warn().Msg("no catalog given, genre diversity will be zero for all users")
	}

	events, err := listening.NewEventStore(ctx, *databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to event database: %w", err)
	}
	defer events.Close()

	userIDs, err := events.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	log.Info().Int("users", len(userIDs)).Msg("reading listening histories")

	extractor := listening.NewExtractor(*sessionGap)
	vectors := make([]listening.FeatureVector, 0, len(userIDs))
	skipped := 0
	for _, userID := range userIDs {
		history, err := events.UserEvents(ctx, userID)
		if err != nil {
			return fmt.Errorf("reading history for user %s: %w", userID, err)
		}
		v := extractor.Extract(history, genreOf)
		if v.TotalPlays < float64(*minPlays) {
			skipped++
			continue
		}
		vectors = append(vectors, v)
	}
	log.Info().
		Int("fitted", len(vectors)).
		Int("skipped", skipped).
		Msg("feature extraction finished")

	model, err := archetype.Fit(vectors)
	if err != nil {
		return fmt.Errorf("fitting archetype model: %w", err)
	}

	if err := model.Save(*outPath); err != nil {
		return fmt.Errorf("writing model: %w", err)
	}
	log.Info().Str("path", *outPath).Msg("archetype model written")
	return nil
}
