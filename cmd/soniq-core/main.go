// Command soniq-core runs the music recommendation service.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/soniq-labs/soniq-core/internal/archetype"
	"github.com/soniq-labs/soniq-core/internal/catalog"
	"github.com/soniq-labs/soniq-core/internal/config"
	"github.com/soniq-labs/soniq-core/internal/enrich"
	"github.com/soniq-labs/soniq-core/internal/listening"
	"github.com/soniq-labs/soniq-core/internal/projection"
	"github.com/soniq-labs/soniq-core/internal/recommend"
	"github.com/soniq-labs/soniq-core/internal/similarity"
	"github.com/soniq-labs/soniq-core/internal/web"
	"github.com/soniq-labs/soniq-core/internal/wormhole"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := newLogger(cfg.Logging)

	// Catalog.
	tracks, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	var enricher web.Enricher
	if cfg.Lastfm.APIKey != "" {
		e := enrich.NewEnricher(
			enrich.NewClient(cfg.Lastfm.APIKey),
			log.With().Str("component", "enrich").Logger(),
			enrich.WithConcurrency(cfg.Lastfm.Concurrency),
		)
		enriched := e.Enrich(context.Background(), tracks)
		log.Info().Int("enriched", enriched).Msg("genre enrichment finished")
		enricher = e
	}

	store := catalog.NewStore()
	if err := store.Replace(tracks); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	log.Info().
		Int("tracks", store.Len()).
		Int("dim", store.Dim()).
		Str("path", cfg.Catalog.Path).
		Msg("catalog loaded")

	// Recommendation pipeline.
	engine := similarity.NewEngine(store)
	filter := recommend.NewDiversityFilter(store, recommend.DiversityConfig{
		RecentLimit:        cfg.Recommend.RecentLimit,
		ExploreProbability: cfg.Recommend.ExploreProbability,
	}, rand.New(rand.NewSource(time.Now().UnixNano())))
	recommender := recommend.NewRecommender(engine, filter, recommend.RecommenderConfig{
		CandidateLimit: cfg.Recommend.CandidateLimit,
	})
	sessions := recommend.NewSessionStore(
		cfg.Recommend.SessionTTL,
		recommend.DefaultPenaltyFactor,
		recommend.DefaultPenaltyFloor,
	)

	// Archetype classifier: heuristic rules unless a fitted model exists.
	var model *archetype.Model
	if cfg.Model.Path != "" {
		model, err = archetype.LoadModel(cfg.Model.Path)
		if err != nil {
			return fmt.Errorf("loading archetype model: %w", err)
		}
		log.Info().Str("path", cfg.Model.Path).Msg("archetype model loaded")
	} else {
		log.Warn().Msg("no archetype model configured, using heuristic classification")
	}

	// Listening history, optional.
	var events web.EventSource
	if cfg.Database.URL != "" {
		eventStore, err := listening.NewEventStore(context.Background(), cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connecting to event database: %w", err)
		}
		defer eventStore.Close()
		events = eventStore
		log.Info().Msg("listening event store connected")
	} else {
		log.Warn().Msg("no database configured, archetype endpoint disabled")
	}

	metrics := web.NewMetrics()
	handlers := web.NewHandlers(web.HandlersConfig{
		Store:       store,
		CatalogPath: cfg.Catalog.Path,
		Enricher:    enricher,
		Recommender: recommender,
		Sessions:    sessions,
		Wormholes:   wormhole.NewGenerator(engine),
		Classifier:  archetype.NewClassifier(model),
		Extractor:   listening.NewExtractor(cfg.Features.SessionGap),
		Events:      events,
		Projector:   projection.NewService(store),
		Metrics:     metrics,
		Logger:      log.With().Str("component", "http").Logger(),
	})

	server := web.NewServer(cfg.Server, handlers, metrics, log)
	return server.Run()
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}
