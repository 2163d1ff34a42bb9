package listening

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventStore reads listening-event history from PostgreSQL. The history
// is written by the playback backend; this service only reads it.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore connects to the event database and verifies the
// connection.
func NewEventStore(ctx context.Context, databaseURL string) (*EventStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &EventStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *EventStore) Close() {
	s.pool.Close()
}

// UserEvents returns a user's full event history ordered by timestamp.
func (s *EventStore) UserEvents(ctx context.Context, userID string) ([]Event, error) {
	query := `
		SELECT user_id, track_id, event_type, listened_duration, timestamp
		FROM listening_events
		WHERE user_id = $1
		ORDER BY timestamp
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying events for user %s: %w", userID, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev        Event
			eventType string
			ts        time.Time
		)
		if err := rows.Scan(&ev.UserID, &ev.TrackID, &eventType, &ev.ListenedDuration, &ts); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Type = EventType(eventType)
		ev.Timestamp = ts
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return events, nil
}

// UserIDs returns the distinct user ids present in the event history,
// used by the offline archetype fit.
func (s *EventStore) UserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM listening_events ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("querying user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading user ids: %w", err)
	}
	return ids, nil
}
