// Package listening models the user listening-event history and derives
// fixed-schema behavioral feature vectors from it.
package listening

import "time"

// EventType is the kind of listening event.
type EventType string

// Listening event types, as recorded by the playback backend.
const (
	EventPlay     EventType = "play"
	EventPause    EventType = "pause"
	EventSkip     EventType = "skip"
	EventLike     EventType = "like"
	EventUnlike   EventType = "unlike"
	EventSeek     EventType = "seek"
	EventComplete EventType = "complete"
)

// Event is one row of a user's listening history. The history is
// append-only and ordered by timestamp per user; this package consumes it
// read-only.
type Event struct {
	UserID           string
	TrackID          string
	Type             EventType
	ListenedDuration float64 // seconds
	Timestamp        time.Time
}
